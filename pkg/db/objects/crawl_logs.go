package objects

import "time"

const (
	CrawlStatusRunning = 0
	CrawlStatusSuccess = 1
	CrawlStatusFailed  = 2
)

// CrawlLog 对应 crawl_logs 表，每次抓取入库记一条
type CrawlLog struct {
	ID         uint       `gorm:"primarykey" json:"id"`
	Source     string     `gorm:"index;size:32" json:"source"`
	Board      string     `gorm:"size:64" json:"board"`
	Pages      int        `json:"pages"`
	Status     int        `json:"status"` // 0 Running, 1 Success, 2 Failed
	Fetched    int        `json:"fetched"`
	NewCount   int        `json:"new_count"`
	DupCount   int        `json:"dup_count"`
	ErrCount   int        `json:"err_count"`
	ErrorMsg   string     `gorm:"type:text" json:"error_msg"`
	DurationMs int64      `json:"duration_ms"`
	StartTime  time.Time  `json:"start_time"`
	EndTime    *time.Time `json:"end_time"`
}

func (CrawlLog) TableName() string {
	return "crawl_logs"
}
