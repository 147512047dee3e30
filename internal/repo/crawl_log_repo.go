package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/iceymoss/board-crawler/pkg/db/objects"
)

type CrawlLogRepo struct {
	db *gorm.DB
}

// NewCrawlLogRepo 表由 NewArticleRepo 迁移
func NewCrawlLogRepo(conn *gorm.DB) *CrawlLogRepo { return &CrawlLogRepo{db: conn} }

// CreateLog 开始记录日志
func (r *CrawlLogRepo) CreateLog(ctx context.Context, log *objects.CrawlLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// UpdateLog 抓取结束更新日志
func (r *CrawlLogRepo) UpdateLog(ctx context.Context, log *objects.CrawlLog) error {
	return r.db.WithContext(ctx).Save(log).Error
}

// ListRecent 最近 limit 条记录，新的在前
func (r *CrawlLogRepo) ListRecent(ctx context.Context, limit int) ([]*objects.CrawlLog, error) {
	if limit <= 0 {
		limit = 20
	}
	var list []*objects.CrawlLog
	err := r.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&list).Error
	return list, err
}
