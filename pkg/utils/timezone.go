package utils

import (
	"strings"
	"time"
)

var (
	// TaipeiLocation 台湾时区 (UTC+8)，PTT 的发文时间没有时区信息，按这个解析
	TaipeiLocation *time.Location
)

func init() {
	var err error
	TaipeiLocation, err = time.LoadLocation("Asia/Taipei")
	if err != nil {
		// 如果加载失败，使用固定偏移量 UTC+8
		TaipeiLocation = time.FixedZone("CST", 8*60*60)
	}
}

// 不带时区的格式按台北时间解释
var localLayouts = []string{
	time.ANSIC, // PTT: "Mon Jan  2 15:04:05 2006"
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParsePublishTime 解析文章的发布时间字符串
// 依次尝试 RFC3339 (Dcard) 和 PTT 的 ANSIC 格式；都失败时 ok=false
func ParsePublishTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, TaipeiLocation); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
