package objects

import (
	"time"

	"github.com/iceymoss/board-crawler/internal/core"
)

// Article 对应数据库表 articles
// 只插入不更新，(title, url, source) 唯一
type Article struct {
	// ID 主键
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id" db:"id"`

	// 标题
	Title string `gorm:"type:varchar(255);not null;index:idx_title;uniqueIndex:idx_article_identity,priority:1" json:"title" db:"title"`

	// 原文链接
	URL string `gorm:"column:url;type:varchar(255);not null;uniqueIndex:idx_article_identity,priority:2" json:"url" db:"url"`

	// 发布时间，保留来源的原始字符串
	PublishTime string `gorm:"type:varchar(64);index:idx_publish_time" json:"publish_time" db:"publish_time"`

	// 来源标签 (例如: PTT-Gossiping, Dcard-funny)
	Source string `gorm:"type:varchar(64);not null;index:idx_source;uniqueIndex:idx_article_identity,priority:3" json:"source" db:"source"`

	Author  string `gorm:"type:varchar(128)" json:"author" db:"author"`
	Content string `gorm:"type:text" json:"content" db:"content"`

	// 同一批次所有文章共用的词频快照 (JSON)
	WordFreq string `gorm:"type:text" json:"word_freq" db:"word_freq"`

	// 创建时间
	// autoCreateTime 会在创建时自动填入当前时间
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at" db:"created_at"`
}

// TableName 指定表名
func (Article) TableName() string {
	return "articles"
}

// NewArticle 由抓取结果构造记录
func NewArticle(a core.Article, wordFreq string) *Article {
	return &Article{
		Title:       a.Title,
		URL:         a.URL,
		PublishTime: a.PublishTime,
		Source:      a.Source,
		Author:      a.Author,
		Content:     a.Content,
		WordFreq:    wordFreq,
	}
}
