package core

import "context"

// UnknownAuthor 取不到作者时使用的占位值
const UnknownAuthor = "unknown"

// Article 规范化之后的一篇文章，与来源无关
type Article struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	PublishTime string `json:"publish_time"` // 来源原样的时间字符串，可能为空
	Source      string `json:"source"`       // 来源标签，如 "PTT-Gossiping"、"Dcard-funny"
	Author      string `json:"author"`
	Content     string `json:"content"`
}

// RawItem 列表页上的一条记录，只对产生它的 Adapter 有意义
type RawItem struct {
	Ref   string // PTT 为文章路径，Dcard 为帖子 ID
	Title string
	Link  string
}

// Adapter 单个论坛来源的抓取适配器
type Adapter interface {
	// Name 来源名称 ("PTT" / "Dcard")
	Name() string

	// FetchPage 抓取第 page 页 (从 0 开始) 的列表
	// 列表为空时 hasMore=false，表示没有更多页面，不算错误
	FetchPage(ctx context.Context, board string, page int) (items []RawItem, hasMore bool, err error)

	// Normalize 抓取单条记录的详情并转成 Article
	Normalize(ctx context.Context, board string, item RawItem) (Article, error)
}

// SaveResult 一次批量保存的结果
type SaveResult struct {
	New       int `json:"new"`
	Duplicate int `json:"duplicate"`
	Error     int `json:"error"`
}

// Total 本次尝试保存的文章数
func (r SaveResult) Total() int {
	return r.New + r.Duplicate + r.Error
}
