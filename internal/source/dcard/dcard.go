// Package dcard Dcard 看板的抓取适配器，走站点的 JSON 接口
package dcard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/iceymoss/board-crawler/internal/core"
	"github.com/iceymoss/board-crawler/pkg/errors"
	"github.com/iceymoss/board-crawler/pkg/httpclient"
	"github.com/iceymoss/board-crawler/pkg/logger"
	"github.com/iceymoss/board-crawler/pkg/xerr"
)

const (
	Name         = "Dcard"
	DefaultBoard = "funny"
	BaseURL      = "https://www.dcard.tw"

	// PageSize 每页帖子数
	PageSize = 30

	anonymousAuthor = "匿名"
)

var (
	// 只有一张图片链接的行
	imageLine = regexp.MustCompile(`(?i)^\s*https?://\S+\.(jpe?g|png|gif|webp)(\?\S*)?\s*$|^\s*https?://(i\.)?imgur\.com/\S+\s*$`)
)

type listPost struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type post struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	School    string `json:"school"`
	CreatedAt string `json:"createdAt"`
}

type Adapter struct {
	client  *httpclient.Client
	baseURL string // 接口地址
	siteURL string // 文章链接使用的站点地址

	mu      sync.Mutex
	cursors map[string]map[int]int64 // board -> page -> before 参数
}

type Option func(*Adapter)

// WithBaseURL 替换接口地址，测试时指向本地服务；文章链接仍使用正式站点
func WithBaseURL(u string) Option {
	return func(a *Adapter) { a.baseURL = strings.TrimRight(u, "/") }
}

func New(client *httpclient.Client, opts ...Option) *Adapter {
	a := &Adapter{
		client:  client,
		baseURL: BaseURL,
		siteURL: BaseURL,
		cursors: make(map[string]map[int]int64),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) Name() string { return Name }

// FetchPage 第 0 页不带游标，之后每页用上一页最小的帖子 ID 作为 before
func (a *Adapter) FetchPage(ctx context.Context, board string, page int) ([]core.RawItem, bool, error) {
	q := url.Values{}
	q.Set("popular", "false")
	q.Set("limit", strconv.Itoa(PageSize))
	if page > 0 {
		if before, ok := a.cursor(board, page); ok {
			q.Set("before", strconv.FormatInt(before, 10))
		}
	}
	listURL := fmt.Sprintf("%s/_api/forums/%s/posts?%s", a.baseURL, url.PathEscape(board), q.Encode())

	resp, err := a.client.Get(ctx, listURL, jsonHeader())
	if err != nil {
		return nil, false, err
	}

	var posts []listPost
	if err := json.Unmarshal(resp.Body, &posts); err != nil {
		return nil, false, errors.Wrap(xerr.TRANSIENT_FETCH, "decode post list", err)
	}

	items := make([]core.RawItem, 0, len(posts))
	var minID int64
	for _, p := range posts {
		if p.ID <= 0 {
			continue
		}
		if minID == 0 || p.ID < minID {
			minID = p.ID
		}
		id := strconv.FormatInt(p.ID, 10)
		items = append(items, core.RawItem{
			Ref:   id,
			Title: p.Title,
			Link:  a.articleURL(board, id),
		})
	}

	if len(items) == 0 {
		logger.Info("📭 [Dcard] 没有更多文章", zap.String("board", board), zap.Int("page", page+1))
		return nil, false, nil
	}

	a.setCursor(board, page+1, minID)
	return items, true, nil
}

// cursor 取第 page 页的游标；上一页没抓到时退回到已知最旧的游标
func (a *Adapter) cursor(board string, page int) (int64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	pages := a.cursors[board]
	if c, ok := pages[page]; ok {
		return c, true
	}
	var oldest int64
	for p, c := range pages {
		if p < page && (oldest == 0 || c < oldest) {
			oldest = c
		}
	}
	return oldest, oldest > 0
}

func (a *Adapter) setCursor(board string, page int, before int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cursors[board] == nil {
		a.cursors[board] = make(map[int]int64)
	}
	a.cursors[board][page] = before
}

// Normalize 通过 /_api/posts/<id> 取帖子详情
func (a *Adapter) Normalize(ctx context.Context, board string, item core.RawItem) (core.Article, error) {
	if item.Ref == "" {
		return core.Article{}, errors.New(xerr.NORMALIZE_FAILED, "empty post id")
	}

	resp, err := a.client.Get(ctx, fmt.Sprintf("%s/_api/posts/%s", a.baseURL, url.PathEscape(item.Ref)), jsonHeader())
	if err != nil {
		return core.Article{}, errors.Wrap(xerr.NORMALIZE_FAILED, "post "+item.Ref, err)
	}

	var p post
	if err := json.Unmarshal(resp.Body, &p); err != nil {
		return core.Article{}, errors.Wrap(xerr.NORMALIZE_FAILED, "decode post "+item.Ref, err)
	}

	title := strings.TrimSpace(p.Title)
	if title == "" {
		return core.Article{}, errors.New(xerr.NORMALIZE_FAILED, "post without title: "+item.Ref)
	}

	author := strings.TrimSpace(p.School)
	if author == "" {
		author = anonymousAuthor
	}

	link := item.Link
	if link == "" {
		link = a.articleURL(board, item.Ref)
	}

	return core.Article{
		Title:       title,
		URL:         link,
		PublishTime: p.CreatedAt,
		Source:      Name + "-" + board,
		Author:      author,
		Content:     CleanContent(p.Content),
	}, nil
}

func (a *Adapter) articleURL(board, id string) string {
	return fmt.Sprintf("%s/f/%s/p/%s", a.siteURL, board, id)
}

// CleanContent 去掉只有图片链接的行和结尾的签名块
func CleanContent(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if i := strings.Index(text, "\n--\n"); i >= 0 {
		text = text[:i]
	}

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if imageLine.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func jsonHeader() map[string][]string {
	return map[string][]string{"Accept": {"application/json"}}
}
