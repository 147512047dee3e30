// Package ptt PTT 看板的抓取适配器
package ptt

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/iceymoss/board-crawler/internal/core"
	"github.com/iceymoss/board-crawler/pkg/errors"
	"github.com/iceymoss/board-crawler/pkg/httpclient"
	"github.com/iceymoss/board-crawler/pkg/logger"
	"github.com/iceymoss/board-crawler/pkg/xerr"
)

const (
	Name         = "PTT"
	DefaultBoard = "Gossiping"
	BaseURL      = "https://www.ptt.cc"
)

// 签名档分隔符，之后是签名和推文
const signatureMarker = "\n--\n"

// 正文中需要去掉的系统行
var noisePrefixes = []string{
	"※ 發信站:",
	"※ 文章網址:",
	"※ 編輯:",
	"◆ From:",
}

type Adapter struct {
	client  *httpclient.Client
	baseURL string

	mu        sync.Mutex
	consented map[string]bool // 已经通过满 18 岁确认的看板
}

type Option func(*Adapter)

// WithBaseURL 替换站点地址，测试时指向本地服务
func WithBaseURL(u string) Option {
	return func(a *Adapter) { a.baseURL = strings.TrimRight(u, "/") }
}

func New(client *httpclient.Client, opts ...Option) *Adapter {
	a := &Adapter{
		client:    client,
		baseURL:   BaseURL,
		consented: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) Name() string { return Name }

// FetchPage 抓取 index<page+1>.html 上的文章列表
func (a *Adapter) FetchPage(ctx context.Context, board string, page int) ([]core.RawItem, bool, error) {
	if err := a.ensureConsent(ctx, board); err != nil {
		return nil, false, err
	}

	pageURL := fmt.Sprintf("%s/bbs/%s/index%d.html", a.baseURL, url.PathEscape(board), page+1)
	resp, err := a.client.Get(ctx, pageURL, nil)
	if err != nil {
		return nil, false, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, false, errors.Wrap(xerr.TRANSIENT_FETCH, "parse list page", err)
	}

	var items []core.RawItem
	doc.Find("div.title > a").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}
		items = append(items, core.RawItem{
			Ref:   href,
			Title: strings.TrimSpace(s.Text()),
			Link:  a.absURL(href),
		})
	})

	if len(items) == 0 {
		logger.Info("📭 [PTT] 没有更多文章", zap.String("board", board), zap.Int("page", page+1))
		return nil, false, nil
	}
	return items, true, nil
}

// ensureConsent 每个看板第一次请求时检查是否被导到 over18 页面，是的话提交确认表单
func (a *Adapter) ensureConsent(ctx context.Context, board string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.consented[board] {
		return nil
	}

	indexPath := fmt.Sprintf("/bbs/%s/index.html", board)
	resp, err := a.client.Get(ctx, a.baseURL+indexPath, nil)
	if err != nil {
		return err
	}

	if resp.URL != nil && strings.Contains(resp.URL.Path, "over18") {
		form := url.Values{
			"from": {indexPath},
			"yes":  {"yes"},
		}
		if _, err := a.client.PostForm(ctx, a.baseURL+"/ask/over18", form); err != nil {
			return err
		}
		logger.Info("🔞 [PTT] 已提交满 18 岁确认", zap.String("board", board))
	}

	a.consented[board] = true
	return nil
}

// Normalize 抓取文章页并提取作者、时间和正文
func (a *Adapter) Normalize(ctx context.Context, board string, item core.RawItem) (core.Article, error) {
	link := item.Link
	if link == "" {
		link = a.absURL(item.Ref)
	}
	if link == "" {
		return core.Article{}, errors.New(xerr.NORMALIZE_FAILED, "empty article link")
	}

	resp, err := a.client.Get(ctx, link, nil)
	if err != nil {
		return core.Article{}, errors.Wrap(xerr.NORMALIZE_FAILED, link, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return core.Article{}, errors.Wrap(xerr.NORMALIZE_FAILED, "parse article page", err)
	}

	title := strings.TrimSpace(item.Title)
	if title == "" {
		title = metaValue(doc, 2)
	}
	if title == "" {
		return core.Article{}, errors.New(xerr.NORMALIZE_FAILED, "article without title: "+link)
	}

	author, publishTime := core.UnknownAuthor, ""
	if doc.Find("span.article-meta-value").Length() >= 4 {
		author = metaValue(doc, 0)
		publishTime = metaValue(doc, 3)
	}

	return core.Article{
		Title:       title,
		URL:         link,
		PublishTime: publishTime,
		Source:      Name + "-" + board,
		Author:      author,
		Content:     extractContent(doc),
	}, nil
}

func (a *Adapter) absURL(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return a.baseURL + "/" + strings.TrimLeft(href, "/")
}

func metaValue(doc *goquery.Document, idx int) string {
	return strings.TrimSpace(doc.Find("span.article-meta-value").Eq(idx).Text())
}

// extractContent 取 #main-content 的文字，去掉头部信息、签名档之后的内容和系统行
func extractContent(doc *goquery.Document) string {
	main := doc.Find("div#main-content").First()
	if main.Length() == 0 {
		return ""
	}
	main = main.Clone()
	main.Find("div.article-metaline, div.article-metaline-right").Remove()

	return CleanContent(main.Text())
}

// CleanContent 按 PTT 的格式清理正文
func CleanContent(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if i := strings.Index(text, signatureMarker); i >= 0 {
		text = text[:i]
	}

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if isNoise(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func isNoise(line string) bool {
	for _, p := range noisePrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}
