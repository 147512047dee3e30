// Package httpclient 抓取用的 HTTP 客户端：浏览器请求头、超时、Cookie 以及令牌桶限速。
package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"

	"github.com/iceymoss/board-crawler/pkg/errors"
	"github.com/iceymoss/board-crawler/pkg/pacing"
	"github.com/iceymoss/board-crawler/pkg/xerr"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultTimeout   = 15 * time.Second
	defaultMaxBytes  = 10 * 1024 * 1024
)

// Config 客户端配置，零值字段使用默认值
type Config struct {
	Timeout           time.Duration
	UserAgent         string
	RequestsPerSecond float64 // <= 0 不限速
	MaxBytes          int64
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = defaultMaxBytes
	}
}

// Response 已读完的响应
type Response struct {
	StatusCode int
	Body       []byte
	URL        *url.URL // 跟随重定向之后的最终地址
}

type Client struct {
	hc      *http.Client
	limiter *rate.Limiter
	cfg     Config
}

// New 创建客户端，自带 Cookie 容器，同一个 Client 的请求共享 Cookie
func New(cfg Config) (*Client, error) {
	cfg.defaults()
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	return &Client{
		hc: &http.Client{
			Timeout: cfg.Timeout,
			Jar:     jar,
		},
		limiter: pacing.NewLimiter(cfg.RequestsPerSecond, 1),
		cfg:     cfg,
	}, nil
}

// Get 发起 GET，非 2xx 返回 TRANSIENT_FETCH 错误
func (c *Client) Get(ctx context.Context, rawURL string, header http.Header) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return c.Do(req)
}

// PostForm 以 application/x-www-form-urlencoded 提交表单
func (c *Client) PostForm(ctx context.Context, rawURL string, form url.Values) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.Do(req)
}

// Do 补齐浏览器请求头，等待限速令牌后执行请求并读完响应体
func (c *Client) Do(req *http.Request) (*Response, error) {
	c.setBrowserHeaders(req)

	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, errors.Wrap(xerr.TRANSIENT_FETCH, "rate limit wait", err)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, errors.Wrap(xerr.TRANSIENT_FETCH, req.Method+" "+req.URL.String(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxBytes))
	if err != nil {
		return nil, errors.Wrap(xerr.TRANSIENT_FETCH, "read body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Wrap(xerr.TRANSIENT_FETCH, req.URL.String(), fmt.Errorf("http %d", resp.StatusCode))
	}

	return &Response{StatusCode: resp.StatusCode, Body: body, URL: resp.Request.URL}, nil
}

func (c *Client) setBrowserHeaders(req *http.Request) {
	setDefault(req.Header, "User-Agent", c.cfg.UserAgent)
	setDefault(req.Header, "Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,application/json;q=0.8,*/*;q=0.7")
	setDefault(req.Header, "Accept-Language", "zh-TW,zh;q=0.9,en-US;q=0.8,en;q=0.7")
	setDefault(req.Header, "Connection", "keep-alive")
}

func setDefault(h http.Header, key, value string) {
	if h.Get(key) == "" {
		h.Set(key, value)
	}
}

// Cookies 当前保存的 Cookie，测试和调试用
func (c *Client) Cookies(u *url.URL) []*http.Cookie {
	return c.hc.Jar.Cookies(u)
}
