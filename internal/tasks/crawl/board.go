package crawl

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/iceymoss/board-crawler/internal/core"
	"github.com/iceymoss/board-crawler/pkg/logger"
)

// Name 任务名，配置文件 jobs[].name 使用
const Name = "crawler:board"

// Crawler 由 crawler.Service 实现
type Crawler interface {
	Crawl(ctx context.Context, source, board string, pages int) (core.SaveResult, error)
}

// BoardParams 任务参数
type BoardParams struct {
	Source string `json:"source"`
	Board  string `json:"board"`
	Pages  int    `json:"pages"`
}

// BoardTask 定时抓取一个看板并入库
type BoardTask struct {
	svc Crawler

	mu   sync.Mutex
	last *core.SaveResult
}

// NewCreator 每个调度任务拿到自己的实例
func NewCreator(svc Crawler) core.TaskCreator {
	return func() core.Task {
		return &BoardTask{svc: svc}
	}
}

func (t *BoardTask) Identifier() string {
	return Name
}

func (t *BoardTask) Run(ctx context.Context, params map[string]any) error {
	p, err := ParseParams(params)
	if err != nil {
		return err
	}

	logger.Info("🕷️ [Task] crawl board",
		zap.String("source", p.Source),
		zap.String("board", p.Board),
		zap.Int("pages", p.Pages))

	res, err := t.svc.Crawl(ctx, p.Source, p.Board, p.Pages)
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.last = &res
	t.mu.Unlock()
	return nil
}

// LastResult 最近一次成功执行的入库结果
func (t *BoardTask) LastResult() any {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.last == nil {
		return nil
	}
	return *t.last
}

// ParseParams 参数来自 YAML，数字可能是 int、float64 或字符串
func ParseParams(params map[string]any) (BoardParams, error) {
	p := BoardParams{Source: "ptt"}
	if v, ok := params["source"]; ok {
		p.Source = fmt.Sprint(v)
	}
	if v, ok := params["board"]; ok {
		p.Board = fmt.Sprint(v)
	}
	if v, ok := params["pages"]; ok {
		n, err := toInt(v)
		if err != nil {
			return p, fmt.Errorf("invalid pages %v: %w", v, err)
		}
		p.Pages = n
	}
	return p, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		return strconv.Atoi(n)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}
