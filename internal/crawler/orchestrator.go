// Package crawler 抓取流程：按页抓取列表、重试、逐篇规范化，以及对外的抓取服务
package crawler

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/iceymoss/board-crawler/internal/core"
	"github.com/iceymoss/board-crawler/pkg/logger"
	"github.com/iceymoss/board-crawler/pkg/pacing"
)

// DefaultMaxAttempts 每页最多尝试次数
const DefaultMaxAttempts = 3

// Orchestrator 单线程顺序抓取一个看板的若干页
type Orchestrator struct {
	pacer       pacing.Pacer
	maxAttempts int
}

func NewOrchestrator(p pacing.Pacer, maxAttempts int) *Orchestrator {
	if p == nil {
		p = pacing.NoWait{}
	}
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Orchestrator{pacer: p, maxAttempts: maxAttempts}
}

// Run 从第 0 页开始最多抓 maxPages 页，返回成功规范化的文章 (不去重)
// 某页重试用尽后放弃并继续下一页；列表为空时提前结束
func (o *Orchestrator) Run(ctx context.Context, adapter core.Adapter, board string, maxPages int) []core.Article {
	log := logger.Named("crawler").With(zap.String("source", adapter.Name()), zap.String("board", board))
	articles := make([]core.Article, 0)

	for page := 0; page < maxPages; page++ {
		if err := ctx.Err(); err != nil {
			log.Warn("⏹️ [Crawler] 抓取被取消", zap.Int("page", page+1), zap.Error(err))
			break
		}

		log.Info("🕷️ [Crawler] 正在抓取", zap.Int("page", page+1))
		items, hasMore, ok := o.fetchWithRetry(ctx, log, adapter, board, page)
		if !ok {
			log.Error("❌ [Crawler] 放弃该页", zap.Int("page", page+1), zap.Int("attempts", o.maxAttempts))
			continue
		}
		if !hasMore || len(items) == 0 {
			break
		}

		for _, item := range items {
			art, err := safeNormalize(ctx, adapter, board, item)
			if err != nil {
				log.Warn("⏭️ [Crawler] 跳过文章", zap.String("ref", item.Ref), zap.Error(err))
				continue
			}
			articles = append(articles, art)
			log.Debug("📄 [Crawler] 找到文章", zap.String("title", art.Title))
			_ = o.pacer.AfterItem(ctx)
		}

		_ = o.pacer.AfterPage(ctx)
	}

	log.Info("🎉 [Crawler] 抓取完成", zap.Int("articles", len(articles)))
	return articles
}

// fetchWithRetry 最多尝试 maxAttempts 次，两次尝试之间按次数退避
func (o *Orchestrator) fetchWithRetry(ctx context.Context, log *zap.Logger, adapter core.Adapter, board string, page int) ([]core.RawItem, bool, bool) {
	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		items, hasMore, err := safeFetch(ctx, adapter, board, page)
		if err == nil {
			return items, hasMore, true
		}
		log.Warn("⚠️ [Crawler] 访问失败",
			zap.Int("page", page+1),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", o.maxAttempts),
			zap.Error(err))

		if attempt < o.maxAttempts {
			if err := o.pacer.Backoff(ctx, attempt); err != nil {
				return nil, false, false
			}
		}
	}
	return nil, false, false
}

func safeFetch(ctx context.Context, adapter core.Adapter, board string, page int) (items []core.RawItem, hasMore bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fetch page panic: %v", r)
		}
	}()
	return adapter.FetchPage(ctx, board, page)
}

func safeNormalize(ctx context.Context, adapter core.Adapter, board string, item core.RawItem) (art core.Article, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("normalize panic: %v", r)
		}
	}()
	return adapter.Normalize(ctx, board, item)
}
