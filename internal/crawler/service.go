package crawler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/iceymoss/board-crawler/internal/core"
	"github.com/iceymoss/board-crawler/internal/repo"
	"github.com/iceymoss/board-crawler/internal/source"
	"github.com/iceymoss/board-crawler/pkg/db/objects"
	"github.com/iceymoss/board-crawler/pkg/lock"
	"github.com/iceymoss/board-crawler/pkg/logger"
	"github.com/iceymoss/board-crawler/pkg/wordfreq"
)

const (
	// DefaultPages 未指定页数时抓取的页数
	DefaultPages = 5

	defaultLockKey = "articles"
	defaultLockTTL = 2 * time.Hour
)

// ArticleStore 文章库，由 repo.ArticleRepo 实现
type ArticleStore interface {
	Save(ctx context.Context, articles []core.Article) core.SaveResult
	ListAll(ctx context.Context) []objects.Article
	SearchByKeyword(ctx context.Context, keyword string) []objects.Article
	SearchBySource(ctx context.Context, source string) []objects.Article
	SearchByTimeRange(ctx context.Context, start, end time.Time) []objects.Article
	Recent(ctx context.Context, days int) []objects.Article
	Find(ctx context.Context, f repo.ArticleFilter) []objects.Article
	Statistics(ctx context.Context) repo.Statistics
	WordFrequency(ctx context.Context, source *string, days *int, topN int) wordfreq.Stats
}

// MirrorWriter 入库后的可选镜像
type MirrorWriter interface {
	UpsertBatch(ctx context.Context, articles []core.Article) (int64, error)
}

// CrawlLogWriter 记录每次抓取
type CrawlLogWriter interface {
	CreateLog(ctx context.Context, log *objects.CrawlLog) error
	UpdateLog(ctx context.Context, log *objects.CrawlLog) error
}

// AdapterFactory 按来源名创建适配器
type AdapterFactory func(name string) (core.Adapter, error)

// SourceFactory 使用 source 注册表
func SourceFactory(deps source.Deps) AdapterFactory {
	return func(name string) (core.Adapter, error) {
		return source.New(name, deps)
	}
}

type Service struct {
	adapters AdapterFactory
	orch     *Orchestrator
	store    ArticleStore
	mirror   MirrorWriter
	logs     CrawlLogWriter
	locker   lock.Locker
	lockKey  string
	lockTTL  time.Duration
	log      *zap.Logger
}

type ServiceOption func(*Service)

func WithMirror(m MirrorWriter) ServiceOption {
	return func(s *Service) { s.mirror = m }
}

func WithCrawlLogs(w CrawlLogWriter) ServiceOption {
	return func(s *Service) { s.logs = w }
}

// WithLocker key 一般取库的 DSN，同一个库的抓取互斥
func WithLocker(l lock.Locker, key string) ServiceOption {
	return func(s *Service) {
		s.locker = l
		if key != "" {
			s.lockKey = key
		}
	}
}

func NewService(adapters AdapterFactory, orch *Orchestrator, store ArticleStore, opts ...ServiceOption) *Service {
	s := &Service{
		adapters: adapters,
		orch:     orch,
		store:    store,
		locker:   lock.NewLocalLocker(),
		lockKey:  defaultLockKey,
		lockTTL:  defaultLockTTL,
		log:      logger.Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Supports 来源是否受支持，不发起网络请求
func (s *Service) Supports(sourceName string) bool {
	_, err := s.adapters(sourceName)
	return err == nil
}

// Fetch 只抓取不入库；不支持的来源在任何网络请求之前返回错误
func (s *Service) Fetch(ctx context.Context, sourceName, board string, pages int) ([]core.Article, error) {
	adapter, board, pages, err := s.prepare(sourceName, board, pages)
	if err != nil {
		return nil, err
	}
	return s.orch.Run(ctx, adapter, board, pages), nil
}

// Crawl 持有写锁，抓取后入库并同步镜像
func (s *Service) Crawl(ctx context.Context, sourceName, board string, pages int) (core.SaveResult, error) {
	adapter, board, pages, err := s.prepare(sourceName, board, pages)
	if err != nil {
		return core.SaveResult{}, err
	}

	release, err := s.locker.Acquire(ctx, s.lockKey, s.lockTTL)
	if err != nil {
		return core.SaveResult{}, err
	}
	defer release()

	entry := s.startLog(ctx, adapter.Name(), board, pages)

	articles := s.orch.Run(ctx, adapter, board, pages)

	// 中途取消时已抓到的文章照样入库
	saveCtx := context.WithoutCancel(ctx)
	res := s.store.Save(saveCtx, articles)

	if s.mirror != nil && len(articles) > 0 {
		if n, err := s.mirror.UpsertBatch(saveCtx, articles); err != nil {
			s.log.Warn("⚠️ [Mirror] 同步失败", zap.Error(err))
		} else {
			s.log.Info("🪞 [Mirror] 同步完成", zap.Int64("inserted", n))
		}
	}

	s.finishLog(ctx, entry, len(articles), res, ctx.Err())
	s.log.Info("✅ [Service] 抓取结束",
		zap.String("source", adapter.Name()),
		zap.String("board", board),
		zap.Int("saved", res.Total()),
		zap.Int("new", res.New))
	return res, nil
}

func (s *Service) prepare(sourceName, board string, pages int) (core.Adapter, string, int, error) {
	adapter, err := s.adapters(sourceName)
	if err != nil {
		return nil, "", 0, err
	}
	if board == "" {
		board = source.DefaultBoard(sourceName)
	}
	if pages < 1 {
		pages = DefaultPages
	}
	return adapter, board, pages, nil
}

func (s *Service) startLog(ctx context.Context, sourceName, board string, pages int) *objects.CrawlLog {
	if s.logs == nil {
		return nil
	}
	entry := &objects.CrawlLog{
		Source:    sourceName,
		Board:     board,
		Pages:     pages,
		Status:    objects.CrawlStatusRunning,
		StartTime: time.Now(),
	}
	if err := s.logs.CreateLog(ctx, entry); err != nil {
		s.log.Warn("⚠️ [Service] 写抓取日志失败", zap.Error(err))
		return nil
	}
	return entry
}

func (s *Service) finishLog(ctx context.Context, entry *objects.CrawlLog, fetched int, res core.SaveResult, runErr error) {
	if entry == nil {
		return
	}
	end := time.Now()
	entry.EndTime = &end
	entry.DurationMs = end.Sub(entry.StartTime).Milliseconds()
	entry.Fetched = fetched
	entry.NewCount = res.New
	entry.DupCount = res.Duplicate
	entry.ErrCount = res.Error
	entry.Status = objects.CrawlStatusSuccess
	if runErr != nil {
		entry.Status = objects.CrawlStatusFailed
		entry.ErrorMsg = runErr.Error()
	}
	// 抓取被取消时仍然要把结果写回去
	if err := s.logs.UpdateLog(context.WithoutCancel(ctx), entry); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Warn("⚠️ [Service] 更新抓取日志失败", zap.Error(err))
	}
}

func (s *Service) ListAll(ctx context.Context) []objects.Article {
	return s.store.ListAll(ctx)
}

func (s *Service) SearchByKeyword(ctx context.Context, keyword string) []objects.Article {
	return s.store.SearchByKeyword(ctx, keyword)
}

func (s *Service) SearchBySource(ctx context.Context, sourceName string) []objects.Article {
	return s.store.SearchBySource(ctx, sourceName)
}

func (s *Service) SearchByTimeRange(ctx context.Context, start, end time.Time) []objects.Article {
	return s.store.SearchByTimeRange(ctx, start, end)
}

// Recent 最近 days 天发布的文章
func (s *Service) Recent(ctx context.Context, days int) []objects.Article {
	return s.store.Recent(ctx, days)
}

// Find 关键字、来源、天数组合查询
func (s *Service) Find(ctx context.Context, f repo.ArticleFilter) []objects.Article {
	return s.store.Find(ctx, f)
}

func (s *Service) Statistics(ctx context.Context) repo.Statistics {
	return s.store.Statistics(ctx)
}

func (s *Service) WordFrequency(ctx context.Context, sourceName *string, days *int, topN int) wordfreq.Stats {
	return s.store.WordFrequency(ctx, sourceName, days, topN)
}
