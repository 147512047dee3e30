// Package app 按配置组装抓取服务，命令行和面板共用
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/iceymoss/board-crawler/internal/conf"
	"github.com/iceymoss/board-crawler/internal/crawler"
	"github.com/iceymoss/board-crawler/internal/repo"
	"github.com/iceymoss/board-crawler/internal/source"
	"github.com/iceymoss/board-crawler/pkg/db"
	"github.com/iceymoss/board-crawler/pkg/httpclient"
	"github.com/iceymoss/board-crawler/pkg/lock"
	"github.com/iceymoss/board-crawler/pkg/logger"
	"github.com/iceymoss/board-crawler/pkg/pacing"
	"github.com/iceymoss/board-crawler/pkg/sensitive"
	"github.com/iceymoss/board-crawler/pkg/wordfreq"
)

type App struct {
	Service *crawler.Service
	Repo    *repo.ArticleRepo
	Logs    *repo.CrawlLogRepo
	Masker  *sensitive.Masker // 未启用时为 nil
}

// Build 组装抓取服务；Redis / Mongo / 敏感词按配置启用，连不上时降级并打日志
func Build(ctx context.Context, cfg *conf.Config) (*App, error) {
	log := logger.Named("app")

	client, err := httpclient.New(httpclient.Config{
		Timeout:           cfg.Crawler.Timeout,
		UserAgent:         cfg.Crawler.UserAgent,
		RequestsPerSecond: cfg.Crawler.RequestsPerSecond,
	})
	if err != nil {
		return nil, err
	}

	analyzer, err := newAnalyzer(log, cfg.Crawler.StopWordsFile)
	if err != nil {
		return nil, err
	}

	conn, err := db.GetConn(db.Config{
		Dialect:  cfg.Store.Dialect,
		DSN:      cfg.Store.DSN,
		LogLevel: cfg.Store.LogLevel,
		NowFunc:  func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	articles, err := repo.NewArticleRepo(conn, analyzer)
	if err != nil {
		return nil, err
	}
	logs := repo.NewCrawlLogRepo(conn)

	opts := []crawler.ServiceOption{crawler.WithCrawlLogs(logs)}

	if cfg.Redis.Addr != "" {
		rdb := db.GetRedisConn(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("⚠️ Redis 不可用，使用进程内锁", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			opts = append(opts, crawler.WithLocker(lock.NewRedisLocker(rdb), cfg.Store.Dialect+"|"+cfg.Store.DSN))
			log.Info("🔒 使用 Redis 分布式锁", zap.String("addr", cfg.Redis.Addr))
		}
	}

	if cfg.Mongo.URI != "" {
		mc, err := db.GetMongoConn(ctx, cfg.Mongo.URI)
		if err != nil {
			log.Warn("⚠️ Mongo 不可用，跳过镜像", zap.Error(err))
		} else {
			opts = append(opts, crawler.WithMirror(repo.NewMirrorFromClient(mc, cfg.Mongo.Database, cfg.Mongo.Collection)))
			log.Info("🪞 已启用 Mongo 镜像", zap.String("collection", cfg.Mongo.Database+"."+cfg.Mongo.Collection))
		}
	}

	var masker *sensitive.Masker
	if cfg.Sensitive.Enable {
		masker, err = sensitive.NewMasker(cfg.Sensitive.DictPath)
		if err != nil {
			log.Warn("⚠️ 敏感词库加载失败，不做遮蔽", zap.Error(err))
			masker = nil
		}
	}

	orch := crawler.NewOrchestrator(pacing.New(cfg.Crawler.Pacing), cfg.Crawler.MaxAttempts)
	svc := crawler.NewService(crawler.SourceFactory(source.Deps{Client: client}), orch, articles, opts...)

	return &App{
		Service: svc,
		Repo:    articles,
		Logs:    logs,
		Masker:  masker,
	}, nil
}

func newAnalyzer(log *zap.Logger, stopWordsFile string) (*wordfreq.Analyzer, error) {
	seg, err := wordfreq.NewGseSegmenter()
	if err != nil {
		return nil, err
	}
	stop := wordfreq.DefaultStopWords()
	if stopWordsFile != "" {
		// 文件读不到时仍使用内置停用词
		if stop, err = wordfreq.LoadStopWords(stopWordsFile); err != nil {
			log.Warn("⚠️ 停用词文件不可用", zap.Error(err))
		}
	}
	return wordfreq.NewAnalyzer(seg, stop), nil
}

func (a *App) Close() error {
	return a.Repo.Close()
}
