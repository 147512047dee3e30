package server

import (
	"context"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/iceymoss/board-crawler/internal/conf"
	"github.com/iceymoss/board-crawler/internal/core"
	"github.com/iceymoss/board-crawler/internal/engine"
	"github.com/iceymoss/board-crawler/internal/repo"
	"github.com/iceymoss/board-crawler/internal/tasks"
	"github.com/iceymoss/board-crawler/pkg/constants"
	"github.com/iceymoss/board-crawler/pkg/db/objects"
	xerrors "github.com/iceymoss/board-crawler/pkg/errors"
	"github.com/iceymoss/board-crawler/pkg/logger"
	"github.com/iceymoss/board-crawler/pkg/sensitive"
	"github.com/iceymoss/board-crawler/pkg/wordfreq"
	"github.com/iceymoss/board-crawler/pkg/xerr"
)

const defaultLimit = 100

// CrawlService 由 crawler.Service 实现
type CrawlService interface {
	Supports(source string) bool
	Crawl(ctx context.Context, source, board string, pages int) (core.SaveResult, error)
	Find(ctx context.Context, f repo.ArticleFilter) []objects.Article
	Statistics(ctx context.Context) repo.Statistics
	WordFrequency(ctx context.Context, source *string, days *int, topN int) wordfreq.Stats
}

// CrawlLogReader 抓取记录
type CrawlLogReader interface {
	ListRecent(ctx context.Context, limit int) ([]*objects.CrawlLog, error)
}

// Deps 面板依赖，Masker / Logs / StaticFS 可为空
type Deps struct {
	Service  CrawlService
	Masker   *sensitive.Masker
	Logs     CrawlLogReader
	StaticFS fs.FS
}

type Server struct {
	engine    *gin.Engine
	scheduler *engine.Scheduler
	deps      Deps
}

type crawlRequest struct {
	Source string `json:"source" binding:"required"`
	Board  string `json:"board"`
	Pages  int    `json:"pages"`
}

func NewServer(cfg *conf.Config, deps Deps) *Server {
	scheduler := engine.NewScheduler()

	tasks.ApplyAutoJobs(scheduler)

	// 注册所有配置型任务
	for _, job := range cfg.Jobs {
		if !job.Enable {
			continue
		}
		err := scheduler.AddJob(job.Cron, job.Name, job.JobName(), job.Params, string(constants.TaskTypeYAML))
		if err != nil {
			logger.Warn("⚠️ Failed to schedule", zap.String("job", job.JobName()), zap.Error(err))
		} else {
			logger.Info("✅ Job scheduled", zap.String("job", job.JobName()), zap.String("cron", job.Cron))
		}
	}

	s := &Server{scheduler: scheduler, deps: deps}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), accessLog())

	api := router.Group("/api")
	{
		api.GET("/articles", s.listArticles)
		api.GET("/stats", s.stats)
		api.GET("/wordfreq", s.wordFreq)
		api.GET("/crawl-logs", s.crawlLogs)
		api.POST("/crawl", s.crawl)

		api.GET("/tasks", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"data": s.scheduler.Stats.GetAll()})
		})

		api.POST("/tasks/:name/run", func(c *gin.Context) {
			name := c.Param("name")
			if err := s.scheduler.ManualRun(name); err != nil {
				fail(c, http.StatusBadRequest, xerr.ErrNotFound, err.Error())
				return
			}
			c.JSON(http.StatusOK, gin.H{"message": "Triggered"})
		})
	}

	router.NoRoute(func(c *gin.Context) {
		// 为了安全，防止 API 404 返回了 HTML 页面
		if strings.HasPrefix(c.Request.URL.Path, "/api") || s.deps.StaticFS == nil {
			fail(c, http.StatusNotFound, xerr.ErrNotFound, "API not found")
			return
		}

		http.FileServer(http.FS(s.deps.StaticFS)).ServeHTTP(c.Writer, c.Request)
	})

	return router
}

// listArticles 返回入库记录 (含 id / word_freq / created_at)，total 为截断前的数量
func (s *Server) listArticles(c *gin.Context) {
	days, err := optionalInt(c, "days")
	if err != nil {
		fail(c, http.StatusBadRequest, xerr.ErrInvalidInput, "invalid days")
		return
	}
	limit, err := optionalInt(c, "limit")
	if err != nil {
		fail(c, http.StatusBadRequest, xerr.ErrInvalidInput, "invalid limit")
		return
	}

	list := s.deps.Service.Find(c.Request.Context(), repo.ArticleFilter{
		Keyword: strings.TrimSpace(c.Query("keyword")),
		Source:  strings.TrimSpace(c.Query("source")),
		Days:    days,
	})

	total := len(list)
	n := defaultLimit
	if limit != nil && *limit > 0 {
		n = *limit
	}
	if len(list) > n {
		list = list[:n]
	}

	c.JSON(http.StatusOK, gin.H{"data": s.deps.Masker.MaskArticles(list), "total": total})
}

func (s *Server) stats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.deps.Service.Statistics(c.Request.Context())})
}

func (s *Server) wordFreq(c *gin.Context) {
	var source *string
	if v := strings.TrimSpace(c.Query("source")); v != "" {
		source = &v
	}
	days, err := optionalInt(c, "days")
	if err != nil {
		fail(c, http.StatusBadRequest, xerr.ErrInvalidInput, "invalid days")
		return
	}
	top := 10
	if v, err := optionalInt(c, "top"); err != nil {
		fail(c, http.StatusBadRequest, xerr.ErrInvalidInput, "invalid top")
		return
	} else if v != nil {
		top = *v
	}

	c.JSON(http.StatusOK, gin.H{"data": s.deps.Service.WordFrequency(c.Request.Context(), source, days, top)})
}

func (s *Server) crawlLogs(c *gin.Context) {
	if s.deps.Logs == nil {
		c.JSON(http.StatusOK, gin.H{"data": []*objects.CrawlLog{}})
		return
	}
	list, err := s.deps.Logs.ListRecent(c.Request.Context(), 50)
	if err != nil {
		fail(c, http.StatusInternalServerError, xerr.ErrInternalServer, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

// crawl 校验来源后在后台执行，结果见 /api/crawl-logs
func (s *Server) crawl(c *gin.Context) {
	var req crawlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, xerr.ErrMissingParameter, err.Error())
		return
	}
	if !s.deps.Service.Supports(req.Source) {
		fail(c, http.StatusBadRequest, xerr.UNSUPPORTED_SOURCE, "unsupported source: "+req.Source)
		return
	}

	go func() {
		res, err := s.deps.Service.Crawl(context.Background(), req.Source, req.Board, req.Pages)
		if err != nil {
			logger.Error("❌ [API] crawl failed",
				zap.String("source", req.Source),
				zap.Int("code", xerrors.Code(err)),
				zap.Error(err))
			return
		}
		logger.Info("✅ [API] crawl finished",
			zap.String("source", req.Source),
			zap.Int("new", res.New),
			zap.Int("duplicate", res.Duplicate),
			zap.Int("error", res.Error))
	}()

	c.JSON(http.StatusAccepted, gin.H{"message": "Triggered"})
}

// Scheduler 面板使用的调度器
func (s *Server) Scheduler() *engine.Scheduler {
	return s.scheduler
}

// Handler 测试用
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Run(addr string) error {
	// 启动任务调度器
	s.scheduler.Start()
	defer s.scheduler.Stop()

	// 启动 web server
	return s.engine.Run(addr)
}

func fail(c *gin.Context, status, code int, msg string) {
	c.JSON(status, gin.H{"code": code, "error": msg})
}

func optionalInt(c *gin.Context, key string) (*int, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func accessLog() gin.HandlerFunc {
	log := logger.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
