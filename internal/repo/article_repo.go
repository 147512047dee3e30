package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/iceymoss/board-crawler/internal/core"
	"github.com/iceymoss/board-crawler/pkg/db"
	"github.com/iceymoss/board-crawler/pkg/db/objects"
	"github.com/iceymoss/board-crawler/pkg/logger"
	"github.com/iceymoss/board-crawler/pkg/utils"
	"github.com/iceymoss/board-crawler/pkg/wordfreq"
)

// SnapshotTopN 入库时词频快照保留的词数
const SnapshotTopN = 100

const articleColumns = "id, title, url, publish_time, source, author, content, word_freq, created_at"

// Statistics 库内统计
type Statistics struct {
	TotalArticles int64            `json:"total_articles"`
	SourceCount   map[string]int64 `json:"source_count"`
	Last24h       int64            `json:"last_24h"`
}

// ArticleFilter 组合查询条件
// Keyword > Source > 全部 决定主查询，其余条件在结果上再过滤；Days 为 nil 或 <= 0 表示不限时间
type ArticleFilter struct {
	Keyword string
	Source  string
	Days    *int
}

// ArticleRepo 文章的持久化和查询
// 写入走 gorm，统计和列表查询走 sqlx；所有读操作出错时返回零值并记日志
type ArticleRepo struct {
	db       *gorm.DB
	rx       *sqlx.DB
	analyzer *wordfreq.Analyzer
	now      func() time.Time
	log      *zap.Logger
}

type Option func(*ArticleRepo)

// WithClock 替换计算 last_24h 和时间窗口用的时钟
func WithClock(now func() time.Time) Option {
	return func(r *ArticleRepo) { r.now = now }
}

// NewArticleRepo 自动迁移 articles / crawl_logs 表
func NewArticleRepo(conn *gorm.DB, analyzer *wordfreq.Analyzer, opts ...Option) (*ArticleRepo, error) {
	if err := conn.AutoMigrate(&objects.Article{}, &objects.CrawlLog{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	rx, err := db.Sqlx(conn)
	if err != nil {
		return nil, err
	}
	r := &ArticleRepo{
		db:       conn,
		rx:       rx,
		analyzer: analyzer,
		now:      time.Now,
		log:      logger.Named("repo"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Save 批量保存
// 先对整批正文算一次词频快照，所有行共用；每篇用 ON CONFLICT DO NOTHING 插入，影响 0 行即视为重复
func (r *ArticleRepo) Save(ctx context.Context, articles []core.Article) core.SaveResult {
	var res core.SaveResult
	if len(articles) == 0 {
		return res
	}

	texts := make([]string, 0, len(articles))
	for _, a := range articles {
		texts = append(texts, a.Content)
	}
	snapshot, err := json.Marshal(r.analyzer.Analyze(texts, SnapshotTopN).Map())
	if err != nil {
		snapshot = []byte("{}")
	}

	for _, a := range articles {
		rec := objects.NewArticle(a, string(snapshot))
		tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(rec)
		switch {
		case tx.Error != nil:
			res.Error++
			r.log.Error("❌ [Repo] 保存文章失败", zap.String("title", a.Title), zap.Error(tx.Error))
		case tx.RowsAffected == 0:
			res.Duplicate++
		default:
			res.New++
		}
	}

	r.log.Info("💾 [Repo] 保存完成",
		zap.Int("new", res.New),
		zap.Int("duplicate", res.Duplicate),
		zap.Int("error", res.Error))
	return res
}

// ListAll 按 publish_time 字符串倒序，返回完整的入库记录
func (r *ArticleRepo) ListAll(ctx context.Context) []objects.Article {
	return r.selectArticles(ctx, "listAll", "SELECT "+articleColumns+" FROM articles ORDER BY publish_time DESC")
}

// SearchByKeyword 标题或正文包含关键字
func (r *ArticleRepo) SearchByKeyword(ctx context.Context, keyword string) []objects.Article {
	like := "%" + keyword + "%"
	return r.selectArticles(ctx, "searchByKeyword",
		"SELECT "+articleColumns+" FROM articles WHERE title LIKE ? OR content LIKE ? ORDER BY publish_time DESC",
		like, like)
}

// SearchBySource 精确匹配来源标签，或按站点前缀匹配 (ptt 匹配所有 PTT-*)，不区分大小写
func (r *ArticleRepo) SearchBySource(ctx context.Context, source string) []objects.Article {
	src := strings.ToLower(strings.TrimSpace(source))
	if src == "" {
		return []objects.Article{}
	}
	return r.selectArticles(ctx, "searchBySource",
		"SELECT "+articleColumns+" FROM articles WHERE LOWER(source) = ? OR LOWER(source) LIKE ? ORDER BY publish_time DESC",
		src, src+"-%")
}

// SearchByTimeRange 发布时间在 [start, end] 内，时间无法解析的文章不返回
func (r *ArticleRepo) SearchByTimeRange(ctx context.Context, start, end time.Time) []objects.Article {
	all := r.ListAll(ctx)
	out := make([]objects.Article, 0, len(all))
	for _, a := range all {
		t, ok := utils.ParsePublishTime(a.PublishTime)
		if !ok || t.Before(start) || t.After(end) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Recent 最近 days 天发布的文章，days <= 0 不限时间
func (r *ArticleRepo) Recent(ctx context.Context, days int) []objects.Article {
	return r.filterDays(r.ListAll(ctx), &days)
}

// Find 按组合条件查询，时间窗口与 Recent / WordFrequency 一致
func (r *ArticleRepo) Find(ctx context.Context, f ArticleFilter) []objects.Article {
	keyword := strings.TrimSpace(f.Keyword)
	source := strings.TrimSpace(f.Source)

	var list []objects.Article
	switch {
	case keyword != "":
		list = r.SearchByKeyword(ctx, keyword)
		list = filterSource(list, source)
	case source != "":
		list = r.SearchBySource(ctx, source)
	default:
		list = r.ListAll(ctx)
	}
	return r.filterDays(list, f.Days)
}

// Statistics 总数、各来源数量和最近 24 小时入库数
func (r *ArticleRepo) Statistics(ctx context.Context) Statistics {
	empty := Statistics{SourceCount: map[string]int64{}}

	var st Statistics
	if err := r.rx.GetContext(ctx, &st.TotalArticles, "SELECT COUNT(*) FROM articles"); err != nil {
		r.log.Error("❌ [Repo] statistics failed", zap.Error(err))
		return empty
	}

	var groups []struct {
		Source string `db:"source"`
		Count  int64  `db:"cnt"`
	}
	if err := r.rx.SelectContext(ctx, &groups, "SELECT source, COUNT(*) AS cnt FROM articles GROUP BY source"); err != nil {
		r.log.Error("❌ [Repo] statistics failed", zap.Error(err))
		return empty
	}
	st.SourceCount = make(map[string]int64, len(groups))
	for _, g := range groups {
		st.SourceCount[g.Source] = g.Count
	}

	since := r.now().UTC().Add(-24 * time.Hour)
	err := r.db.WithContext(ctx).Model(&objects.Article{}).Where("created_at >= ?", since).Count(&st.Last24h).Error
	if err != nil {
		r.log.Error("❌ [Repo] statistics failed", zap.Error(err))
		return empty
	}
	return st
}

// WordFrequency 按来源和最近天数过滤后重新统计词频
// source 为 nil 表示不过滤；days 为 nil 或 <= 0 表示不限时间，否则只保留发布时间可解析且不早于窗口起点的文章
func (r *ArticleRepo) WordFrequency(ctx context.Context, source *string, days *int, topN int) wordfreq.Stats {
	query := "SELECT content, publish_time FROM articles"
	var args []any
	if source != nil && *source != "" {
		query += " WHERE source = ?"
		args = append(args, *source)
	}

	var rows []struct {
		Content     string `db:"content"`
		PublishTime string `db:"publish_time"`
	}
	if err := r.rx.SelectContext(ctx, &rows, r.rx.Rebind(query), args...); err != nil {
		r.log.Error("❌ [Repo] word frequency failed", zap.Error(err))
		return r.analyzer.Analyze(nil, topN)
	}

	var since time.Time
	limited := hasWindow(days)
	if limited {
		since = r.windowStart(*days)
	}

	texts := make([]string, 0, len(rows))
	for _, row := range rows {
		if limited && !inWindow(row.PublishTime, since) {
			continue
		}
		texts = append(texts, row.Content)
	}
	return r.analyzer.Analyze(texts, topN)
}

// windowStart 最近 days 天的起点，按台北时间取到当天零点
func (r *ArticleRepo) windowStart(days int) time.Time {
	t := r.now().In(utils.TaipeiLocation).AddDate(0, 0, -days)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, utils.TaipeiLocation)
}

func (r *ArticleRepo) filterDays(list []objects.Article, days *int) []objects.Article {
	if !hasWindow(days) {
		return list
	}
	since := r.windowStart(*days)
	out := make([]objects.Article, 0, len(list))
	for _, a := range list {
		if inWindow(a.PublishTime, since) {
			out = append(out, a)
		}
	}
	return out
}

func hasWindow(days *int) bool {
	return days != nil && *days > 0
}

// inWindow 发布时间可解析且不早于 since
func inWindow(publishTime string, since time.Time) bool {
	t, ok := utils.ParsePublishTime(publishTime)
	return ok && !t.Before(since)
}

// filterSource 与 SearchBySource 相同的匹配规则
func filterSource(list []objects.Article, source string) []objects.Article {
	if source == "" {
		return list
	}
	src := strings.ToLower(source)
	out := make([]objects.Article, 0, len(list))
	for _, a := range list {
		tag := strings.ToLower(a.Source)
		if tag == src || strings.HasPrefix(tag, src+"-") {
			out = append(out, a)
		}
	}
	return out
}

func (r *ArticleRepo) selectArticles(ctx context.Context, op, query string, args ...any) []objects.Article {
	var rows []objects.Article
	if err := r.rx.SelectContext(ctx, &rows, r.rx.Rebind(query), args...); err != nil {
		r.log.Error("❌ [Repo] query failed", zap.String("op", op), zap.Error(err))
		return []objects.Article{}
	}
	if rows == nil {
		rows = []objects.Article{}
	}
	return rows
}

// Close 关闭底层连接
func (r *ArticleRepo) Close() error {
	pool, err := r.db.DB()
	if err != nil {
		return err
	}
	return pool.Close()
}
