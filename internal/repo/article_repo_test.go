package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iceymoss/board-crawler/internal/core"
	"github.com/iceymoss/board-crawler/pkg/db"
	"github.com/iceymoss/board-crawler/pkg/wordfreq"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestRepo(t *testing.T) (*ArticleRepo, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 3, 10, 4, 0, 0, 0, time.UTC)}

	conn, err := db.Open(db.Config{
		Dialect:  db.DialectSQLite,
		DSN:      ":memory:",
		LogLevel: "silent",
		NowFunc:  clock.Now,
	})
	require.NoError(t, err)

	analyzer := wordfreq.NewAnalyzer(wordfreq.SegmenterFunc(strings.Fields), wordfreq.StopWords{})
	r, err := NewArticleRepo(conn, analyzer, WithClock(clock.Now))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r, clock
}

func article(i int, source, publish, content string) core.Article {
	return core.Article{
		Title:       fmt.Sprintf("title %d", i),
		URL:         fmt.Sprintf("https://example.com/%d", i),
		PublishTime: publish,
		Source:      source,
		Author:      core.UnknownAuthor,
		Content:     content,
	}
}

func TestSaveIsIdempotent(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	batch := []core.Article{
		article(1, "PTT-Test", "", "貓 狗"),
		article(2, "PTT-Test", "", "貓"),
		article(3, "Dcard-funny", "", "鳥"),
	}

	assert.Equal(t, core.SaveResult{New: 3}, r.Save(ctx, batch))
	assert.Equal(t, core.SaveResult{Duplicate: 3}, r.Save(ctx, batch))
	assert.Len(t, r.ListAll(ctx), 3)
}

func TestSaveDuplicateInsideBatch(t *testing.T) {
	r, _ := newTestRepo(t)
	a := article(1, "PTT-Test", "", "x")

	// 同标题同链接但来源不同不算重复
	b := a
	b.Source = "PTT-Other"

	res := r.Save(context.Background(), []core.Article{a, a, b})
	assert.Equal(t, core.SaveResult{New: 2, Duplicate: 1}, res)
}

func TestSaveEmptyBatch(t *testing.T) {
	r, _ := newTestRepo(t)
	assert.Equal(t, core.SaveResult{}, r.Save(context.Background(), nil))
}

func TestSaveStoresBatchSnapshot(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	r.Save(ctx, []core.Article{
		article(1, "PTT-Test", "", "貓 狗 貓"),
		article(2, "PTT-Test", "", "鳥 貓"),
	})

	var snapshots []string
	require.NoError(t, r.rx.Select(&snapshots, "SELECT word_freq FROM articles ORDER BY id"))
	require.Len(t, snapshots, 2)
	assert.Equal(t, snapshots[0], snapshots[1])
	assert.JSONEq(t, `{"貓":3,"狗":1,"鳥":1}`, snapshots[0])
}

func TestStatisticsEmptyStore(t *testing.T) {
	r, _ := newTestRepo(t)

	st := r.Statistics(context.Background())
	assert.Equal(t, int64(0), st.TotalArticles)
	assert.NotNil(t, st.SourceCount)
	assert.Empty(t, st.SourceCount)
	assert.Equal(t, int64(0), st.Last24h)
}

func TestStatistics(t *testing.T) {
	r, clock := newTestRepo(t)
	ctx := context.Background()

	r.Save(ctx, []core.Article{
		article(1, "PTT-Test", "", "a"),
		article(2, "PTT-Test", "", "b"),
	})
	clock.Advance(25 * time.Hour)
	r.Save(ctx, []core.Article{article(3, "Dcard-funny", "", "c")})

	st := r.Statistics(ctx)
	assert.Equal(t, int64(3), st.TotalArticles)
	assert.Equal(t, map[string]int64{"PTT-Test": 2, "Dcard-funny": 1}, st.SourceCount)
	assert.Equal(t, int64(1), st.Last24h)
}

func TestListAllOrder(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	r.Save(ctx, []core.Article{
		article(1, "Dcard-funny", "2024-03-01T10:00:00.000Z", "a"),
		article(2, "Dcard-funny", "2024-03-03T10:00:00.000Z", "b"),
		article(3, "Dcard-funny", "2024-03-02T10:00:00.000Z", "c"),
	})

	got := r.ListAll(ctx)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"title 2", "title 3", "title 1"}, []string{got[0].Title, got[1].Title, got[2].Title})

	// 返回完整的入库记录，同一批次共用一份词频快照
	for _, rec := range got {
		assert.NotZero(t, rec.ID)
		assert.NotEmpty(t, rec.WordFreq)
		assert.False(t, rec.CreatedAt.IsZero())
	}
	assert.Equal(t, got[0].WordFreq, got[2].WordFreq)

	var snapshot map[string]int
	require.NoError(t, json.Unmarshal([]byte(got[0].WordFreq), &snapshot))
	assert.Equal(t, map[string]int{"a": 1, "b": 1, "c": 1}, snapshot)
}

func TestSearches(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	r.Save(ctx, []core.Article{
		article(1, "PTT-Gossiping", "Fri Mar  8 18:00:00 2024", "颱風 要來了"),
		article(2, "PTT-Stock", "Sat Mar  9 09:00:00 2024", "台積電 漲停"),
		article(3, "Dcard-funny", "2024-02-01T10:00:00.000Z", "颱風 假"),
		article(4, "Dcard-funny", "", "沒有時間"),
	})

	t.Run("keyword", func(t *testing.T) {
		got := r.SearchByKeyword(ctx, "颱風")
		assert.Len(t, got, 2)

		got = r.SearchByKeyword(ctx, "title 2")
		require.Len(t, got, 1)
		assert.Equal(t, "PTT-Stock", got[0].Source)
	})

	t.Run("source", func(t *testing.T) {
		assert.Len(t, r.SearchBySource(ctx, "ptt"), 2)
		assert.Len(t, r.SearchBySource(ctx, "PTT-Stock"), 1)
		assert.Len(t, r.SearchBySource(ctx, "dcard"), 2)
		assert.Empty(t, r.SearchBySource(ctx, "pt"))
		assert.Empty(t, r.SearchBySource(ctx, ""))
	})

	t.Run("time range", func(t *testing.T) {
		start := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
		end := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
		got := r.SearchByTimeRange(ctx, start, end)
		require.Len(t, got, 2)
		assert.Equal(t, "title 2", got[0].Title)
	})

	t.Run("recent", func(t *testing.T) {
		// 时钟在 2024-03-10，最近 3 天从台北时间 03-07 零点开始
		assert.Len(t, r.Recent(ctx, 3), 2)
		// 0 天表示不限时间
		assert.Len(t, r.Recent(ctx, 0), 4)
	})

	t.Run("find", func(t *testing.T) {
		days := 3
		assert.Len(t, r.Find(ctx, ArticleFilter{Keyword: "颱風"}), 2)
		assert.Len(t, r.Find(ctx, ArticleFilter{Keyword: "颱風", Source: "dcard"}), 1)
		assert.Len(t, r.Find(ctx, ArticleFilter{Source: "ptt"}), 2)
		assert.Len(t, r.Find(ctx, ArticleFilter{}), 4)

		// 关键字 + 天数与单独按天数使用同一个窗口
		assert.Len(t, r.Find(ctx, ArticleFilter{Days: &days}), 2)
		withKeyword := r.Find(ctx, ArticleFilter{Keyword: "颱風", Days: &days})
		require.Len(t, withKeyword, 1)
		assert.Equal(t, "title 1", withKeyword[0].Title)

		zero := 0
		assert.Len(t, r.Find(ctx, ArticleFilter{Days: &zero}), 4)
	})
}

func TestWordFrequency(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	r.Save(ctx, []core.Article{
		article(1, "PTT-Test", "Fri Mar  8 18:00:00 2024", "貓 狗 貓"),
		article(2, "PTT-Test", "unknown", "貓 魚"),
		article(3, "Dcard-funny", "2024-01-01T00:00:00.000Z", "狗 狗 狗"),
	})

	all := r.WordFrequency(ctx, nil, nil, 10)
	assert.Equal(t, 8, all.TotalWords)
	assert.Equal(t, []wordfreq.Keyword{{Word: "狗", Count: 4}, {Word: "貓", Count: 3}, {Word: "魚", Count: 1}}, all.TopKeywords)

	src := "PTT-Test"
	bySource := r.WordFrequency(ctx, &src, nil, 1)
	assert.Equal(t, []wordfreq.Keyword{{Word: "貓", Count: 3}}, bySource.TopKeywords)

	// 时间无法解析的文章被排除
	days := 7
	recent := r.WordFrequency(ctx, nil, &days, 10)
	assert.Equal(t, 3, recent.TotalWords)
	assert.Equal(t, []wordfreq.Keyword{{Word: "貓", Count: 2}, {Word: "狗", Count: 1}}, recent.TopKeywords)

	zero := 0
	assert.Equal(t, all, r.WordFrequency(ctx, nil, &zero, 10))

	none := "Nope"
	empty := r.WordFrequency(ctx, &none, nil, 10)
	assert.Equal(t, 0, empty.TotalWords)
	assert.Empty(t, empty.TopKeywords)
}

func TestReadsFailClosed(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	r.Save(ctx, []core.Article{article(1, "PTT-Test", "", "a")})
	require.NoError(t, r.Close())

	assert.Empty(t, r.ListAll(ctx))
	assert.Empty(t, r.SearchByKeyword(ctx, "a"))
	assert.Empty(t, r.SearchBySource(ctx, "ptt"))

	st := r.Statistics(ctx)
	assert.Equal(t, int64(0), st.TotalArticles)
	assert.NotNil(t, st.SourceCount)

	wf := r.WordFrequency(ctx, nil, nil, 5)
	assert.Equal(t, 0, wf.TotalWords)
	assert.NotNil(t, wf.TopKeywords)

	res := r.Save(ctx, []core.Article{article(2, "PTT-Test", "", "b")})
	assert.Equal(t, core.SaveResult{Error: 1}, res)
}
