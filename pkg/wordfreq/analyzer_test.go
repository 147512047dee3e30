package wordfreq

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 测试用的空白切分，只用来验证计数语义
var fields = SegmenterFunc(strings.Fields)

func TestAnalyzeScenario(t *testing.T) {
	a := NewAnalyzer(fields, StopWords{})

	stats := a.Analyze([]string{"貓 狗 貓 鳥 狗 貓"}, 2)

	assert.Equal(t, 6, stats.TotalWords)
	assert.Equal(t, 3, stats.UniqueWords)
	assert.Equal(t, []Keyword{{Word: "貓", Count: 3}, {Word: "狗", Count: 2}}, stats.TopKeywords)
}

func TestAnalyzeEmptyInput(t *testing.T) {
	a := NewAnalyzer(fields, DefaultStopWords())

	for _, in := range [][]string{nil, {}, {"", "   "}} {
		stats := a.Analyze(in, 10)
		assert.Equal(t, 0, stats.TotalWords)
		assert.Equal(t, 0, stats.UniqueWords)
		assert.NotNil(t, stats.TopKeywords, "空输入也应返回空切片")
		assert.Empty(t, stats.TopKeywords)
	}
}

func TestAnalyzeTieKeepsFirstOccurrence(t *testing.T) {
	a := NewAnalyzer(fields, StopWords{})

	stats := a.Analyze([]string{"香蕉 蘋果 蘋果 香蕉 芭樂"}, 3)
	require.Len(t, stats.TopKeywords, 3)
	assert.Equal(t, "香蕉", stats.TopKeywords[0].Word, "并列时先出现的排前面")
	assert.Equal(t, "蘋果", stats.TopKeywords[1].Word)
	assert.Equal(t, "芭樂", stats.TopKeywords[2].Word)

	// 跨文本同样按首次出现
	stats = a.Analyze([]string{"beta alpha", "alpha beta"}, 2)
	assert.Equal(t, []Keyword{{"beta", 2}, {"alpha", 2}}, stats.TopKeywords)
}

func TestAnalyzeDeterministic(t *testing.T) {
	a := NewAnalyzer(fields, DefaultStopWords())
	texts := []string{"今天 天氣 很好 今天 出門 天氣 晴朗", "出門 記得 帶傘 今天"}

	for _, n := range []int{0, 1, 3, 100} {
		first := a.Analyze(texts, n)
		second := a.Analyze(texts, n)
		assert.Equal(t, first, second)
	}
}

func TestAnalyzeTopNBounds(t *testing.T) {
	a := NewAnalyzer(fields, StopWords{})

	stats := a.Analyze([]string{"a b c"}, 50)
	assert.Len(t, stats.TopKeywords, 3, "topN 大于词数时返回全部")

	stats = a.Analyze([]string{"a b c"}, 0)
	assert.Empty(t, stats.TopKeywords)
	assert.Equal(t, 3, stats.TotalWords)

	stats = a.Analyze([]string{"a b c"}, -1)
	assert.Empty(t, stats.TopKeywords)
}

func TestAnalyzeCountsSurfaceFormExactly(t *testing.T) {
	a := NewAnalyzer(fields, StopWords{})

	stats := a.Analyze([]string{"Go go Go"}, 5)
	assert.Equal(t, []Keyword{{"Go", 2}, {"go", 1}}, stats.TopKeywords)
}

func TestDefaultStopWords(t *testing.T) {
	s := DefaultStopWords()

	assert.True(t, s.Contains("的"))
	assert.True(t, s.Contains("貓"), "单字过滤")
	assert.True(t, s.Contains("，。！"), "纯标点过滤")
	assert.True(t, s.Contains("我們"))
	assert.False(t, s.Contains("颱風"))
	assert.False(t, s.Contains("Go語言"))

	a := NewAnalyzer(fields, s)
	stats := a.Analyze([]string{"我們 的 颱風 ！！ 颱風 停班"}, 10)
	assert.Equal(t, 3, stats.TotalWords)
	assert.Equal(t, []Keyword{{"颱風", 2}, {"停班", 1}}, stats.TopKeywords)
}

func TestStopWordsZeroValue(t *testing.T) {
	var s StopWords
	assert.False(t, s.Contains("的"))
	assert.False(t, s.Contains("。"))
	s.Add("的")
	assert.True(t, s.Contains("的"))
}

func TestLoadStopWords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stop.txt")
	require.NoError(t, os.WriteFile(path, []byte("# 注释\n八卦\n\n  新聞  \n"), 0o644))

	s, err := LoadStopWords(path)
	require.NoError(t, err)
	assert.True(t, s.Contains("八卦"))
	assert.True(t, s.Contains("新聞"))
	assert.True(t, s.Contains("的"), "默认规则仍然生效")

	_, err = LoadStopWords(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestStatsMap(t *testing.T) {
	stats := Stats{TopKeywords: []Keyword{{"貓", 3}, {"狗", 2}}}
	assert.Equal(t, map[string]int{"貓": 3, "狗": 2}, stats.Map())
}

func TestGseSegmenter(t *testing.T) {
	seg, err := NewGseSegmenter()
	require.NoError(t, err)

	in := "今天天氣很好，我們去台北101看煙火"
	toks := seg.Segment(in)
	require.NotEmpty(t, toks)
	assert.Equal(t, in, strings.Join(toks, ""), "分词不应丢字")
	assert.Greater(t, len(toks), 3, "中文不能整句当成一个词")

	a := NewAnalyzer(seg, StopWords{})
	stats := a.Analyze([]string{"貓 狗 貓 鳥 狗 貓"}, 2)
	assert.Equal(t, 6, stats.TotalWords)
	assert.Equal(t, 3, stats.UniqueWords)
	assert.Equal(t, []Keyword{{"貓", 3}, {"狗", 2}}, stats.TopKeywords)
}
