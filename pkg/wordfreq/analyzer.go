// Package wordfreq 词频统计：分词、过滤停用词、精确计数，按频率取前 N。
//
// Analyze 是纯函数，不做 I/O；同样的文本和停用词表永远得到同样的结果。
// 频率相同的词按在原文中第一次出现的先后排列。
package wordfreq

import (
	"sort"
	"strings"
)

// Keyword 一个词及其出现次数
type Keyword struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Stats 词频统计结果
type Stats struct {
	TotalWords  int       `json:"total_words"`
	UniqueWords int       `json:"unique_words"`
	TopKeywords []Keyword `json:"top_keywords"`
}

// Map 转成 word -> count，用于序列化成 word_freq 快照
func (s Stats) Map() map[string]int {
	m := make(map[string]int, len(s.TopKeywords))
	for _, kw := range s.TopKeywords {
		m[kw.Word] = kw.Count
	}
	return m
}

// Segmenter 把一段文本切成词
type Segmenter interface {
	Segment(text string) []string
}

// SegmenterFunc 让普通函数实现 Segmenter
type SegmenterFunc func(text string) []string

func (f SegmenterFunc) Segment(text string) []string { return f(text) }

type Analyzer struct {
	seg  Segmenter
	stop StopWords
}

func NewAnalyzer(seg Segmenter, stop StopWords) *Analyzer {
	return &Analyzer{seg: seg, stop: stop}
}

// Analyze 统计 texts 中的词频，返回前 topN 个关键词
func (a *Analyzer) Analyze(texts []string, topN int) Stats {
	counts := make(map[string]int)
	// 记录首次出现顺序，排序时作为并列的依据
	var order []string
	total := 0

	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		for _, tok := range a.seg.Segment(text) {
			tok = strings.TrimSpace(tok)
			if tok == "" || a.stop.Contains(tok) {
				continue
			}
			total++
			if _, seen := counts[tok]; !seen {
				order = append(order, tok)
			}
			counts[tok]++
		}
	}

	keywords := make([]Keyword, len(order))
	for i, w := range order {
		keywords[i] = Keyword{Word: w, Count: counts[w]}
	}
	sort.SliceStable(keywords, func(i, j int) bool {
		return keywords[i].Count > keywords[j].Count
	})

	if topN < 0 {
		topN = 0
	}
	if topN < len(keywords) {
		keywords = keywords[:topN]
	}

	return Stats{
		TotalWords:  total,
		UniqueWords: len(order),
		TopKeywords: keywords,
	}
}
