package wordfreq

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"
)

// StopWords 停用词策略：显式词表 + 可选的单字/标点规则。
// 零值不过滤任何词。
type StopWords struct {
	words          map[string]struct{}
	dropSingleRune bool
	dropSymbols    bool
}

// NewStopWords 只按给定词表过滤
func NewStopWords(words ...string) StopWords {
	s := StopWords{words: make(map[string]struct{}, len(words))}
	s.Add(words...)
	return s
}

// DefaultStopWords 单字、纯标点符号、常见虚词和站内套话
func DefaultStopWords() StopWords {
	s := NewStopWords(defaultWords...)
	s.dropSingleRune = true
	s.dropSymbols = true
	return s
}

// LoadStopWords 在默认规则上追加文件里的词，一行一个，# 开头为注释
func LoadStopWords(path string) (StopWords, error) {
	s := DefaultStopWords()
	f, err := os.Open(path)
	if err != nil {
		return s, fmt.Errorf("open stopwords %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		s.Add(line)
	}
	if err := sc.Err(); err != nil {
		return s, fmt.Errorf("read stopwords %s: %w", path, err)
	}
	return s, nil
}

func (s *StopWords) Add(words ...string) {
	if s.words == nil {
		s.words = make(map[string]struct{}, len(words))
	}
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w != "" {
			s.words[w] = struct{}{}
		}
	}
}

// Contains 判断 tok 是否应被过滤
func (s StopWords) Contains(tok string) bool {
	if _, ok := s.words[tok]; ok {
		return true
	}
	if s.dropSingleRune && utf8.RuneCountInString(tok) == 1 {
		return true
	}
	if s.dropSymbols && isSymbolOnly(tok) {
		return true
	}
	return false
}

func (s StopWords) Len() int { return len(s.words) }

func isSymbolOnly(tok string) bool {
	for _, r := range tok {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

var defaultWords = []string{
	"的", "了", "是", "在", "我", "你", "他", "她", "它", "們", "我們", "你們", "他們",
	"這", "那", "這個", "那個", "就", "也", "都", "還", "和", "與", "及", "或",
	"有", "沒有", "不是", "就是", "可以", "因為", "所以", "但是", "如果", "而且",
	"一個", "什麼", "怎麼", "自己", "覺得", "真的", "現在", "已經", "還是", "其實",
	"嗎", "呢", "吧", "啊", "喔", "耶", "啦", "哦",
	"http", "https", "www", "com", "imgur", "jpg", "png",
	"作者", "看板", "標題", "時間", "推", "噓", "→",
}
