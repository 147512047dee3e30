package sensitive

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/importcjj/sensitive"

	"github.com/iceymoss/board-crawler/pkg/db/objects"
)

const SensitiveROOT = "resources/sensitive/"

// DefaultReplacement 命中敏感词时逐字替换成的字符
const DefaultReplacement = '*'

// Masker 输出文章时遮蔽敏感词；nil Masker 原样返回
type Masker struct {
	filter *sensitive.Filter
	repl   rune
}

// NewMasker 加载 dictDir 下所有 .txt 词库 (每行一个词)，再追加 words
func NewMasker(dictDir string, words ...string) (*Masker, error) {
	if dictDir == "" {
		dictDir = SensitiveROOT
	}
	files, err := filepath.Glob(filepath.Join(dictDir, "*.txt"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 && len(words) == 0 {
		return nil, fmt.Errorf("词库目录为空: %s", dictDir)
	}
	sort.Strings(files)

	filter := sensitive.New()
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return nil, err
		}
		if err := filter.LoadWordDict(f); err != nil {
			return nil, fmt.Errorf("加载词库 %s: %w", f, err)
		}
	}
	addWords(filter, words)

	return &Masker{filter: filter, repl: DefaultReplacement}, nil
}

// NewWordMasker 只使用给定的词
func NewWordMasker(words ...string) *Masker {
	filter := sensitive.New()
	addWords(filter, words)
	return &Masker{filter: filter, repl: DefaultReplacement}
}

func addWords(filter *sensitive.Filter, words []string) {
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			filter.AddWord(w)
		}
	}
}

// Validate 返回 false 时第二个值为第一个命中的词
func (m *Masker) Validate(content string) (bool, string) {
	if m == nil {
		return true, ""
	}
	return m.filter.Validate(content)
}

func (m *Masker) Mask(content string) string {
	if m == nil {
		return content
	}
	return m.filter.Replace(content, m.repl)
}

// MaskArticle 遮蔽标题和正文
func (m *Masker) MaskArticle(a objects.Article) objects.Article {
	if m == nil {
		return a
	}
	a.Title = m.Mask(a.Title)
	a.Content = m.Mask(a.Content)
	return a
}

func (m *Masker) MaskArticles(list []objects.Article) []objects.Article {
	if m == nil {
		return list
	}
	out := make([]objects.Article, len(list))
	for i, a := range list {
		out[i] = m.MaskArticle(a)
	}
	return out
}
