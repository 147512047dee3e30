package wordfreq

import (
	"fmt"

	"github.com/go-ego/gse"
)

// GseSegmenter 基于词典 + HMM 的中英混合分词，用内嵌词典，不读磁盘
type GseSegmenter struct {
	seg gse.Segmenter
}

// NewGseSegmenter dict 为空时加载繁体词典 zh_t，PTT/Dcard 都是繁体
func NewGseSegmenter(dict ...string) (*GseSegmenter, error) {
	if len(dict) == 0 {
		dict = []string{"zh_t"}
	}
	g := &GseSegmenter{}
	if err := g.seg.LoadDictEmbed(dict...); err != nil {
		return nil, fmt.Errorf("load gse dict %v: %w", dict, err)
	}
	return g, nil
}

func (g *GseSegmenter) Segment(text string) []string {
	return g.seg.Cut(text, true)
}
