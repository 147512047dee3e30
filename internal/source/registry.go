// Package source 按名字创建抓取适配器
package source

import (
	"fmt"
	"strings"

	"github.com/iceymoss/board-crawler/internal/core"
	"github.com/iceymoss/board-crawler/internal/source/dcard"
	"github.com/iceymoss/board-crawler/internal/source/ptt"
	"github.com/iceymoss/board-crawler/pkg/errors"
	"github.com/iceymoss/board-crawler/pkg/httpclient"
	"github.com/iceymoss/board-crawler/pkg/xerr"
)

// Deps 适配器的依赖
type Deps struct {
	Client *httpclient.Client

	// 测试时替换站点地址，key 为小写来源名
	BaseURLs map[string]string
}

// Names 支持的来源
func Names() []string {
	return []string{"ptt", "dcard"}
}

// New 根据来源名 (不区分大小写) 创建适配器，未知来源在任何网络请求之前返回 ErrUnsupportedSource
func New(name string, deps Deps) (core.Adapter, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "ptt", "dcard":
	default:
		return nil, errors.Wrap(xerr.UNSUPPORTED_SOURCE, "不支持的来源: "+name, nil)
	}

	client := deps.Client
	if client == nil {
		c, err := httpclient.New(httpclient.Config{})
		if err != nil {
			return nil, fmt.Errorf("http client: %w", err)
		}
		client = c
	}
	base := deps.BaseURLs[key]

	switch key {
	case "ptt":
		var opts []ptt.Option
		if base != "" {
			opts = append(opts, ptt.WithBaseURL(base))
		}
		return ptt.New(client, opts...), nil
	default:
		var opts []dcard.Option
		if base != "" {
			opts = append(opts, dcard.WithBaseURL(base))
		}
		return dcard.New(client, opts...), nil
	}
}

// DefaultBoard 来源的默认看板，未知来源返回空
func DefaultBoard(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "ptt":
		return ptt.DefaultBoard
	case "dcard":
		return dcard.DefaultBoard
	default:
		return ""
	}
}
