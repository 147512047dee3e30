package network

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iceymoss/board-crawler/internal/core"
	"github.com/iceymoss/board-crawler/internal/tasks"
	"github.com/iceymoss/board-crawler/pkg/httpclient"
	"github.com/iceymoss/board-crawler/pkg/logger"
)

const Name = "sys:source_probe"

// ProbeTask 检查各来源站点是否可达，面板上能提前看到被封或改版
type ProbeTask struct{}

// 只要这个包被 import，任务就会自动挂载
func init() {
	defaultParams := map[string]any{
		"urls": []string{
			"https://www.ptt.cc/bbs/index.html",
			"https://www.dcard.tw/_api/forums?nsfw=false",
		},
		"timeout": 10,
	}
	tasks.RegisterAuto(Name, "@every 30m", NewProbeTask, defaultParams)
}

func NewProbeTask() core.Task {
	return &ProbeTask{}
}

func (t *ProbeTask) Identifier() string {
	return Name
}

func (t *ProbeTask) Run(ctx context.Context, params map[string]any) error {
	urls := stringList(params["urls"])
	if len(urls) == 0 {
		return fmt.Errorf("missing urls")
	}

	timeout := 10 * time.Second
	switch v := params["timeout"].(type) {
	case int:
		timeout = time.Duration(v) * time.Second
	case float64:
		timeout = time.Duration(v * float64(time.Second))
	}

	client, err := httpclient.New(httpclient.Config{Timeout: timeout})
	if err != nil {
		return err
	}

	var failed []string
	for _, u := range urls {
		logger.Info("📡 [Probe] Probing", zap.String("url", u))
		if _, err := client.Get(ctx, u, nil); err != nil {
			logger.Warn("⚠️ [Probe] Unreachable", zap.String("url", u), zap.Error(err))
			failed = append(failed, u)
			continue
		}
		logger.Info("✅ [Probe] Success", zap.String("url", u))
	}

	if len(failed) > 0 {
		return fmt.Errorf("unreachable: %s", strings.Join(failed, ", "))
	}
	return nil
}

func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case string:
		if list == "" {
			return nil
		}
		return []string{list}
	default:
		return nil
	}
}
