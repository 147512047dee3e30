// Package pacing 控制抓取节奏：条目间、页面间的随机间隔和失败重试的退避。
//
// 等待通过可注入的 Sleeper 完成，测试里可以替换成只记录时长、不真正休眠的实现。
package pacing

import (
	"context"
	"math/rand"
	"time"

	"golang.org/x/time/rate"
)

// Range 一个随机时长区间 [Min, Max]
type Range struct {
	Min time.Duration `mapstructure:"min"`
	Max time.Duration `mapstructure:"max"`
}

// Pick 按 f∈[0,1) 在区间内取值
func (r Range) Pick(f float64) time.Duration {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + time.Duration(f*float64(r.Max-r.Min))
}

// Scale 区间整体乘以 n
func (r Range) Scale(n int) Range {
	if n < 1 {
		n = 1
	}
	return Range{Min: r.Min * time.Duration(n), Max: r.Max * time.Duration(n)}
}

// Config 各阶段的随机等待区间
type Config struct {
	ItemDelay Range `mapstructure:"item_delay"` // 每篇文章之后
	PageDelay Range `mapstructure:"page_delay"` // 每页之后
	Backoff   Range `mapstructure:"backoff"`    // 第 1 次重试前，之后按次数线性放大
}

// DefaultConfig 条目 1-2s，页面 2-3s，重试 3-5s 起
func DefaultConfig() Config {
	return Config{
		ItemDelay: Range{Min: time.Second, Max: 2 * time.Second},
		PageDelay: Range{Min: 2 * time.Second, Max: 3 * time.Second},
		Backoff:   Range{Min: 3 * time.Second, Max: 5 * time.Second},
	}
}

// Pacer 抓取流程在各个节点调用的等待策略
type Pacer interface {
	AfterItem(ctx context.Context) error
	AfterPage(ctx context.Context) error
	// Backoff attempt 从 1 开始，表示第几次失败之后
	Backoff(ctx context.Context, attempt int) error
}

// Sleeper 等待 d，ctx 取消时提前返回
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext 默认 Sleeper
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type RandomPacer struct {
	cfg   Config
	sleep Sleeper
	rnd   func() float64
}

type Option func(*RandomPacer)

func WithSleeper(s Sleeper) Option {
	return func(p *RandomPacer) { p.sleep = s }
}

func WithRand(f func() float64) Option {
	return func(p *RandomPacer) { p.rnd = f }
}

func New(cfg Config, opts ...Option) *RandomPacer {
	p := &RandomPacer{
		cfg:   cfg,
		sleep: SleepContext,
		rnd:   rand.Float64,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *RandomPacer) AfterItem(ctx context.Context) error {
	return p.sleep(ctx, p.cfg.ItemDelay.Pick(p.rnd()))
}

func (p *RandomPacer) AfterPage(ctx context.Context) error {
	return p.sleep(ctx, p.cfg.PageDelay.Pick(p.rnd()))
}

func (p *RandomPacer) Backoff(ctx context.Context, attempt int) error {
	return p.sleep(ctx, p.cfg.Backoff.Scale(attempt).Pick(p.rnd()))
}

// NoWait 不等待，给一次性命令或测试用
type NoWait struct{}

func (NoWait) AfterItem(ctx context.Context) error      { return ctx.Err() }
func (NoWait) AfterPage(ctx context.Context) error      { return ctx.Err() }
func (NoWait) Backoff(ctx context.Context, _ int) error { return ctx.Err() }

// NewLimiter 令牌桶限制请求速率；rps <= 0 表示不限速
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if burst < 1 {
		burst = 1
	}
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, burst)
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
