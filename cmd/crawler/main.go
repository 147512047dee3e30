// Command crawler 命令行入口：抓取看板、查询文章、查看统计和词频
//
//	crawler --crawl --source ptt --board Gossiping --pages 3
//	crawler --keyword 颱風 --days 7
//	crawler --stats
//	crawler --freq --source dcard --top 20
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/iceymoss/board-crawler/internal/app"
	"github.com/iceymoss/board-crawler/internal/conf"
	"github.com/iceymoss/board-crawler/internal/core"
	"github.com/iceymoss/board-crawler/internal/crawler"
	"github.com/iceymoss/board-crawler/internal/repo"
	"github.com/iceymoss/board-crawler/pkg/constants"
	"github.com/iceymoss/board-crawler/pkg/db/objects"
	xerrors "github.com/iceymoss/board-crawler/pkg/errors"
	"github.com/iceymoss/board-crawler/pkg/logger"
	"github.com/iceymoss/board-crawler/pkg/utils"
	"github.com/iceymoss/board-crawler/pkg/wordfreq"
	"github.com/iceymoss/board-crawler/pkg/xerr"
)

const summaryRunes = 200

type options struct {
	config  string
	crawl   bool
	source  string
	board   string
	pages   int
	keyword string
	days    int
	stats   bool
	freq    bool
	top     int
}

func main() {
	defer logger.Sync()

	fs := pflag.NewFlagSet("crawler", pflag.ContinueOnError)
	opts := bindFlags(fs)
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	if fs.NFlag() == 0 || !opts.hasAction(fs) {
		fs.Usage()
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, fs, opts); err != nil {
		if errors.Is(err, xerr.ErrUnsupportedSource) {
			fmt.Fprintf(os.Stderr, "不支持的来源: %s (可选: ptt, dcard)\n", opts.source)
		} else {
			logger.Error("❌ crawler failed", zap.Error(err))
		}
		os.Exit(1)
	}
}

func bindFlags(fs *pflag.FlagSet) *options {
	o := &options{}
	fs.StringVar(&o.config, "config", "configs/config.yaml", "配置文件路径，为空时只用默认值和环境变量")
	fs.BoolVar(&o.crawl, "crawl", false, "抓取并入库")
	fs.StringVar(&o.source, "source", "", "来源: ptt / dcard")
	fs.StringVar(&o.board, "board", "", "看板，默认 PTT=Gossiping, Dcard=funny")
	fs.IntVar(&o.pages, "pages", crawler.DefaultPages, "抓取页数")
	fs.StringVar(&o.keyword, "keyword", "", "按关键字查询文章")
	fs.IntVar(&o.days, "days", 0, "只看最近 N 天，0 表示不限")
	fs.BoolVar(&o.stats, "stats", false, "显示统计")
	fs.BoolVar(&o.freq, "freq", false, "显示词频")
	fs.IntVar(&o.top, "top", 10, "词频取前 N")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "用法: crawler [flags]")
		fs.PrintDefaults()
	}
	return o
}

func (o *options) hasAction(fs *pflag.FlagSet) bool {
	return o.crawl || o.keyword != "" || o.stats || o.freq || fs.Changed("days") || o.source != ""
}

func run(ctx context.Context, out io.Writer, fs *pflag.FlagSet, o *options) error {
	cfg, err := loadConfig(o.config)
	if err != nil {
		return err
	}

	a, err := app.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	svc := a.Service

	if o.crawl {
		src := o.source
		if src == "" {
			src = "ptt"
		}
		if !svc.Supports(src) {
			return xerrors.Wrap(xerr.UNSUPPORTED_SOURCE, "不支持的来源: "+src, nil)
		}
		res, err := svc.Crawl(ctx, src, o.board, o.pages)
		if err != nil {
			return err
		}
		printSaveResult(out, res)
	}

	var days *int
	if fs.Changed("days") {
		days = &o.days
	}

	// 只抓取或只看统计时不列文章
	if o.keyword != "" || (!o.crawl && !o.stats && !o.freq) {
		list := svc.Find(ctx, repo.ArticleFilter{Keyword: o.keyword, Source: o.source, Days: days})
		printArticles(out, a.Masker.MaskArticles(list))
	}

	if o.stats {
		printStatistics(out, svc.Statistics(ctx))
	}

	if o.freq {
		var src *string
		if o.source != "" {
			src = &o.source
		}
		printKeywords(out, svc.WordFrequency(ctx, src, days, o.top))
	}
	return nil
}

func loadConfig(path string) (*conf.Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			logger.Warn("⚠️ 配置文件不存在，使用默认配置", zap.String("path", path))
			path = ""
		}
	}
	return conf.LoadConfig(path)
}

func printSaveResult(out io.Writer, res core.SaveResult) {
	fmt.Fprintf(out, "新增: %d, 重复: %d, 失败: %d\n", res.New, res.Duplicate, res.Error)
}

func printArticles(out io.Writer, list []objects.Article) {
	fmt.Fprintf(out, "共 %d 篇文章\n", len(list))
	for i, a := range list {
		fmt.Fprintf(out, "\n[%d] #%d %s\n", i+1, a.ID, a.Title)
		fmt.Fprintf(out, "    作者: %s | 来源: %s | 时间: %s\n", a.Author, a.Source, a.PublishTime)
		fmt.Fprintf(out, "    链接: %s | 入库: %s\n", a.URL, a.CreatedAt.In(utils.TaipeiLocation).Format(constants.TimeLayout))
		if s := summary(a.Content, summaryRunes); s != "" {
			fmt.Fprintf(out, "    %s\n", s)
		}
	}
}

func printStatistics(out io.Writer, st repo.Statistics) {
	fmt.Fprintf(out, "文章总数: %d\n", st.TotalArticles)
	fmt.Fprintf(out, "最近 24 小时: %d\n", st.Last24h)

	names := make([]string, 0, len(st.SourceCount))
	for name := range st.SourceCount {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %s: %d\n", name, st.SourceCount[name])
	}
}

func printKeywords(out io.Writer, st wordfreq.Stats) {
	fmt.Fprintf(out, "总词数: %d, 不重复词数: %d\n", st.TotalWords, st.UniqueWords)
	for i, kw := range st.TopKeywords {
		fmt.Fprintf(out, "%2d. %s (%d)\n", i+1, kw.Word, kw.Count)
	}
}

// summary 取前 n 个字符，换行压成空格
func summary(content string, n int) string {
	s := strings.Join(strings.Fields(content), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
