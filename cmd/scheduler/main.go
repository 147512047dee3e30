package main

import (
	"context"

	"github.com/iceymoss/board-crawler/internal/app"
	"github.com/iceymoss/board-crawler/internal/conf"
	"github.com/iceymoss/board-crawler/internal/server"
	"github.com/iceymoss/board-crawler/internal/tasks"
	"github.com/iceymoss/board-crawler/internal/tasks/crawl"
	"github.com/iceymoss/board-crawler/web"
	// import anonymously to register tasks to the list
	_ "github.com/iceymoss/board-crawler/internal/tasks/network"
	"github.com/iceymoss/board-crawler/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	defer logger.Sync()

	cfg, err := conf.LoadConfig("configs/config.yaml")
	if err != nil {
		logger.Fatal("❌ LoadConfig error", zap.Error(err))
	}

	a, err := app.Build(context.Background(), cfg)
	if err != nil {
		logger.Fatal("❌ Build error", zap.Error(err))
	}
	defer a.Close()

	tasks.Register(crawl.Name, crawl.NewCreator(a.Service))

	srv := server.NewServer(cfg, server.Deps{
		Service:  a.Service,
		Masker:   a.Masker,
		Logs:     a.Logs,
		StaticFS: web.StaticFiles,
	})

	port := cfg.Server.Port
	if port == "" {
		port = ":8080"
	}

	logger.Info("🌐 Dashboard running", zap.String("addr", "http://localhost"+port))
	if err := srv.Run(port); err != nil {
		logger.Fatal("❌ Server error", zap.Error(err))
	}
}
