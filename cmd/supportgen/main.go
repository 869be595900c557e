package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/InQaaaaGit/supportgen/internal/app"
	"github.com/InQaaaaGit/supportgen/internal/buildinfo"
	"github.com/InQaaaaGit/supportgen/internal/config"
	"github.com/InQaaaaGit/supportgen/internal/server"
	"go.uber.org/zap"
)

// Заполняются через -ldflags "-X main.buildVersion=..."
var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	logger, cleanup := server.InitLogger()
	defer cleanup()

	logger.Info("Starting supportgen", buildinfo.NewInfo(buildVersion, buildDate, buildCommit).Fields()...)

	cfg := server.InitConfig(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		cleanup()
		os.Exit(1)
	}
	logger.Info("Server stopped")
}

// run собирает приложение и обслуживает запросы до отмены ctx
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	application, err := app.NewApp(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("error creating application: %w", err)
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Error("Error closing application", zap.Error(err))
		}
	}()

	return server.NewHTTPServer(application.GetServer(), cfg, logger).Run(ctx)
}
