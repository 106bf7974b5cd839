package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/14kear/online_voting/polls-service/internal/app"
	"github.com/14kear/online_voting/polls-service/internal/config"
	"github.com/14kear/online_voting/polls-service/internal/lib/logger"
	sl "github.com/14kear/sso-prettyslog/slogpretty/errors"
)

func main() {
	cfg := config.MustLoad()

	log := logger.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApp(ctx, log, cfg)
	if err != nil {
		log.Error("failed to init application", sl.Err(err))
		os.Exit(1)
	}

	go func() {
		if err := application.HTTPServer.Run(); err != nil {
			log.Error("failed to run HTTP server", sl.Err(err))
			stop()
		}
	}()

	log.Info("polls service started",
		slog.String("env", cfg.Env),
		slog.String("storage", cfg.Storage.Driver),
		slog.Int("port", cfg.HTTP.Port),
	)

	<-ctx.Done()

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := application.Stop(shutdownCtx); err != nil {
		log.Error("failed to stop application", sl.Err(err))
		os.Exit(1)
	}

	log.Info("application stopped")
}
