package app

import (
	"context"
	"fmt"
	"log/slog"

	httpapp "github.com/14kear/online_voting/polls-service/internal/app/http"
	"github.com/14kear/online_voting/polls-service/internal/config"
	"github.com/14kear/online_voting/polls-service/internal/handlers"
	"github.com/14kear/online_voting/polls-service/internal/lib/hasher"
	"github.com/14kear/online_voting/polls-service/internal/lib/jwt"
	"github.com/14kear/online_voting/polls-service/internal/lib/logger"
	"github.com/14kear/online_voting/polls-service/internal/middleware"
	"github.com/14kear/online_voting/polls-service/internal/services/auth"
	"github.com/14kear/online_voting/polls-service/internal/services/polls"
	"github.com/14kear/online_voting/polls-service/internal/storage/memory"
	"github.com/14kear/online_voting/polls-service/internal/storage/postgres"
	"github.com/gin-gonic/gin"
)

type App struct {
	HTTPServer *httpapp.App
	Auth       *auth.Auth
	Polls      *polls.Service
	closeStore func() error
}

type storageBackend interface {
	auth.UserSaver
	auth.UserProvider
	polls.PollStorage
	polls.LogStorage
}

func NewApp(ctx context.Context, log *slog.Logger, cfg *config.Config) (*App, error) {
	const op = "app.NewApp"

	if cfg.Env == logger.EnvProd {
		gin.SetMode(gin.ReleaseMode)
	}

	h, err := hasher.New(cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	store, closeStore, err := newStorage(log, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tokens := jwt.NewTokenService(cfg.JWT.AccessSecret, cfg.JWT.AccessTTL, cfg.JWT.RefreshSecret, cfg.JWT.RefreshTTL)

	authService := auth.NewAuth(log, store, store, h, tokens)
	pollService := polls.New(log, store, store)

	if cfg.Admin.Email != "" {
		if _, err := authService.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			_ = closeStore()
			return nil, fmt.Errorf("%s: bootstrap admin: %w", op, err)
		}
	}

	authHandler := handlers.NewAuthHandler(log, authService, handlers.CookieConfig{
		Secure:     cfg.Env == logger.EnvProd,
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
	})
	pollHandler := handlers.NewPollHandler(log, pollService)
	authMiddleware := middleware.NewAuthMiddleware(authService)

	httpApp := httpapp.NewApp(log, cfg.HTTP.Port, cfg.HTTP.AllowedOrigins, authHandler, pollHandler, authMiddleware.Middleware())

	return &App{
		HTTPServer: httpApp,
		Auth:       authService,
		Polls:      pollService,
		closeStore: closeStore,
	}, nil
}

func newStorage(log *slog.Logger, cfg config.StorageConfig) (storageBackend, func() error, error) {
	switch cfg.Driver {
	case config.StorageMemory:
		log.Warn("using in-memory storage, data is lost on restart")
		return memory.New(), func() error { return nil }, nil
	case config.StoragePostgres:
		store, err := postgres.New(cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Migrate {
			if err := store.Migrate(); err != nil {
				_ = store.Close()
				return nil, nil, err
			}
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func (a *App) Stop(ctx context.Context) error {
	if err := a.HTTPServer.Stop(ctx); err != nil {
		return err
	}
	return a.closeStore()
}
