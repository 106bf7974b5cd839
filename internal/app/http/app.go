package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/14kear/online_voting/polls-service/internal/handlers"
	"github.com/14kear/online_voting/polls-service/internal/middleware"
	"github.com/14kear/online_voting/polls-service/internal/routes"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type App struct {
	log    *slog.Logger
	engine *gin.Engine
	server *http.Server
	port   int
}

// NewApp sets up the gin engine with CORS, request logging and all routes.
func NewApp(
	log *slog.Logger,
	port int,
	allowedOrigins []string,
	authHandler *handlers.AuthHandler,
	pollHandler *handlers.PollHandler,
	authMiddleware gin.HandlerFunc,
) *App {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Refresh-Token"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		authGroup := api.Group("/auth")
		routes.RegisterAuthRoutes(authGroup, authHandler, authMiddleware)

		pollsGroup := api.Group("/polls", authMiddleware)
		routes.RegisterPollRoutes(pollsGroup, pollHandler)
	}

	// Healthcheck
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		log:    log,
		engine: r,
		server: httpServer,
		port:   port,
	}
}

// Run blocks serving HTTP until Stop is called.
func (a *App) Run() error {
	const op = "httpapp.Run"

	a.log.Info("HTTP server is running", slog.String("addr", a.server.Addr))

	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	a.log.Info("HTTP server is stopping", slog.String("addr", a.server.Addr))
	return a.server.Shutdown(ctx)
}

func (a *App) Engine() *gin.Engine {
	return a.engine
}
