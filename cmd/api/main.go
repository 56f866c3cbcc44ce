package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/sweeply-app/sweeply/internal/apperrors"
	"github.com/sweeply-app/sweeply/internal/auth"
	"github.com/sweeply-app/sweeply/internal/config"
	"github.com/sweeply-app/sweeply/internal/db"
	"github.com/sweeply-app/sweeply/internal/marketplace"
	appmw "github.com/sweeply-app/sweeply/internal/middleware"
	"github.com/sweeply-app/sweeply/internal/users"
	"github.com/sweeply-app/sweeply/internal/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	initLogger(cfg)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		slog.Error("schema bootstrap failed", "err", err)
		os.Exit(1)
	}

	// Stores and services: every dependency enters through a constructor.
	userStore := users.NewStore(pool)
	tokenStore := auth.NewRefreshTokenStore(pool)
	marketStore := marketplace.NewPGStore(pool)

	authHandler := auth.NewHandler(userStore, tokenStore, cfg)
	marketHandler := marketplace.NewHandler(
		marketplace.NewRegistry(marketStore),
		marketplace.NewLedger(marketStore),
		marketplace.NewRecorder(marketStore),
	)

	e := echo.New()
	e.HideBanner = true
	e.Validator = validation.New()
	e.HTTPErrorHandler = apperrors.HTTPErrorHandler(!cfg.IsProduction())
	e.Use(echomw.RequestID())
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	e.GET("/health", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// Public auth routes
	e.POST("/signup", authHandler.Signup)
	e.POST("/login", authHandler.Login)
	e.POST("/token/refresh", authHandler.Refresh)
	e.POST("/password/forgot", authHandler.ForgotPassword)
	e.POST("/password/reset", authHandler.ResetPassword)

	// Everything else requires a bearer token
	g := e.Group("", appmw.RequireAuth(cfg.JWTSecret))
	g.GET("/me", authHandler.Me)
	marketHandler.Register(g)

	slog.Info("api server listening", "port", cfg.Port, "env", cfg.Env)
	if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func initLogger(cfg *config.Config) {
	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	slog.SetDefault(slog.New(handler))
}
