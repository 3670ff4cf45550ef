package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopapi/internal/auth"
	"shopapi/internal/config"
	"shopapi/internal/httpx"
	"shopapi/internal/platform/logger"
	"shopapi/internal/store"
	"shopapi/internal/user"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	zlog, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("cannot build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server error", zap.Error(err))
	}
}

func run(cfg config.Config, zlog *zap.Logger) error {
	ctx := context.Background()

	userRepository, closeStore, err := store.Open(ctx, cfg, zlog)
	if err != nil {
		return err
	}
	defer closeStore()

	userService := user.NewService(userRepository, zlog)
	gateway, err := auth.NewGateway(cfg.JWTSecret, cfg.AuthMode, userService,
		auth.WithTTL(cfg.TokenTTL),
		auth.WithLogger(zlog.Named("auth")),
	)
	if err != nil {
		return err
	}
	if cfg.AuthMode == auth.ModeOpen {
		zlog.Warn("auth mode is open: every request is treated as authorized")
	}

	router := newRouter(routerDeps{
		users:   user.NewHTTPHandler(userService, zlog, cfg.IsDevelopment()),
		auth:    auth.NewHTTPHandler(userService, gateway, zlog, cfg.IsDevelopment()),
		gateway: gateway,
		ready:   userService.Ping,
	})

	handler := httpx.Chain(router,
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware(zlog),
		httpx.RecoveryMiddleware(zlog),
		httpx.CORSMiddleware(cfg.AllowedOrigins),
		httpx.SecurityHeadersMiddleware(cfg.EnableHSTS),
		httpx.RequestSizeLimitMiddleware(cfg.MaxBodyBytes),
	)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		zlog.Info("starting server",
			zap.String("addr", cfg.Addr),
			zap.String("env", cfg.Env),
			zap.String("auth_mode", string(cfg.AuthMode)),
			zap.String("store", cfg.StoreDriver),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case sig := <-quit:
		zlog.Info("shutting down server", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}

	zlog.Info("server exited")
	return nil
}
