package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/userdeck/userdeck/internal/ability"
	"github.com/userdeck/userdeck/internal/app"
	"github.com/userdeck/userdeck/internal/auth"
	"github.com/userdeck/userdeck/internal/observability"
	"github.com/userdeck/userdeck/internal/platform/cache"
	"github.com/userdeck/userdeck/internal/platform/db"
	"github.com/userdeck/userdeck/internal/users"
	"github.com/userdeck/userdeck/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if err := ability.ValidatePolicy(); err != nil {
		logger.Error("policy table", slog.Any("error", err))
		os.Exit(1)
	}

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	hasher := auth.BcryptHasher{Cost: cfg.BcryptCost}
	tokenStore := auth.NewTokenStore(redisClient, cfg.TokenTTL)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo, hasher)

	authService := auth.NewService(usersRepo, tokenStore, hasher)
	authHandler := auth.NewHandler(logger, authService)
	authMiddleware := auth.Middleware{Store: tokenStore, Logger: logger}

	auditEnqueuer := jobs.NewEnqueuer(asynq.RedisClientOpt{Addr: cfg.RedisAddr}, logger)
	defer func() {
		if err := auditEnqueuer.Close(); err != nil {
			logger.Warn("audit enqueuer close", slog.Any("error", err))
		}
	}()

	usersHandler := users.NewHandler(logger, usersService, auditEnqueuer)
	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		AuthHandler:    authHandler,
		AuthMiddleware: authMiddleware,
		UsersHandler:   usersHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && err != context.Canceled {
		logger.Error("server", slog.Any("error", err))
		os.Exit(1)
	}
}
