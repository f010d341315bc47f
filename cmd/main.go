package main

import (
	"chatcore/backend/internal/api/handler"
	"chatcore/backend/internal/auth"
	"chatcore/backend/internal/chat"
	"chatcore/backend/internal/chathub"
	"chatcore/backend/internal/config"
	"chatcore/backend/internal/localization"
	"chatcore/backend/internal/notify"
	"chatcore/backend/internal/storage"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func setupDependencies(ctx context.Context, cfg *config.Config, log *slog.Logger) (*gorm.DB, *redis.Client, error) {
	// 1. PostgreSQL. TranslateError turns unique violations into gorm.ErrDuplicatedKey.
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("postgres pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	// 2. Redis (presence)
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}

	// 3. Migrations
	if err := storage.NewStorageService(db, rdb).Migrate(ctx); err != nil {
		_ = sqlDB.Close()
		_ = rdb.Close()
		return nil, nil, err
	}

	log.Info("Database and Redis connections established, migrations complete")
	return db, rdb, nil
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := cfg.Logger()
	log.Info("Starting chatcore backend", "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Dependencies
	db, rdb, err := setupDependencies(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		_ = rdb.Close()
	}()
	store := storage.NewStorageService(db, rdb)

	texts, err := localization.NewDefault()
	if err != nil {
		return err
	}
	if !texts.HasLang(cfg.SystemLocale) {
		log.Warn("no catalog for system locale, falling back", "locale", cfg.SystemLocale, "fallback", localization.DefaultLang)
	}

	// 2. Services. The dispatcher exists before the gateway and is bound to it below.
	dispatcher := notify.NewDispatcher()
	lifecycle := chat.NewLifecycleService(store, dispatcher, texts, chat.Options{
		Locale:          cfg.SystemLocale,
		DefaultPageSize: cfg.DefaultPageSize,
		MaxPageSize:     cfg.MaxPageSize,
	}, log)
	messages := chat.NewMessageService(store, dispatcher, log)

	// 3. Realtime gateway
	hub := chathub.NewManagerService(messages, store, log)
	dispatcher.Bind(hub)
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)

	// 4. Gin and routing
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	h := handler.NewHandler(hub, lifecycle, messages,
		auth.NewJWTAuthenticator(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL),
		cfg.AllowedOrigins, log)
	h.Routes(r)

	server := &http.Server{
		Addr:           cfg.HTTPAddr,
		Handler:        r,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	}

	// 5. Graceful shutdown: stop accepting requests, then drop websocket clients.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP shutdown failed", "error", err)
	}
	stopHub()
	<-hub.Done()

	log.Info("Shutdown complete")
	return nil
}
