package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"costlaw/api/internal/app"
	"costlaw/api/internal/backend"
	"costlaw/api/internal/config"
	"costlaw/api/internal/email"
	"costlaw/api/internal/logging"
	"costlaw/api/internal/metrics"
	"costlaw/api/internal/notify"
	"costlaw/api/internal/search"
	"costlaw/api/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n\n%s", err, config.Usage())
		os.Exit(2)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	dataStore, err := backend.OpenStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("storage unavailable", zap.Error(err))
	}
	defer func() {
		if err := dataStore.Close(); err != nil {
			logger.Warn("store close failed", zap.Error(err))
		}
	}()

	var revoker session.Revoker = session.NewMemoryStore()
	if strings.TrimSpace(cfg.RedisURL) != "" {
		logger.Info("using redis for token revocation",
			zap.String("url", logging.SanitizeConnectionString(cfg.RedisURL)))
		redisStore, err := session.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal("redis connection failed", zap.Error(err))
		}
		defer redisStore.Close()
		revoker = redisStore
	}

	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey, logger)
		defer meiliClient.Close()
	}
	searchService := search.NewService(meiliClient, dataStore, logger)
	defer searchService.Close()

	appMetrics := metrics.New()
	mailer := email.NewService(email.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		FromName: cfg.SMTP.FromName,
	})
	if !cfg.SMTPConfigured() {
		logger.Warn("SMTP not configured, contact notifications disabled")
	}
	discord := notify.NewDiscord(dataStore, dataStore, notify.DiscordOptions{
		FallbackURL: cfg.DiscordWebhookURL,
		SiteURL:     cfg.SiteURL,
	})
	notifier := notify.NewService(discord, notify.NewContactMailer(mailer, cfg.ContactNotificationEmail), notify.Options{
		Logger:   logger,
		Timeout:  cfg.NotifyTimeout,
		Failures: appMetrics,
	})
	defer notifier.Wait()

	service := app.New(app.Options{
		Config:   cfg,
		Store:    dataStore,
		Revoker:  revoker,
		Notifier: notifier,
		Search:   searchService,
		Metrics:  appMetrics,
		Logger:   logger,
	})
	if err := service.Bootstrap(ctx); err != nil {
		logger.Warn("bootstrap error (will retry on next restart)", zap.Error(err))
	}

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("costlaw API listening", zap.String("addr", cfg.Addr), zap.String("storage", cfg.StorageDriver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", zap.Error(err))
	}
	logger.Info("server stopped")
}
