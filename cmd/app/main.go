// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eduai-backend/internal/config"
	"eduai-backend/internal/domain/ports/adapter"
	aiAdapters "eduai-backend/internal/infra/adapters/ai"
	pg "eduai-backend/internal/infra/db/postgres"
	"eduai-backend/internal/infra/logging"
	"eduai-backend/internal/infra/metrics"
	red "eduai-backend/internal/infra/redis"
	"eduai-backend/internal/infra/storage"
	"eduai-backend/internal/infra/tokens"
	"eduai-backend/internal/infra/web"
	"eduai-backend/internal/infra/worker"
	"eduai-backend/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, noop provider fallback)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.PoolSize)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	usageRepo := pg.NewUsageRepo(pool)
	if err := usageRepo.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("usage schema")
	}

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()

	views := red.NewViewCache(redisClient, cfg.Redis.ViewTTL)
	chatRepo := red.NewChatRepo(redisClient, views)
	counterRepo := red.NewCounterRepo(redisClient)
	outboxQueue := red.NewOutboxQueue(redisClient)
	locker := red.NewLocker(redisClient)

	// ---- Model providers ----
	var openaiP, geminiP adapter.ModelProvider
	if cfg.AI.OpenAIKey != "" {
		openaiP, err = aiAdapters.NewOpenAIProvider(cfg.AI.OpenAIKey, cfg.AI.OpenAIBaseURL, nil)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai provider")
		}
	}
	if cfg.AI.GeminiKey != "" {
		geminiP, err = aiAdapters.NewGeminiProvider(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, nil, cfg.AI.MaxOutputTokens)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini provider")
		}
	}
	var provider adapter.ModelProvider
	switch {
	case openaiP != nil || geminiP != nil:
		provider = aiAdapters.NewMultiProvider(openaiP, geminiP)
	case cfg.Runtime.Dev:
		logger.Warn().Msg("no provider keys configured, using noop provider")
		provider = aiAdapters.NewNoopProvider()
	default:
		logger.Fatal().Msg("no AI provider configured: set ai.openai_key or ai.gemini_key")
	}
	provider = aiAdapters.NewLimitedProvider(provider, cfg.AI.ConcurrentLimit)

	// ---- Uploads ----
	var uploads adapter.UploadStore
	if cfg.Storage.Bucket != "" {
		gcsStore, err := storage.NewGCSStore(ctx, cfg.Storage.Bucket, cfg.Storage.PublicURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("object storage")
		}
		defer gcsStore.Close()
		uploads = gcsStore
	} else {
		logger.Warn().Msg("storage.bucket not set, uploads disabled")
	}

	// ---- Use cases ----
	limitsUC := usecase.NewLimitsUseCase(counterRepo)
	quotaUC := usecase.NewQuotaUseCase(usageRepo, tokens.NewEstimator())
	historyUC := usecase.NewHistoryUseCase(chatRepo)
	tutorUC := usecase.NewTutorUseCase(limitsUC, quotaUC, historyUC, provider, outboxQueue, *logger)

	// ---- Outbox drainer ----
	wp := worker.NewPool(1, *logger)
	wp.Start(ctx)
	defer wp.Stop()
	drainer := worker.NewOutboxDrainer(
		cfg.Outbox.DrainEvery, cfg.Outbox.LockTTL,
		outboxQueue, locker, counterRepo, usageRepo, wp, *logger)
	go func() { _ = drainer.Run(ctx) }()

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Auth.HMACSecret, cfg.Auth.CookieName, cfg.Auth.TTL)
	srv := web.NewServer(tutorUC, historyUC, quotaUC, auth, views, uploads,
		cfg.AI.DefaultModel, cfg.Server.RequestTimeout, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	if err := server.Shutdown(shutCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	cancel()
}
