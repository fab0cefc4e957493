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

	"nabidh-access-engine/internal/config"
	"nabidh-access-engine/internal/domain/ports/adapter"
	aiAdapters "nabidh-access-engine/internal/infra/adapters/ai"
	pg "nabidh-access-engine/internal/infra/db/postgres"
	"nabidh-access-engine/internal/infra/i18n"
	"nabidh-access-engine/internal/infra/logging"
	"nabidh-access-engine/internal/infra/metrics"
	red "nabidh-access-engine/internal/infra/redis"
	"nabidh-access-engine/internal/infra/sched"
	"nabidh-access-engine/internal/infra/web"
	"nabidh-access-engine/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	recordRepo := pg.NewAccessRecordRepo(pool)
	auditRepo := pg.NewAuditLogRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Use cases ----
	activationUC := usecase.NewActivationUseCase(recordRepo, logger)
	generatorUC := usecase.NewGeneratorUseCase(recordRepo, auditRepo, txManager, cfg.Generator.MaxAttempts, logger)
	adminUC := usecase.NewAdminUseCase(recordRepo, auditRepo, txManager, logger)

	// ---- Analysis provider (Gemini -> OpenAI -> noop in dev) ----
	var provider adapter.AnalysisProvider
	switch {
	case cfg.AI.GeminiKey != "":
		provider, err = aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.DefaultModel)
		if err != nil {
			log.Fatalf("gemini adapter: %v", err)
		}
		logger.Info().Str("model", cfg.AI.DefaultModel).Msg("analysis provider: gemini")
	case cfg.AI.OpenAIKey != "":
		provider, err = aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.DefaultModel)
		if err != nil {
			log.Fatalf("openai adapter: %v", err)
		}
		logger.Info().Str("model", cfg.AI.DefaultModel).Msg("analysis provider: openai")
	case cfg.Runtime.Dev:
		provider = aiAdapters.NewNoopProvider()
		logger.Warn().Msg("analysis provider: noop (dev mode)")
	default:
		log.Fatalf("no analysis provider configured: set ai.gemini_key or ai.openai_key in %s", *cfgPath)
	}
	analysisUC := usecase.NewAnalysisUseCase(activationUC, provider, logger)

	// ---- Translator ----
	translator, err := i18n.NewTranslator(i18n.LocalesFS, "ar")
	if err != nil {
		log.Fatalf("i18n: %v", err)
	}

	// ---- HTTP server ----
	authMgr := web.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.Username, cfg.Admin.Password, !cfg.Runtime.Dev, "", cfg.Admin.SessionTTL)
	srv := web.NewServer(activationUC, analysisUC, generatorUC, adminUC, authMgr, rateLimiter, cfg.RateLimit.VerifyPerMinute, translator, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Expiry sweep ----
	worker := sched.NewExpiryWorker(cfg.Sweep.Interval, recordRepo, logger)
	go func() { _ = worker.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
}
