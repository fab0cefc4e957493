package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"nabidh-access-engine/internal/config"
	"nabidh-access-engine/internal/domain/ports/adapter"
	aiAdapters "nabidh-access-engine/internal/infra/adapters/ai"
	pg "nabidh-access-engine/internal/infra/db/postgres"
	"nabidh-access-engine/internal/infra/logging"
	"nabidh-access-engine/internal/infra/session"
	"nabidh-access-engine/internal/usecase"
)

// A minimal session client: logs in with an access code, keeps the session
// guarded on the configured interval, and optionally runs one analysis.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	code := flag.String("code", "", "access code to log in with")
	prompt := flag.String("prompt", "", "optional prompt to analyze once logged in")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	if *code == "" {
		log.Fatal("usage: client -code XXXX-XXXX-XXXX [-prompt ...]")
	}

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 2)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	recordRepo := pg.NewAccessRecordRepo(pool)
	activationUC := usecase.NewActivationUseCase(recordRepo, logger)

	guard := session.NewGuard(cfg.Guard.Interval, activationUC, func(err error) {
		logger.Warn().Err(err).Msg("session invalidated, exiting")
		cancel()
	}, logger)

	sess, err := guard.Login(ctx, *code)
	if err != nil {
		log.Fatalf("login: %v", err)
	}
	fmt.Printf("logged in: %s (expires %v)\n", sess.OwnerName, sess.ExpiryDate)

	go func() { _ = guard.Run(ctx) }()

	if *prompt != "" {
		var provider adapter.AnalysisProvider
		switch {
		case cfg.AI.GeminiKey != "":
			provider, err = aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.DefaultModel)
		case cfg.AI.OpenAIKey != "":
			provider, err = aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.DefaultModel)
		default:
			provider = aiAdapters.NewNoopProvider()
		}
		if err != nil {
			log.Fatalf("analysis provider: %v", err)
		}

		// Re-check right before the privileged action, not just on the tick.
		if !guard.Check(ctx) {
			log.Fatal("session no longer valid")
		}
		analysisUC := usecase.NewAnalysisUseCase(activationUC, provider, logger)
		res, err := analysisUC.Analyze(ctx, *code, *prompt)
		if err != nil {
			log.Fatalf("analyze: %v", err)
		}
		fmt.Printf("[%s/%s]\n%s\n", res.Provider, res.Model, res.Content)
		return
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
	case <-ctx.Done():
	}
	guard.Logout()
}
