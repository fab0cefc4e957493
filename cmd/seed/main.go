package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"nabidh-access-engine/internal/config"
	"nabidh-access-engine/internal/domain/model"
	pg "nabidh-access-engine/internal/infra/db/postgres"
	"nabidh-access-engine/internal/infra/logging"
	"nabidh-access-engine/internal/usecase"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Log, true)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	if err := pg.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("schema: %v", err)
	}
	fmt.Println("schema ensured")

	recordRepo := pg.NewAccessRecordRepo(pool)
	auditRepo := pg.NewAuditLogRepo(pool)
	txManager := pg.NewTxManager(pool)
	generatorUC := usecase.NewGeneratorUseCase(recordRepo, auditRepo, txManager, cfg.Generator.MaxAttempts, logger)

	// A couple of demo codes for manual testing
	seed := []struct {
		Owner string
		Plan  model.PlanType
	}{
		{"Demo Monthly", model.PlanMonthly},
		{"Demo Yearly", model.PlanYearly},
	}

	for _, s := range seed {
		rec, err := generatorUC.Generate(ctx, "seed", s.Owner, s.Plan)
		if err != nil {
			log.Fatalf("generate %q: %v", s.Owner, err)
		}
		fmt.Printf("seeded: %s (%s, %s)\n", rec.Code, rec.OwnerName, rec.PlanType)
	}

	fmt.Println("seeding complete")
}
