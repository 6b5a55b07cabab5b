// Command seed provisions the unit catalog and each unit's default tracking
// fields. It is idempotent: existing units and already-configured schemas are
// left untouched, so it can run on every deploy.
package main

import (
	"context"
	"os"
	"time"

	"github.com/SRG1996AP/productivity-tracker/internal/config"
	"github.com/SRG1996AP/productivity-tracker/internal/domain"
	"github.com/SRG1996AP/productivity-tracker/internal/observability"
	"github.com/SRG1996AP/productivity-tracker/internal/persistence/postgres"
	"github.com/SRG1996AP/productivity-tracker/internal/schema"
)

var defaultUnits = []domain.Unit{
	{Name: "Management", Description: "Management and oversight"},
	{Name: "Operations Leaders", Description: "Operations leadership activities"},
	{Name: "RTA", Description: "Real time analysts"},
	{Name: "Training", Description: "Training delivery and development"},
	{Name: "QA", Description: "Quality assurance audits"},
	{Name: "Finance", Description: "Finance transactions and reporting"},
	{Name: "TA", Description: "Talent acquisition"},
	{Name: "HR", Description: "Human resources processes"},
	{Name: "IT", Description: "IT support and systems"},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		observability.NewLogger("info").Error("load config", "error", err)
		os.Exit(1)
	}
	log := observability.NewLogger(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := postgres.Migrate(ctx, cfg.PostgresURL); err != nil {
		log.Error("migrate", "error", err)
		os.Exit(1)
	}

	pool, err := postgres.NewPool(ctx, cfg.PostgresURL, postgres.PoolOptions{})
	if err != nil {
		log.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	directory := postgres.NewDirectoryRepository(pool)
	registry := schema.NewRegistry(postgres.NewFieldRepository(pool))

	existing, err := directory.ListUnits(ctx, true)
	if err != nil {
		log.Error("list units", "error", err)
		os.Exit(1)
	}
	byName := make(map[string]domain.Unit, len(existing))
	for _, u := range existing {
		byName[u.Name] = u
	}

	for _, unit := range defaultUnits {
		current, ok := byName[unit.Name]
		if !ok {
			created, err := directory.CreateUnit(ctx, unit)
			if err != nil {
				log.Error("create unit", "name", unit.Name, "error", err)
				os.Exit(1)
			}
			current = created
			log.Info("unit created", "name", current.Name, "unit_id", current.ID)
		}

		seeded, err := registry.ApplyDefaults(ctx, current)
		if err != nil {
			log.Error("seed fields", "name", current.Name, "error", err)
			os.Exit(1)
		}
		if seeded > 0 {
			log.Info("fields seeded", "name", current.Name, "count", seeded)
		}
	}

	log.Info("seed complete")
}
