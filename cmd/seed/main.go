package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"arbor/internal/config"
	"arbor/internal/repository/postgres"
	"arbor/internal/seed"

	"github.com/joho/godotenv"
)

// Seeds the dev database: ensures the schema exists, then inserts a small
// sample knowledge forest. Refuses to run against prod tables.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if cfg.Environment == "prod" {
		log.Fatal("refusing to seed a prod environment")
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)
	seeder := seed.NewTreeSeeder(pool, tables, logger)

	if err := seeder.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}
	if err := seeder.SeedSampleTree(ctx); err != nil {
		log.Fatalf("Failed to seed sample tree: %v", err)
	}

	logger.Info("seed complete", "table_prefix", cfg.TablePrefix)
}
