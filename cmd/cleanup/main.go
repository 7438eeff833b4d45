package main

import (
	"context"
	"flag"
	"time"

	"github.com/joho/godotenv"

	"nanogen/internal/adapter/repo"
	"nanogen/internal/infra"
	"nanogen/internal/service"
	"nanogen/internal/storage"
)

// One-shot sweep of uploads older than the retention window.
func main() {
	days := flag.Int("days", 7, "delete uploads older than this many days")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if cfg.DatabaseURL == "" {
		logger.Fatal().Msg("DATABASE_URL is required for the cleanup sweep")
	}
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer pool.Close()
	uploads := repo.NewUploadRepository(pool)

	files, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}

	svc := service.NewUploadService(uploads, files, cfg.StorageBaseURL, logger)
	removed, err := svc.CleanupOlderThan(ctx, *days)
	if err != nil {
		logger.Fatal().Err(err).Msg("cleanup sweep failed")
	}
	logger.Info().Int("removed", removed).Int("days", *days).Msg("cleanup finished")
}
