package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"nanogen/internal/adapter/repo"
	"nanogen/internal/domain"
	"nanogen/internal/http/handlers"
	"nanogen/internal/http/httpapi"
	"nanogen/internal/infra"
	"nanogen/internal/infra/geoip"
	"nanogen/internal/memstore"
	"nanogen/internal/middleware"
	"nanogen/internal/renderer"
	"nanogen/internal/service"
	"nanogen/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	var (
		generations domain.GenerationRepository
		gallery     domain.GalleryRepository
		uploads     domain.UploadRepository
		stats       domain.StatsRepository
	)
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		generations = repo.NewGenerationRepository(pool)
		gallery = repo.NewGalleryRepository(pool)
		uploads = repo.NewUploadRepository(pool)
		stats = repo.NewStatsRepository(pool)
		logger.Info().Msg("using postgres store")
	} else {
		store := memstore.New()
		generations = store.Generations()
		gallery = store.Gallery()
		uploads = store.Uploads()
		stats = store.Stats()
		logger.Warn().Msg("DATABASE_URL not set, using in-memory store")
	}

	files, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}

	backend := renderer.NewMock(renderer.MockOptions{})

	generationSvc := service.NewGenerationService(generations, stats, backend, logger, cfg.RenderTimeout)
	gallerySvc := service.NewGalleryService(gallery, generations, logger)
	uploadSvc := service.NewUploadService(uploads, files, cfg.StorageBaseURL, logger)

	var lookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		lookup = resolver.CountryCode
	}

	app := handlers.NewApp(generationSvc, gallerySvc, uploadSvc, stats, cfg, logger)
	router := httpapi.NewRouter(app, lookup)
	// The drain hook lets in-flight renders finalize before the process
	// exits.
	server := infra.NewHTTPServer(cfg, router, generationSvc.Wait)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
