package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"imagestudio/internal/gallery"
	"imagestudio/internal/http/handlers"
	httpapi "imagestudio/internal/http/httpapi"
	"imagestudio/internal/imagen"
	"imagestudio/internal/infra"
	"imagestudio/internal/metrics"
	"imagestudio/internal/storage"
	"imagestudio/internal/studio"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)
	if err := cfg.ValidateImagen(); err != nil {
		logger.Fatal().Err(err).Msg("invalid imagen configuration")
	}
	ctx := context.Background()

	// Optional Postgres mirror of the gallery metadata.
	var mirror gallery.Mirror
	if cfg.DatabaseURL != "" {
		dbpool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer dbpool.Close()

		pg := gallery.NewPostgresMirror(infra.NewSQLRunner(dbpool, logger))
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare gallery schema")
		}
		mirror = pg
	}

	generator, err := imagen.NewGenerator(ctx, cfg, cfg.ImagenTimeout, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure imagen backend")
	}

	files, err := storage.NewFileStore(cfg.GeneratedDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare generated directory")
	}
	store := gallery.NewStore(files, mirror, &logger)
	if created, err := store.Bootstrap(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to bootstrap gallery metadata")
	} else if created {
		logger.Info().Str("dir", files.BasePath()).Msg("gallery metadata initialized")
	}

	collector := metrics.NewCollector("imagestudio")
	svc := studio.NewService(generator, store, collector, &logger)
	app := handlers.NewApp(svc, store, collector, &logger)
	router := httpapi.NewRouter(cfg, app, collector, logger)

	server := infra.NewHTTPServer(":"+cfg.Port, cfg, router)

	go func() {
		logger.Info().
			Str("backend", cfg.ImagenBackend).
			Str("model", cfg.ImagenModel).
			Msgf("image studio listening on %s", server.Addr())
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
