package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

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
	logger := infra.NewLogger(cfg.AppEnv).With().Str("service", "texture").Logger()
	if err := cfg.ValidateImagen(); err != nil {
		logger.Fatal().Err(err).Msg("invalid imagen configuration")
	}
	ctx := context.Background()

	generator, err := imagen.NewGenerator(ctx, cfg, cfg.TextureTimeout, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure imagen backend")
	}

	files, err := storage.NewFileStore(cfg.TextureDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare texture directory")
	}

	collector := metrics.NewCollector("texture")
	textures := studio.NewTextureService(generator, files, collector, &logger)
	router := httpapi.NewTextureRouter(handlers.NewTextureApp(textures, &logger), collector, logger)

	server := infra.NewHTTPServer(cfg.TextureAddr, cfg, router)

	go func() {
		logger.Info().Str("dir", files.BasePath()).Msgf("texture service listening on %s", server.Addr())
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
