package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"pixify/internal/adapters/auth"
	"pixify/internal/adapters/converter"
	"pixify/internal/adapters/file"
	"pixify/internal/adapters/generator"
	"pixify/internal/adapters/handler"
	"pixify/internal/config"
	"pixify/internal/core/port"
	"pixify/internal/core/service"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Info().Msg("starting pixify...")

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("could not load config")
	}

	zerolog.SetGlobalLevel(cfg.Level())
	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	imageGenerator, err := newGenerator(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.Provider).Msg("failed initializing image generator")
	}

	processor := service.NewImageProcessor(imageGenerator, file.NewFetcher(), converter.NewConverter())

	verifier, err := auth.NewJWKSVerifier(ctx, cfg.AuthDomain, cfg.AuthAudience)
	if err != nil {
		log.Fatal().Err(err).Str("domain", cfg.AuthDomain).Msg("failed initializing token verifier")
	}

	router := handler.NewRouter(log.Logger, processor, service.NewAuthorizer(verifier), handler.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("address", cfg.Server.Address).Str("provider", cfg.Provider).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func newGenerator(cfg *config.Config) (port.ImageGenerator, error) {
	switch cfg.Provider {
	case config.ProviderFAL:
		apiKey, err := cfg.ResolveSecret("fal_api_key", "FAL_API_KEY")
		if err != nil {
			return nil, err
		}
		return generator.NewFAL(cfg.FALURL, apiKey), nil
	default:
		apiKey, err := cfg.ResolveSecret("openai_api_key", "OPENAI_API_KEY")
		if err != nil {
			return nil, err
		}
		return generator.NewOpenAI(apiKey, cfg.OpenAIBaseURL, cfg.OpenAIModel), nil
	}
}
