package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"sheetmatch/internal/api"
	"sheetmatch/internal/config"
	"sheetmatch/internal/logging"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load .env")
	}

	v := config.New(os.Getenv("SHEETMATCH_CONFIG"))
	if err := config.ReadInConfig(v); err != nil {
		log.Fatal().Err(err).Msg("Failed to read config")
	}
	cfg, err := config.Load(v)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// PORT is honoured for platforms that assign one
	if port := os.Getenv("PORT"); port != "" {
		v.Set("server.port", port)
		if cfg, err = config.Load(v); err != nil {
			log.Fatal().Err(err).Msg("Invalid configuration")
		}
	}

	logCfg := cfg.Log
	logCfg.Level = logging.ResolveLevel(cfg.Log.Level, false, false)
	logger := logging.NewLoggerFromConfig(&logCfg)
	logging.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := api.Serve(ctx, *cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}
