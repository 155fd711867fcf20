package main

import (
	"os"

	"tracker/internal/backend"
	"tracker/internal/cli"
	"tracker/internal/log"
	"tracker/internal/storeapi"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig()

	ctx, stop := cli.SignalContext()
	defer stop()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	srv := storeapi.NewServer(":"+cfg.StorePort, result.Backend, logger,
		storeapi.WithWriteLimit(cfg.StoreRateLimit))
	cli.ApplyServerLimits(&srv.Server)

	logger.Info("Starting transaction store",
		"port", cfg.StorePort,
		log.FieldBackend, cfg.DataBackend,
		"cache", bcfg.CacheTTL > 0,
		"events", cfg.AMQPURL != "")
	if err := cli.Serve(ctx, logger, &srv.Server, cli.ShutdownTimeout); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.StorePort)
		stop()
		_ = result.Cleanup()
		os.Exit(1)
	}
}
