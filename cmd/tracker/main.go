package main

import (
	"os"

	"tracker/internal/board"
	"tracker/internal/cli"
	apphttp "tracker/internal/http"
	"tracker/internal/log"
	"tracker/internal/remote"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig()

	client, err := remote.New(cfg.RemoteBaseURL,
		remote.WithTimeout(cfg.RemoteTimeout),
		remote.WithLogger(logger))
	if err != nil {
		logger.Error("Failed to create remote store client", log.FieldError, err, log.FieldURL, cfg.RemoteBaseURL)
		os.Exit(1)
	}

	b := board.New(client, board.WithLogger(logger))

	ctx, stop := cli.SignalContext()
	defer stop()

	// The board starts empty if the store is down; /readyz reports it.
	if err := b.Refresh(ctx); err != nil {
		logger.Warn("Initial load failed, starting with an empty board", log.FieldError, err)
	}

	srv := apphttp.NewServer(":"+cfg.Port, b, logger)
	cli.ApplyServerLimits(&srv.Server)

	logger.Info("Starting tracker",
		"port", cfg.Port,
		log.FieldURL, client.Endpoint())
	if err := cli.Serve(ctx, logger, &srv.Server, cli.ShutdownTimeout); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
}
