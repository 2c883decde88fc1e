// Command teamzonesd runs the TeamZones ingest daemon: it consumes
// upload-finalized events, processes videos through the extraction and
// transcription pipeline, and serves the local status API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"teamzones/internal/config"
	"teamzones/internal/daemon"
	"teamzones/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "teamzonesd: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, resolvedPath, exists, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return err
	}

	if !exists {
		logger.Info("no config file found, using defaults", logging.String("path", resolvedPath))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := daemon.New(cfg, logger)
	if err := d.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return d.Stop(shutdownCtx)
}
