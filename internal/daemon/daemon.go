// Package daemon ties the ingest components into a long-running service: a
// Kafka consumer feeding the pipeline, a periodic sweep reclaiming stalled
// records, and a local HTTP API for status queries. A file lock guarantees a
// single instance per host.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"teamzones/internal/config"
	"teamzones/internal/events"
	"teamzones/internal/ingest"
	"teamzones/internal/logging"
	"teamzones/internal/media/transcode"
	"teamzones/internal/objectstore"
	"teamzones/internal/speech"
	"teamzones/internal/videostore"
)

// ErrAlreadyRunning reports that another daemon instance holds the lock.
var ErrAlreadyRunning = errors.New("daemon already running")

// Daemon owns the service lifecycle.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	lock     *flock.Flock
	store    *videostore.Store
	pipeline *ingest.Pipeline
	consumer *events.Consumer
	api      *apiServer

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
}

// New prepares a daemon without starting it.
func New(cfg *config.Config, logger *slog.Logger) *Daemon {
	return &Daemon{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "daemon"),
	}
}

// Start acquires the instance lock, opens the store and object-store client,
// and launches the consumer, sweep, and API goroutines.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		return errors.New("daemon already started")
	}

	if err := d.cfg.EnsureDirectories(); err != nil {
		return err
	}

	lock := flock.New(filepath.Join(d.cfg.Paths.LogDir, "teamzonesd.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire daemon lock: %w", err)
	}
	if !locked {
		return ErrAlreadyRunning
	}
	d.lock = lock

	store, err := videostore.Open(d.cfg)
	if err != nil {
		d.releaseLock()
		return err
	}
	d.store = store

	objects, err := objectstore.NewMinioClient(ctx, d.cfg.ObjectStore)
	if err != nil {
		d.closeOnStartFailure()
		return err
	}

	transcoder := transcode.New(d.cfg.FFmpegBinary(), d.cfg.FFprobeBinary())
	speechClient := speech.NewClient(d.cfg.Speech)
	d.pipeline = ingest.New(d.cfg, store, objects, transcoder, speechClient, d.logger)
	d.consumer = events.NewConsumer(d.cfg.Events, d.pipeline.HandleFinalized, d.logger)
	d.api = newAPIServer(d.cfg.Paths.APIBind, store, d.logger)

	runCtx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.stopped = make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		if err := d.consumer.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error("event consumer stopped", logging.Error(err))
		}
	}()
	go func() {
		defer wg.Done()
		d.runSweep(runCtx)
	}()
	go func() {
		defer wg.Done()
		if err := d.api.run(runCtx); err != nil {
			d.logger.Error("api server stopped", logging.Error(err))
		}
	}()
	go func() {
		wg.Wait()
		close(d.stopped)
	}()

	d.logger.Info("daemon started",
		logging.String("api_bind", d.cfg.Paths.APIBind),
		logging.String("topic", d.cfg.Events.Topic))
	return nil
}

// Stop shuts everything down and releases the lock. Safe to call once.
func (d *Daemon) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel == nil {
		return nil
	}

	d.cancel()
	if err := d.consumer.Close(); err != nil {
		d.logger.Warn("closing event consumer", logging.Error(err))
	}

	select {
	case <-d.stopped:
	case <-ctx.Done():
		d.logger.Warn("shutdown deadline reached before workers finished")
	}

	if err := d.store.Close(); err != nil {
		d.logger.Warn("closing record store", logging.Error(err))
	}
	d.releaseLock()
	d.cancel = nil
	d.logger.Info("daemon stopped")
	return nil
}

// runSweep periodically reclaims records stuck in transcribing past the
// configured staleness cutoff.
func (d *Daemon) runSweep(ctx context.Context) {
	interval := time.Duration(d.cfg.Pipeline.SweepIntervalMin) * time.Minute
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-time.Duration(d.cfg.Pipeline.StaleAfterMinutes) * time.Minute)
			reclaimed, err := d.store.ReclaimStale(ctx, cutoff)
			if err != nil {
				d.logger.Error("stale record sweep failed", logging.Error(err))
				continue
			}
			if reclaimed > 0 {
				d.logger.Info("reclaimed stalled records", logging.Int64("count", reclaimed))
			}
		}
	}
}

func (d *Daemon) closeOnStartFailure() {
	if d.store != nil {
		_ = d.store.Close()
		d.store = nil
	}
	d.releaseLock()
}

func (d *Daemon) releaseLock() {
	if d.lock == nil {
		return
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("releasing daemon lock", logging.Error(err))
	}
	d.lock = nil
}
