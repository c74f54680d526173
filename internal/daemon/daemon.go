// Package daemon coordinates the background services of briefcastd: the
// pipeline worker pool and the HTTP API, with single-instance enforcement.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"briefcast/internal/config"
	"briefcast/internal/jobs"
	"briefcast/internal/logging"
	"briefcast/internal/pipeline"
)

const shutdownTimeout = 10 * time.Second

// Daemon owns the daemon lifecycle and enforces single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *jobs.Store
	manager *pipeline.Manager

	httpServer *http.Server
	lockPath   string
	lock       *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status reports daemon runtime information.
type Status struct {
	Running      bool
	APIBind      string
	DataDir      string
	LockFilePath string
	Jobs         jobs.Stats
}

// New constructs a daemon with initialized dependencies. handler is the API
// route table to serve.
func New(cfg *config.Config, store *jobs.Store, manager *pipeline.Manager, handler http.Handler, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || manager == nil || handler == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, manager, handler, and logger")
	}
	lockPath := filepath.Join(cfg.Paths.LogDir, "briefcastd.lock")
	return &Daemon{
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "daemon"),
		store:   store,
		manager: manager,
		httpServer: &http.Server{
			Addr:              cfg.Paths.APIBind,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock, launches the worker pool, and begins
// serving the API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another briefcast daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	if err := d.manager.Start(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		d.cancel = nil
		return fmt.Errorf("start pipeline: %w", err)
	}

	go func() {
		if err := d.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.logger.Error("api server stopped", logging.Error(err))
			cancel()
		}
	}()

	d.running.Store(true)
	d.logger.InfoContext(ctx, "briefcast daemon started",
		logging.String("bind", d.cfg.Paths.APIBind),
		logging.String("lock", d.lockPath))
	return nil
}

// Stop drains the API server and worker pool, then releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := d.httpServer.Shutdown(shutdownCtx); err != nil {
		d.logger.Warn("api server shutdown", logging.Error(err))
	}

	d.manager.Stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("briefcast daemon stopped")
}

// Close stops the daemon and releases the job store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	stats, err := d.store.Stats(ctx)
	if err != nil {
		d.logger.Warn("job stats unavailable", logging.Error(err))
	}
	return Status{
		Running:      d.running.Load(),
		APIBind:      d.cfg.Paths.APIBind,
		DataDir:      d.cfg.Paths.DataDir,
		LockFilePath: d.lockPath,
		Jobs:         stats,
	}
}
