package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"backstage/internal/config"
	"backstage/internal/logging"
	"backstage/internal/notifications"
	"backstage/internal/programme"
	"backstage/internal/refresh"
)

// Version is stamped by the build; "dev" for local builds.
var Version = "dev"

// Daemon coordinates the refresh jobs and the API server and enforces
// single-instance execution.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	service   *programme.Service
	refresher *refresh.Refresher
	api       *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	started time.Time
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running                 bool
	PID                     int
	Version                 string
	ActCount                int
	LastActsRefresh         time.Time
	LastDescriptionsRefresh time.Time
	LockFilePath            string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, service *programme.Service, refresher *refresh.Refresher, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || service == nil || logger == nil {
		return nil, errors.New("daemon requires config, service, and logger")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "backstaged.lock")
	d := &Daemon{
		cfg:       cfg,
		logger:    logger,
		service:   service,
		refresher: refresher,
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}

	api, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start acquires the daemon lock, starts the API server, and launches the
// refresh loop when enabled.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another backstage daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.api.start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start api server: %w", err)
	}

	if d.cfg.Refresh.Enabled && d.refresher != nil {
		go d.refresher.Run(d.ctx)
	} else {
		d.logger.Info("periodic refresh disabled")
	}

	d.started = time.Now()
	d.running.Store(true)
	d.logger.Info("backstage daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("backstage daemon stopped")
}

// APIAddr returns the address the API server is listening on, empty when the
// daemon is not running.
func (d *Daemon) APIAddr() string {
	if d.api == nil || d.api.listener == nil {
		return ""
	}
	return d.api.listener.Addr().String()
}

// TestNotification triggers a test notification using the current
// configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	notifier := notifications.NewService(d.cfg)
	if err := notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Version:      Version,
		ActCount:     len(d.service.Acts()),
		LockFilePath: d.lockPath,
	}
	if d.refresher != nil {
		status.LastActsRefresh = d.refresher.LastActsRefresh()
		status.LastDescriptionsRefresh = d.refresher.LastDescriptionsRefresh()
	}
	return status
}
