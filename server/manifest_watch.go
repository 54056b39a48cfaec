package server

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/skokaina/ark-n8n-custom-nodes/tool"
)

// ManifestWatcherConfig configures a ManifestWatcher.
type ManifestWatcherConfig struct {
	Path     string
	Schedule string
	Logger   *slog.Logger
}

// ManifestWatcher periodically re-reads the manifest and logs when it no
// longer matches what was loaded at startup. It never reloads tools.
type ManifestWatcher struct {
	path   string
	logger *slog.Logger
	cron   *cron.Cron

	mu       sync.Mutex
	baseline manifestSnapshot
	last     manifestSnapshot
	drifted  bool
}

type manifestSnapshot struct {
	present     bool
	valid       bool
	lastUpdated string
	names       []string
}

func (s manifestSnapshot) equal(other manifestSnapshot) bool {
	return s.present == other.present &&
		s.valid == other.valid &&
		s.lastUpdated == other.lastUpdated &&
		slices.Equal(s.names, other.names)
}

// NewManifestWatcher validates the schedule and records the current state of
// the manifest file as the baseline.
func NewManifestWatcher(cfg ManifestWatcherConfig) (*ManifestWatcher, error) {
	if cfg.Path == "" {
		return nil, errors.New("server: manifest path is required")
	}
	schedule, err := parseSchedule(cfg.Schedule)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	w := &ManifestWatcher{
		path:   cfg.Path,
		logger: logger.With(slog.String("component", "manifest_watcher"), slog.String("path", cfg.Path)),
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
	}
	w.baseline = w.snapshot()
	w.last = w.baseline
	w.cron.Schedule(schedule, cron.FuncJob(w.Check))
	return w, nil
}

// Start begins scheduled checks.
func (w *ManifestWatcher) Start() {
	w.cron.Start()
}

// Stop halts scheduled checks and waits for a running check to finish.
func (w *ManifestWatcher) Stop(ctx context.Context) error {
	done := w.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Check re-reads the manifest once and logs a warning the first time each
// new state is observed.
func (w *ManifestWatcher) Check() {
	current := w.snapshot()

	w.mu.Lock()
	changed := !current.equal(w.last)
	w.last = current
	w.drifted = !current.equal(w.baseline)
	drifted := w.drifted
	w.mu.Unlock()

	if !changed {
		return
	}
	if !drifted {
		w.logger.Info("manifest matches loaded tools again")
		return
	}
	w.logger.Warn("manifest changed on disk; restart to apply",
		slog.Bool("present", current.present),
		slog.Bool("valid", current.valid),
		slog.String("last_updated", current.lastUpdated),
		slog.Int("tools", len(current.names)),
	)
}

// Drifted reports whether the last check saw a manifest different from the
// startup baseline.
func (w *ManifestWatcher) Drifted() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.drifted
}

func (w *ManifestWatcher) snapshot() manifestSnapshot {
	manifest, err := tool.ReadManifest(w.path)
	if err != nil {
		_, statErr := os.Stat(w.path)
		return manifestSnapshot{present: statErr == nil}
	}
	return manifestSnapshot{
		present:     true,
		valid:       true,
		lastUpdated: manifest.LastUpdated,
		names:       manifest.Names(),
	}
}
