package core

// sweeper.go removes transient files left behind by interrupted requests.
//
// Uploads are deleted by the importer and exports by the handler that served
// them, but a crash or a client hanging up mid-download can leave files in
// the transient directories. The sweeper runs periodically and removes files
// that match the upload or export prefix and are older than MaxAge. Failures
// are logged and never stop the loop.

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SweepConfig holds configuration for the transient file sweeper.
type SweepConfig struct {
	Interval time.Duration // How often to run (default: 15m)
	MaxAge   time.Duration // Files older than this are removed (default: 1h)
}

func (c SweepConfig) withDefaults() SweepConfig {
	if c.Interval <= 0 {
		c.Interval = 15 * time.Minute
	}
	if c.MaxAge <= 0 {
		c.MaxAge = time.Hour
	}
	return c
}

// StartSweeper runs a sweep immediately, then every cfg.Interval until ctx
// is cancelled. Call it in its own goroutine.
func StartSweeper(ctx context.Context, dirs []string, cfg SweepConfig) {
	cfg = cfg.withDefaults()
	slog.Info("sweeper started",
		"dirs", dirs,
		"interval", cfg.Interval.String(),
		"max_age", cfg.MaxAge.String(),
	)

	sweepAll(dirs, cfg.MaxAge, time.Now())

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("sweeper stopped")
			return
		case now := <-ticker.C:
			sweepAll(dirs, cfg.MaxAge, now)
		}
	}
}

func sweepAll(dirs []string, maxAge time.Duration, now time.Time) {
	start := time.Now()
	total := 0
	for _, dir := range dirs {
		n, err := Sweep(dir, maxAge, now)
		if err != nil {
			slog.Error("sweep failed", "dir", dir, "error", err)
		}
		total += n
	}
	if total > 0 {
		slog.Info("swept transient files",
			"files_removed", total,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// Sweep removes transient roster files in dir last modified before
// now-maxAge and returns how many were removed. A missing dir is not an error.
func Sweep(dir string, maxAge time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := now.Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !isTransientFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			if !os.IsNotExist(err) {
				slog.Warn("failed to remove transient file", "path", path, "error", err)
			}
			continue
		}
		removed++
	}
	return removed, nil
}

func isTransientFile(name string) bool {
	if !strings.HasSuffix(name, ".xlsx") {
		return false
	}
	return strings.HasPrefix(name, ExportFilePrefix) || strings.HasPrefix(name, UploadFilePrefix)
}
