// Package reaper is the safety net for temp files whose owning request
// never cleaned up (crash, abandoned session). It periodically deletes
// anything in the temp directory older than a configured age. Primary
// cleanup stays with the pipeline janitor.
package reaper

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/latoulicious/transpose/internal/log"
)

// Defaults: the max age is set comfortably above any single request's
// lifetime (the whole-request deadline is seconds), so a live request's
// files are never reaped out from under it.
const (
	DefaultSchedule = "@every 5m"
	DefaultMaxAge   = 20 * time.Minute
)

// Reaper sweeps a temp directory on a fixed schedule.
type Reaper struct {
	dir    string
	maxAge time.Duration

	cron     *cron.Cron
	mu       sync.Mutex
	sweeping bool
	logger   zerolog.Logger
}

// New creates a reaper for dir removing files older than maxAge.
func New(dir string, maxAge time.Duration) *Reaper {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Reaper{
		dir:    dir,
		maxAge: maxAge,
		cron:   cron.New(),
		logger: log.WithComponent("reaper"),
	}
}

// Start schedules periodic sweeps. schedule uses cron syntax, e.g.
// "@every 5m".
func (r *Reaper) Start(schedule string) error {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if _, err := r.cron.AddFunc(schedule, func() {
		if _, err := r.Sweep(); err != nil {
			r.logger.Warn().Str("event", "reaper.sweep_failed").Err(err).Msg("sweep failed")
		}
	}); err != nil {
		return err
	}
	r.cron.Start()
	r.logger.Info().
		Str("event", "reaper.started").
		Str("schedule", schedule).
		Dur("max_age", r.maxAge).
		Msg("temp-file reaper started")
	return nil
}

// Stop halts the schedule. A sweep already in flight completes.
func (r *Reaper) Stop() {
	r.cron.Stop()
}

// Sweep deletes every regular file in the directory older than the max
// age by mtime. Per-file stat or delete failures are logged and do not
// abort the rest of the sweep. Returns the number of files removed.
func (r *Reaper) Sweep() (int, error) {
	r.mu.Lock()
	if r.sweeping {
		r.mu.Unlock()
		return 0, nil
	}
	r.sweeping = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.sweeping = false
		r.mu.Unlock()
	}()

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-r.maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(r.dir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			r.logger.Warn().Str("event", "reaper.stat_failed").Str("path", path).Err(err).Msg("skipping file")
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			r.logger.Warn().Str("event", "reaper.remove_failed").Str("path", path).Err(err).Msg("skipping file")
			continue
		}
		removed++
		r.logger.Info().
			Str("event", "reaper.removed").
			Str("path", path).
			Time("mtime", info.ModTime()).
			Msg("reaped orphaned temp file")
	}
	return removed, nil
}
