package pipeline

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/latoulicious/transpose/internal/log"
)

// Janitor owns the deferred deletion of session temp files. Every
// schedule is tracked so a shutdown can cancel pending timers and
// delete immediately instead of leaking either timers or files.
type Janitor struct {
	mu      sync.Mutex
	pending map[string]*scheduledRemoval
	closed  bool
	logger  zerolog.Logger
}

type scheduledRemoval struct {
	timer   *time.Timer
	session *Session
}

func NewJanitor() *Janitor {
	return &Janitor{
		pending: make(map[string]*scheduledRemoval),
		logger:  log.WithComponent("janitor"),
	}
}

// ScheduleRemoval deletes the session's file pair after the grace
// delay. A zero delay deletes synchronously.
func (j *Janitor) ScheduleRemoval(session *Session, delay time.Duration) {
	if delay <= 0 {
		j.remove(session)
		return
	}

	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		j.remove(session)
		return
	}
	entry := &scheduledRemoval{session: session}
	entry.timer = time.AfterFunc(delay, func() {
		j.mu.Lock()
		delete(j.pending, session.ID)
		j.mu.Unlock()
		j.remove(session)
	})
	j.pending[session.ID] = entry
	j.mu.Unlock()
}

// RemoveNow deletes the session's file pair synchronously. Used on
// adapter failure, where no grace delay applies.
func (j *Janitor) RemoveNow(session *Session) {
	j.remove(session)
}

// PendingCount reports how many removals are still scheduled.
func (j *Janitor) PendingCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.pending)
}

// Close cancels all pending timers and deletes their files right away.
func (j *Janitor) Close() {
	j.mu.Lock()
	j.closed = true
	flush := make([]*scheduledRemoval, 0, len(j.pending))
	for _, entry := range j.pending {
		entry.timer.Stop()
		flush = append(flush, entry)
	}
	j.pending = make(map[string]*scheduledRemoval)
	j.mu.Unlock()

	for _, entry := range flush {
		j.logger.Debug().
			Str("event", "janitor.flush").
			Str("session_id", entry.session.ID).
			Msg("flushing pending cleanup on shutdown")
		j.remove(entry.session)
	}
}

func (j *Janitor) remove(session *Session) {
	for _, path := range []string{session.InputPath, session.OutputPath} {
		err := os.Remove(path)
		if err != nil && !os.IsNotExist(err) {
			j.logger.Warn().
				Str("event", "janitor.remove_failed").
				Str("session_id", session.ID).
				Str("path", path).
				Err(err).
				Msg("failed to delete temp file, reaper will collect it")
		}
	}
}
