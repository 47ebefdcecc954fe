// Package pipeline sequences the audio transform for one request:
// fetch the remote audio, plan the filter chain, run the transcoder,
// hand back a streamable result, and guarantee temp-file cleanup on
// every exit path.
package pipeline

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/latoulicious/transpose/internal/log"
	"github.com/latoulicious/transpose/pkg/fetch"
	"github.com/latoulicious/transpose/pkg/filter"
	"github.com/latoulicious/transpose/pkg/transform"
)

// Manager coordinates the per-request pipeline. It is safe for
// concurrent use; requests share nothing but the temp directory
// namespace, where per-session unique names prevent collisions.
type Manager struct {
	cfg         *Config
	fetcher     Fetcher
	transformer Transformer
	janitor     *Janitor
	logger      zerolog.Logger
}

// NewManager validates the configuration, creates the temp directory
// and wires the adapters.
func NewManager(cfg *Config, fetcher Fetcher, transformer Transformer) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.TempDir, 0o755); err != nil {
		return nil, err
	}
	return &Manager{
		cfg:         cfg,
		fetcher:     fetcher,
		transformer: transformer,
		janitor:     NewJanitor(),
		logger:      log.WithComponent("pipeline"),
	}, nil
}

// Config exposes the pipeline configuration (the HTTP layer needs the
// request deadline).
func (m *Manager) Config() *Config {
	return m.cfg
}

// Close flushes any pending temp-file cleanup.
func (m *Manager) Close() {
	m.janitor.Close()
}

// Result is a completed pipeline run ready for streaming. Release must
// be called exactly when streaming finishes (or fails); it closes the
// file and schedules deletion of the session's temp pair after the
// grace delay.
type Result struct {
	Session *Session
	File    *os.File
	Size    int64

	once    sync.Once
	release func()
}

func (r *Result) Release() {
	r.once.Do(r.release)
}

// Process runs the full pipeline for one request. Callers pass a
// context carrying the whole-request deadline; it cancels an in-flight
// fetch or transform, not just the final response.
func (m *Manager) Process(ctx context.Context, req TransformRequest) (*Result, error) {
	logger := m.logger.With().Str("video_id", req.VideoID).Logger()

	logger.Debug().Str("state", StateValidating.String()).Msg("pipeline state")
	if verr := ValidateRequest(req); verr != nil {
		return nil, m.fail(logger, nil, verr)
	}

	// Duration gate before any file is created.
	meta, err := m.fetcher.Metadata(ctx, req.VideoID)
	if err != nil {
		return nil, m.fail(logger, nil, Categorize(err))
	}
	if meta.Duration > m.cfg.MaxSourceDuration {
		verr := newError(CategoryValidation, "source duration %s exceeds the %s limit",
			meta.Duration, m.cfg.MaxSourceDuration)
		return nil, m.fail(logger, nil, verr)
	}

	session := NewSession(m.cfg.TempDir)
	logger = logger.With().Str("session_id", session.ID).Logger()

	logger.Info().Str("state", StateFetching.String()).Msg("pipeline state")
	fetchStart := time.Now()
	if err := m.fetcher.Download(ctx, req.VideoID, session.InputPath); err != nil {
		return nil, m.fail(logger, session, Categorize(err))
	}
	fetchDuration.Observe(time.Since(fetchStart).Seconds())

	chain := filter.Plan(req.PitchShift, req.Speed)

	logger.Info().
		Str("state", StateTransforming.String()).
		Str("filters", chain.Render()).
		Msg("pipeline state")
	transformStart := time.Now()
	if err := m.transformer.Transform(ctx, session.InputPath, session.OutputPath, chain); err != nil {
		return nil, m.fail(logger, session, Categorize(err))
	}
	transformDuration.Observe(time.Since(transformStart).Seconds())

	file, err := os.Open(session.OutputPath)
	if err != nil {
		return nil, m.fail(logger, session, &Error{Category: CategoryInternal, Err: err})
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, m.fail(logger, session, &Error{Category: CategoryInternal, Err: err})
	}

	logger.Info().
		Str("state", StateStreaming.String()).
		Int64("size", info.Size()).
		Msg("pipeline state")
	requestsTotal.WithLabelValues("success").Inc()

	return &Result{
		Session: session,
		File:    file,
		Size:    info.Size(),
		release: func() {
			file.Close()
			m.janitor.ScheduleRemoval(session, m.cfg.CleanupGrace)
		},
	}, nil
}

// fail records metrics, cleans the session's files when one exists and
// returns the classified error.
func (m *Manager) fail(logger zerolog.Logger, session *Session, perr *Error) *Error {
	if session != nil {
		m.janitor.RemoveNow(session)
	}
	requestsTotal.WithLabelValues(perr.Category.String()).Inc()
	logger.Error().
		Str("state", StateFailed.String()).
		Str("category", perr.Category.String()).
		Err(perr.Err).
		Msg("pipeline failed")
	return perr
}

// Categorize maps adapter errors onto the pipeline taxonomy.
func Categorize(err error) *Error {
	var ferr *fetch.Error
	if errors.As(err, &ferr) {
		switch ferr.Kind {
		case fetch.KindUnavailable:
			return &Error{Category: CategoryNotFound, Err: err}
		case fetch.KindTimeout:
			return &Error{Category: CategoryTimeout, Err: err}
		default:
			return &Error{Category: CategoryInternal, Err: err}
		}
	}

	var terr *transform.Error
	if errors.As(err, &terr) {
		if terr.Kind == transform.KindTimeout {
			return &Error{Category: CategoryTimeout, Err: err}
		}
		return &Error{Category: CategoryProcessing, Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{Category: CategoryTimeout, Err: err}
	}
	return &Error{Category: CategoryInternal, Err: err}
}
