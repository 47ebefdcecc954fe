package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/latoulicious/transpose/pkg/pipeline"
)

// maxRequestBody bounds the process-audio JSON payload.
const maxRequestBody = 1 << 16

type processRequest struct {
	VideoID       string   `json:"videoId"`
	PitchShift    *int     `json:"pitchShift"`
	PlaybackSpeed *float64 `json:"playbackSpeed"`
}

func (s *Server) handleProcessAudio(w http.ResponseWriter, r *http.Request) {
	req, err := decodeProcessRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	result, perr := s.manager.Process(ctx, *req)
	if perr != nil {
		s.writeError(w, r, perr)
		return
	}
	defer result.Release()

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s-transposed.mp3"`, req.VideoID))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", result.Size))
	w.Header().Set("Cache-Control", "no-cache, no-store")

	// From here on the response is committed; a mid-stream failure can
	// only be logged, never re-mapped to an error status.
	if _, err := io.Copy(w, result.File); err != nil {
		s.logger.Warn().
			Str("event", "http.stream_interrupted").
			Str("session_id", result.Session.ID).
			Err(err).
			Msg("client stream interrupted")
	}
}

// decodeProcessRequest parses and defaults the JSON body. Any decode
// problem is a validation error; no external call has happened yet.
func decodeProcessRequest(r *http.Request) (*pipeline.TransformRequest, error) {
	var body processRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		return nil, validationError(fmt.Errorf("malformed request body: %w", err))
	}

	pitch := 0
	if body.PitchShift != nil {
		pitch = *body.PitchShift
	}
	speed := 1.0
	if body.PlaybackSpeed != nil {
		speed = *body.PlaybackSpeed
	}

	return &pipeline.TransformRequest{
		VideoID:    body.VideoID,
		PitchShift: pitch,
		Speed:      speed,
	}, nil
}

func validationError(err error) *pipeline.Error {
	return &pipeline.Error{Category: pipeline.CategoryValidation, Err: err}
}

// requestContext derives the whole-request deadline. It is independent
// of the adapters' own timeouts and cancels an in-flight fetch or
// transform when it expires.
func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.manager.Config().RequestTimeout)
}

func errInvalidVideoID(id string) error {
	return fmt.Errorf("invalid video id %q", id)
}

func errSourceTooLong(got, limit time.Duration) error {
	return fmt.Errorf("source duration %s exceeds the %s limit", got, limit)
}
