package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/latoulicious/transpose/pkg/pipeline"
)

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps the pipeline error taxonomy onto HTTP statuses.
func statusFor(category pipeline.ErrorCategory) int {
	switch category {
	case pipeline.CategoryValidation:
		return http.StatusBadRequest
	case pipeline.CategoryNotFound:
		return http.StatusNotFound
	case pipeline.CategoryTimeout:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// coarseMessage is what production clients see; internals stay in logs.
func coarseMessage(category pipeline.ErrorCategory) string {
	switch category {
	case pipeline.CategoryValidation:
		return "invalid request parameters"
	case pipeline.CategoryNotFound:
		return "video unavailable"
	case pipeline.CategoryTimeout:
		return "processing timed out"
	case pipeline.CategoryProcessing:
		return "audio processing failed"
	default:
		return "internal server error"
	}
}

// writeJSON writes v as a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError logs the full failure and responds with the mapped status
// and a category-level message. In development mode the underlying
// detail is included to ease debugging.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	perr := asPipelineError(err)

	s.logger.Error().
		Str("event", "http.request_failed").
		Str("path", r.URL.Path).
		Str("category", perr.Category.String()).
		Err(perr.Err).
		Msg("request failed")

	msg := coarseMessage(perr.Category)
	if !s.cfg.IsProduction() {
		msg = perr.Error()
	}
	writeJSON(w, statusFor(perr.Category), errorResponse{Error: msg})
}

func asPipelineError(err error) *pipeline.Error {
	var perr *pipeline.Error
	if errors.As(err, &perr) {
		return perr
	}
	return &pipeline.Error{Category: pipeline.CategoryInternal, Err: err}
}
