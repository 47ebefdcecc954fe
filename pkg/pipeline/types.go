package pipeline

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/latoulicious/transpose/pkg/common"
)

// State represents the per-request pipeline state.
type State int

const (
	StateValidating State = iota
	StateFetching
	StateTransforming
	StateStreaming
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateValidating:
		return "validating"
	case StateFetching:
		return "fetching"
	case StateTransforming:
		return "transforming"
	case StateStreaming:
		return "streaming"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrorCategory classifies pipeline errors for response mapping.
type ErrorCategory int

const (
	CategoryValidation ErrorCategory = iota
	CategoryNotFound
	CategoryTimeout
	CategoryProcessing
	CategoryInternal
)

func (c ErrorCategory) String() string {
	switch c {
	case CategoryValidation:
		return "validation"
	case CategoryNotFound:
		return "not_found"
	case CategoryTimeout:
		return "timeout"
	case CategoryProcessing:
		return "processing"
	default:
		return "internal"
	}
}

// Error is a classified pipeline error carrying the underlying cause.
type Error struct {
	Category ErrorCategory
	Err      error
}

func (e *Error) Error() string {
	return "pipeline " + e.Category.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(category ErrorCategory, format string, args ...interface{}) *Error {
	return &Error{Category: category, Err: fmt.Errorf(format, args...)}
}

// TransformRequest carries the validated client parameters.
type TransformRequest struct {
	VideoID    string
	PitchShift int
	Speed      float64
}

// Parameter bounds enforced before any external call.
const (
	PitchShiftMin = -12
	PitchShiftMax = 12
	SpeedMin      = 0.25
	SpeedMax      = 2.0
)

// ValidateRequest checks the request against the parameter bounds.
// Invalid requests never reach the fetch adapter.
func ValidateRequest(req TransformRequest) *Error {
	if !common.IsValidVideoID(req.VideoID) {
		return newError(CategoryValidation, "invalid video id %q", req.VideoID)
	}
	if req.PitchShift < PitchShiftMin || req.PitchShift > PitchShiftMax {
		return newError(CategoryValidation, "pitch shift %d out of range [%d, %d]",
			req.PitchShift, PitchShiftMin, PitchShiftMax)
	}
	if req.Speed < SpeedMin || req.Speed > SpeedMax {
		return newError(CategoryValidation, "speed %.3f out of range [%.2f, %.2f]",
			req.Speed, SpeedMin, SpeedMax)
	}
	return nil
}

// Session is the transient identity and file pair of one in-flight
// request. Sessions never share files; the unique id is the sole
// collision mechanism between concurrent requests.
type Session struct {
	ID         string
	InputPath  string
	OutputPath string
	CreatedAt  time.Time
}

// NewSession allocates a fresh session with paths derived from a
// unique id under tempDir.
func NewSession(tempDir string) *Session {
	id := uuid.NewString()
	return &Session{
		ID:         id,
		InputPath:  filepath.Join(tempDir, id+"-input.m4a"),
		OutputPath: filepath.Join(tempDir, id+"-output.mp3"),
		CreatedAt:  time.Now(),
	}
}
