package fetch

import (
	"context"
	"errors"
	"os"

	"github.com/kkdai/youtube/v2"
)

// ErrorKind classifies fetch failures for response mapping.
type ErrorKind int

const (
	// KindUnavailable means the remote reported the video missing,
	// private or otherwise restricted.
	KindUnavailable ErrorKind = iota
	// KindTimeout means the fetch deadline expired.
	KindTimeout
	// KindIO means the local destination write failed.
	KindIO
	// KindOther covers everything else.
	KindOther
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindTimeout:
		return "timeout"
	case KindIO:
		return "io"
	default:
		return "other"
	}
}

// Error is a classified fetch failure carrying the underlying cause.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return "fetch " + e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// classify maps an underlying error to a typed fetch Error.
func classify(err error) *Error {
	var playability *youtube.ErrPlayabiltyStatus
	var playabilityVal youtube.ErrPlayabiltyStatus
	var status youtube.ErrUnexpectedStatusCode
	var pathErr *os.PathError

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return &Error{Kind: KindTimeout, Err: err}
	case errors.Is(err, youtube.ErrVideoPrivate),
		errors.Is(err, youtube.ErrInvalidCharactersInVideoID),
		errors.Is(err, youtube.ErrVideoIDMinLength),
		errors.As(err, &playability),
		errors.As(err, &playabilityVal):
		return &Error{Kind: KindUnavailable, Err: err}
	case errors.As(err, &status):
		if int(status) == 404 || int(status) == 403 {
			return &Error{Kind: KindUnavailable, Err: err}
		}
		return &Error{Kind: KindOther, Err: err}
	case errors.As(err, &pathErr):
		return &Error{Kind: KindIO, Err: err}
	default:
		return &Error{Kind: KindOther, Err: err}
	}
}
