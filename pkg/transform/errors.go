package transform

// ErrorKind classifies transform failures for response mapping.
type ErrorKind int

const (
	// KindTimeout means the processing deadline expired and the
	// subprocess was killed.
	KindTimeout ErrorKind = iota
	// KindProcessing means the subprocess exited with an error.
	KindProcessing
)

func (k ErrorKind) String() string {
	if k == KindTimeout {
		return "timeout"
	}
	return "processing"
}

// Error is a classified transform failure. Stderr carries the tail of
// the subprocess diagnostics when available.
type Error struct {
	Kind   ErrorKind
	Stderr string
	Err    error
}

func (e *Error) Error() string {
	msg := "transform " + e.Kind.String() + ": " + e.Err.Error()
	if e.Stderr != "" {
		msg += " (stderr: " + e.Stderr + ")"
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// stderrTail retains only the last max bytes written to it, so a noisy
// subprocess cannot grow memory unbounded.
type stderrTail struct {
	max int
	buf []byte
}

func newStderrTail(max int) *stderrTail {
	return &stderrTail{max: max}
}

func (t *stderrTail) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if len(t.buf) > t.max {
		t.buf = t.buf[len(t.buf)-t.max:]
	}
	return len(p), nil
}

func (t *stderrTail) String() string {
	return string(t.buf)
}
