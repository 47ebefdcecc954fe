// Package transform wraps the external transcoder subprocess. It runs
// ffmpeg against a local input file with a rendered filter chain and a
// hard timeout, producing a 128 kbps MP3.
package transform

import (
	"context"
	"os/exec"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/latoulicious/transpose/internal/log"
	"github.com/latoulicious/transpose/pkg/filter"
)

// Fixed output encoding. The service always produces MP3 at 128 kbps.
const (
	AudioCodec   = "libmp3lame"
	AudioBitrate = "128k"
)

// Transformer runs ffmpeg as a supervised subprocess.
type Transformer struct {
	bin     string
	timeout time.Duration
	logger  zerolog.Logger
}

// New creates a transformer using the given ffmpeg binary path and hard
// processing timeout.
func New(binPath string, timeout time.Duration) *Transformer {
	if binPath == "" {
		binPath = "ffmpeg"
	}
	return &Transformer{
		bin:     binPath,
		timeout: timeout,
		logger:  log.WithComponent("transform"),
	}
}

// Transform re-encodes inputPath into outputPath applying the filter
// chain in order. On timeout the subprocess is killed. On failure a
// partial output file may remain; deleting it is the caller's
// responsibility.
func (t *Transformer) Transform(ctx context.Context, inputPath, outputPath string, chain filter.Chain) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	args := BuildArgs(inputPath, outputPath, chain)

	// CommandContext sends SIGKILL when the deadline expires.
	cmd := exec.CommandContext(ctx, t.bin, args...)
	tail := newStderrTail(2048)
	cmd.Stderr = tail

	started := time.Now()
	t.logger.Debug().
		Str("event", "transform.start").
		Strs("args", args).
		Msg("starting ffmpeg")

	err := cmd.Run()
	if err != nil {
		if ctx.Err() != nil {
			return &Error{Kind: KindTimeout, Err: errors.Wrap(ctx.Err(), "ffmpeg timed out")}
		}
		return &Error{
			Kind:   KindProcessing,
			Stderr: tail.String(),
			Err:    errors.Wrap(err, "ffmpeg failed"),
		}
	}

	t.logger.Info().
		Str("event", "transform.complete").
		Dur("elapsed", time.Since(started)).
		Str("output", outputPath).
		Msg("transcode complete")
	return nil
}

// BuildArgs constructs the ffmpeg argument list. Arguments are passed
// directly to exec, never through a shell.
func BuildArgs(inputPath, outputPath string, chain filter.Chain) []string {
	args := []string{
		"-y",
		"-nostdin",
		"-hide_banner",
		"-loglevel", "error",
		"-i", inputPath,
		"-vn",
	}
	if len(chain) > 0 {
		args = append(args, "-af", chain.Render())
	}
	args = append(args,
		"-codec:a", AudioCodec,
		"-b:a", AudioBitrate,
		"-f", "mp3",
		outputPath,
	)
	return args
}
