package pipeline

import (
	"fmt"
	"time"
)

// Config holds the pipeline timing constants and the temp directory.
type Config struct {
	// TempDir is where per-session input/output files live.
	TempDir string

	// FetchTimeout bounds the remote audio fetch.
	FetchTimeout time.Duration
	// TransformTimeout bounds the transcoder subprocess.
	TransformTimeout time.Duration
	// RequestTimeout is the whole-request deadline, independent of the
	// adapters' own timeouts. It is carried as a context deadline so it
	// cancels an in-flight fetch or transform.
	RequestTimeout time.Duration

	// CleanupGrace delays temp-file deletion after streaming so the OS
	// can finish flushing to the client.
	CleanupGrace time.Duration

	// MaxSourceDuration rejects overlong sources before download.
	MaxSourceDuration time.Duration
}

// DefaultConfig returns the production constants.
func DefaultConfig(tempDir string) *Config {
	return &Config{
		TempDir:           tempDir,
		FetchTimeout:      45 * time.Second,
		TransformTimeout:  90 * time.Second,
		RequestTimeout:    25 * time.Second,
		CleanupGrace:      5 * time.Second,
		MaxSourceDuration: 15 * time.Minute,
	}
}

// Validate checks the configuration for usable values.
func (c *Config) Validate() error {
	if c.TempDir == "" {
		return fmt.Errorf("temp dir must be set")
	}
	if c.FetchTimeout <= 0 || c.TransformTimeout <= 0 || c.RequestTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.CleanupGrace < 0 {
		return fmt.Errorf("cleanup grace must not be negative")
	}
	if c.MaxSourceDuration <= 0 {
		return fmt.Errorf("max source duration must be positive")
	}
	return nil
}
