package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Deployment modes. Mode selects the CORS allow-list and the default
// ffmpeg binary location; everything else is fixed constants.
const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

type Config struct {
	Mode       string
	Port       int
	TempDir    string
	FFmpegPath string
}

// LoadConfig reads configuration from the environment. The .env file is
// loaded by the caller before this runs (see cmd/main.go).
func LoadConfig() (*Config, error) {
	mode := os.Getenv("APP_MODE")
	if mode == "" {
		mode = ModeDevelopment
	}
	if mode != ModeDevelopment && mode != ModeProduction {
		return nil, fmt.Errorf("invalid APP_MODE %q", mode)
	}

	port := 8080
	if raw := os.Getenv("PORT"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 65535 {
			return nil, fmt.Errorf("invalid PORT %q", raw)
		}
		port = parsed
	}

	tempDir := os.Getenv("TEMP_DIR")
	if tempDir == "" {
		tempDir = filepath.Join(os.TempDir(), "transpose")
	}

	ffmpegPath := os.Getenv("FFMPEG_PATH")
	if ffmpegPath == "" {
		if mode == ModeProduction {
			ffmpegPath = "/usr/bin/ffmpeg"
		} else {
			ffmpegPath = "ffmpeg" // resolved via PATH in development
		}
	}

	return &Config{
		Mode:       mode,
		Port:       port,
		TempDir:    tempDir,
		FFmpegPath: ffmpegPath,
	}, nil
}

// AllowedOrigins returns the CORS allow-list for the configured mode.
func (c *Config) AllowedOrigins() []string {
	if c.Mode == ModeProduction {
		return []string{"https://transpose.app"}
	}
	return []string{"http://localhost:3000", "http://localhost:5173"}
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Mode == ModeProduction
}
