package pipeline

import (
	"context"

	"github.com/latoulicious/transpose/pkg/fetch"
	"github.com/latoulicious/transpose/pkg/filter"
)

// Fetcher acquires remote metadata and audio streams.
type Fetcher interface {
	Metadata(ctx context.Context, videoID string) (*fetch.Video, error)
	Download(ctx context.Context, videoID, destPath string) error
}

// Transformer re-encodes a local input file into a local output file
// applying an ordered filter chain.
type Transformer interface {
	Transform(ctx context.Context, inputPath, outputPath string, chain filter.Chain) error
}
