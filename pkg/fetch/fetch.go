// Package fetch wraps the external YouTube collaborator. It resolves
// metadata for a video ID and streams the best audio-only format to a
// local file, under a hard timeout.
package fetch

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/kkdai/youtube/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/latoulicious/transpose/internal/log"
)

// browserUserAgent reduces rejection by the remote service for the
// underlying stream requests.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Video is the metadata subset the service exposes.
type Video struct {
	ID          string
	Title       string
	Author      string
	Duration    time.Duration
	Views       int64
	Description string
}

// Client fetches metadata and audio streams from YouTube.
type Client struct {
	yt      youtube.Client
	timeout time.Duration
	logger  zerolog.Logger
}

// NewClient creates a fetch client with the given hard timeout applied
// to every metadata lookup and download.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		yt: youtube.Client{
			HTTPClient: &http.Client{
				Transport: &userAgentTransport{base: http.DefaultTransport},
			},
		},
		timeout: timeout,
		logger:  log.WithComponent("fetch"),
	}
}

// Metadata resolves title, author, duration, view count and description
// for the given video ID.
func (c *Client) Metadata(ctx context.Context, videoID string) (*Video, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	video, err := c.yt.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, classify(errors.Wrap(err, "resolve video metadata"))
	}

	return &Video{
		ID:          video.ID,
		Title:       video.Title,
		Author:      video.Author,
		Duration:    video.Duration,
		Views:       int64(video.Views),
		Description: video.Description,
	}, nil
}

// Download streams the highest-bitrate audio-only format to destPath.
// The payload is copied straight to disk, never buffered wholesale. On
// failure a partially written destination file may remain; deleting it
// is the caller's responsibility.
func (c *Client) Download(ctx context.Context, videoID, destPath string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	video, err := c.yt.GetVideoContext(ctx, videoID)
	if err != nil {
		return classify(errors.Wrap(err, "resolve video"))
	}

	format, err := bestAudioFormat(video)
	if err != nil {
		return &Error{Kind: KindUnavailable, Err: err}
	}

	stream, size, err := c.yt.GetStreamContext(ctx, video, format)
	if err != nil {
		return classify(errors.Wrap(err, "open audio stream"))
	}
	defer stream.Close()

	dest, err := os.Create(destPath)
	if err != nil {
		return &Error{Kind: KindIO, Err: errors.Wrap(err, "create destination file")}
	}
	defer dest.Close()

	c.logger.Debug().
		Str("event", "fetch.stream_open").
		Str("video_id", videoID).
		Int64("content_length", size).
		Int("itag", format.ItagNo).
		Msg("streaming audio to temp file")

	written, err := io.Copy(dest, stream)
	if err != nil {
		return classify(errors.Wrap(err, "stream audio to file"))
	}

	c.logger.Info().
		Str("event", "fetch.complete").
		Str("video_id", videoID).
		Int64("bytes", written).
		Msg("audio fetch complete")
	return nil
}

// bestAudioFormat picks the audio-only format with the highest bitrate.
func bestAudioFormat(video *youtube.Video) (*youtube.Format, error) {
	audio := video.Formats.Type("audio")
	if len(audio) == 0 {
		return nil, errors.New("no audio-only formats available")
	}

	best := &audio[0]
	for i := range audio {
		if audio[i].Bitrate > best.Bitrate {
			best = &audio[i]
		}
	}
	return best, nil
}

// userAgentTransport stamps a conventional browser User-Agent on every
// outbound request.
type userAgentTransport struct {
	base http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", browserUserAgent)
	return t.base.RoundTrip(clone)
}
