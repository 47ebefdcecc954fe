package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latoulicious/transpose/internal/config"
	"github.com/latoulicious/transpose/pkg/fetch"
	"github.com/latoulicious/transpose/pkg/filter"
	"github.com/latoulicious/transpose/pkg/pipeline"
)

const testVideoID = "dQw4w9WgXcQ"

type stubFetcher struct {
	metaErr       error
	downloadErr   error
	duration      time.Duration
	views         int64
	metadataCalls int
}

func (s *stubFetcher) Metadata(_ context.Context, videoID string) (*fetch.Video, error) {
	s.metadataCalls++
	if s.metaErr != nil {
		return nil, s.metaErr
	}
	d := s.duration
	if d == 0 {
		d = 125 * time.Second
	}
	return &fetch.Video{
		ID:          videoID,
		Title:       "Never Gonna Give You Up",
		Author:      "Rick Astley",
		Duration:    d,
		Views:       s.views,
		Description: "The official video.",
	}, nil
}

func (s *stubFetcher) Download(_ context.Context, _, destPath string) error {
	if s.downloadErr != nil {
		return s.downloadErr
	}
	return os.WriteFile(destPath, []byte("audio-bytes"), 0o644)
}

type stubTransformer struct {
	err error
}

func (s *stubTransformer) Transform(_ context.Context, inputPath, outputPath string, _ filter.Chain) error {
	if s.err != nil {
		return s.err
	}
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return err
	}
	return os.WriteFile(outputPath, append([]byte("mp3:"), data...), 0o644)
}

type testEnv struct {
	server  *Server
	router  http.Handler
	tempDir string
}

func newTestEnv(t *testing.T, mode string, fetcher pipeline.Fetcher, transformer pipeline.Transformer) *testEnv {
	t.Helper()
	tempDir := t.TempDir()
	cfg := &config.Config{Mode: mode, Port: 8080, TempDir: tempDir, FFmpegPath: "ffmpeg"}

	pcfg := pipeline.DefaultConfig(tempDir)
	pcfg.CleanupGrace = 0
	manager, err := pipeline.NewManager(pcfg, fetcher, transformer)
	require.NoError(t, err)
	t.Cleanup(manager.Close)

	srv := NewServer(cfg, manager, fetcher)
	return &testEnv{server: srv, router: srv.Router(), tempDir: tempDir}
}

func processBody(t *testing.T, videoID string, pitch int, speed float64) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"videoId":       videoID,
		"pitchShift":    pitch,
		"playbackSpeed": speed,
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, config.ModeDevelopment, &stubFetcher{}, &stubTransformer{})

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Contains(t, resp, "uptime_seconds")
	assert.Contains(t, resp, "memory")
}

func TestVideoInfoRejectsInvalidIDBeforeAnyExternalCall(t *testing.T) {
	fetcher := &stubFetcher{}
	env := newTestEnv(t, config.ModeDevelopment, fetcher, &stubTransformer{})

	for _, id := range []string{"short", "has!invalid", "waytoolongvideoid"} {
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/video-info/"+id, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "id %q", id)
	}
	assert.Equal(t, 0, fetcher.metadataCalls, "invalid ids must not reach the fetcher")
}

func TestVideoInfoFormatsMetadata(t *testing.T) {
	fetcher := &stubFetcher{views: 2500000, duration: 125 * time.Second}
	env := newTestEnv(t, config.ModeDevelopment, fetcher, &stubTransformer{})

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/video-info/"+testVideoID, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp videoInfoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Never Gonna Give You Up", resp.Title)
	assert.Equal(t, "2:05", resp.Duration)
	assert.Equal(t, "2.5M", resp.ViewCount)
	assert.Equal(t, "Rick Astley", resp.Author)
	assert.Equal(t, 125, resp.RawDurationSeconds)
}

func TestVideoInfoRejectsOverlongSource(t *testing.T) {
	fetcher := &stubFetcher{duration: time.Hour}
	env := newTestEnv(t, config.ModeDevelopment, fetcher, &stubTransformer{})

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/video-info/"+testVideoID, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVideoInfoMapsUnavailableTo404(t *testing.T) {
	fetcher := &stubFetcher{metaErr: &fetch.Error{Kind: fetch.KindUnavailable, Err: errors.New("private")}}
	env := newTestEnv(t, config.ModeDevelopment, fetcher, &stubTransformer{})

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/video-info/"+testVideoID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProcessAudioSuccessStreamsAttachment(t *testing.T) {
	env := newTestEnv(t, config.ModeDevelopment, &stubFetcher{}, &stubTransformer{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/process-audio", processBody(t, testVideoID, 2, 1.25))
	req.Header.Set("Content-Type", "application/json")
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), testVideoID)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "no-cache")
	assert.Equal(t, "mp3:audio-bytes", rec.Body.String())

	// Grace is zero in tests: both temp files are gone once the handler
	// returns.
	entries, err := os.ReadDir(env.tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestProcessAudioValidationFailures(t *testing.T) {
	env := newTestEnv(t, config.ModeDevelopment, &stubFetcher{}, &stubTransformer{})

	cases := []struct {
		name string
		body *bytes.Buffer
	}{
		{"bad id", processBody(t, "nope", 0, 1)},
		{"pitch too high", processBody(t, testVideoID, 13, 1)},
		{"pitch too low", processBody(t, testVideoID, -13, 1)},
		{"speed too low", processBody(t, testVideoID, 0, 0.1)},
		{"speed too high", processBody(t, testVideoID, 0, 2.5)},
		{"malformed json", bytes.NewBufferString("{not json")},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/process-audio", tc.body)
		env.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, tc.name)
	}

	entries, err := os.ReadDir(env.tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "validation failures must not create temp files")
}

func TestProcessAudioDefaultsOptionalParameters(t *testing.T) {
	env := newTestEnv(t, config.ModeDevelopment, &stubFetcher{}, &stubTransformer{})

	rec := httptest.NewRecorder()
	body := bytes.NewBufferString(`{"videoId":"` + testVideoID + `"}`)
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/process-audio", body))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProcessAudioStatusMapping(t *testing.T) {
	cases := []struct {
		name    string
		fetcher *stubFetcher
		trans   *stubTransformer
		want    int
	}{
		{
			"unavailable video",
			&stubFetcher{downloadErr: &fetch.Error{Kind: fetch.KindUnavailable, Err: errors.New("gone")}},
			&stubTransformer{},
			http.StatusNotFound,
		},
		{
			"fetch timeout",
			&stubFetcher{downloadErr: &fetch.Error{Kind: fetch.KindTimeout, Err: context.DeadlineExceeded}},
			&stubTransformer{},
			http.StatusRequestTimeout,
		},
		{
			"fetch io failure",
			&stubFetcher{downloadErr: &fetch.Error{Kind: fetch.KindIO, Err: errors.New("disk full")}},
			&stubTransformer{},
			http.StatusInternalServerError,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, config.ModeDevelopment, tc.fetcher, tc.trans)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/process-audio", processBody(t, testVideoID, 0, 1))
			env.router.ServeHTTP(rec, req)

			assert.Equal(t, tc.want, rec.Code)

			entries, err := os.ReadDir(env.tempDir)
			require.NoError(t, err)
			assert.Empty(t, entries, "failures must leave no temp files")
		})
	}
}

func TestProductionModeHidesErrorDetail(t *testing.T) {
	fetcher := &stubFetcher{metaErr: &fetch.Error{Kind: fetch.KindUnavailable, Err: errors.New("secret internal detail")}}
	env := newTestEnv(t, config.ModeProduction, fetcher, &stubTransformer{})

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/video-info/"+testVideoID, nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "video unavailable", resp.Error)
	assert.NotContains(t, rec.Body.String(), "secret internal detail")
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, config.ModeDevelopment, &stubFetcher{}, &stubTransformer{})

	req := httptest.NewRequest(http.MethodOptions, "/api/process-audio", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSBlocksUnknownOrigin(t *testing.T) {
	env := newTestEnv(t, config.ModeProduction, &stubFetcher{}, &stubTransformer{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusForCoversTaxonomy(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(pipeline.CategoryValidation))
	assert.Equal(t, http.StatusNotFound, statusFor(pipeline.CategoryNotFound))
	assert.Equal(t, http.StatusRequestTimeout, statusFor(pipeline.CategoryTimeout))
	assert.Equal(t, http.StatusInternalServerError, statusFor(pipeline.CategoryProcessing))
	assert.Equal(t, http.StatusInternalServerError, statusFor(pipeline.CategoryInternal))
}
