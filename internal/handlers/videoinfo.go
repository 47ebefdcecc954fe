package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/latoulicious/transpose/pkg/common"
	"github.com/latoulicious/transpose/pkg/pipeline"
)

// descriptionLimit bounds the truncated description in metadata
// responses.
const descriptionLimit = 200

type videoInfoResponse struct {
	Title              string `json:"title"`
	Duration           string `json:"duration"`
	ViewCount          string `json:"view_count"`
	Author             string `json:"author"`
	Description        string `json:"description"`
	RawDurationSeconds int    `json:"rawDurationSeconds"`
}

func (s *Server) handleVideoInfo(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "id")
	if !common.IsValidVideoID(videoID) {
		s.writeError(w, r, &pipeline.Error{
			Category: pipeline.CategoryValidation,
			Err:      errInvalidVideoID(videoID),
		})
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	meta, err := s.fetcher.Metadata(ctx, videoID)
	if err != nil {
		s.writeError(w, r, pipeline.Categorize(err))
		return
	}
	if meta.Duration > s.manager.Config().MaxSourceDuration {
		s.writeError(w, r, &pipeline.Error{
			Category: pipeline.CategoryValidation,
			Err:      errSourceTooLong(meta.Duration, s.manager.Config().MaxSourceDuration),
		})
		return
	}

	seconds := int(meta.Duration.Seconds())
	writeJSON(w, http.StatusOK, videoInfoResponse{
		Title:              meta.Title,
		Duration:           common.FormatDuration(seconds),
		ViewCount:          common.AbbreviateCount(meta.Views),
		Author:             meta.Author,
		Description:        common.TruncateDescription(meta.Description, descriptionLimit),
		RawDurationSeconds: seconds,
	})
}
