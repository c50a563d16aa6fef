package httpapi

import (
	"errors"
	"net/http"

	"github.com/antoniostano/vidranker/internal/imagegen"
	"github.com/antoniostano/vidranker/internal/studio"
)

type seoRequest struct {
	Topic string `json:"topic"`
}

type thumbnailRequest struct {
	Prompt string `json:"prompt"`
	Style  string `json:"style"`
}

// thumbnailFailureResponse keeps the chain result and progress log next to
// the error so clients can show what was tried.
type thumbnailFailureResponse struct {
	errorResponse
	Result   imagegen.Result `json:"result"`
	Statuses []string        `json:"statuses"`
}

func (s *Server) handleGenerateSEO(w http.ResponseWriter, r *http.Request) {
	var req seoRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	out, err := s.studio.GenerateSEO(r.Context(), req.Topic)
	if err != nil {
		respondStudioError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGenerateThumbnail(w http.ResponseWriter, r *http.Request) {
	var req thumbnailRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	out, err := s.studio.GenerateThumbnail(r.Context(), req.Prompt, req.Style, nil)
	if err != nil {
		respondStudioError(w, err)
		return
	}
	if !out.Result.Success {
		respondJSON(w, http.StatusBadGateway, thumbnailFailureResponse{
			errorResponse: errorResponse{Error: out.Result.ErrorDetail, Code: "generation_failed"},
			Result:        out.Result,
			Statuses:      out.Statuses,
		})
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func respondStudioError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, studio.ErrEmptyTopic):
		respondError(w, http.StatusBadRequest, "missing_topic", err.Error())
	case errors.Is(err, studio.ErrEmptyPrompt):
		respondError(w, http.StatusBadRequest, "missing_prompt", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
