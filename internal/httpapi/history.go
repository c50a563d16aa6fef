package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/antoniostano/vidranker/internal/history"
)

type historyListResponse struct {
	Records []history.Record `json:"records"`
	Count   int              `json:"count"`
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	kind, ok := history.ParseKind(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("kind"))))
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_kind", "kind must be all|seo|thumbnail")
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	records := s.studio.History(r.Context(), kind, query)
	respondJSON(w, http.StatusOK, historyListResponse{Records: records, Count: len(records)})
}

func (s *Server) handleHistoryStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.studio.Stats(r.Context()))
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	record, err := s.studio.Record(r.Context(), id)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			respondError(w, http.StatusNotFound, "record_not_found", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, record)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_record_id", "missing record id")
		return
	}
	if err := s.studio.DeleteRecord(r.Context(), id); err != nil {
		if errors.Is(err, history.ErrNotFound) {
			respondError(w, http.StatusNotFound, "record_not_found", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	s.studio.ClearHistory(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
