package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/antoniostano/vidranker/internal/ads"
)

func (s *Server) handleAdStatus(w http.ResponseWriter, _ *http.Request) {
	if s.ads == nil {
		respondJSON(w, http.StatusOK, map[string]any{"enabled": false, "networks": []ads.Status{}})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"enabled": true, "networks": s.ads.Statuses()})
}

func (s *Server) handleShowInterstitial(w http.ResponseWriter, r *http.Request) {
	if s.ads == nil {
		respondError(w, http.StatusNotImplemented, "ads_disabled", "ads are disabled")
		return
	}
	network := ads.Network(strings.ToLower(strings.TrimSpace(chi.URLParam(r, "network"))))
	err := s.ads.ShowInterstitial(r.Context(), network)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, map[string]any{"shown": true, "network": network})
	case errors.Is(err, ads.ErrUnknownNetwork):
		respondError(w, http.StatusNotFound, "unknown_network", err.Error())
	case errors.Is(err, ads.ErrCooldown):
		respondError(w, http.StatusTooManyRequests, "interstitial_cooldown", err.Error())
	case errors.Is(err, ads.ErrNotReady), errors.Is(err, ads.ErrDestroyed):
		respondError(w, http.StatusConflict, "ads_not_ready", err.Error())
	default:
		respondError(w, http.StatusBadGateway, "ad_failed", err.Error())
	}
}
