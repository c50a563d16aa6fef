package httpapi

import (
	"net/http"

	"github.com/antoniostano/vidranker/internal/imagegen"
)

type uiSettingsResponse struct {
	Styles            []string `json:"styles"`
	DefaultStyle      string   `json:"default_style"`
	HistoryLimit      int      `json:"history_limit"`
	AdsEnabled        bool     `json:"ads_enabled"`
	CooldownSeconds   int64    `json:"interstitial_cooldown_seconds"`
	StatusStreamPath  string   `json:"status_stream_path"`
	ProviderTimeoutMS int64    `json:"provider_timeout_ms"`
}

func (s *Server) handleUISettings(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, uiSettingsResponse{
		Styles:            imagegen.Styles,
		DefaultStyle:      imagegen.StylePhotorealistic,
		HistoryLimit:      s.cfg.HistoryLimit,
		AdsEnabled:        s.ads != nil,
		CooldownSeconds:   int64(s.cfg.InterstitialCooldown.Seconds()),
		StatusStreamPath:  "/v1/thumbnails/ws",
		ProviderTimeoutMS: (s.cfg.ProviderATimeout + s.cfg.ProviderBTimeout).Milliseconds(),
	})
}
