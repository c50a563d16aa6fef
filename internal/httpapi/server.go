package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/antoniostano/vidranker/internal/ads"
	"github.com/antoniostano/vidranker/internal/config"
	"github.com/antoniostano/vidranker/internal/observability"
	"github.com/antoniostano/vidranker/internal/protocol"
	"github.com/antoniostano/vidranker/internal/studio"
)

type Server struct {
	cfg      config.Config
	studio   *studio.Studio
	ads      *ads.Manager
	metrics  *observability.Metrics
	upgrader websocket.Upgrader
}

// New builds the API server. adsManager may be nil when ads are disabled.
func New(cfg config.Config, st *studio.Studio, adsManager *ads.Manager, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:     cfg,
		studio:  st,
		ads:     adsManager,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only same-origin browsers by default, so other sites cannot
				// spend this server's provider quota.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Get("/v1/onboarding/status", s.handleOnboardingStatus)
	r.Get("/v1/ui/settings", s.handleUISettings)
	r.Get("/v1/perf/stages", s.handlePerfStages)

	r.Post("/v1/seo", s.handleGenerateSEO)
	r.Post("/v1/thumbnails", s.handleGenerateThumbnail)
	r.Get("/v1/thumbnails/ws", s.handleThumbnailWS)

	r.Get("/v1/history", s.handleListHistory)
	r.Get("/v1/history/stats", s.handleHistoryStats)
	r.Get("/v1/history/{id}", s.handleGetRecord)
	r.Delete("/v1/history/{id}", s.handleDeleteRecord)
	r.Delete("/v1/history", s.handleClearHistory)

	r.Get("/v1/ads", s.handleAdStatus)
	r.Post("/v1/ads/{network}/interstitial", s.handleShowInterstitial)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"history_mode": s.studio.HistoryMode(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":       "ready",
		"history_mode": s.studio.HistoryMode(),
		"ads_enabled":  s.ads != nil,
	})
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

func messageTypeOf(v any) (protocol.MessageType, bool) {
	switch m := v.(type) {
	case protocol.ThumbnailRequest:
		return m.Type, true
	case protocol.SEORequest:
		return m.Type, true
	case protocol.GenerationStatus:
		return m.Type, true
	case protocol.GenerationResult:
		return m.Type, true
	case protocol.SEOResult:
		return m.Type, true
	case protocol.ErrorEvent:
		return m.Type, true
	default:
		return "", false
	}
}
