package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/antoniostano/vidranker/internal/ads"
)

type onboardingCheck struct {
	ID     string `json:"id"`
	Status string `json:"status"` // ok|warn|error
	Label  string `json:"label"`
	Detail string `json:"detail,omitempty"`
	Fix    string `json:"fix,omitempty"`
}

type onboardingStatusResponse struct {
	ImageProviderA string            `json:"image_provider_a"`
	ImageProviderB string            `json:"image_provider_b"`
	HistoryMode    string            `json:"history_mode"`
	AdsEnabled     bool              `json:"ads_enabled"`
	Checks         []onboardingCheck `json:"checks"`
}

// handleOnboardingStatus reports which credentials and backends are in place.
// It never calls the providers.
func (s *Server) handleOnboardingStatus(w http.ResponseWriter, _ *http.Request) {
	checks := make([]onboardingCheck, 0, 8)
	checks = append(checks, keyCheck("seo_key", "SEO generation (Hugging Face)", s.cfg.HuggingFaceAPIKey, "HF_API_KEY",
		"SEO content will use the built-in template."))
	checks = append(checks, s.imageProviderChecks()...)
	checks = append(checks, s.historyCheck())
	checks = append(checks, s.adChecks()...)

	respondJSON(w, http.StatusOK, onboardingStatusResponse{
		ImageProviderA: s.cfg.ImageProviderA,
		ImageProviderB: s.cfg.ImageProviderB,
		HistoryMode:    s.studio.HistoryMode(),
		AdsEnabled:     s.ads != nil,
		Checks:         checks,
	})
}

func keyCheck(id, label, value, env, consequence string) onboardingCheck {
	if strings.TrimSpace(value) == "" {
		return onboardingCheck{
			ID:     id,
			Status: "warn",
			Label:  label,
			Detail: env + " is not set. " + consequence,
			Fix:    "Set " + env + " in the environment or .env file.",
		}
	}
	return onboardingCheck{ID: id, Status: "ok", Label: label, Detail: "key present"}
}

func (s *Server) imageProviderChecks() []onboardingCheck {
	out := make([]onboardingCheck, 0, 3)
	fallthroughNote := "The chain will skip to the next stage."

	switch s.cfg.ImageProviderA {
	case "huggingface":
		out = append(out, keyCheck("image_provider_a", "Image stage A (Hugging Face)", s.cfg.HuggingFaceAPIKey, "HF_API_KEY", fallthroughNote))
	case "aiml":
		out = append(out, keyCheck("image_provider_a", "Image stage A (AI/ML API)", s.cfg.AIMLAPIKey, "AIML_API_KEY", fallthroughNote))
	default:
		out = append(out, onboardingCheck{
			ID:     "image_provider_a",
			Status: "warn",
			Label:  "Image stage A",
			Detail: "disabled",
			Fix:    "Set IMAGE_PROVIDER_A=huggingface or aiml.",
		})
	}

	switch s.cfg.ImageProviderB {
	case "prodia":
		out = append(out, keyCheck("image_provider_b", "Image stage B (Prodia)", s.cfg.ProdiaAPIKey, "PRODIA_API_KEY", fallthroughNote))
	default:
		out = append(out, onboardingCheck{
			ID:     "image_provider_b",
			Status: "warn",
			Label:  "Image stage B",
			Detail: "disabled",
			Fix:    "Set IMAGE_PROVIDER_B=prodia.",
		})
	}

	out = append(out, onboardingCheck{
		ID:     "image_canvas",
		Status: "ok",
		Label:  "Local thumbnail renderer",
		Detail: "always available",
	})
	return out
}

func (s *Server) historyCheck() onboardingCheck {
	switch mode := s.studio.HistoryMode(); mode {
	case "bolt", "postgres":
		return onboardingCheck{ID: "history_store", Status: "ok", Label: "History persistence", Detail: mode}
	case "in-memory":
		return onboardingCheck{
			ID:     "history_store",
			Status: "warn",
			Label:  "History persistence",
			Detail: "in-memory only",
			Fix:    "Set HISTORY_PATH or DATABASE_URL to keep history across restarts.",
		}
	default:
		return onboardingCheck{ID: "history_store", Status: "warn", Label: "History persistence", Detail: mode}
	}
}

func (s *Server) adChecks() []onboardingCheck {
	if s.ads == nil {
		return []onboardingCheck{{
			ID:     "ads",
			Status: "warn",
			Label:  "Ads",
			Detail: "disabled",
			Fix:    "Set ADS_ENABLED=true.",
		}}
	}
	statuses := s.ads.Statuses()
	out := make([]onboardingCheck, 0, len(statuses))
	for _, st := range statuses {
		check := onboardingCheck{
			ID:     "ads_" + string(st.Network),
			Label:  fmt.Sprintf("Ads (%s)", st.Network),
			Detail: string(st.State),
		}
		switch st.State {
		case ads.StateReady:
			check.Status = "ok"
		case ads.StateFailed:
			check.Status = "error"
			check.Detail = st.LastError
		default:
			check.Status = "warn"
		}
		out = append(out, check)
	}
	return out
}
