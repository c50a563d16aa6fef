package imagegen

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/antoniostano/vidranker/internal/reliability"
)

// Provider is a remote image generation service.
type Provider interface {
	// Name is the human-readable service name reported to users.
	Name() string
	// Probe returns nil when the service looks reachable and authorized.
	Probe(ctx context.Context) error
	// Generate returns an image reference (https URL or data: URL).
	Generate(ctx context.Context, prompt, style string) (string, error)
}

const (
	StylePhotorealistic = "photorealistic"
	StyleCartoon        = "cartoon"
	StyleCinematic      = "cinematic"
	StyleDigitalArt     = "digital-art"
)

// Styles lists the supported styles in display order.
var Styles = []string{StylePhotorealistic, StyleCartoon, StyleCinematic, StyleDigitalArt}

// styleHints maps a style to the prompt suffix a provider appends. Unknown
// styles use the photorealistic entry.
type styleHints map[string]string

func (h styleHints) lookup(style string) string {
	if v, ok := h[strings.ToLower(strings.TrimSpace(style))]; ok {
		return v
	}
	return h[StylePhotorealistic]
}

func newHTTPClient() *http.Client {
	// Per-attempt deadlines come from the request context.
	return &http.Client{Timeout: 2 * time.Minute}
}

func drainError(provider string, res *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
	return reliability.HTTPError(provider, res.StatusCode, strings.TrimSpace(string(body)))
}
