package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/antoniostano/vidranker/internal/reliability"
)

var aimlStyles = styleHints{
	StylePhotorealistic: "photorealistic, high quality, professional photography, realistic, detailed, sharp focus",
	StyleCartoon:        "cartoon style, animated, colorful, fun, illustration, cartoon art, vibrant colors",
	StyleCinematic:      "cinematic lighting, dramatic, movie-style, professional, cinematic quality, film grain",
	StyleDigitalArt:     "digital art, artistic, creative design, modern, digital painting, stylized",
}

// AIML calls the AI/ML API images endpoint, which returns an image URL.
type AIML struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewAIML(baseURL, apiKey string) *AIML {
	return &AIML{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		client:  newHTTPClient(),
	}
}

func (p *AIML) Name() string { return "AI/ML API" }

// Probe sends a one-token chat completion. 400 and 429 still prove the key
// and endpoint work.
func (p *AIML) Probe(ctx context.Context) error {
	if p.apiKey == "" {
		return reliability.Errorf(p.Name(), reliability.KindAuth, "api key is not configured")
	}
	res, err := p.post(ctx, "/chat/completions", map[string]any{
		"model":      "gpt-3.5-turbo",
		"messages":   []map[string]string{{"role": "user", "content": "test"}},
		"max_tokens": 1,
	})
	if err != nil {
		return err
	}
	defer res.Body.Close()
	switch res.StatusCode {
	case http.StatusOK, http.StatusBadRequest, http.StatusTooManyRequests:
		return nil
	default:
		return drainError(p.Name(), res)
	}
}

type aimlImageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

func (p *AIML) Generate(ctx context.Context, prompt, style string) (string, error) {
	if p.apiKey == "" {
		return "", reliability.Errorf(p.Name(), reliability.KindAuth, "api key is not configured")
	}
	enhanced := fmt.Sprintf("YouTube thumbnail: %s, %s, bright vibrant colors, high contrast, eye-catching design, professional quality, 16:9 aspect ratio, bold composition, attention-grabbing, trending thumbnail style, masterpiece, best quality",
		prompt, aimlStyles.lookup(style))
	res, err := p.post(ctx, "/images/generations", map[string]any{
		"model":           "flux-pro",
		"prompt":          enhanced,
		"n":               1,
		"size":            fmt.Sprintf("%dx%d", thumbnailWidth, thumbnailHeight),
		"quality":         "hd",
		"response_format": "url",
	})
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return "", drainError(p.Name(), res)
	}

	var out aimlImageResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", reliability.Errorf(p.Name(), reliability.KindMalformed, "decode response: %v", err)
	}
	if len(out.Data) == 0 || strings.TrimSpace(out.Data[0].URL) == "" {
		return "", reliability.Errorf(p.Name(), reliability.KindMalformed, "response has no image url")
	}
	return out.Data[0].URL, nil
}

func (p *AIML) post(ctx context.Context, path string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	res, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	return res, nil
}
