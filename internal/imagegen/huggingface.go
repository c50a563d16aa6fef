package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/antoniostano/vidranker/internal/reliability"
)

var huggingFaceStyles = styleHints{
	StylePhotorealistic: "photorealistic, high quality, professional photography, realistic",
	StyleCartoon:        "cartoon style, animated, colorful, fun, illustration",
	StyleCinematic:      "cinematic lighting, dramatic, movie-style, professional",
	StyleDigitalArt:     "digital art, artistic, creative design, modern",
}

const maxImageBytes = 20 << 20

// HuggingFace calls a synchronous text-to-image inference endpoint that
// answers with raw image bytes.
type HuggingFace struct {
	url    string
	apiKey string
	client *http.Client
}

func NewHuggingFace(url, apiKey string) *HuggingFace {
	return &HuggingFace{
		url:    strings.TrimSpace(url),
		apiKey: strings.TrimSpace(apiKey),
		client: newHTTPClient(),
	}
}

func (p *HuggingFace) Name() string { return "Hugging Face" }

func (p *HuggingFace) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		return fmt.Errorf("create probe: %w", err)
	}
	p.authorize(req)
	res, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("probe: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return drainError(p.Name(), res)
	}
	return nil
}

type hfImageRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters hfImageParameters `json:"parameters"`
}

type hfImageParameters struct {
	Width             int     `json:"width"`
	Height            int     `json:"height"`
	NumInferenceSteps int     `json:"num_inference_steps"`
	GuidanceScale     float64 `json:"guidance_scale"`
}

func (p *HuggingFace) Generate(ctx context.Context, prompt, style string) (string, error) {
	enhanced := fmt.Sprintf("YouTube thumbnail: %s, %s, bright vibrant colors, high contrast, eye-catching design, professional quality, 16:9 aspect ratio, bold composition, attention-grabbing, trending thumbnail style, no text overlay",
		prompt, huggingFaceStyles.lookup(style))
	payload, err := json.Marshal(hfImageRequest{
		Inputs: enhanced,
		Parameters: hfImageParameters{
			Width:             thumbnailWidth,
			Height:            thumbnailHeight,
			NumInferenceSteps: 28,
			GuidanceScale:     3.5,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	p.authorize(req)

	res, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", drainError(p.Name(), res)
	}

	mediaType, _, err := mime.ParseMediaType(res.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return "", reliability.Errorf(p.Name(), reliability.KindMalformed, "unexpected content type %q", res.Header.Get("Content-Type"))
	}
	body, err := io.ReadAll(io.LimitReader(res.Body, maxImageBytes))
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if len(body) == 0 {
		return "", reliability.Errorf(p.Name(), reliability.KindMalformed, "received empty image")
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(body), nil
}

func (p *HuggingFace) authorize(req *http.Request) {
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
}
