package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/antoniostano/vidranker/internal/reliability"
)

var prodiaStyles = styleHints{
	StylePhotorealistic: "photorealistic, highly detailed, professional photography, 8k, sharp focus",
	StyleCartoon:        "cartoon style, animated, colorful, disney style, illustration",
	StyleCinematic:      "cinematic lighting, dramatic, movie poster style, epic, professional",
	StyleDigitalArt:     "digital art, concept art, artstation, detailed, creative",
}

const prodiaModel = "sd_xl_base_1.0.safetensors [be9edd61]"

// Prodia is a job-based provider: a submit call returns a job id which is
// polled until it succeeds, fails or the poll budget runs out.
type Prodia struct {
	baseURL      string
	apiKey       string
	pollInterval time.Duration
	maxPolls     int
	client       *http.Client
}

func NewProdia(baseURL, apiKey string, pollInterval time.Duration, maxPolls int) *Prodia {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	if maxPolls <= 0 {
		maxPolls = 30
	}
	return &Prodia{
		baseURL:      strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:       strings.TrimSpace(apiKey),
		pollInterval: pollInterval,
		maxPolls:     maxPolls,
		client:       newHTTPClient(),
	}
}

func (p *Prodia) Name() string { return "Prodia" }

type prodiaGenerateRequest struct {
	Prompt         string `json:"prompt"`
	Model          string `json:"model"`
	Steps          int    `json:"steps"`
	CFGScale       int    `json:"cfg_scale"`
	Seed           int    `json:"seed"`
	Sampler        string `json:"sampler"`
	AspectRatio    string `json:"aspect_ratio"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
}

type prodiaJob struct {
	Job      string `json:"job"`
	Status   string `json:"status"`
	ImageURL string `json:"imageUrl"`
}

// Probe submits a tiny job; 200 and 202 both mean the service is accepting work.
func (p *Prodia) Probe(ctx context.Context) error {
	res, err := p.submit(ctx, prodiaGenerateRequest{
		Prompt:      "test image",
		Model:       prodiaModel,
		Steps:       10,
		CFGScale:    7,
		Seed:        -1,
		Sampler:     "DPM++ 2M Karras",
		AspectRatio: "landscape",
	})
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusAccepted {
		return drainError(p.Name(), res)
	}
	return nil
}

func (p *Prodia) Generate(ctx context.Context, prompt, style string) (string, error) {
	enhanced := fmt.Sprintf("%s, %s, YouTube thumbnail, bright colors, eye-catching, professional quality, masterpiece",
		prompt, prodiaStyles.lookup(style))
	res, err := p.submit(ctx, prodiaGenerateRequest{
		Prompt:         enhanced,
		Model:          prodiaModel,
		Steps:          20,
		CFGScale:       7,
		Seed:           -1,
		Sampler:        "DPM++ 2M Karras",
		AspectRatio:    "landscape",
		NegativePrompt: "blurry, low quality, distorted, ugly, bad anatomy, text, watermark",
	})
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", drainError(p.Name(), res)
	}
	var submitted prodiaJob
	if err := json.NewDecoder(res.Body).Decode(&submitted); err != nil {
		return "", reliability.Errorf(p.Name(), reliability.KindMalformed, "decode job: %v", err)
	}
	if strings.TrimSpace(submitted.Job) == "" {
		return "", reliability.Errorf(p.Name(), reliability.KindMalformed, "response has no job id")
	}
	return p.waitForJob(ctx, submitted.Job)
}

func (p *Prodia) waitForJob(ctx context.Context, jobID string) (string, error) {
	for attempt := 0; attempt < p.maxPolls; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(p.pollInterval):
		}

		job, err := p.jobStatus(ctx, jobID)
		if err != nil {
			return "", err
		}
		switch job.Status {
		case "succeeded":
			if strings.TrimSpace(job.ImageURL) == "" {
				return "", reliability.Errorf(p.Name(), reliability.KindMalformed, "job %s succeeded without image url", jobID)
			}
			return job.ImageURL, nil
		case "failed":
			return "", reliability.Errorf(p.Name(), reliability.KindJobFailed, "job %s failed on provider", jobID)
		}
	}
	return "", reliability.Errorf(p.Name(), reliability.KindTimeout, "job %s not finished after %d polls", jobID, p.maxPolls)
}

func (p *Prodia) jobStatus(ctx context.Context, jobID string) (prodiaJob, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/job/"+jobID, nil)
	if err != nil {
		return prodiaJob{}, fmt.Errorf("create status request: %w", err)
	}
	p.authorize(req)
	res, err := p.client.Do(req)
	if err != nil {
		return prodiaJob{}, fmt.Errorf("status request: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return prodiaJob{}, drainError(p.Name(), res)
	}
	var job prodiaJob
	if err := json.NewDecoder(res.Body).Decode(&job); err != nil {
		return prodiaJob{}, reliability.Errorf(p.Name(), reliability.KindMalformed, "decode status: %v", err)
	}
	return job, nil
}

func (p *Prodia) submit(ctx context.Context, body prodiaGenerateRequest) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/sd/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	p.authorize(req)
	res, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	return res, nil
}

func (p *Prodia) authorize(req *http.Request) {
	if p.apiKey != "" {
		req.Header.Set("X-Prodia-Key", p.apiKey)
	}
}
