package seo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/antoniostano/vidranker/internal/reliability"
)

// TextClient completes a prompt with a remote text-generation model.
type TextClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// HuggingFaceClient calls a Hugging Face inference text-generation endpoint.
type HuggingFaceClient struct {
	url    string
	apiKey string
	client *http.Client
}

func NewHuggingFaceClient(url, apiKey string) *HuggingFaceClient {
	return &HuggingFaceClient{
		url:    strings.TrimSpace(url),
		apiKey: strings.TrimSpace(apiKey),
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type textRequest struct {
	Inputs     string         `json:"inputs"`
	Parameters textParameters `json:"parameters"`
}

type textParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	ReturnFullText bool    `json:"return_full_text"`
}

type generatedText struct {
	GeneratedText string `json:"generated_text"`
}

const providerName = "huggingface-text"

func (c *HuggingFaceClient) Complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(textRequest{
		Inputs: prompt,
		Parameters: textParameters{
			MaxNewTokens:   500,
			Temperature:    0.7,
			ReturnFullText: false,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	res, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return "", reliability.HTTPError(providerName, res.StatusCode, string(body))
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return extractGeneratedText(body)
}

// extractGeneratedText accepts both the list form [{generated_text}] and a
// bare {generated_text} object.
func extractGeneratedText(body []byte) (string, error) {
	var list []generatedText
	if err := json.Unmarshal(body, &list); err == nil {
		if len(list) == 0 {
			return "", reliability.Errorf(providerName, reliability.KindMalformed, "empty generation list")
		}
		return list[0].GeneratedText, nil
	}
	var single generatedText
	if err := json.Unmarshal(body, &single); err == nil && single.GeneratedText != "" {
		return single.GeneratedText, nil
	}
	return "", reliability.Errorf(providerName, reliability.KindMalformed, "unexpected response shape")
}
