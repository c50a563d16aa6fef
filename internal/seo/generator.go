package seo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/antoniostano/vidranker/internal/observability"
	"github.com/antoniostano/vidranker/internal/reliability"
)

type Source string

const (
	SourceAI       Source = "ai"
	SourceTemplate Source = "template"
)

// Result is the SEO package for one topic.
type Result struct {
	Tags        []string `json:"tags"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Hashtags    []string `json:"hashtags"`
	Source      Source   `json:"source"`
	RawText     string   `json:"raw_text,omitempty"`
}

// Generator produces SEO content, preferring the remote model and falling back
// to the deterministic template on any failure.
type Generator struct {
	client  TextClient
	timeout time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics
}

type Options struct {
	Timeout time.Duration
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// NewGenerator builds a generator. A nil client always uses the template.
func NewGenerator(client TextClient, opts Options) *Generator {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Generator{
		client:  client,
		timeout: opts.Timeout,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
}

// Generate never fails. The topic is not validated here.
func (g *Generator) Generate(ctx context.Context, topic string) Result {
	if g.client == nil {
		return Fallback(topic)
	}

	start := time.Now()
	text, err := reliability.Attempt(ctx, providerName, g.timeout, func(ctx context.Context) (string, error) {
		return g.client.Complete(ctx, buildPrompt(topic))
	})
	if err != nil {
		kind := reliability.KindOf(err)
		g.logger.Warn("seo remote generation failed, using template", "topic", topic, "kind", kind, "error", err)
		g.metrics.ObserveProviderError(stageName, providerName, string(kind))
		g.metrics.ObserveStage(stageName, "fallback", time.Since(start))
		return Fallback(topic)
	}

	result, ok := parseContent(text, topic)
	if !ok {
		g.logger.Warn("seo response had no usable JSON, using template", "topic", topic)
		g.metrics.ObserveProviderError(stageName, providerName, string(reliability.KindMalformed))
		g.metrics.ObserveStage(stageName, "fallback", time.Since(start))
		fallback := Fallback(topic)
		fallback.RawText = text
		return fallback
	}
	g.metrics.ObserveStage(stageName, "success", time.Since(start))
	return result
}

func buildPrompt(topic string) string {
	return fmt.Sprintf(`Generate YouTube SEO content for the keyword "%s". 

Create:
1. 15 relevant tags separated by commas
2. An engaging YouTube title (under 60 characters)
3. A detailed description (200-300 words) with emojis, bullet points, and call-to-action
4. 10 relevant hashtags

Format the response as JSON with keys: tags, title, description, hashtags`, topic)
}

const stageName = "seo"

var jsonBlock = regexp.MustCompile(`(?s)\{.*\}`)

// parseContent pulls the first {...} block out of free text and fills any
// field of the wrong type with a topic-based default.
func parseContent(text, topic string) (Result, bool) {
	block := jsonBlock.FindString(text)
	if block == "" {
		return Result{}, false
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(block), &raw); err != nil {
		return Result{}, false
	}

	out := Result{
		Tags:        stringList(raw["tags"], []string{topic}),
		Hashtags:    stringList(raw["hashtags"], []string{"#" + topic}),
		Title:       stringValue(raw["title"], topic+" - YouTube Guide"),
		Description: stringValue(raw["description"], "Learn about "+topic),
		Source:      SourceAI,
		RawText:     text,
	}
	return out, true
}

// stringList keeps any JSON array as returned, empty ones included; only a
// non-array value is replaced by the fallback.
func stringList(v any, fallback []string) []string {
	items, ok := v.([]any)
	if !ok {
		return fallback
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch x := item.(type) {
		case string:
			out = append(out, x)
		case nil:
			out = append(out, "")
		default:
			out = append(out, fmt.Sprint(x))
		}
	}
	return out
}

func stringValue(v any, fallback string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fallback
}
