package imagegen

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/antoniostano/vidranker/internal/observability"
	"github.com/antoniostano/vidranker/internal/reliability"
)

const (
	MethodServiceA = "ai-service-A"
	MethodServiceB = "ai-service-B"
	MethodCanvas   = "canvas"
)

const (
	errAllMethodsFailed = "all generation methods failed"
	errCancelled        = "generation cancelled"
)

// Result is the outcome of one chain run. ImageReference is set iff Success.
type Result struct {
	Success        bool   `json:"success"`
	ImageReference string `json:"image_reference,omitempty"`
	Method         string `json:"method_used"`
	ServiceName    string `json:"service_name,omitempty"`
	ErrorDetail    string `json:"error_detail,omitempty"`
}

// StatusFunc receives human-readable progress messages. It is observational.
type StatusFunc func(message string)

// Stage is one remote provider attempt in the chain.
type Stage struct {
	Method   string
	Provider Provider
	Timeout  time.Duration
}

type Options struct {
	ProbeTimeout time.Duration
	Logger       *slog.Logger
	Metrics      *observability.Metrics
}

// Chain tries each remote stage in order and falls back to the local
// renderer. Stages run strictly sequentially.
type Chain struct {
	stages       []Stage
	renderer     Renderer
	probeTimeout time.Duration
	logger       *slog.Logger
	metrics      *observability.Metrics
}

func NewChain(stages []Stage, renderer Renderer, opts Options) *Chain {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = 5 * time.Second
	}
	kept := make([]Stage, 0, len(stages))
	for _, s := range stages {
		if s.Provider != nil {
			kept = append(kept, s)
		}
	}
	return &Chain{
		stages:       kept,
		renderer:     renderer,
		probeTimeout: opts.ProbeTimeout,
		logger:       opts.Logger,
		metrics:      opts.Metrics,
	}
}

// Generate never returns an error; failure is reported in the Result.
func (c *Chain) Generate(ctx context.Context, prompt, style string, onStatus StatusFunc) Result {
	notify := func(format string, args ...any) {
		if onStatus != nil {
			onStatus(fmt.Sprintf(format, args...))
		}
	}

	notify("🎨 Starting thumbnail generation...")
	for _, stage := range c.stages {
		if ctx.Err() != nil {
			break
		}
		name := stage.Provider.Name()
		notify("🔄 Trying %s...", name)
		ref, err := c.runStage(ctx, stage, prompt, style)
		if err == nil {
			notify("✅ Generated with %s", name)
			return Result{Success: true, ImageReference: ref, Method: stage.Method, ServiceName: name}
		}
		notify("❌ %s failed: %v", name, err)
	}

	if ctx.Err() != nil {
		// Nobody is waiting for a local render.
		notify("❌ %s", errCancelled)
		return Result{Method: MethodCanvas, ErrorDetail: errCancelled}
	}
	if c.renderer == nil {
		notify("❌ %s", errAllMethodsFailed)
		return Result{Method: MethodCanvas, ErrorDetail: errAllMethodsFailed}
	}

	notify("🖌️ Rendering thumbnail locally...")
	start := time.Now()
	ref, err := c.renderer.Render(prompt, style)
	if err != nil {
		c.logger.Error("local thumbnail render failed", "error", err)
		c.metrics.ObserveStage(MethodCanvas, "error", time.Since(start))
		notify("❌ Local rendering failed: %v", err)
		return Result{Method: MethodCanvas, ErrorDetail: errAllMethodsFailed}
	}
	c.metrics.ObserveStage(MethodCanvas, "success", time.Since(start))
	notify("✅ Thumbnail rendered locally")
	return Result{Success: true, ImageReference: ref, Method: MethodCanvas, ServiceName: "Local renderer"}
}

func (c *Chain) runStage(ctx context.Context, stage Stage, prompt, style string) (string, error) {
	name := stage.Provider.Name()
	start := time.Now()

	_, err := reliability.Attempt(ctx, name, c.probeTimeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, stage.Provider.Probe(ctx)
	})
	if err != nil {
		c.recordFailure(stage, "unavailable", err, start)
		return "", fmt.Errorf("unavailable: %w", err)
	}

	ref, err := reliability.Attempt(ctx, name, stage.Timeout, func(ctx context.Context) (string, error) {
		return stage.Provider.Generate(ctx, prompt, style)
	})
	if err != nil {
		c.recordFailure(stage, "error", err, start)
		return "", err
	}
	c.metrics.ObserveStage(stage.Method, "success", time.Since(start))
	return ref, nil
}

func (c *Chain) recordFailure(stage Stage, outcome string, err error, start time.Time) {
	kind := reliability.KindOf(err)
	c.logger.Warn("image stage failed",
		"stage", stage.Method,
		"provider", stage.Provider.Name(),
		"outcome", outcome,
		"kind", kind,
		"retryable", reliability.IsRetryable(err),
		"error", err,
	)
	c.metrics.ObserveStage(stage.Method, outcome, time.Since(start))
	c.metrics.ObserveProviderError(stage.Method, stage.Provider.Name(), string(kind))
}
