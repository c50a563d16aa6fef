package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/antoniostano/vidranker/internal/ads"
	"github.com/antoniostano/vidranker/internal/history"
	"github.com/antoniostano/vidranker/internal/imagegen"
	"github.com/antoniostano/vidranker/internal/observability"
	"github.com/antoniostano/vidranker/internal/seo"
)

var (
	ErrEmptyTopic  = errors.New("topic is required")
	ErrEmptyPrompt = errors.New("prompt is required")
)

type SEOGenerator interface {
	Generate(ctx context.Context, topic string) seo.Result
}

type ImageGenerator interface {
	Generate(ctx context.Context, prompt, style string, onStatus imagegen.StatusFunc) imagegen.Result
}

// Interstitials shows a full-screen ad after a successful generation.
type Interstitials interface {
	ShowInterstitial(ctx context.Context, network ads.Network) error
}

type Options struct {
	Logger  *slog.Logger
	Metrics *observability.Metrics
	// Ads and AdNetwork are optional. When set, a successful generation
	// triggers an interstitial on AdNetwork.
	Ads       Interstitials
	AdNetwork ads.Network
}

// Studio is the action layer behind the UI: it validates input, runs a
// generator and saves what it produced.
type Studio struct {
	seo       SEOGenerator
	images    ImageGenerator
	history   *history.Store
	logger    *slog.Logger
	metrics   *observability.Metrics
	ads       Interstitials
	adNetwork ads.Network
}

func New(seoGen SEOGenerator, images ImageGenerator, store *history.Store, opts Options) *Studio {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Studio{
		seo:       seoGen,
		images:    images,
		history:   store,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		ads:       opts.Ads,
		adNetwork: opts.AdNetwork,
	}
}

type SEOOutcome struct {
	Result seo.Result     `json:"result"`
	Record history.Record `json:"record"`
}

func (s *Studio) GenerateSEO(ctx context.Context, topic string) (SEOOutcome, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return SEOOutcome{}, ErrEmptyTopic
	}

	result := s.seo.Generate(ctx, topic)
	record := s.history.Save(ctx, history.Draft{
		Kind:  history.KindSEO,
		Title: "SEO: " + topic,
		SEO: &history.SEOPayload{
			Tags:        result.Tags,
			Title:       result.Title,
			Description: result.Description,
			Hashtags:    result.Hashtags,
		},
	})
	s.metrics.ObserveGeneration(string(history.KindSEO), string(result.Source))
	s.logger.Info("seo content generated", "topic", topic, "source", result.Source, "record_id", record.ID)
	s.afterGeneration(ctx)
	return SEOOutcome{Result: result, Record: record}, nil
}

type ThumbnailOutcome struct {
	Result   imagegen.Result `json:"result"`
	Record   *history.Record `json:"record,omitempty"`
	Statuses []string        `json:"statuses"`
}

// GenerateThumbnail runs the image chain. Only successful results are saved.
// onStatus may be nil; statuses are also collected in the outcome.
func (s *Studio) GenerateThumbnail(ctx context.Context, prompt, style string, onStatus imagegen.StatusFunc) (ThumbnailOutcome, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return ThumbnailOutcome{}, ErrEmptyPrompt
	}
	style = strings.ToLower(strings.TrimSpace(style))
	if style == "" {
		style = imagegen.StylePhotorealistic
	}

	statuses := make([]string, 0, 8)
	result := s.images.Generate(ctx, prompt, style, func(msg string) {
		statuses = append(statuses, msg)
		if onStatus != nil {
			onStatus(msg)
		}
	})
	out := ThumbnailOutcome{Result: result, Statuses: statuses}
	if !result.Success {
		if ctx.Err() != nil {
			s.logger.Info("thumbnail generation abandoned", "prompt", prompt, "reason", ctx.Err())
			s.metrics.ObserveGeneration(string(history.KindThumbnail), "cancelled")
			return out, nil
		}
		s.logger.Error("thumbnail generation failed", "prompt", prompt, "error", result.ErrorDetail)
		s.metrics.ObserveGeneration(string(history.KindThumbnail), "failed")
		return out, nil
	}

	record := s.history.Save(ctx, history.Draft{
		Kind:  history.KindThumbnail,
		Title: "Thumbnail: " + prompt,
		Thumbnail: &history.ThumbnailPayload{
			Prompt:           prompt,
			ImageReference:   result.ImageReference,
			Style:            style,
			GenerationMethod: result.Method,
		},
	})
	out.Record = &record
	s.metrics.ObserveGeneration(string(history.KindThumbnail), result.Method)
	s.logger.Info("thumbnail generated", "method", result.Method, "service", result.ServiceName, "record_id", record.ID)
	s.afterGeneration(ctx)
	return out, nil
}

func (s *Studio) History(ctx context.Context, kind history.Kind, query string) []history.Record {
	return s.history.Search(ctx, query, kind)
}

func (s *Studio) Stats(ctx context.Context) history.Stats {
	return s.history.Stats(ctx)
}

// Record returns one saved record; a miss wraps history.ErrNotFound.
func (s *Studio) Record(ctx context.Context, id string) (history.Record, error) {
	r, err := s.history.Get(ctx, id)
	if err != nil {
		return history.Record{}, fmt.Errorf("get %q: %w", id, err)
	}
	return r, nil
}

func (s *Studio) DeleteRecord(ctx context.Context, id string) error {
	if !s.history.Delete(ctx, id) {
		return fmt.Errorf("delete %q: %w", id, history.ErrNotFound)
	}
	return nil
}

func (s *Studio) ClearHistory(ctx context.Context) {
	s.history.Clear(ctx)
}

// afterGeneration triggers the post-generation interstitial. Ad failures are
// never surfaced to the caller.
func (s *Studio) afterGeneration(ctx context.Context) {
	if s.ads == nil || s.adNetwork == "" {
		return
	}
	err := s.ads.ShowInterstitial(ctx, s.adNetwork)
	switch {
	case err == nil:
	case errors.Is(err, ads.ErrCooldown), errors.Is(err, ads.ErrNotReady):
		s.logger.Debug("interstitial skipped", "network", s.adNetwork, "reason", err)
	default:
		s.logger.Warn("interstitial failed", "network", s.adNetwork, "error", err)
	}
}

// HistoryMode names the history backend in use.
func (s *Studio) HistoryMode() string {
	return s.history.Mode()
}
