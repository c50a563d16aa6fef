package studio

import (
	"context"
	"errors"
	"testing"

	"github.com/antoniostano/vidranker/internal/ads"
	"github.com/antoniostano/vidranker/internal/history"
	"github.com/antoniostano/vidranker/internal/imagegen"
	"github.com/antoniostano/vidranker/internal/observability"
	"github.com/antoniostano/vidranker/internal/seo"
)

type stubSEO struct{ calls int }

func (s *stubSEO) Generate(_ context.Context, topic string) seo.Result {
	s.calls++
	return seo.Fallback(topic)
}

type stubImages struct {
	result    imagegen.Result
	calls     int
	lastStyle string
}

func (s *stubImages) Generate(_ context.Context, _, style string, onStatus imagegen.StatusFunc) imagegen.Result {
	s.calls++
	s.lastStyle = style
	if onStatus != nil {
		onStatus("starting")
		onStatus("done")
	}
	return s.result
}

type stubAds struct {
	calls int
	err   error
}

func (s *stubAds) ShowInterstitial(context.Context, ads.Network) error {
	s.calls++
	return s.err
}

func newTestStudio(images *stubImages, interstitials Interstitials) (*Studio, *stubSEO, *history.Store) {
	logger := observability.NullLogger()
	store := history.NewStore(history.NewInMemoryBackend(), history.Options{Logger: logger})
	seoGen := &stubSEO{}
	s := New(seoGen, images, store, Options{Logger: logger, Ads: interstitials, AdNetwork: ads.NetworkAdMob})
	return s, seoGen, store
}

func TestGenerateSEOSavesRecord(t *testing.T) {
	ctx := context.Background()
	interstitials := &stubAds{}
	s, _, store := newTestStudio(&stubImages{}, interstitials)

	out, err := s.GenerateSEO(ctx, "  cooking pasta ")
	if err != nil {
		t.Fatalf("GenerateSEO() error = %v", err)
	}
	if out.Record.Title != "SEO: cooking pasta" || out.Record.Kind != history.KindSEO {
		t.Fatalf("Record = %+v, want SEO record titled by topic", out.Record)
	}
	if out.Result.Tags[0] != "cooking pasta" {
		t.Fatalf("Result.Tags[0] = %q, want trimmed topic", out.Result.Tags[0])
	}
	list := store.List(ctx)
	if len(list) != 1 || list[0].ID != out.Record.ID {
		t.Fatalf("history = %+v, want the saved record", list)
	}
	if interstitials.calls != 1 {
		t.Fatalf("interstitial calls = %d, want 1", interstitials.calls)
	}
}

func TestGenerateSEORejectsBlankTopic(t *testing.T) {
	s, seoGen, store := newTestStudio(&stubImages{}, nil)
	if _, err := s.GenerateSEO(context.Background(), "   "); !errors.Is(err, ErrEmptyTopic) {
		t.Fatalf("GenerateSEO(blank) error = %v, want ErrEmptyTopic", err)
	}
	if seoGen.calls != 0 || len(store.List(context.Background())) != 0 {
		t.Fatalf("blank topic should not generate or save")
	}
}

func TestGenerateThumbnailSavesSuccess(t *testing.T) {
	ctx := context.Background()
	images := &stubImages{result: imagegen.Result{
		Success:        true,
		ImageReference: "data:image/jpeg;base64,abc",
		Method:         imagegen.MethodCanvas,
	}}
	interstitials := &stubAds{err: ads.ErrCooldown}
	s, _, store := newTestStudio(images, interstitials)

	var forwarded []string
	out, err := s.GenerateThumbnail(ctx, "cat surfing", "", func(msg string) { forwarded = append(forwarded, msg) })
	if err != nil {
		t.Fatalf("GenerateThumbnail() error = %v", err)
	}
	if images.lastStyle != imagegen.StylePhotorealistic {
		t.Fatalf("style = %q, want photorealistic default", images.lastStyle)
	}
	if out.Record == nil || out.Record.Title != "Thumbnail: cat surfing" {
		t.Fatalf("Record = %+v, want thumbnail record", out.Record)
	}
	if out.Record.Thumbnail.GenerationMethod != imagegen.MethodCanvas {
		t.Fatalf("GenerationMethod = %q, want canvas", out.Record.Thumbnail.GenerationMethod)
	}
	if len(out.Statuses) != 2 || len(forwarded) != 2 {
		t.Fatalf("statuses = %q forwarded = %q, want 2 each", out.Statuses, forwarded)
	}
	if got := store.Stats(ctx); got.Thumbnail != 1 {
		t.Fatalf("Stats() = %+v, want one thumbnail", got)
	}
}

func TestGenerateThumbnailFailureIsNotSaved(t *testing.T) {
	ctx := context.Background()
	images := &stubImages{result: imagegen.Result{Method: imagegen.MethodCanvas, ErrorDetail: "all generation methods failed"}}
	interstitials := &stubAds{}
	s, _, store := newTestStudio(images, interstitials)

	out, err := s.GenerateThumbnail(ctx, "cat", imagegen.StyleCartoon, nil)
	if err != nil {
		t.Fatalf("GenerateThumbnail() error = %v", err)
	}
	if out.Result.Success || out.Record != nil {
		t.Fatalf("outcome = %+v, want failure without record", out)
	}
	if len(store.List(ctx)) != 0 || interstitials.calls != 0 {
		t.Fatalf("failed generation should not save or show ads")
	}
}

func TestGenerateThumbnailRejectsBlankPrompt(t *testing.T) {
	images := &stubImages{}
	s, _, _ := newTestStudio(images, nil)
	if _, err := s.GenerateThumbnail(context.Background(), "", "cartoon", nil); !errors.Is(err, ErrEmptyPrompt) {
		t.Fatalf("GenerateThumbnail(blank) error = %v, want ErrEmptyPrompt", err)
	}
	if images.calls != 0 {
		t.Fatalf("blank prompt should not reach the generator")
	}
}

func TestDeleteRecordReportsMissing(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStudio(&stubImages{}, nil)
	out, err := s.GenerateSEO(ctx, "chess")
	if err != nil {
		t.Fatalf("GenerateSEO() error = %v", err)
	}
	if err := s.DeleteRecord(ctx, out.Record.ID); err != nil {
		t.Fatalf("DeleteRecord() error = %v", err)
	}
	if err := s.DeleteRecord(ctx, out.Record.ID); !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("second DeleteRecord() error = %v, want ErrNotFound", err)
	}
}

type countingRenderer struct{ calls int }

func (r *countingRenderer) Render(string, string) (string, error) {
	r.calls++
	return "data:image/jpeg;base64,x", nil
}

func TestGenerateThumbnailAbandonedRequestIsNotSaved(t *testing.T) {
	logger := observability.NullLogger()
	store := history.NewStore(history.NewInMemoryBackend(), history.Options{Logger: logger})
	renderer := &countingRenderer{}
	chain := imagegen.NewChain(nil, renderer, imagegen.Options{Logger: logger})
	interstitials := &stubAds{}
	s := New(&stubSEO{}, chain, store, Options{Logger: logger, Ads: interstitials, AdNetwork: ads.NetworkAdMob})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out, err := s.GenerateThumbnail(ctx, "cat", "", nil)
	if err != nil {
		t.Fatalf("GenerateThumbnail() error = %v", err)
	}
	if out.Result.Success || out.Record != nil {
		t.Fatalf("outcome = %+v, want unsaved failure", out)
	}
	if renderer.calls != 0 {
		t.Fatalf("renderer calls = %d, want 0", renderer.calls)
	}
	if n := len(store.List(context.Background())); n != 0 {
		t.Fatalf("records = %d, want 0", n)
	}
	if interstitials.calls != 0 {
		t.Fatalf("interstitial calls = %d, want 0", interstitials.calls)
	}
}

func TestRecordLooksUpSavedContent(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStudio(&stubImages{}, nil)
	out, err := s.GenerateSEO(ctx, "chess")
	if err != nil {
		t.Fatalf("GenerateSEO() error = %v", err)
	}
	got, err := s.Record(ctx, out.Record.ID)
	if err != nil || got.Title != "SEO: chess" {
		t.Fatalf("Record() = %+v, %v; want the saved record", got, err)
	}
	if _, err := s.Record(ctx, "missing"); !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("Record(missing) error = %v, want ErrNotFound", err)
	}
}
