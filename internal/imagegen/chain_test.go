package imagegen

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/antoniostano/vidranker/internal/observability"
	"github.com/antoniostano/vidranker/internal/reliability"
)

type stubProvider struct {
	name       string
	probeErr   error
	genErr     error
	ref        string
	block      bool
	probeCalls int
	genCalls   int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Probe(context.Context) error {
	s.probeCalls++
	return s.probeErr
}

func (s *stubProvider) Generate(ctx context.Context, _, _ string) (string, error) {
	s.genCalls++
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.ref, s.genErr
}

type stubRenderer struct {
	err   error
	calls int
}

func (r *stubRenderer) Render(prompt, style string) (string, error) {
	r.calls++
	if r.err != nil {
		return "", r.err
	}
	return "data:image/jpeg;base64,stub", nil
}

type statusLog struct {
	mu       sync.Mutex
	messages []string
}

func (l *statusLog) add(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

func newTestChain(a, b Provider, r Renderer) *Chain {
	return NewChain([]Stage{
		{Method: MethodServiceA, Provider: a, Timeout: time.Second},
		{Method: MethodServiceB, Provider: b, Timeout: time.Second},
	}, r, Options{
		ProbeTimeout: time.Second,
		Logger:       observability.NullLogger(),
	})
}

func TestChainUsesFirstAvailableProvider(t *testing.T) {
	a := &stubProvider{name: "A", ref: "https://img/a.png"}
	b := &stubProvider{name: "B", ref: "https://img/b.png"}
	r := &stubRenderer{}

	got := newTestChain(a, b, r).Generate(context.Background(), "cat", StyleCartoon, nil)
	if !got.Success || got.Method != MethodServiceA || got.ImageReference != "https://img/a.png" {
		t.Fatalf("Generate() = %+v, want provider A result", got)
	}
	if got.ServiceName != "A" {
		t.Fatalf("ServiceName = %q, want A", got.ServiceName)
	}
	if b.probeCalls != 0 || r.calls != 0 {
		t.Fatalf("later stages called: b.probe=%d render=%d", b.probeCalls, r.calls)
	}
}

func TestChainFallsToSecondProviderWhenFirstUnavailable(t *testing.T) {
	a := &stubProvider{name: "A", probeErr: reliability.HTTPError("A", 503, "loading")}
	b := &stubProvider{name: "B", ref: "https://img/b.png"}
	r := &stubRenderer{}
	var log statusLog

	got := newTestChain(a, b, r).Generate(context.Background(), "cat", StylePhotorealistic, log.add)
	if !got.Success || got.Method != MethodServiceB || got.ImageReference != "https://img/b.png" {
		t.Fatalf("Generate() = %+v, want provider B result", got)
	}
	if a.genCalls != 0 {
		t.Fatalf("unavailable provider Generate called %d times", a.genCalls)
	}
	if len(log.messages) < 2 {
		t.Fatalf("status updates = %q, want at least 2", log.messages)
	}
	foundFailure := false
	for _, msg := range log.messages {
		if strings.Contains(msg, "A failed") {
			foundFailure = true
		}
	}
	if !foundFailure {
		t.Fatalf("status updates = %q, want provider A failure reported", log.messages)
	}
}

func TestChainRendersLocallyWhenAllProvidersFail(t *testing.T) {
	a := &stubProvider{name: "A", genErr: reliability.HTTPError("A", 429, "slow down")}
	b := &stubProvider{name: "B", genErr: reliability.Errorf("B", reliability.KindJobFailed, "job failed")}
	r := &stubRenderer{}
	var log statusLog

	got := newTestChain(a, b, r).Generate(context.Background(), "cat", StyleCinematic, log.add)
	if !got.Success || got.Method != MethodCanvas {
		t.Fatalf("Generate() = %+v, want canvas success", got)
	}
	if !strings.HasPrefix(got.ImageReference, "data:image/jpeg;base64,") {
		t.Fatalf("ImageReference = %q, want jpeg data url", got.ImageReference)
	}
	if a.genCalls != 1 || b.genCalls != 1 || r.calls != 1 {
		t.Fatalf("calls a=%d b=%d render=%d, want 1 each", a.genCalls, b.genCalls, r.calls)
	}
	// before and after each of the three stages, plus the opening message
	if len(log.messages) != 7 {
		t.Fatalf("status updates = %d (%q), want 7", len(log.messages), log.messages)
	}
}

func TestChainReportsTotalFailureOnlyWhenRendererFails(t *testing.T) {
	a := &stubProvider{name: "A", probeErr: errors.New("dial tcp: refused")}
	b := &stubProvider{name: "B", probeErr: errors.New("dial tcp: refused")}
	r := &stubRenderer{err: errors.New("encode failed")}

	got := newTestChain(a, b, r).Generate(context.Background(), "cat", StyleCartoon, nil)
	if got.Success {
		t.Fatalf("Generate() = %+v, want failure", got)
	}
	if got.ErrorDetail != "all generation methods failed" || got.ImageReference != "" {
		t.Fatalf("Generate() = %+v, want total failure detail and no image", got)
	}
}

func TestChainBoundsSlowProviderWithTimeout(t *testing.T) {
	a := &stubProvider{name: "A", block: true}
	r := &stubRenderer{}
	c := NewChain([]Stage{{Method: MethodServiceA, Provider: a, Timeout: 20 * time.Millisecond}}, r, Options{
		Logger: observability.NullLogger(),
	})

	start := time.Now()
	got := c.Generate(context.Background(), "cat", StyleCartoon, nil)
	if got.Method != MethodCanvas || !got.Success {
		t.Fatalf("Generate() = %+v, want canvas after timeout", got)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Generate() took %v, want bounded by stage timeout", elapsed)
	}
}

func TestChainSkipsNilProviders(t *testing.T) {
	b := &stubProvider{name: "B", ref: "https://img/b.png"}
	c := NewChain([]Stage{
		{Method: MethodServiceA, Provider: nil},
		{Method: MethodServiceB, Provider: b, Timeout: time.Second},
	}, &stubRenderer{}, Options{Logger: observability.NullLogger()})

	if got := c.Generate(context.Background(), "cat", "", nil); got.Method != MethodServiceB {
		t.Fatalf("Method = %q, want %q", got.Method, MethodServiceB)
	}
}

func TestChainSkipsLocalRenderWhenCallerIsGone(t *testing.T) {
	a := &stubProvider{name: "A", block: true}
	r := &stubRenderer{}
	c := newTestChain(a, nil, r)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	var log statusLog
	got := c.Generate(ctx, "cat", StylePhotorealistic, log.add)
	if got.Success || got.ErrorDetail != "generation cancelled" {
		t.Fatalf("Generate() = %+v, want cancelled failure", got)
	}
	if r.calls != 0 {
		t.Fatalf("renderer calls = %d, want 0 after cancellation", r.calls)
	}
	if last := log.messages[len(log.messages)-1]; !strings.Contains(last, "cancelled") {
		t.Fatalf("last status = %q, want cancellation notice", last)
	}
}
