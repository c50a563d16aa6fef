package observability

import (
	"math"
	"sort"
	"sync"
	"time"
)

// StageHealth summarizes the most recent attempts of one generation stage:
// how often it succeeded, how it failed and how long it took.
type StageHealth struct {
	Stage        string         `json:"stage"`
	Attempts     int            `json:"attempts"`
	Successes    int            `json:"successes"`
	SuccessRate  float64        `json:"success_rate"`
	Outcomes     map[string]int `json:"outcomes"`
	FailureKinds map[string]int `json:"failure_kinds,omitempty"`
	LastOutcome  string         `json:"last_outcome"`
	LastMS       float64        `json:"last_ms"`
	AvgMS        float64        `json:"avg_ms"`
	P50MS        float64        `json:"p50_ms"`
	P95MS        float64        `json:"p95_ms"`
	P99MS        float64        `json:"p99_ms"`
	TargetP95MS  float64        `json:"target_p95_ms,omitempty"`
}

type StageSnapshot struct {
	GeneratedAt time.Time     `json:"generated_at"`
	WindowSize  int           `json:"window_size"`
	Stages      []StageHealth `json:"stages"`
	// Fallbacks counts failed remote attempts that handed over to a later stage.
	Fallbacks int `json:"fallbacks"`
}

type stageAttempt struct {
	outcome string
	ms      float64
}

// stageLog holds the latest attempts of one stage, oldest first, plus
// failure kinds reported by providers while those attempts ran.
type stageLog struct {
	attempts []stageAttempt
	kinds    map[string]int
}

// stageWindow tracks the last limit attempts of every stage.
type stageWindow struct {
	mu        sync.Mutex
	limit     int
	stages    map[string]*stageLog
	fallbacks int
}

func newStageWindow(limit int) *stageWindow {
	if limit <= 0 {
		limit = 256
	}
	return &stageWindow{limit: limit, stages: make(map[string]*stageLog)}
}

func (w *stageWindow) logFor(stage string) *stageLog {
	l, ok := w.stages[stage]
	if !ok {
		l = &stageLog{attempts: make([]stageAttempt, 0, w.limit), kinds: make(map[string]int)}
		w.stages[stage] = l
	}
	return l
}

// Record adds one attempt. Outcomes other than "success" on a remote stage
// count as a fallback.
func (w *stageWindow) Record(stage, outcome string, ms float64) {
	if stage == "" || outcome == "" || ms < 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	l := w.logFor(stage)
	if len(l.attempts) == w.limit {
		copy(l.attempts, l.attempts[1:])
		l.attempts = l.attempts[:w.limit-1]
	}
	l.attempts = append(l.attempts, stageAttempt{outcome: outcome, ms: ms})
	if outcome != "success" && isRemoteStage(stage) {
		w.fallbacks++
	}
}

// RecordFailureKind attributes a classified provider error to a stage.
func (w *stageWindow) RecordFailureKind(stage, kind string) {
	if stage == "" || kind == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.logFor(stage).kinds[kind]++
}

func (w *stageWindow) Snapshot() StageSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	names := make([]string, 0, len(w.stages))
	for name, l := range w.stages {
		if len(l.attempts) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	out := StageSnapshot{
		GeneratedAt: time.Now().UTC(),
		WindowSize:  w.limit,
		Stages:      make([]StageHealth, 0, len(names)),
		Fallbacks:   w.fallbacks,
	}
	for _, name := range names {
		out.Stages = append(out.Stages, summarize(name, w.stages[name]))
	}
	return out
}

func summarize(stage string, l *stageLog) StageHealth {
	h := StageHealth{
		Stage:       stage,
		Attempts:    len(l.attempts),
		Outcomes:    make(map[string]int),
		TargetP95MS: stageTargetP95MS(stage),
	}
	latencies := make([]float64, len(l.attempts))
	total := 0.0
	for i, a := range l.attempts {
		h.Outcomes[a.outcome]++
		if a.outcome == "success" {
			h.Successes++
		}
		latencies[i] = a.ms
		total += a.ms
	}
	last := l.attempts[len(l.attempts)-1]
	h.LastOutcome = last.outcome
	h.LastMS = round2(last.ms)
	h.AvgMS = round2(total / float64(h.Attempts))
	h.SuccessRate = round2(float64(h.Successes) / float64(h.Attempts))

	sort.Float64s(latencies)
	h.P50MS = round2(nearestRank(latencies, 50))
	h.P95MS = round2(nearestRank(latencies, 95))
	h.P99MS = round2(nearestRank(latencies, 99))

	if len(l.kinds) > 0 {
		h.FailureKinds = make(map[string]int, len(l.kinds))
		for k, n := range l.kinds {
			h.FailureKinds[k] = n
		}
	}
	return h
}

// nearestRank returns the p-th percentile of sorted values.
func nearestRank(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p / 100 * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func isRemoteStage(stage string) bool {
	return stage == "ai-service-A" || stage == "ai-service-B" || stage == "seo"
}

// stageTargetP95MS mirrors the per-stage timeouts; canvas is local and should stay fast.
func stageTargetP95MS(stage string) float64 {
	switch stage {
	case "ai-service-A":
		return 45000
	case "ai-service-B":
		return 35000
	case "canvas":
		return 250
	case "seo":
		return 30000
	default:
		return 0
	}
}
