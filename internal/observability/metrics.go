package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Generations    *prometheus.CounterVec
	StageOutcomes  *prometheus.CounterVec
	ProviderErrors *prometheus.CounterVec
	StageLatency   *prometheus.HistogramVec
	HistoryRecords prometheus.Gauge
	HistoryErrors  *prometheus.CounterVec
	AdEvents       *prometheus.CounterVec
	WSMessages     *prometheus.CounterVec

	stages *stageWindow
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		Generations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Completed generations by content kind and method.",
		}, []string{"kind", "method"}),
		StageOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_stage_total",
			Help:      "Generation stage outcomes for the image chain stages and seo.",
		}, []string{"stage", "outcome"}),
		ProviderErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Provider errors by provider and kind.",
		}, []string{"provider", "kind"}),
		StageLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_latency_ms",
			Help:      "Latency of generation stages in milliseconds.",
			Buckets:   []float64{50, 250, 1000, 5000, 15000, 30000, 45000, 60000},
		}, []string{"stage"}),
		HistoryRecords: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "history_records",
			Help:      "Number of records currently held in the content history.",
		}),
		HistoryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_errors_total",
			Help:      "Swallowed history storage errors by operation.",
		}, []string{"op"}),
		AdEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ad_events_total",
			Help:      "Ad adapter events by network and event.",
		}, []string{"network", "event"}),
		WSMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "Websocket messages by direction and type.",
		}, []string{"direction", "type"}),
		stages: newStageWindow(256),
	}
}

// ObserveStage records one fallback chain or SEO stage attempt.
func (m *Metrics) ObserveStage(stage, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	ms := float64(d.Milliseconds())
	m.StageOutcomes.WithLabelValues(stage, outcome).Inc()
	m.StageLatency.WithLabelValues(stage).Observe(ms)
	m.stages.Record(stage, outcome, ms)
}

// ObserveProviderError counts a classified provider failure and attributes
// its kind to the stage that was running.
func (m *Metrics) ObserveProviderError(stage, provider, kind string) {
	if m == nil {
		return
	}
	m.ProviderErrors.WithLabelValues(provider, kind).Inc()
	m.stages.RecordFailureKind(stage, kind)
}

func (m *Metrics) ObserveGeneration(kind, method string) {
	if m == nil {
		return
	}
	m.Generations.WithLabelValues(kind, method).Inc()
}

func (m *Metrics) SetHistoryRecords(n int) {
	if m == nil {
		return
	}
	m.HistoryRecords.Set(float64(n))
}

func (m *Metrics) ObserveHistoryError(op string) {
	if m == nil {
		return
	}
	m.HistoryErrors.WithLabelValues(op).Inc()
}

func (m *Metrics) ObserveAdEvent(network, event string) {
	if m == nil {
		return
	}
	m.AdEvents.WithLabelValues(network, event).Inc()
}

// ObserveWSMessage counts one websocket frame by direction (inbound|outbound).
func (m *Metrics) ObserveWSMessage(direction, messageType string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction, messageType).Inc()
}

func (m *Metrics) SnapshotStages() StageSnapshot {
	if m == nil || m.stages == nil {
		return StageSnapshot{GeneratedAt: time.Now().UTC(), Stages: []StageHealth{}}
	}
	return m.stages.Snapshot()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
