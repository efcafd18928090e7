// Package telemetry implements nit's process-wide LLM usage-telemetry
// sink: a single Install/Reset-guarded singleton that every LLMEngine
// call reports to, per spec.md §4.5/§9.
package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// UsageEvent is one LLM call's usage record, matching spec.md §4.5's
// "{model,prompt_tokens,completion_tokens,template_name?,builder_name?,
// source_file?}" shape.
type UsageEvent struct {
	Model            string
	PromptTokens     int
	CompletionTokens int
	TemplateName     string
	BuilderName      string
	SourceFile       string
}

// Sink receives every UsageEvent nit's LLMEngine emits.
type Sink interface {
	Record(event UsageEvent)
}

// NopSink discards every event; it is the default before Install is called.
type NopSink struct{}

func (NopSink) Record(UsageEvent) {}

var (
	mu      sync.Mutex
	current Sink = NopSink{}
)

// Install replaces the process-wide sink. Call once at startup.
func Install(sink Sink) {
	mu.Lock()
	defer mu.Unlock()
	if sink == nil {
		sink = NopSink{}
	}
	current = sink
}

// Reset restores the NopSink, primarily for test isolation.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	current = NopSink{}
}

// Record reports event to whichever sink is currently installed.
func Record(event UsageEvent) {
	mu.Lock()
	sink := current
	mu.Unlock()
	sink.Record(event)
}

// PrometheusSink is the default production sink: two Prometheus
// instruments (a counter of tokens, a histogram of completion size)
// labeled by model/template/builder, grounded on the teacher's
// Prometheus usage in services/trace/graph/hld_*.go and
// services/trace/config/tool_registry.go. Deliberately not the
// teacher's OpenTelemetry span pipeline — see SPEC_FULL.md §10.
type PrometheusSink struct {
	tokens    *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

// NewPrometheusSink registers its instruments against reg (use
// prometheus.NewRegistry() in tests to avoid the global default
// registry's duplicate-registration panics).
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	s := &PrometheusSink{
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nit_llm_tokens_total",
			Help: "Total prompt and completion tokens consumed by nit's LLM calls.",
		}, []string{"model", "kind", "builder"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nit_llm_completion_tokens",
			Help:    "Distribution of completion token counts per nit LLM call.",
			Buckets: prometheus.ExponentialBuckets(16, 2, 10),
		}, []string{"model"}),
	}
	reg.MustRegister(s.tokens, s.durations)
	return s
}

func (s *PrometheusSink) Record(event UsageEvent) {
	s.tokens.WithLabelValues(event.Model, "prompt", event.BuilderName).Add(float64(event.PromptTokens))
	s.tokens.WithLabelValues(event.Model, "completion", event.BuilderName).Add(float64(event.CompletionTokens))
	s.durations.WithLabelValues(event.Model).Observe(float64(event.CompletionTokens))
}

// BufferedSink accumulates events for tests.
type BufferedSink struct {
	mu     sync.Mutex
	Events []UsageEvent
}

func (s *BufferedSink) Record(event UsageEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Events = append(s.Events, event)
}
