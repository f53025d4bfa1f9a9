package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "codetutor"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once             sync.Once
	reg              *prom.Registry
	stageDuration    *prom.HistogramVec
	runDuration      prom.Histogram
	stageResults     *prom.CounterVec
	runOutcome       *prom.CounterVec
	llmDuration      *prom.HistogramVec
	llmCalls         *prom.CounterVec
	retries          *prom.CounterVec
	retriesExhausted *prom.CounterVec
	cloneDuration    *prom.HistogramVec
	filesSelected    prom.Gauge
}

// llmBuckets spans quick failures up to multi-minute chapter generations.
var llmBuckets = []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160, 320}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{reg: reg}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline stages",
			Buckets:   llmBuckets,
		}, []string{"stage"})
		pr.runDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Total run duration",
			Buckets:   llmBuckets,
		})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"})
		pr.runOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "run_outcomes_total",
			Help:      "Run outcomes by final status",
		}, []string{"outcome"})
		pr.llmDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_call_duration_seconds",
			Help:      "Duration of language model calls",
			Buckets:   llmBuckets,
		}, []string{"step"})
		pr.llmCalls = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "llm_calls_total",
			Help:      "Language model calls by step and outcome",
		}, []string{"step", "outcome"})
		pr.retries = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Retries of model-backed steps after transient failures",
		}, []string{"step"})
		pr.retriesExhausted = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "retry_exhausted_total",
			Help:      "Count of steps where retries were exhausted",
		}, []string{"step"})
		pr.cloneDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "clone_duration_seconds",
			Help:      "Duration of repository clones",
			Buckets:   prom.DefBuckets,
		}, []string{"result"})
		pr.filesSelected = prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "files_selected",
			Help:      "Files selected for the last run",
		})
		reg.MustRegister(pr.stageDuration, pr.runDuration, pr.stageResults, pr.runOutcome,
			pr.llmDuration, pr.llmCalls, pr.retries, pr.retriesExhausted, pr.cloneDuration, pr.filesSelected)
	})
	return pr
}

// Registry exposes the registry the recorder writes to.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.reg }

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncRunOutcome(outcome string) {
	p.runOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) ObserveLLMCall(step string, d time.Duration, outcome string) {
	p.llmDuration.WithLabelValues(step).Observe(d.Seconds())
	p.llmCalls.WithLabelValues(step, outcome).Inc()
}

func (p *PrometheusRecorder) IncRetry(step string) {
	p.retries.WithLabelValues(step).Inc()
}

func (p *PrometheusRecorder) IncRetryExhausted(step string) {
	p.retriesExhausted.WithLabelValues(step).Inc()
}

func (p *PrometheusRecorder) ObserveCloneDuration(d time.Duration, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	p.cloneDuration.WithLabelValues(result).Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetFilesSelected(n int) {
	p.filesSelected.Set(float64(n))
}
