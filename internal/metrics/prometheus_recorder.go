package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "spritegen"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	sheetDuration *prom.HistogramVec
	sheetResults  *prom.CounterVec
	artifactBytes *prom.CounterVec
	runDuration   prom.Histogram
	runOutcomes   *prom.CounterVec
	rebuilds      *prom.CounterVec
	watchedDirs   prom.Gauge
}

// NewRegistry returns a registry carrying the Go runtime and process collectors.
func NewRegistry() *prom.Registry {
	reg := prom.NewRegistry()
	reg.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
	return reg
}

// NewPrometheusRecorder constructs and registers the build metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		sheetDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "sheet_build_duration_seconds",
			Help:      "Duration of sprite and font sub-builds",
			Buckets:   prom.DefBuckets,
		}, []string{"kind"}),
		sheetResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "sheet_build_results_total",
			Help:      "Sub-build results by kind and outcome",
		}, []string{"kind", "result"}),
		artifactBytes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "artifact_bytes_total",
			Help:      "Bytes of generated artifacts delivered",
		}, []string{"kind"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a full run across all sheets",
			Buckets:   prom.DefBuckets,
		}),
		runOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "run_outcomes_total",
			Help:      "Runs by final state",
		}, []string{"outcome"}),
		rebuilds: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "rebuilds_total",
			Help:      "Sheet rebuilds by trigger",
		}, []string{"trigger"}),
		watchedDirs: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "watched_directories",
			Help:      "Directories currently subscribed for change events",
		}),
	}
	reg.MustRegister(pr.sheetDuration, pr.sheetResults, pr.artifactBytes, pr.runDuration, pr.runOutcomes, pr.rebuilds, pr.watchedDirs)
	return pr
}

func (p *PrometheusRecorder) ObserveSheetDuration(kind string, d time.Duration) {
	if p == nil {
		return
	}
	p.sheetDuration.WithLabelValues(kind).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncSheetResult(kind string, result ResultLabel) {
	if p == nil {
		return
	}
	p.sheetResults.WithLabelValues(kind, string(result)).Inc()
}

func (p *PrometheusRecorder) AddArtifactBytes(kind string, n int) {
	if p == nil || n <= 0 {
		return
	}
	p.artifactBytes.WithLabelValues(kind).Add(float64(n))
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRunOutcome(outcome OutcomeLabel) {
	if p == nil {
		return
	}
	p.runOutcomes.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncRebuild(trigger string) {
	if p == nil {
		return
	}
	p.rebuilds.WithLabelValues(trigger).Inc()
}

func (p *PrometheusRecorder) SetWatchedDirectories(n int) {
	if p == nil {
		return
	}
	p.watchedDirs.Set(float64(n))
}
