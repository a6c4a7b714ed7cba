// Package metrics exposes the outcome of the latest evaluation run as
// Prometheus gauges.
package metrics

import (
	"net/http"
	"time"

	"slaintel/internal/analysis"
	"slaintel/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "slaintel"

type Metrics struct {
	registry *prometheus.Registry

	teamCapacity     prometheus.Gauge
	forecastCapacity *prometheus.GaugeVec
	ownerCapacity    *prometheus.GaugeVec
	itemsByState     *prometheus.GaugeVec
	alertsBySeverity *prometheus.GaugeVec
	skippedItems     prometheus.Gauge
	lastRun          prometheus.Gauge
	runDuration      prometheus.Histogram
	runs             *prometheus.CounterVec
	llmTokens        prometheus.Counter
}

// New registers every collector on reg.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		teamCapacity: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "team_capacity_percent",
			Help:      "Mean owner capacity of the latest run",
		}),
		forecastCapacity: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "forecast_capacity_percent",
			Help:      "Forecasted team capacity by window",
		}, []string{"window"}),
		ownerCapacity: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "owner_capacity_percent",
			Help:      "Capped capacity per owner",
		}, []string{"owner"}),
		itemsByState: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_items",
			Help:      "Active items by SLA state",
		}, []string{"state"}),
		alertsBySeverity: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "alerts",
			Help:      "Alerts raised by the latest run by severity",
		}, []string{"severity"}),
		skippedItems: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "skipped_items",
			Help:      "Items skipped because no SLA policy matched",
		}),
		lastRun: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the latest completed run",
		}),
		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Evaluation run duration",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Evaluation runs by result",
		}, []string{"result"}),
		llmTokens: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_total",
			Help:      "Tokens spent on narrative digests",
		}),
	}
}

// Observe replaces the gauges with the values of r.
func (m *Metrics) Observe(r analysis.Report, took time.Duration) {
	m.teamCapacity.Set(r.Capacity.CurrentCapacityPercent)
	m.forecastCapacity.WithLabelValues("7d").Set(r.Capacity.ForecastedCapacity7dPercent)
	m.forecastCapacity.WithLabelValues("30d").Set(r.Capacity.ForecastedCapacity30dPercent)

	m.ownerCapacity.Reset()
	for _, l := range r.Loads {
		m.ownerCapacity.WithLabelValues(l.OwnerID).Set(l.CapacityPercent)
	}
	for _, state := range []domain.SLAState{domain.SLAOnTrack, domain.SLAAtRisk, domain.SLABreached} {
		m.itemsByState.WithLabelValues(string(state)).Set(float64(r.CountByState(state)))
	}

	counts := make(map[domain.Severity]int)
	for _, a := range r.Alerts {
		counts[a.Severity]++
	}
	for _, sev := range []domain.Severity{domain.SeverityCritical, domain.SeverityHigh, domain.SeverityMedium, domain.SeverityLow} {
		m.alertsBySeverity.WithLabelValues(string(sev)).Set(float64(counts[sev]))
	}

	m.skippedItems.Set(float64(r.SkippedItems))
	m.lastRun.Set(float64(r.GeneratedAt.Unix()))
	m.runDuration.Observe(took.Seconds())
	m.runs.WithLabelValues("ok").Inc()
}

func (m *Metrics) RunFailed() {
	m.runs.WithLabelValues("error").Inc()
}

// RunsCounter returns the run counter for result ("ok" or "error").
func (m *Metrics) RunsCounter(result string) prometheus.Counter {
	return m.runs.WithLabelValues(result)
}

func (m *Metrics) AddLLMTokens(n int64) {
	if n > 0 {
		m.llmTokens.Add(float64(n))
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
