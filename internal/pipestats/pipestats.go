// Package pipestats instruments the analysis pipeline with Prometheus
// metrics, following the promauto metric-definition style of
// michaelbomholt665-code-watch's internal/shared/observability package.
// codemap is a one-shot CLI, not a server, so there is no /metrics HTTP
// endpoint here: Dump renders the registry to the Prometheus text exposition
// format once, for --metrics-file.
package pipestats

import (
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

// Collector holds one analysis run's metrics, registered against a private
// registry so repeated Analyze calls in the same process (tests, --watch)
// never collide with promauto's global default registry.
type Collector struct {
	registry *prometheus.Registry

	StageDuration  *prometheus.HistogramVec
	FilesWalked    prometheus.Gauge
	IssuesTotal    *prometheus.CounterVec
	ClonePairs     prometheus.Gauge
	WatchRunsTotal prometheus.Counter
}

// New builds a Collector with its own registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "codemap_stage_duration_seconds",
			Help:    "Time spent in each analysis pipeline stage.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		FilesWalked: factory.NewGauge(prometheus.GaugeOpts{
			Name: "codemap_files_walked_total",
			Help: "Number of files discovered by the most recent walk.",
		}),
		IssuesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "codemap_issues_total",
			Help: "Issues raised by the most recent analysis, by severity.",
		}, []string{"severity"}),
		ClonePairs: factory.NewGauge(prometheus.GaugeOpts{
			Name: "codemap_clone_pairs_total",
			Help: "Directed clone-entry pairs found by the most recent analysis.",
		}),
		WatchRunsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "codemap_watch_runs_total",
			Help: "Total number of analysis runs triggered by --watch.",
		}),
	}
}

// ObserveStage records how long a pipeline stage took.
func (c *Collector) ObserveStage(stage string, d time.Duration) {
	c.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// Dump renders the registry's current state to path in the Prometheus text
// exposition format.
func (c *Collector) Dump(path string) error {
	families, err := c.registry.Gather()
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := expfmt.NewEncoder(f, expfmt.FmtText)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
