// Package metrics exposes build statistics as Prometheus metrics.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "domainkit"

// Collector holds the metrics of build runs. It owns a private registry so
// that textfile output only carries domainkit metrics.
type Collector struct {
	registry *prometheus.Registry

	lines          *prometheus.CounterVec
	accepted       *prometheus.CounterVec
	rejected       *prometheus.CounterVec
	sourceFailures *prometheus.CounterVec
	domains        prometheus.Gauge
	lastBuild      prometheus.Gauge
	buildDuration  prometheus.Gauge
}

// NewCollector creates and registers the build metrics.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		lines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_total",
			Help:      "Lines read from each list.",
		}, []string{"list"}),
		accepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rules_accepted_total",
			Help:      "Directives accepted from each list, by polarity.",
		}, []string{"list", "polarity"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rules_rejected_total",
			Help:      "Lines rejected from each list, by stage.",
		}, []string{"list", "stage"}),
		sourceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_failures_total",
			Help:      "Lists that could not be loaded.",
		}, []string{"list"}),
		domains: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "domains",
			Help:      "Domains in the last written artifact.",
		}),
		lastBuild: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_build_timestamp_seconds",
			Help:      "Unix time of the last completed build.",
		}),
		buildDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_build_duration_seconds",
			Help:      "Duration of the last completed build.",
		}),
	}
	c.registry.MustRegister(c.lines, c.accepted, c.rejected, c.sourceFailures,
		c.domains, c.lastBuild, c.buildDuration)
	return c
}

// Registry returns the registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveList records the parse results of one list.
func (c *Collector) ObserveList(list string, lines, allow, block int, rejections map[string]int) {
	c.lines.WithLabelValues(list).Add(float64(lines))
	c.accepted.WithLabelValues(list, "allow").Add(float64(allow))
	c.accepted.WithLabelValues(list, "block").Add(float64(block))
	for stage, n := range rejections {
		c.rejected.WithLabelValues(list, stage).Add(float64(n))
	}
}

// SourceFailed counts a list that could not be loaded.
func (c *Collector) SourceFailed(list string) {
	c.sourceFailures.WithLabelValues(list).Inc()
}

// BuildCompleted records the final domain count and build timing.
func (c *Collector) BuildCompleted(domains int, finished time.Time, took time.Duration) {
	c.domains.Set(float64(domains))
	c.lastBuild.Set(float64(finished.Unix()))
	c.buildDuration.Set(took.Seconds())
}

// WriteTextfile writes the metrics for the node exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
