// Package telemetry keeps Prometheus metrics about benchmark runs and exports
// them as a node-exporter textfile.
package telemetry

import (
	"context"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/imishinist/graphalytics-kgraphs/internal/models"
)

const namespace = "graphalytics_kgraphs"

// Recorder records the outcome of benchmark runs.
type Recorder struct {
	registry *prometheus.Registry

	runs       *prometheus.CounterVec
	processing *prometheus.GaugeVec
	makespan   *prometheus.GaugeVec
}

// NewRecorder returns a Recorder backed by its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "The total number of benchmark runs by outcome",
		}, []string{"algorithm", "graph", "status"}),
		processing: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "processing_seconds",
			Help:      "Processing time reported by the engine for the last run",
		}, []string{"algorithm", "graph"}),
		makespan: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "makespan_seconds",
			Help:      "Wall-clock time of the engine process for the last run",
		}, []string{"algorithm", "graph"}),
	}
	r.registry.MustRegister(r.runs, r.processing, r.makespan)
	return r
}

// ReportRun updates the run counter and the timing gauges. Gauges are left
// untouched for metrics that were not obtained.
func (r *Recorder) ReportRun(_ context.Context, spec models.RunSpecification, metrics *models.BenchmarkMetrics, runErr error) error {
	alg, graph := string(spec.Run.Algorithm()), spec.Run.GraphName
	status := strings.ToLower(string(models.StatusOf(runErr)))

	r.runs.WithLabelValues(alg, graph, status).Inc()
	if metrics == nil {
		return nil
	}
	if metrics.ProcessingTime != nil {
		r.processing.WithLabelValues(alg, graph).Set(metrics.ProcessingTime.Value)
	}
	if metrics.Makespan != nil {
		r.makespan.WithLabelValues(alg, graph).Set(metrics.Makespan.Value)
	}
	return nil
}

// WriteTextfile atomically writes all recorded metrics to path in the text
// exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
