package models

import "time"

// BenchmarkMetric is a single measured value with its unit.
type BenchmarkMetric struct {
	Value float64 `json:"value" yaml:"value"`
	Unit  string  `json:"unit" yaml:"unit"`
}

// DurationMetric expresses d in seconds.
func DurationMetric(d time.Duration) *BenchmarkMetric {
	return &BenchmarkMetric{Value: d.Seconds(), Unit: "s"}
}

// BenchmarkMetrics is the metrics record produced for a run. A nil field
// means the metric could not be obtained.
type BenchmarkMetrics struct {
	ProcessingTime *BenchmarkMetric `json:"processing-time" yaml:"processing-time"`
	Makespan       *BenchmarkMetric `json:"makespan" yaml:"makespan"`
}

// Metric is a single data point reported to a tracking server.
type Metric struct {
	Key       string    `json:"key"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
	Step      int64     `json:"step"`
}

// TrackingMetrics converts the record into tracking data points stamped with ts.
// Absent metrics are skipped.
func (m *BenchmarkMetrics) TrackingMetrics(ts time.Time) []Metric {
	var out []Metric
	if m == nil {
		return out
	}
	if m.ProcessingTime != nil {
		out = append(out, Metric{Key: "processing_time", Value: m.ProcessingTime.Value, Timestamp: ts})
	}
	if m.Makespan != nil {
		out = append(out, Metric{Key: "makespan", Value: m.Makespan.Value, Timestamp: ts})
	}
	return out
}
