package telemetry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	gc "gopkg.in/check.v1"

	"github.com/imishinist/graphalytics-kgraphs/internal/models"
)

var _ = gc.Suite(new(RecorderTestSuite))

func Test(t *testing.T) { gc.TestingT(t) }

type RecorderTestSuite struct {
	spec models.RunSpecification
}

func (s *RecorderTestSuite) SetUpTest(c *gc.C) {
	s.spec = models.RunSpecification{
		Run: models.BenchmarkRun{ID: "r1", Parameters: models.WCCParameters{}, GraphName: "example-undirected"},
	}
}

func (s *RecorderTestSuite) TestReportRun(c *gc.C) {
	r := NewRecorder()
	metrics := &models.BenchmarkMetrics{
		ProcessingTime: &models.BenchmarkMetric{Value: 3.5, Unit: "s"},
		Makespan:       &models.BenchmarkMetric{Value: 4.25, Unit: "s"},
	}

	c.Assert(r.ReportRun(context.TODO(), s.spec, metrics, nil), gc.IsNil)
	c.Assert(r.ReportRun(context.TODO(), s.spec, nil, errors.New("boom")), gc.IsNil)
	c.Assert(r.ReportRun(context.TODO(), s.spec, &models.BenchmarkMetrics{}, nil), gc.IsNil)

	c.Assert(testutil.ToFloat64(r.runs.WithLabelValues("wcc", "example-undirected", "finished")), gc.Equals, 2.0)
	c.Assert(testutil.ToFloat64(r.runs.WithLabelValues("wcc", "example-undirected", "failed")), gc.Equals, 1.0)
	c.Assert(testutil.ToFloat64(r.processing.WithLabelValues("wcc", "example-undirected")), gc.Equals, 3.5)
	c.Assert(testutil.ToFloat64(r.makespan.WithLabelValues("wcc", "example-undirected")), gc.Equals, 4.25)
}

func (s *RecorderTestSuite) TestWriteTextfile(c *gc.C) {
	r := NewRecorder()
	c.Assert(r.ReportRun(context.TODO(), s.spec, &models.BenchmarkMetrics{
		Makespan: &models.BenchmarkMetric{Value: 2, Unit: "s"},
	}, nil), gc.IsNil)

	path := filepath.Join(c.MkDir(), "kgraphs.prom")
	c.Assert(r.WriteTextfile(path), gc.IsNil)

	data, err := os.ReadFile(path)
	c.Assert(err, gc.IsNil)
	out := string(data)
	c.Assert(strings.Contains(out, `graphalytics_kgraphs_runs_total{algorithm="wcc",graph="example-undirected",status="finished"} 1`), gc.Equals, true)
	c.Assert(strings.Contains(out, `graphalytics_kgraphs_makespan_seconds{algorithm="wcc",graph="example-undirected"} 2`), gc.Equals, true)
	c.Assert(strings.Contains(out, "graphalytics_kgraphs_processing_seconds"), gc.Equals, false)
}
