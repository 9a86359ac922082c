package platform

import (
	"context"

	"github.com/imishinist/graphalytics-kgraphs/internal/models"
)

//go:generate mockgen -package mocks -destination mocks/mock_reporter.go github.com/imishinist/graphalytics-kgraphs/internal/platform Reporter

// Reporter is notified once for every run executed by the platform. runErr
// is the error the run failed with, or nil.
type Reporter interface {
	ReportRun(ctx context.Context, spec models.RunSpecification, metrics *models.BenchmarkMetrics, runErr error) error
}
