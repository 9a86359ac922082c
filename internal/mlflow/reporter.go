package mlflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/imishinist/graphalytics-kgraphs/internal/models"
)

// ReporterConfig configures a Reporter.
type ReporterConfig struct {
	// ExperimentID is the experiment runs are recorded under.
	ExperimentID string

	// Tags are attached to every run in addition to the algorithm and
	// graph tags.
	Tags map[string]string

	// Logger for reporting progress. If not defined, output is discarded.
	Logger *logrus.Entry
}

// Reporter records benchmark runs as MLflow runs.
type Reporter struct {
	client *Client
	cfg    ReporterConfig
}

// NewReporter returns a Reporter that records runs through client.
func NewReporter(client *Client, cfg ReporterConfig) *Reporter {
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}
	return &Reporter{client: client, cfg: cfg}
}

// ReportRun creates one MLflow run for a benchmark run holding its
// parameters, metrics and platform log. The MLflow run is marked FAILED if
// runErr is non-nil or any of the logging steps failed.
func (r *Reporter) ReportRun(ctx context.Context, spec models.RunSpecification, metrics *models.BenchmarkMetrics, runErr error) error {
	runName := spec.Run.Name()
	tags := map[string]string{
		"algorithm": string(spec.Run.Algorithm()),
		"graph":     spec.Run.GraphName,
	}
	for k, v := range r.cfg.Tags {
		tags[k] = v
	}

	runCfg := &models.RunConfig{
		ExperimentID: &r.cfg.ExperimentID,
		RunName:      &runName,
		Tags:         tags,
	}
	if runErr != nil {
		description := runErr.Error()
		runCfg.Description = &description
	}

	info, err := r.client.CreateRun(ctx, runCfg)
	if err != nil {
		return err
	}
	logger := r.cfg.Logger.WithFields(logrus.Fields{"run": runName, "mlflow_run_id": info.RunID})

	var errs error
	if err := r.client.LogParams(ctx, info.RunID, trackingParams(spec)); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := r.client.LogMetrics(ctx, info.RunID, metrics.TrackingMetrics(r.client.clock.Now())); err != nil {
		errs = multierror.Append(errs, err)
	}
	err = r.uploadPlatformLog(ctx, info, spec)
	switch {
	case errors.Is(err, ErrUnsupportedArtifactURI):
		// The run itself is recorded; only the log stays local.
		logger.WithError(err).Warn("skipped platform log upload")
	case err != nil:
		errs = multierror.Append(errs, err)
	}

	status := models.StatusOf(runErr)
	if errs != nil {
		status = models.RunStatusFailed
	}
	if err := r.client.UpdateRun(ctx, info.RunID, status); err != nil {
		errs = multierror.Append(errs, err)
	}
	if errs != nil {
		return fmt.Errorf("failed to report run %s: %w", runName, errs)
	}

	logger.WithField("status", status).Info("reported run to MLflow")
	return nil
}

func (r *Reporter) uploadPlatformLog(ctx context.Context, info *models.RunInfo, spec models.RunSpecification) error {
	logFile := spec.PlatformLogFile()
	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		return nil
	}
	if info.ArtifactURI == "" {
		return fmt.Errorf("artifact URI not found for run %s", info.RunID)
	}
	return r.client.UploadArtifact(ctx, info.ArtifactURI, logFile, "platform/runner.logs")
}

// trackingParams flattens the algorithm parameters and the graph name in a
// stable order.
func trackingParams(spec models.RunSpecification) []models.Parameter {
	values := spec.Run.Parameters.Map()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	params := make([]models.Parameter, 0, len(keys)+1)
	for _, k := range keys {
		params = append(params, models.Parameter{Key: k, Value: values[k]})
	}
	return append(params, models.Parameter{Key: "graph", Value: spec.Run.GraphName})
}
