// Package platform drives benchmark runs on the Kafka Graphs engine: it loads
// and unloads graphs, executes algorithm runs and turns the engine logs into
// benchmark metrics.
package platform

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"

	"github.com/imishinist/graphalytics-kgraphs/internal/collector"
	"github.com/imishinist/graphalytics-kgraphs/internal/config"
	"github.com/imishinist/graphalytics-kgraphs/internal/job"
	"github.com/imishinist/graphalytics-kgraphs/internal/models"
)

// Name identifies the platform in reports.
const Name = "kgraphs"

// Config encapsulates the settings for the platform driver.
type Config struct {
	// The engine and job settings read from the platform properties.
	Platform *config.Config

	// Reporters are notified about every run executed through Execute.
	Reporters []Reporter

	// A clock instance for measuring the makespan. If not specified, the
	// default wall-clock will be used instead.
	Clock clock.Clock

	// Output receives the output of graph loaders. If not specified, it
	// is discarded.
	Output io.Writer

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (cfg *Config) validate() error {
	var err error
	if cfg.Platform == nil {
		err = multierror.Append(err, xerrors.Errorf("platform configuration has not been provided"))
	} else if pErr := cfg.Platform.Validate(); pErr != nil {
		err = multierror.Append(err, pErr)
	}
	for i, r := range cfg.Reporters {
		if r == nil {
			err = multierror.Append(err, xerrors.Errorf("reporter %d is nil", i))
		}
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}
	if cfg.Output == nil {
		cfg.Output = io.Discard
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}
	return err
}

// Platform executes benchmark runs one at a time. It is not safe for
// concurrent use.
type Platform struct {
	cfg       Config
	collector *collector.Collector
}

// New creates a platform driver with the specified config.
func New(cfg Config) (*Platform, error) {
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Errorf("platform: config validation failed: %w", err)
	}

	col, err := collector.New(collector.Patterns{
		Start:   cfg.Platform.LogStartPattern,
		End:     cfg.Platform.LogEndPattern,
		Elapsed: cfg.Platform.LogElapsedPattern,
	}, cfg.Logger)
	if err != nil {
		return nil, xerrors.Errorf("platform: config validation failed: %w", err)
	}

	return &Platform{cfg: cfg, collector: col}, nil
}

// Name returns the platform identifier.
func (p *Platform) Name() string { return Name }

// VerifySetup checks that the configured engine binaries can be executed.
func (p *Platform) VerifySetup() error {
	var err error
	executables := []struct {
		key  string
		path string
	}{
		{config.KeyExecutable, p.cfg.Platform.ExecutablePath},
		{config.KeyLoader, p.cfg.Platform.LoaderPath},
		{config.KeyUnloader, p.cfg.Platform.UnloaderPath},
	}
	for _, e := range executables {
		if e.path == "" {
			continue
		}
		if vErr := checkExecutable(e.path); vErr != nil {
			err = multierror.Append(err, xerrors.Errorf("%s: %w", e.key, vErr))
		}
	}
	return err
}

func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if info.Mode().Perm()&0111 == 0 {
		return fmt.Errorf("%s is not executable", path)
	}
	return nil
}

// LoadGraph loads graph into <intermediate-dir>/<graph name> and returns the
// handle of the loaded graph.
func (p *Platform) LoadGraph(ctx context.Context, graph models.FormattedGraph) (*models.LoadedGraph, error) {
	loadedPath := filepath.Join(p.cfg.Platform.IntermediateDir, graph.Name)
	logger := p.cfg.Logger.WithField("graph", graph.Name)
	logger.WithField("loaded_path", loadedPath).Info("loading graph")

	code, err := p.loader(graph).Load(ctx, loadedPath)
	if err == nil {
		err = job.CheckExitCode(code)
	}
	if err != nil {
		return nil, &ExecutionError{Msg: "failed to load a KafkaGraphs dataset", Err: err}
	}

	logger.Info("loaded graph")
	return &models.LoadedGraph{Graph: graph, LoadedPath: loadedPath}, nil
}

// DeleteGraph removes a graph previously loaded with LoadGraph.
func (p *Platform) DeleteGraph(ctx context.Context, loaded models.LoadedGraph) error {
	logger := p.cfg.Logger.WithField("graph", loaded.Graph.Name)
	logger.WithField("loaded_path", loaded.LoadedPath).Info("unloading graph")

	code, err := p.loader(loaded.Graph).Unload(ctx, loaded.LoadedPath)
	if err == nil {
		err = job.CheckExitCode(code)
	}
	if err != nil {
		return &ExecutionError{Msg: "failed to unload a KafkaGraphs dataset", Err: err}
	}

	logger.Info("unloaded graph")
	return nil
}

func (p *Platform) loader(graph models.FormattedGraph) *job.Loader {
	return job.NewLoader(graph, p.cfg.Platform, job.Options{Output: p.cfg.Output, Logger: p.cfg.Logger})
}

// Prepare is called before the platform log session of a run is started.
func (p *Platform) Prepare(spec models.RunSpecification) error {
	return nil
}

// Startup opens the platform log session that captures the engine output of
// the run.
func (p *Platform) Startup(spec models.RunSpecification) (*collector.Session, error) {
	session, err := collector.StartSession(spec.PlatformLogFile())
	if err != nil {
		return nil, err
	}
	p.cfg.Logger.WithFields(logrus.Fields{
		"run":      spec.Run.Name(),
		"log_file": session.Path(),
	}).Debug("started platform log session")
	return session, nil
}

// Run executes the engine job of the run, writing its output to session.
// The job reads the loaded graph and writes to <output-dir>/<run name>.
func (p *Platform) Run(ctx context.Context, spec models.RunSpecification, session *collector.Session) error {
	outputPath, err := filepath.Abs(filepath.Join(spec.OutputDir, spec.Run.Name()))
	if err != nil {
		return &ExecutionError{Msg: "failed to execute a KafkaGraphs job", Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return &ExecutionError{Msg: "failed to execute a KafkaGraphs job", Err: err}
	}

	j, err := job.New(spec, p.cfg.Platform, spec.LoadedGraph.LoadedPath, outputPath, job.Options{
		Output: session.Writer(),
		Logger: p.cfg.Logger,
	})
	if err != nil {
		return &ExecutionError{Msg: "failed to execute a KafkaGraphs job", Err: err}
	}

	code, err := j.Execute(ctx)
	if err == nil {
		err = job.CheckExitCode(code)
	}
	if err != nil {
		return &ExecutionError{Msg: "failed to execute a KafkaGraphs job", Err: err}
	}
	return nil
}

// Finalize closes the log session and extracts the processing time from the
// platform logs. A processing time that cannot be recovered is left nil.
func (p *Platform) Finalize(spec models.RunSpecification, session *collector.Session) (*models.BenchmarkMetrics, error) {
	stopErr := session.Stop()
	return &models.BenchmarkMetrics{
		ProcessingTime: p.collector.CollectProcessingTime(spec.PlatformLogDir()),
	}, stopErr
}

// Terminate releases everything held for the run. It may be called after
// Finalize.
func (p *Platform) Terminate(spec models.RunSpecification, session *collector.Session) error {
	return session.Stop()
}

// Execute performs the whole lifecycle of one run and notifies the
// configured reporters. The makespan is the time spent in Run and is only
// recorded for successful runs. Reporter failures are logged and do not
// affect the returned error.
func (p *Platform) Execute(ctx context.Context, spec models.RunSpecification) (*models.BenchmarkMetrics, error) {
	logger := p.cfg.Logger.WithField("run", spec.Run.Name())

	metrics, runErr := p.execute(ctx, spec, logger)
	if runErr != nil {
		logger.WithField("err", runErr).Error("run failed")
	} else {
		logger.Info("run completed")
	}

	for _, r := range p.cfg.Reporters {
		if err := r.ReportRun(ctx, spec, metrics, runErr); err != nil {
			logger.WithField("err", err).Warn("failed to report run")
		}
	}
	return metrics, runErr
}

func (p *Platform) execute(ctx context.Context, spec models.RunSpecification, logger *logrus.Entry) (*models.BenchmarkMetrics, error) {
	if err := p.Prepare(spec); err != nil {
		return nil, &ExecutionError{Msg: "failed to start a KafkaGraphs run", Err: err}
	}
	session, err := p.Startup(spec)
	if err != nil {
		return nil, &ExecutionError{Msg: "failed to start a KafkaGraphs run", Err: err}
	}

	start := p.cfg.Clock.Now()
	runErr := p.Run(ctx, spec, session)
	makespan := p.cfg.Clock.Now().Sub(start)

	metrics, err := p.Finalize(spec, session)
	if err != nil {
		logger.WithField("err", err).Warn("failed to close platform log")
	}
	if err := p.Terminate(spec, session); err != nil {
		logger.WithField("err", err).Warn("failed to terminate run")
	}

	if runErr != nil {
		return metrics, runErr
	}
	metrics.Makespan = models.DurationMetric(makespan)
	fields := logrus.Fields{"makespan": metrics.Makespan.Value}
	if metrics.ProcessingTime != nil {
		fields["processing_time"] = metrics.ProcessingTime.Value
	}
	logger.WithFields(fields).Info("collected metrics")
	return metrics, nil
}
