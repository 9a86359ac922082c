// Package job launches and supervises Kafka Graphs engine processes: one
// algorithm run per Job, and graph loading/unloading through a Loader.
package job

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/imishinist/graphalytics-kgraphs/internal/algorithm"
	"github.com/imishinist/graphalytics-kgraphs/internal/commandline"
	"github.com/imishinist/graphalytics-kgraphs/internal/config"
	"github.com/imishinist/graphalytics-kgraphs/internal/models"
)

// State is the lifecycle position of a Job.
type State int

const (
	// StateConstructed: executable and shared platform flags are in place.
	StateConstructed State = iota
	// StateParameterized: algorithm and path flags are in place; the job can
	// be executed.
	StateParameterized
	// StateExecuted: the engine process has been started.
	StateExecuted
	// StateTerminal: the engine process is gone and its exit code known.
	StateTerminal
)

func (s State) String() string {
	switch s {
	case StateConstructed:
		return "constructed"
	case StateParameterized:
		return "parameterized"
	case StateExecuted:
		return "executed"
	case StateTerminal:
		return "terminal"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Job is a single engine invocation for one benchmark run. A Job is not safe
// for concurrent use and cannot be executed more than once.
type Job struct {
	spec       models.RunSpecification
	cfg        *config.Config
	inputPath  string
	outputPath string

	parameterizer algorithm.Parameterizer
	commandLine   *commandline.CommandLine
	state         State
	exitCode      int

	opts Options
}

// New assembles the engine command line for the run described by spec. It
// fails if the run parameters do not map to a supported algorithm or do not
// validate.
func New(spec models.RunSpecification, cfg *config.Config, inputPath, outputPath string, opts Options) (*Job, error) {
	parameterizer, err := algorithm.For(spec.Run.Parameters)
	if err != nil {
		return nil, err
	}
	if err := spec.Run.Parameters.Validate(); err != nil {
		return nil, fmt.Errorf("invalid algorithm parameters: %w", err)
	}
	opts.setDefaults()

	j := &Job{
		spec:          spec,
		cfg:           cfg,
		inputPath:     inputPath,
		outputPath:    outputPath,
		parameterizer: parameterizer,
		commandLine:   commandline.New(cfg.ExecutablePath),
		exitCode:      -1,
		opts:          opts,
	}
	j.opts.Logger = opts.Logger.WithFields(logrus.Fields{
		"run":       spec.Run.Name(),
		"algorithm": parameterizer.Algorithm(),
	})

	appendBaseConfiguration(j.commandLine, cfg)
	j.state = StateConstructed

	j.parameterizer.AppendAlgorithmParameters(j.commandLine)
	j.appendPaths()
	j.state = StateParameterized
	return j, nil
}

func (j *Job) appendPaths() {
	j.commandLine.AddArgument("--input-path")
	j.commandLine.AddArgument(j.inputPath)
	j.commandLine.AddArgument("--output-path")
	j.commandLine.AddArgument(j.outputPath)
}

// Execute runs the engine and blocks until it exits. The exit code is
// returned unmodified; a non-zero code is not an error here. A *LaunchError
// is returned if the process could not be started.
func (j *Job) Execute(ctx context.Context) (int, error) {
	if j.state != StateParameterized {
		return -1, fmt.Errorf("job for run %s cannot be executed in state %s", j.spec.Run.Name(), j.state)
	}
	j.state = StateExecuted

	j.opts.Logger.WithField("command", j.commandLine.String()).Info("executing job")
	code, err := runProcess(ctx, j.commandLine, j.cfg, j.opts)
	j.exitCode = code
	j.state = StateTerminal
	if err != nil {
		return code, err
	}

	j.opts.Logger.WithField("exit_code", code).Info("job terminated")
	return code, nil
}

// State returns the lifecycle position of the job.
func (j *Job) State() State { return j.state }

// ExitCode returns the exit code of the engine, or -1 before termination.
func (j *Job) ExitCode() int { return j.exitCode }

// CommandLine returns the assembled command line.
func (j *Job) CommandLine() *commandline.CommandLine { return j.commandLine }
