package models

import (
	"fmt"
	"path/filepath"
	"time"
)

// BenchmarkRun is one execution of one algorithm against one graph.
type BenchmarkRun struct {
	ID         string
	Parameters AlgorithmParameters
	GraphName  string
}

// Algorithm returns the algorithm selected by the run parameters.
func (r BenchmarkRun) Algorithm() Algorithm {
	return r.Parameters.Algorithm()
}

// Name returns the unique name of the run, used for output and log paths.
func (r BenchmarkRun) Name() string {
	return fmt.Sprintf("%s-%s-%s", r.ID, r.Algorithm().Acronym(), r.GraphName)
}

// RunSpecification bundles everything the platform needs to execute a run.
type RunSpecification struct {
	Run         BenchmarkRun
	LoadedGraph LoadedGraph
	LogDir      string
	OutputDir   string
}

type RunConfig struct {
	ExperimentID *string           `json:"experiment_id,omitempty"`
	RunName      *string           `json:"run_name,omitempty"`
	Tags         map[string]string `json:"tags,omitempty"`
	Description  *string           `json:"description,omitempty"`
}

type RunInfo struct {
	RunID        string            `json:"run_id"`
	ExperimentID string            `json:"experiment_id"`
	RunName      string            `json:"run_name"`
	Status       string            `json:"status"`
	StartTime    time.Time         `json:"start_time"`
	EndTime      *time.Time        `json:"end_time,omitempty"`
	Tags         map[string]string `json:"tags,omitempty"`
	Description  string            `json:"description,omitempty"`
	ArtifactURI  string            `json:"artifact_uri,omitempty"`
}

// RunStatus is the lifecycle status of a run on the tracking server.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "RUNNING"
	RunStatusFinished RunStatus = "FINISHED"
	RunStatusFailed   RunStatus = "FAILED"
	RunStatusKilled   RunStatus = "KILLED"
)

// StatusOf maps the outcome of a benchmark run to a tracking status.
func StatusOf(runErr error) RunStatus {
	if runErr != nil {
		return RunStatusFailed
	}
	return RunStatusFinished
}

// PlatformLogDir returns the directory holding the platform logs of the run.
func (s RunSpecification) PlatformLogDir() string {
	return filepath.Join(s.LogDir, "platform")
}

// PlatformLogFile returns the file the engine output of the run is written to.
func (s RunSpecification) PlatformLogFile() string {
	return filepath.Join(s.PlatformLogDir(), "runner.logs")
}
