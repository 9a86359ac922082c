package parser

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/imishinist/graphalytics-kgraphs/internal/models"
)

// ErrInvalidSpec is wrapped by every error caused by malformed input.
var ErrInvalidSpec = errors.New("invalid specification")

type graphFile struct {
	models.FormattedGraph `yaml:",inline"`
	LoadedPath            string `json:"loaded-path" yaml:"loaded-path"`
}

// decodeFunc decodes the raw algorithm parameters into v, rejecting keys v
// does not declare.
type decodeFunc func(v interface{}) error

func decodeInto[T models.AlgorithmParameters](decode decodeFunc) (models.AlgorithmParameters, error) {
	var p T
	if err := decode(&p); err != nil {
		return nil, err
	}
	return p, nil
}

func decodeParameters(alg models.Algorithm, decode decodeFunc) (models.AlgorithmParameters, error) {
	var (
		params models.AlgorithmParameters
		err    error
	)
	switch alg {
	case models.AlgorithmBFS:
		params, err = decodeInto[models.BFSParameters](decode)
	case models.AlgorithmCDLP:
		params, err = decodeInto[models.CDLPParameters](decode)
	case models.AlgorithmLCC:
		params, err = decodeInto[models.LCCParameters](decode)
	case models.AlgorithmPR:
		params, err = decodeInto[models.PRParameters](decode)
	case models.AlgorithmSSSP:
		params, err = decodeInto[models.SSSPParameters](decode)
	case models.AlgorithmWCC:
		params, err = decodeInto[models.WCCParameters](decode)
	default:
		return nil, fmt.Errorf("%w: %w: %q", ErrInvalidSpec, models.ErrUnknownAlgorithm, string(alg))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: parameters do not match algorithm %s: %v", ErrInvalidSpec, alg, err)
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}
	return params, nil
}

// buildRunSpec validates the decoded fields and assembles the specification.
// A missing run id is replaced by a random UUID.
func buildRunSpec(id, algorithm string, decode decodeFunc, graph graphFile, logDir, outputDir string) (*models.RunSpecification, error) {
	alg, err := models.ParseAlgorithm(algorithm)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSpec, err)
	}
	params, err := decodeParameters(alg, decode)
	if err != nil {
		return nil, err
	}

	switch {
	case graph.Name == "":
		return nil, fmt.Errorf("%w: graph name is required", ErrInvalidSpec)
	case graph.LoadedPath == "":
		return nil, fmt.Errorf("%w: graph loaded-path is required", ErrInvalidSpec)
	case logDir == "":
		return nil, fmt.Errorf("%w: log-dir is required", ErrInvalidSpec)
	case outputDir == "":
		return nil, fmt.Errorf("%w: output-dir is required", ErrInvalidSpec)
	}

	if id == "" {
		id = uuid.NewString()
	}
	return &models.RunSpecification{
		Run: models.BenchmarkRun{
			ID:         id,
			Parameters: params,
			GraphName:  graph.Name,
		},
		LoadedGraph: models.LoadedGraph{
			Graph:      graph.FormattedGraph,
			LoadedPath: graph.LoadedPath,
		},
		LogDir:    logDir,
		OutputDir: outputDir,
	}, nil
}

func validateGraph(graph *models.FormattedGraph) error {
	switch {
	case graph.Name == "":
		return fmt.Errorf("%w: graph name is required", ErrInvalidSpec)
	case graph.VertexFilePath == "":
		return fmt.Errorf("%w: vertex-path is required", ErrInvalidSpec)
	case graph.EdgeFilePath == "":
		return fmt.Errorf("%w: edge-path is required", ErrInvalidSpec)
	}
	return nil
}
