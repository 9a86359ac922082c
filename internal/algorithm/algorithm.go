// Package algorithm maps typed algorithm parameters to the command-line
// flags understood by the Kafka Graphs engine. It does not implement any of
// the algorithms.
package algorithm

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/imishinist/graphalytics-kgraphs/internal/commandline"
	"github.com/imishinist/graphalytics-kgraphs/internal/models"
)

// ErrUnsupportedAlgorithm is returned for parameters that have no matching
// parameterizer.
var ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")

// Parameterizer appends the flags of a single algorithm to a command line.
type Parameterizer interface {
	Algorithm() models.Algorithm

	// AppendAlgorithmParameters appends --algorithm <id> followed by the
	// algorithm specific flags.
	AppendAlgorithmParameters(cl *commandline.CommandLine)
}

// For returns the Parameterizer for the given parameter variant.
func For(params models.AlgorithmParameters) (Parameterizer, error) {
	switch p := params.(type) {
	case models.BFSParameters:
		return breadthFirstSearch{sourceVertex: p.SourceVertex}, nil
	case models.CDLPParameters:
		return communityDetectionLP{maxIterations: p.MaxIterations}, nil
	case models.LCCParameters:
		return localClusteringCoefficient{}, nil
	case models.PRParameters:
		return pageRank{dampingFactor: p.DampingFactor, iterations: p.NumIterations}, nil
	case models.SSSPParameters:
		return singleSourceShortestPaths{sourceVertex: p.SourceVertex}, nil
	case models.WCCParameters:
		return weaklyConnectedComponents{}, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedAlgorithm, params)
}

func appendAlgorithm(cl *commandline.CommandLine, alg models.Algorithm) {
	cl.AddArgument("--algorithm")
	cl.AddArgument(string(alg))
}

func appendInt(cl *commandline.CommandLine, flag string, value int64) {
	cl.AddRawArgument(flag)
	cl.AddRawArgument(strconv.FormatInt(value, 10))
}

func appendFloat(cl *commandline.CommandLine, flag string, value float64) {
	cl.AddRawArgument(flag)
	cl.AddRawArgument(strconv.FormatFloat(value, 'f', -1, 64))
}
