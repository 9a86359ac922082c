package algorithm

import (
	"github.com/imishinist/graphalytics-kgraphs/internal/commandline"
	"github.com/imishinist/graphalytics-kgraphs/internal/models"
)

type singleSourceShortestPaths struct {
	sourceVertex int64
}

func (singleSourceShortestPaths) Algorithm() models.Algorithm { return models.AlgorithmSSSP }

func (p singleSourceShortestPaths) AppendAlgorithmParameters(cl *commandline.CommandLine) {
	appendAlgorithm(cl, models.AlgorithmSSSP)
	appendInt(cl, "--source-vertex", p.sourceVertex)
}
