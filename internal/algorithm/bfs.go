package algorithm

import (
	"github.com/imishinist/graphalytics-kgraphs/internal/commandline"
	"github.com/imishinist/graphalytics-kgraphs/internal/models"
)

type breadthFirstSearch struct {
	sourceVertex int64
}

func (breadthFirstSearch) Algorithm() models.Algorithm { return models.AlgorithmBFS }

func (p breadthFirstSearch) AppendAlgorithmParameters(cl *commandline.CommandLine) {
	appendAlgorithm(cl, models.AlgorithmBFS)
	appendInt(cl, "--source-vertex", p.sourceVertex)
}
