package algorithm

import (
	"github.com/imishinist/graphalytics-kgraphs/internal/commandline"
	"github.com/imishinist/graphalytics-kgraphs/internal/models"
)

type weaklyConnectedComponents struct{}

func (weaklyConnectedComponents) Algorithm() models.Algorithm { return models.AlgorithmWCC }

func (weaklyConnectedComponents) AppendAlgorithmParameters(cl *commandline.CommandLine) {
	appendAlgorithm(cl, models.AlgorithmWCC)
}
