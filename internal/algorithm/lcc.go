package algorithm

import (
	"github.com/imishinist/graphalytics-kgraphs/internal/commandline"
	"github.com/imishinist/graphalytics-kgraphs/internal/models"
)

type localClusteringCoefficient struct{}

func (localClusteringCoefficient) Algorithm() models.Algorithm { return models.AlgorithmLCC }

func (localClusteringCoefficient) AppendAlgorithmParameters(cl *commandline.CommandLine) {
	appendAlgorithm(cl, models.AlgorithmLCC)
}
