package algorithm

import (
	"github.com/imishinist/graphalytics-kgraphs/internal/commandline"
	"github.com/imishinist/graphalytics-kgraphs/internal/models"
)

type communityDetectionLP struct {
	maxIterations int64
}

func (communityDetectionLP) Algorithm() models.Algorithm { return models.AlgorithmCDLP }

func (p communityDetectionLP) AppendAlgorithmParameters(cl *commandline.CommandLine) {
	appendAlgorithm(cl, models.AlgorithmCDLP)
	appendInt(cl, "--max-iteration", p.maxIterations)
}
