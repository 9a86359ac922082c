package algorithm

import (
	"github.com/imishinist/graphalytics-kgraphs/internal/commandline"
	"github.com/imishinist/graphalytics-kgraphs/internal/models"
)

type pageRank struct {
	dampingFactor float64
	iterations    int64
}

func (pageRank) Algorithm() models.Algorithm { return models.AlgorithmPR }

func (p pageRank) AppendAlgorithmParameters(cl *commandline.CommandLine) {
	appendAlgorithm(cl, models.AlgorithmPR)
	appendFloat(cl, "--damping-factor", p.dampingFactor)
	appendInt(cl, "--max-iteration", p.iterations)
}
