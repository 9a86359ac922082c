package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownAlgorithm is returned when an algorithm identifier is not part of
// the supported set.
var ErrUnknownAlgorithm = errors.New("unknown algorithm")

// Algorithm identifies one of the benchmark algorithms. The value is the
// identifier passed to the engine with --algorithm.
type Algorithm string

const (
	AlgorithmBFS  Algorithm = "bfs"
	AlgorithmCDLP Algorithm = "cdlp"
	AlgorithmLCC  Algorithm = "lcc"
	AlgorithmPR   Algorithm = "pr"
	AlgorithmSSSP Algorithm = "sssp"
	AlgorithmWCC  Algorithm = "wcc"
)

// Algorithms lists every supported algorithm.
var Algorithms = []Algorithm{
	AlgorithmBFS,
	AlgorithmCDLP,
	AlgorithmLCC,
	AlgorithmPR,
	AlgorithmSSSP,
	AlgorithmWCC,
}

var algorithmNames = map[Algorithm]string{
	AlgorithmBFS:  "Breadth-first search",
	AlgorithmCDLP: "Community detection using label propagation",
	AlgorithmLCC:  "Local clustering coefficient",
	AlgorithmPR:   "PageRank",
	AlgorithmSSSP: "Single-source shortest paths",
	AlgorithmWCC:  "Weakly connected components",
}

// ParseAlgorithm maps an identifier such as "BFS" or "wcc" to an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	alg := Algorithm(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := algorithmNames[alg]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
	}
	return alg, nil
}

// Name returns the human readable algorithm name.
func (a Algorithm) Name() string {
	if name, ok := algorithmNames[a]; ok {
		return name
	}
	return string(a)
}

// Acronym returns the upper-case acronym used in run names and reports.
func (a Algorithm) Acronym() string {
	return strings.ToUpper(string(a))
}
