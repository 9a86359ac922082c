package models

import (
	"fmt"
	"strconv"
)

// AlgorithmParameters holds the typed parameters of exactly one algorithm.
// The set of implementations is closed; each variant knows its algorithm, so
// a run can never carry parameters that disagree with the algorithm it runs.
type AlgorithmParameters interface {
	Algorithm() Algorithm
	Validate() error
	// Map flattens the parameters for tracking systems.
	Map() map[string]string

	algorithmParameters()
}

type BFSParameters struct {
	SourceVertex int64 `json:"source-vertex" yaml:"source-vertex"`
}

func (BFSParameters) Algorithm() Algorithm { return AlgorithmBFS }
func (BFSParameters) Validate() error      { return nil }
func (p BFSParameters) Map() map[string]string {
	return map[string]string{"source-vertex": strconv.FormatInt(p.SourceVertex, 10)}
}
func (BFSParameters) algorithmParameters() {}

type CDLPParameters struct {
	MaxIterations int64 `json:"max-iterations" yaml:"max-iterations"`
}

func (CDLPParameters) Algorithm() Algorithm { return AlgorithmCDLP }
func (p CDLPParameters) Validate() error {
	if p.MaxIterations <= 0 {
		return fmt.Errorf("cdlp: max-iterations must be positive, got %d", p.MaxIterations)
	}
	return nil
}
func (p CDLPParameters) Map() map[string]string {
	return map[string]string{"max-iterations": strconv.FormatInt(p.MaxIterations, 10)}
}
func (CDLPParameters) algorithmParameters() {}

type LCCParameters struct{}

func (LCCParameters) Algorithm() Algorithm   { return AlgorithmLCC }
func (LCCParameters) Validate() error        { return nil }
func (LCCParameters) Map() map[string]string { return map[string]string{} }
func (LCCParameters) algorithmParameters()   {}

type PRParameters struct {
	DampingFactor float64 `json:"damping-factor" yaml:"damping-factor"`
	NumIterations int64   `json:"num-iterations" yaml:"num-iterations"`
}

func (PRParameters) Algorithm() Algorithm { return AlgorithmPR }
func (p PRParameters) Validate() error {
	if p.DampingFactor <= 0 || p.DampingFactor > 1 {
		return fmt.Errorf("pr: damping-factor must be in (0, 1], got %v", p.DampingFactor)
	}
	if p.NumIterations <= 0 {
		return fmt.Errorf("pr: num-iterations must be positive, got %d", p.NumIterations)
	}
	return nil
}
func (p PRParameters) Map() map[string]string {
	return map[string]string{
		"damping-factor": strconv.FormatFloat(p.DampingFactor, 'f', -1, 64),
		"num-iterations": strconv.FormatInt(p.NumIterations, 10),
	}
}
func (PRParameters) algorithmParameters() {}

type SSSPParameters struct {
	SourceVertex int64 `json:"source-vertex" yaml:"source-vertex"`
}

func (SSSPParameters) Algorithm() Algorithm { return AlgorithmSSSP }
func (SSSPParameters) Validate() error      { return nil }
func (p SSSPParameters) Map() map[string]string {
	return map[string]string{"source-vertex": strconv.FormatInt(p.SourceVertex, 10)}
}
func (SSSPParameters) algorithmParameters() {}

type WCCParameters struct{}

func (WCCParameters) Algorithm() Algorithm   { return AlgorithmWCC }
func (WCCParameters) Validate() error        { return nil }
func (WCCParameters) Map() map[string]string { return map[string]string{} }
func (WCCParameters) algorithmParameters()   {}

// Parameter is a single key/value pair reported to a tracking server.
type Parameter struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
