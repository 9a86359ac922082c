package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/imishinist/graphalytics-kgraphs/internal/models"
)

type jsonRunSpec struct {
	ID         string          `json:"id"`
	Algorithm  string          `json:"algorithm"`
	Parameters json.RawMessage `json:"parameters"`
	Graph      graphFile       `json:"graph"`
	LogDir     string          `json:"log-dir"`
	OutputDir  string          `json:"output-dir"`
}

func ParseJSONRunSpec(reader io.Reader) (*models.RunSpecification, error) {
	var data jsonRunSpec
	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to parse JSON run specification: %w: %v", ErrInvalidSpec, err)
	}

	decode := func(v interface{}) error {
		if len(data.Parameters) == 0 {
			return nil
		}
		dec := json.NewDecoder(bytes.NewReader(data.Parameters))
		dec.DisallowUnknownFields()
		return dec.Decode(v)
	}
	return buildRunSpec(data.ID, data.Algorithm, decode, data.Graph, data.LogDir, data.OutputDir)
}

func ParseJSONGraph(reader io.Reader) (*models.FormattedGraph, error) {
	var data models.FormattedGraph
	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to parse JSON graph: %w: %v", ErrInvalidSpec, err)
	}
	if err := validateGraph(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
