package parser

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/imishinist/graphalytics-kgraphs/internal/models"
)

type yamlRunSpec struct {
	ID         string    `yaml:"id"`
	Algorithm  string    `yaml:"algorithm"`
	Parameters yaml.Node `yaml:"parameters"`
	Graph      graphFile `yaml:"graph"`
	LogDir     string    `yaml:"log-dir"`
	OutputDir  string    `yaml:"output-dir"`
}

func ParseYAMLRunSpec(reader io.Reader) (*models.RunSpecification, error) {
	var data yamlRunSpec
	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true)

	if err := decoder.Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to parse YAML run specification: %w: %v", ErrInvalidSpec, err)
	}

	decode := func(v interface{}) error {
		// An absent key and an explicit "parameters:" both mean no parameters.
		if isNullNode(&data.Parameters) {
			return nil
		}
		// Node.Decode cannot reject unknown fields, so go through a strict
		// decoder instead.
		raw, err := yaml.Marshal(&data.Parameters)
		if err != nil {
			return err
		}
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		return dec.Decode(v)
	}
	return buildRunSpec(data.ID, data.Algorithm, decode, data.Graph, data.LogDir, data.OutputDir)
}

func isNullNode(node *yaml.Node) bool {
	return node.Kind == 0 || (node.Kind == yaml.ScalarNode && node.Tag == "!!null")
}

func ParseYAMLGraph(reader io.Reader) (*models.FormattedGraph, error) {
	var data models.FormattedGraph
	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true)

	if err := decoder.Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to parse YAML graph: %w: %v", ErrInvalidSpec, err)
	}
	if err := validateGraph(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
