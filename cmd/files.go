package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/imishinist/graphalytics-kgraphs/internal/models"
	"github.com/imishinist/graphalytics-kgraphs/internal/parser"
)

func readRunSpec(path string) (*models.RunSpecification, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run specification: %w", err)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return parser.ParseJSONRunSpec(file)
	case ".yaml", ".yml":
		return parser.ParseYAMLRunSpec(file)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .json, .yaml, .yml)", filepath.Ext(path))
	}
}

func readGraph(path string) (*models.FormattedGraph, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open graph descriptor: %w", err)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return parser.ParseJSONGraph(file)
	case ".yaml", ".yml":
		return parser.ParseYAMLGraph(file)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .json, .yaml, .yml)", filepath.Ext(path))
	}
}

func writeRecord(w io.Writer, format string, v interface{}) error {
	switch strings.ToLower(format) {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	case "yaml", "yml":
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		return encoder.Encode(v)
	default:
		return fmt.Errorf("unsupported output format: %s (supported: json, yaml)", format)
	}
}
