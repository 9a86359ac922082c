package models

// FormattedGraph describes a graph dataset in its on-disk input format, as
// handed to the loader.
type FormattedGraph struct {
	Name           string `json:"name" yaml:"name"`
	VertexFilePath string `json:"vertex-path" yaml:"vertex-path"`
	EdgeFilePath   string `json:"edge-path" yaml:"edge-path"`
	Directed       bool   `json:"directed" yaml:"directed"`
	Weighted       bool   `json:"weighted" yaml:"weighted"`
	NumVertices    int64  `json:"vertices,omitempty" yaml:"vertices,omitempty"`
	NumEdges       int64  `json:"edges,omitempty" yaml:"edges,omitempty"`
}

// LoadedGraph is a handle to a graph that the loader has materialized on
// durable storage. It can be reused by any number of runs until unloaded.
type LoadedGraph struct {
	Graph      FormattedGraph `json:"graph" yaml:"graph"`
	LoadedPath string         `json:"loaded-path" yaml:"loaded-path"`
}
