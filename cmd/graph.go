package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/imishinist/graphalytics-kgraphs/internal/config"
	"github.com/imishinist/graphalytics-kgraphs/internal/models"
	"github.com/imishinist/graphalytics-kgraphs/internal/platform"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Manage loaded graphs",
	Long:  "Load formatted graphs into the engine and unload them again",
}

var graphLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load a graph",
	Long:  "Load a formatted graph and print the path it was loaded to",
	RunE:  graphLoad,
}

var graphUnloadCmd = &cobra.Command{
	Use:   "unload",
	Short: "Unload a graph",
	Long:  "Remove a graph previously loaded with 'graph load'",
	RunE:  graphUnload,
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.AddCommand(graphLoadCmd)
	graphCmd.AddCommand(graphUnloadCmd)

	graphLoadCmd.Flags().String("graph", "", "Graph descriptor file (JSON/YAML) (required)")
	graphLoadCmd.MarkFlagRequired("graph")

	graphUnloadCmd.Flags().String("graph", "", "Graph descriptor file (JSON/YAML) (required)")
	graphUnloadCmd.Flags().String("loaded-path", "", "Path the graph was loaded to (required)")
	graphUnloadCmd.MarkFlagRequired("graph")
	graphUnloadCmd.MarkFlagRequired("loaded-path")
}

func newPlatform() (*platform.Platform, error) {
	return platform.New(platform.Config{
		Platform: config.FromViper(vp),
		Output:   os.Stderr,
		Logger:   logger,
	})
}

func graphLoad(cmd *cobra.Command, args []string) error {
	graphPath, _ := cmd.Flags().GetString("graph")
	graph, err := readGraph(graphPath)
	if err != nil {
		return err
	}

	p, err := newPlatform()
	if err != nil {
		return err
	}
	loaded, err := p.LoadGraph(cmd.Context(), *graph)
	if err != nil {
		return err
	}

	// Output only the loaded path for shell scripting
	fmt.Printf("%s\n", loaded.LoadedPath)
	return nil
}

func graphUnload(cmd *cobra.Command, args []string) error {
	graphPath, _ := cmd.Flags().GetString("graph")
	loadedPath, _ := cmd.Flags().GetString("loaded-path")
	graph, err := readGraph(graphPath)
	if err != nil {
		return err
	}

	p, err := newPlatform()
	if err != nil {
		return err
	}
	return p.DeleteGraph(cmd.Context(), models.LoadedGraph{Graph: *graph, LoadedPath: loadedPath})
}
