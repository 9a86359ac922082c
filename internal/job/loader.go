package job

import (
	"context"
	"fmt"

	"github.com/imishinist/graphalytics-kgraphs/internal/commandline"
	"github.com/imishinist/graphalytics-kgraphs/internal/config"
	"github.com/imishinist/graphalytics-kgraphs/internal/models"
)

// Loader materializes a formatted graph for the engine and removes it again.
// It follows the same exit code contract as Job.
type Loader struct {
	graph models.FormattedGraph
	cfg   *config.Config
	opts  Options
}

// NewLoader returns a loader for graph.
func NewLoader(graph models.FormattedGraph, cfg *config.Config, opts Options) *Loader {
	opts.setDefaults()
	opts.Logger = opts.Logger.WithField("graph", graph.Name)
	return &Loader{graph: graph, cfg: cfg, opts: opts}
}

// LoadCommandLine returns the command line that loads the graph into
// loadedPath.
func (l *Loader) LoadCommandLine(loadedPath string) (*commandline.CommandLine, error) {
	if l.cfg.LoaderPath == "" {
		return nil, fmt.Errorf("%s has not been specified", config.KeyLoader)
	}

	cl := commandline.New(l.cfg.LoaderPath)
	appendBaseConfiguration(cl, l.cfg)
	cl.AddArgument("--graph-name")
	cl.AddArgument(l.graph.Name)
	cl.AddArgument("--vertex-path")
	cl.AddArgument(l.graph.VertexFilePath)
	cl.AddArgument("--edge-path")
	cl.AddArgument(l.graph.EdgeFilePath)
	cl.AddArgument("--output-path")
	cl.AddArgument(loadedPath)
	if l.graph.Directed {
		cl.AddRawArgument("--directed")
	}
	if l.graph.Weighted {
		cl.AddRawArgument("--weighted")
	}
	return cl, nil
}

// UnloadCommandLine returns the command line that removes the graph loaded
// at loadedPath.
func (l *Loader) UnloadCommandLine(loadedPath string) (*commandline.CommandLine, error) {
	if l.cfg.UnloaderPath == "" {
		return nil, fmt.Errorf("%s has not been specified", config.KeyUnloader)
	}

	cl := commandline.New(l.cfg.UnloaderPath)
	appendBaseConfiguration(cl, l.cfg)
	cl.AddArgument("--graph-name")
	cl.AddArgument(l.graph.Name)
	cl.AddArgument("--output-path")
	cl.AddArgument(loadedPath)
	return cl, nil
}

// Load runs the loader and returns its exit code.
func (l *Loader) Load(ctx context.Context, loadedPath string) (int, error) {
	cl, err := l.LoadCommandLine(loadedPath)
	if err != nil {
		return -1, err
	}
	return l.run(ctx, "load", cl)
}

// Unload runs the unloader and returns its exit code.
func (l *Loader) Unload(ctx context.Context, loadedPath string) (int, error) {
	cl, err := l.UnloadCommandLine(loadedPath)
	if err != nil {
		return -1, err
	}
	return l.run(ctx, "unload", cl)
}

func (l *Loader) run(ctx context.Context, op string, cl *commandline.CommandLine) (int, error) {
	logger := l.opts.Logger.WithField("op", op)
	logger.WithField("command", cl.String()).Info("executing loader")

	code, err := runProcess(ctx, cl, l.cfg, l.opts)
	if err != nil {
		return code, err
	}
	logger.WithField("exit_code", code).Info("loader terminated")
	return code, nil
}
