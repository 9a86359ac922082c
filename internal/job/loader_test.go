package job

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"

	"github.com/imishinist/graphalytics-kgraphs/internal/config"
	"github.com/imishinist/graphalytics-kgraphs/internal/models"
	gc "gopkg.in/check.v1"
)

var _ = gc.Suite(new(LoaderTestSuite))

type LoaderTestSuite struct {
	dir   string
	graph models.FormattedGraph
}

func (s *LoaderTestSuite) SetUpTest(c *gc.C) {
	s.dir = c.MkDir()
	s.graph = models.FormattedGraph{
		Name:           "example-directed",
		VertexFilePath: "/graphs/example-directed.v",
		EdgeFilePath:   "/graphs/example-directed.e",
		Directed:       true,
		Weighted:       true,
	}
}

func (s *LoaderTestSuite) TestLoadCommandLine(c *gc.C) {
	cfg := &config.Config{LoaderPath: "/opt/kgraphs/bin/load", BootstrapServers: "kafka:9092"}
	cl, err := NewLoader(s.graph, cfg, Options{}).LoadCommandLine("./intermediate/example-directed")
	c.Assert(err, gc.IsNil)
	c.Assert(cl.Build(), gc.DeepEquals, []string{
		"/opt/kgraphs/bin/load",
		"--bootstrap-servers", "kafka:9092",
		"--graph-name", "example-directed",
		"--vertex-path", "/graphs/example-directed.v",
		"--edge-path", "/graphs/example-directed.e",
		"--output-path", "./intermediate/example-directed",
		"--directed",
		"--weighted",
	})
}

func (s *LoaderTestSuite) TestUnloadCommandLine(c *gc.C) {
	cfg := &config.Config{UnloaderPath: "/opt/kgraphs/bin/unload"}
	cl, err := NewLoader(s.graph, cfg, Options{}).UnloadCommandLine("./intermediate/example-directed")
	c.Assert(err, gc.IsNil)
	c.Assert(cl.Build(), gc.DeepEquals, []string{
		"/opt/kgraphs/bin/unload",
		"--graph-name", "example-directed",
		"--output-path", "./intermediate/example-directed",
	})
}

func (s *LoaderTestSuite) TestMissingLoaderPaths(c *gc.C) {
	loader := NewLoader(s.graph, &config.Config{}, Options{})

	code, err := loader.Load(context.TODO(), "/tmp/x")
	c.Assert(code, gc.Equals, -1)
	c.Assert(err, gc.ErrorMatches, "platform.kgraphs.loader has not been specified")

	code, err = loader.Unload(context.TODO(), "/tmp/x")
	c.Assert(code, gc.Equals, -1)
	c.Assert(err, gc.ErrorMatches, "platform.kgraphs.unloader has not been specified")
}

func (s *LoaderTestSuite) TestLoadAndUnload(c *gc.C) {
	loaded := filepath.Join(s.dir, "intermediate", "example-directed")
	cfg := &config.Config{
		LoaderPath:   writeStub(c, s.dir, "load", `echo "load $*"`),
		UnloaderPath: writeStub(c, s.dir, "unload", `echo "unload $*"; exit 2`),
	}

	var out bytes.Buffer
	loader := NewLoader(s.graph, cfg, Options{Output: &out})

	code, err := loader.Load(context.TODO(), loaded)
	c.Assert(err, gc.IsNil)
	c.Assert(code, gc.Equals, 0)

	code, err = loader.Unload(context.TODO(), loaded)
	c.Assert(err, gc.IsNil)
	c.Assert(code, gc.Equals, 2)

	c.Assert(out.String(), gc.Equals,
		"load --graph-name example-directed --vertex-path /graphs/example-directed.v --edge-path /graphs/example-directed.e --output-path "+loaded+" --directed --weighted\n"+
			"unload --graph-name example-directed --output-path "+loaded+"\n")
}

func (s *LoaderTestSuite) TestLoaderLaunchFailure(c *gc.C) {
	cfg := &config.Config{LoaderPath: filepath.Join(s.dir, "missing-loader")}
	_, err := NewLoader(s.graph, cfg, Options{}).Load(context.TODO(), "/tmp/x")
	var launchErr *LaunchError
	c.Assert(errors.As(err, &launchErr), gc.Equals, true)
}
