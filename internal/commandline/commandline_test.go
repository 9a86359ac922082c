package commandline

import (
	"testing"

	"github.com/kballard/go-shellquote"
	gc "gopkg.in/check.v1"
)

var _ = gc.Suite(new(CommandLineTestSuite))

func Test(t *testing.T) { gc.TestingT(t) }

type CommandLineTestSuite struct{}

func (s *CommandLineTestSuite) TestSafeTokensRenderUnchanged(c *gc.C) {
	cl := New("/opt/kgraphs/bin/run").
		AddArgument("--algorithm").
		AddArgument("bfs").
		AddRawArgument("--source-vertex").
		AddRawArgument("42")

	c.Assert(cl.Arguments(), gc.DeepEquals, []string{"--algorithm", "bfs", "--source-vertex", "42"})
	c.Assert(cl.Build(), gc.DeepEquals, []string{"/opt/kgraphs/bin/run", "--algorithm", "bfs", "--source-vertex", "42"})
}

func (s *CommandLineTestSuite) TestQuotedArgumentsRoundTrip(c *gc.C) {
	specs := []string{
		"path with spaces",
		`it's "quoted"`,
		"$HOME/graphs;rm -rf *",
		"tab\tand\nnewline",
		"",
	}

	for specIndex, spec := range specs {
		c.Logf("[spec %d] %q", specIndex, spec)
		cl := New("engine").AddArgument(spec)
		rendered := cl.Arguments()[0]
		if spec != "" {
			c.Assert(rendered, gc.Not(gc.Equals), spec, gc.Commentf("expected %q to be escaped", spec))
		}

		words, err := shellquote.Split(rendered)
		c.Assert(err, gc.IsNil)
		c.Assert(words, gc.DeepEquals, []string{spec})
	}
}

func (s *CommandLineTestSuite) TestRawArgumentsAreNeverEscaped(c *gc.C) {
	cl := New("engine").AddRawArgument("a b").AddRawArgument(`"x"`)
	c.Assert(cl.Arguments(), gc.DeepEquals, []string{"a b", `"x"`})
}

func (s *CommandLineTestSuite) TestArgvKeepsOriginalValues(c *gc.C) {
	cl := New("/tmp/my engine").AddArgument("--output-path").AddArgument("/tmp/out dir")
	c.Assert(cl.Argv(), gc.DeepEquals, []string{"/tmp/my engine", "--output-path", "/tmp/out dir"})
	c.Assert(cl.String(), gc.Equals, "'/tmp/my engine' --output-path '/tmp/out dir'")
}

func (s *CommandLineTestSuite) TestAppendAfterBuildPanics(c *gc.C) {
	cl := New("engine").AddArgument("--algorithm")
	_ = cl.Build()
	c.Assert(func() { cl.AddArgument("lcc") }, gc.PanicMatches, ".*after the command line was built.*")
}
