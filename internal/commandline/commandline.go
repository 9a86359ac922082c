// Package commandline assembles the argv of an external engine invocation.
package commandline

import (
	"strings"

	"github.com/kballard/go-shellquote"
)

type argument struct {
	value string
	quote bool
}

func (a argument) render() string {
	if !a.quote {
		return a.value
	}
	return shellquote.Join(a.value)
}

// CommandLine is an ordered, append-only list of tokens. Tokens added with
// AddArgument are shell-escaped when rendered, tokens added with
// AddRawArgument are rendered verbatim. Once Build, Argv or String has been
// called the command line is frozen and further appends panic.
type CommandLine struct {
	executable string
	args       []argument
	frozen     bool
}

// New returns an empty command line for the given executable.
func New(executable string) *CommandLine {
	return &CommandLine{executable: executable}
}

// AddArgument appends a token that is escaped when rendered.
func (c *CommandLine) AddArgument(arg string) *CommandLine {
	return c.add(argument{value: arg, quote: true})
}

// AddRawArgument appends a token that is never escaped. Use it only for flags
// and numeric values known to be safe.
func (c *CommandLine) AddRawArgument(arg string) *CommandLine {
	return c.add(argument{value: arg})
}

// AddArguments appends each token in quoted mode.
func (c *CommandLine) AddArguments(args ...string) *CommandLine {
	for _, arg := range args {
		c.AddArgument(arg)
	}
	return c
}

func (c *CommandLine) add(arg argument) *CommandLine {
	if c.frozen {
		panic("commandline: argument added after the command line was built")
	}
	c.args = append(c.args, arg)
	return c
}

// Executable returns the program path.
func (c *CommandLine) Executable() string {
	return c.executable
}

// Arguments returns the rendered arguments, without the executable.
func (c *CommandLine) Arguments() []string {
	out := make([]string, len(c.args))
	for i, arg := range c.args {
		out[i] = arg.render()
	}
	return out
}

// Build freezes the command line and returns the executable followed by the
// rendered arguments.
func (c *CommandLine) Build() []string {
	c.frozen = true
	return append([]string{shellquote.Join(c.executable)}, c.Arguments()...)
}

// Argv freezes the command line and returns the unescaped tokens, suitable
// for launching the process without a shell.
func (c *CommandLine) Argv() []string {
	c.frozen = true
	out := make([]string, 0, len(c.args)+1)
	out = append(out, c.executable)
	for _, arg := range c.args {
		out = append(out, arg.value)
	}
	return out
}

// String freezes the command line and returns it as a single shell line.
func (c *CommandLine) String() string {
	return strings.Join(c.Build(), " ")
}
