package job

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/sirupsen/logrus"

	"github.com/imishinist/graphalytics-kgraphs/internal/commandline"
	"github.com/imishinist/graphalytics-kgraphs/internal/config"
)

// Output copying is abandoned this long after the process exits, in case a
// grandchild keeps the pipes open.
const waitDelay = 10 * time.Second

// Options carries the per-invocation collaborators of a job or loader.
type Options struct {
	// Output receives the stdout and stderr of the engine process. If not
	// specified, the output is discarded.
	Output io.Writer

	// A logger instance to use. If not specified, a null logger will be
	// used instead.
	Logger *logrus.Entry
}

func (o *Options) setDefaults() {
	if o.Output == nil {
		o.Output = io.Discard
	}
	if o.Logger == nil {
		o.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}
}

// appendBaseConfiguration appends the flags shared by every engine
// invocation.
func appendBaseConfiguration(cl *commandline.CommandLine, cfg *config.Config) {
	cl.AddArguments(cfg.JobArguments...)
	if cfg.BootstrapServers != "" {
		cl.AddArgument("--bootstrap-servers")
		cl.AddArgument(cfg.BootstrapServers)
	}
	if cfg.ZookeeperConnect != "" {
		cl.AddArgument("--zookeeper-connect")
		cl.AddArgument(cfg.ZookeeperConnect)
	}
	if cfg.NumPartitions > 0 {
		cl.AddRawArgument("--num-partitions")
		cl.AddRawArgument(fmt.Sprint(cfg.NumPartitions))
	}
}

// runProcess launches the command line and blocks until the process exits.
// A process that starts and exits is never an error; its exit code is
// returned as is.
func runProcess(ctx context.Context, cl *commandline.CommandLine, cfg *config.Config, opts Options) (int, error) {
	if cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.JobTimeout)
		defer cancel()
	}

	var cmd *exec.Cmd
	if cfg.Shell != "" {
		cmd = exec.CommandContext(ctx, cfg.Shell, "-c", cl.String())
	} else {
		argv := cl.Argv()
		cmd = exec.CommandContext(ctx, argv[0], argv[1:]...)
	}
	cmd.Dir = cfg.WorkingDirectory
	cmd.Env = append(os.Environ(), cfg.Environment...)
	cmd.Stdout = opts.Output
	cmd.Stderr = opts.Output
	cmd.WaitDelay = waitDelay

	opts.Logger.WithField("command", shellquote.Join(cmd.Args...)).Debug("starting process")
	if err := cmd.Start(); err != nil {
		return -1, &LaunchError{Path: cmd.Path, Err: err}
	}

	err := cmd.Wait()
	if err != nil && ctx.Err() == context.DeadlineExceeded {
		return -1, fmt.Errorf("%w after %s", ErrTimeout, cfg.JobTimeout)
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return 0, nil
	case errors.As(err, &exitErr):
		return exitCode(exitErr), nil
	case errors.Is(err, exec.ErrWaitDelay):
		// The process exited cleanly; only the output copy was cut short.
		return cmd.ProcessState.ExitCode(), nil
	}
	return -1, fmt.Errorf("failed to wait for %s: %w", cmd.Path, err)
}

// exitCode follows the shell convention of 128+N for a process killed by
// signal N.
func exitCode(err *exec.ExitError) int {
	if status, ok := err.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return 128 + int(status.Signal())
	}
	return err.ExitCode()
}
