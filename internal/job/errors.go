package job

import (
	"errors"
	"fmt"
)

// ErrTimeout is returned when a process is killed because it exceeded the
// configured job timeout.
var ErrTimeout = errors.New("job timed out")

// LaunchError reports that the engine process could not be started at all,
// as opposed to a process that ran and exited with a non-zero code.
type LaunchError struct {
	Path string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s: %v", e.Path, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// ExitCodeError reports a process that terminated with a non-zero exit code.
type ExitCodeError struct {
	Code int
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("KafkaGraphs exited with an error code: %d", e.Code)
}

// CheckExitCode returns nil for a zero exit code and an *ExitCodeError
// otherwise.
func CheckExitCode(code int) error {
	if code == 0 {
		return nil
	}
	return &ExitCodeError{Code: code}
}
