package platform

// ExecutionError is returned when an engine process could not be launched
// or exited with a non-zero code.
type ExecutionError struct {
	Msg string
	Err error
}

func (e *ExecutionError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *ExecutionError) Unwrap() error { return e.Err }
