// Package collector captures the engine output of a benchmark run and
// recovers the processing time from it.
package collector

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Session is an open platform log. The engine output of a run is appended to
// it between StartSession and Stop. A nil *Session is valid and behaves like
// a stopped one.
type Session struct {
	path string
	file *os.File

	once    sync.Once
	stopErr error
}

// StartSession opens (or creates) the log file at path, creating any missing
// parent directories.
func StartSession(path string) (*Session, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open platform log: %w", err)
	}
	return &Session{path: path, file: f}, nil
}

// Path returns the location of the log file.
func (s *Session) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Writer returns the destination for engine output. Writes after Stop fail
// with os.ErrClosed.
func (s *Session) Writer() io.Writer {
	if s == nil || s.file == nil {
		return io.Discard
	}
	return s.file
}

// Stop flushes and closes the log file. Only the first call has any effect;
// later calls return the result of the first.
func (s *Session) Stop() error {
	if s == nil || s.file == nil {
		return nil
	}
	s.once.Do(func() {
		if err := s.file.Sync(); err != nil {
			s.stopErr = fmt.Errorf("failed to flush platform log: %w", err)
		}
		if err := s.file.Close(); err != nil && s.stopErr == nil {
			s.stopErr = fmt.Errorf("failed to close platform log: %w", err)
		}
	})
	return s.stopErr
}
