package transcode

import (
	"errors"
	"fmt"
	"os/exec"

	"hardsub/internal/faults"
)

// ProcessError reports an unsuccessful ffmpeg exit. It matches
// faults.ErrProcess through errors.Is.
type ProcessError struct {
	ExitCode int
	// Tail is the trailing slice of ffmpeg's error output.
	Tail string
	Err  error
}

func (e *ProcessError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("ffmpeg exited with status %d", e.ExitCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("ffmpeg failed: %v", e.Err)
	}
	return "ffmpeg failed"
}

func (e *ProcessError) Unwrap() error { return e.Err }

func (e *ProcessError) Is(target error) bool { return target == faults.ErrProcess }

func newProcessError(waitErr error, tail string) *ProcessError {
	code := -1
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		code = exitErr.ExitCode()
	}
	var coded interface{ ExitCode() int }
	if code < 0 && errors.As(waitErr, &coded) {
		code = coded.ExitCode()
	}
	return &ProcessError{ExitCode: code, Tail: tail, Err: waitErr}
}
