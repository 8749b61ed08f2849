// Package faults classifies failures that can end or interrupt a burn job.
//
// Errors are tagged with one of the exported markers through Wrap and later
// classified with errors.Is, Retryable, or Category. The markers map onto the
// outcomes a session can observe: an input that was rejected, a transfer that
// failed, a missing precondition, a degraded probe, a failed encoder process,
// or anything else.
package faults

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInputRejected = errors.New("input rejected")
	ErrTransfer      = errors.New("transfer failed")
	ErrPrecondition  = errors.New("precondition failed")
	ErrProbeDegraded = errors.New("probe degraded")
	ErrProcess       = errors.New("process failed")
	ErrUnexpected    = errors.New("unexpected error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. A nil marker is treated as
// ErrUnexpected.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrUnexpected
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retryable reports whether the session may stay where it is and let the user
// try again. Only rejected inputs and transfer failures qualify.
func Retryable(err error) bool {
	return errors.Is(err, ErrInputRejected) || errors.Is(err, ErrTransfer)
}

// Category returns a stable short label for logs, history rows and
// notifications. Nil errors report "none".
func Category(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrInputRejected):
		return "input_rejected"
	case errors.Is(err, ErrTransfer):
		return "transfer"
	case errors.Is(err, ErrPrecondition):
		return "precondition"
	case errors.Is(err, ErrProbeDegraded):
		return "probe_degraded"
	case errors.Is(err, ErrProcess):
		return "process"
	default:
		return "unexpected"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "job failure"
	}
	return strings.Join(parts, ": ")
}
