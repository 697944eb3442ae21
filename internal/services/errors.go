package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrHostBridge     = errors.New("host bridge error")
	ErrHostOperation  = errors.New("host operation failed")
	ErrNetwork        = errors.New("network error")
	ErrTimeout        = errors.New("timed out")
	ErrAlreadyRunning = errors.New("pipeline already running")
	ErrPrecondition   = errors.New("precondition failed")
	ErrValidation     = errors.New("validation error")
	ErrConfiguration  = errors.New("configuration error")
)

// Precondition markers. Each wraps ErrPrecondition so callers can match on
// either the specific cause or the whole class.
var (
	ErrNoProject        = fmt.Errorf("%w: no project open", ErrPrecondition)
	ErrNoSequence       = fmt.Errorf("%w: no active sequence", ErrPrecondition)
	ErrNoActiveSequence = fmt.Errorf("%w: no sequence information cached", ErrPrecondition)
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of
// the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrHostOperation
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind maps an error to the short label persisted with run history and
// attached to log records.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAlreadyRunning):
		return "already_running"
	case errors.Is(err, ErrPrecondition):
		return "precondition"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.Is(err, ErrHostBridge):
		return "host_bridge"
	case errors.Is(err, ErrHostOperation):
		return "host_operation"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	default:
		return "internal"
	}
}

// Hint returns a short operator-facing next step for the error class.
func Hint(err error) string {
	switch Kind(err) {
	case "already_running":
		return "wait for the current run to finish"
	case "precondition":
		return "open a project and select a sequence, then refresh"
	case "timeout":
		return "check the transcription server or raise transcription.timeout_seconds"
	case "network":
		return "verify the transcription endpoint with `captioner health`"
	case "host_bridge", "host_operation":
		return "check that the host application is running and responsive"
	case "validation", "configuration":
		return "review the configuration with `captioner config validate`"
	default:
		return "check logs for details"
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
		return "operation failed"
	}
	return strings.Join(parts, ": ")
}

var markers = []error{
	ErrNoProject, ErrNoSequence, ErrNoActiveSequence,
	ErrHostBridge, ErrHostOperation, ErrNetwork, ErrTimeout, ErrAlreadyRunning,
	ErrPrecondition, ErrValidation, ErrConfiguration,
}

// Message returns the innermost user-facing text of err, following the cause
// side of wrapped errors and dropping the leading marker label. Timeouts
// always read "timed out".
func Message(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrTimeout) {
		return ErrTimeout.Error()
	}
	for {
		next := cause(err)
		if next == nil {
			break
		}
		err = next
	}
	msg := err.Error()
	for _, marker := range markers {
		if rest, ok := strings.CutPrefix(msg, marker.Error()+": "); ok {
			return rest
		}
	}
	return msg
}

func cause(err error) error {
	var next error
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		errs := u.Unwrap()
		if len(errs) < 2 {
			return nil
		}
		next = errs[len(errs)-1]
	case interface{ Unwrap() error }:
		next = u.Unwrap()
	}
	if next == nil || isMarker(next) || errors.Is(next, context.Canceled) || errors.Is(next, context.DeadlineExceeded) {
		return nil
	}
	return next
}

func isMarker(err error) bool {
	for _, marker := range markers {
		if err == marker {
			return true
		}
	}
	return false
}
