package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDestinationNotFound is matched by every "no such destination" failure, including
// domain errors raised by steps that wrap it.
var ErrDestinationNotFound = errors.New("destination not found")

// ErrNavigationCycle is matched by CycleError.
var ErrNavigationCycle = errors.New("navigation cycle")

// ErrNavigationFailed is matched by FailedError.
var ErrNavigationFailed = errors.New("navigation failed")

// ErrSessionBusy is returned when a session lock cannot be obtained.
var ErrSessionBusy = errors.New("session busy")

// NotFoundError is returned when no definition exists for a (type, destination) pair,
// after exhausting the type lineage, or when an attribute walk hits a broken chain.
type NotFoundError struct {
	Type        TypeName
	Destination string
	Lineage     []TypeName

	// Reason is set when the lookup never happened because the entity could not be reached.
	Reason string
}

func (e *NotFoundError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("destination %q not found for %s: %s", e.Destination, e.Type, e.Reason)
	}
	if len(e.Lineage) > 1 {
		names := make([]string, len(e.Lineage))
		for i, t := range e.Lineage {
			names[i] = string(t)
		}
		return fmt.Sprintf("destination %q not found for %s (searched %s)", e.Destination, e.Type, strings.Join(names, ", "))
	}
	return fmt.Sprintf("destination %q not found for %s", e.Destination, e.Type)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrDestinationNotFound
}

// CycleError is returned when resolution revisits an (entity, destination) pair.
type CycleError struct {
	// Path lists the pairs in resolution order, ending with the repeated one.
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("navigation cycle: %s", strings.Join(e.Path, " -> "))
}

func (e *CycleError) Is(target error) bool {
	return target == ErrNavigationCycle
}

// FailedError is returned when arrival at a destination could not be verified.
type FailedError struct {
	Entity      string
	Destination string
	Err         error
}

func (e *FailedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("navigation to %q failed for %s", e.Destination, e.Entity)
	}
	return fmt.Sprintf("navigation to %q failed for %s: %v", e.Destination, e.Entity, e.Err)
}

func (e *FailedError) Unwrap() error { return e.Err }

func (e *FailedError) Is(target error) bool {
	return target == ErrNavigationFailed
}

// HopError wraps an error raised by a step callback with the hop it came from.
// Unwrap returns the original error unchanged.
type HopError struct {
	Entity      string
	Destination string
	Stage       string
	Attempt     int
	Err         error

	// RecoveryErr is set when the recovery action itself failed.
	RecoveryErr error
}

func (e *HopError) Error() string {
	msg := fmt.Sprintf("%s of %q for %s failed (attempt %d): %v", e.Stage, e.Destination, e.Entity, e.Attempt, e.Err)
	if e.RecoveryErr != nil {
		msg += fmt.Sprintf(" (recovery: %v)", e.RecoveryErr)
	}
	return msg
}

func (e *HopError) Unwrap() error { return e.Err }

// IsResolutionError reports whether err comes from plan resolution. Such errors are
// deterministic and never retried.
func IsResolutionError(err error) bool {
	return errors.Is(err, ErrDestinationNotFound) || errors.Is(err, ErrNavigationCycle)
}
