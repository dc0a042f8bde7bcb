package crawler

import (
	"errors"
	"fmt"
)

// Phase names a stage of a run
type Phase string

const (
	PhaseProbing    Phase = "probing"
	PhaseHarvesting Phase = "harvesting"
	PhaseWriting    Phase = "writing"
)

var (
	// ErrPublishedMissing means a result had a headline but neither
	// publication time slot resolved. It aborts the harvest.
	ErrPublishedMissing = errors.New("publication time not found")
)

// PhaseError attributes a failure to the stage that produced it
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

func phaseErr(phase Phase, err error) error {
	if err == nil {
		return nil
	}
	var pe *PhaseError
	if errors.As(err, &pe) {
		return err
	}
	return &PhaseError{Phase: phase, Err: err}
}
