package workflow

import (
	"errors"

	"hiretrack/internal/services"
	"hiretrack/internal/store"
)

var (
	// ErrNotFound is returned for unknown processes, interviews, and candidates.
	ErrNotFound = store.ErrNotFound
	// ErrInvalidTransition rejects outcomes and overrides the state machine
	// does not allow.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrClosedProcess rejects interview changes on a closed process.
	ErrClosedProcess = errors.New("process is closed")
	// ErrReadOnly rejects writes from users without write access.
	ErrReadOnly = errors.New("user has read-only access")
	// ErrInconsistentClose is returned when end date and closed state disagree.
	ErrInconsistentClose = store.ErrInconsistentClose
)

func invalidTransition(operation, message string) error {
	return services.Wrap(services.ErrValidation, "workflow", operation, message, ErrInvalidTransition)
}

func closedProcess(operation, message string) error {
	return services.Wrap(services.ErrConflict, "workflow", operation, message, ErrClosedProcess)
}

func validation(operation, message string) error {
	return services.Wrap(services.ErrValidation, "workflow", operation, message, nil)
}
