package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrForbidden              = errors.New("forbidden")
	ErrInvalidInput           = errors.New("invalid input")
	ErrAlreadyProcessed       = errors.New("already processed")
	ErrAlreadyCompleted       = errors.New("already completed")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrTransactionFailure     = errors.New("transaction failure")
)

var domainErrors = []error{
	ErrNotFound,
	ErrForbidden,
	ErrInvalidInput,
	ErrAlreadyProcessed,
	ErrAlreadyCompleted,
	ErrInvalidStateTransition,
}

// storeError passes domain errors through untouched and wraps anything
// else (driver failures, rollback errors) as a transaction failure, so
// callers can always tell "nothing happened" apart from a store fault.
func storeError(err error) error {
	if err == nil {
		return nil
	}
	for _, domainErr := range domainErrors {
		if errors.Is(err, domainErr) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", ErrTransactionFailure, err)
}
