package main

import (
	"context"
	"errors"

	"github.com/nit-test/nit/internal/config"
)

// runFailedError marks a command that completed without a hard error
// but whose RunSummary reports a generation/verification failure
// (spec.md §6: exit 1 "any generation/verification failure").
type runFailedError struct{ reason string }

func (e *runFailedError) Error() string { return e.reason }

// exitCodeFor maps a command error to one of spec.md's four exit codes.
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, context.Canceled):
		return 130
	case isConfigError(err):
		return 2
	default:
		return 1
	}
}

func isConfigError(err error) bool {
	var verr *config.ValidationError
	return errors.As(err, &verr)
}
