package utils

import (
	"github.com/pkg/errors"
)

// NewInvalidArgumentError is used when a numeric argument is out of its allowed range.
func NewInvalidArgumentError(name string, value float64, requirement string) error {
	return errors.Errorf("invalid %s %v: must be %s", name, value, requirement)
}

// NewLengthMismatchError is used when a slice does not have the expected number of entries.
func NewLengthMismatchError(what string, expected, actual int) error {
	return errors.Errorf("expected %d %s but got %d", expected, what, actual)
}
