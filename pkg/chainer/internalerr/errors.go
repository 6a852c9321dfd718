package internalerr

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrDuplicate        = errors.New("duplicate entry")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrConstruction     = errors.New("construction error")
)

// ConstructionError reports a term, clause or knowledge base built from a
// missing or malformed required argument. It matches ErrConstruction and,
// when set, its cause.
type ConstructionError struct {
	Op    string // constructor or mutator, e.g. "NewPredicate"
	Field string // offending argument
	Err   error  // optional cause, e.g. ErrDuplicate
}

func (e *ConstructionError) Error() string {
	msg := fmt.Sprintf("%s: missing or invalid %s", e.Op, e.Field)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes ErrConstruction and the cause to errors.Is.
func (e *ConstructionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrConstruction}
	}
	return []error{ErrConstruction, e.Err}
}

// Construction is shorthand for building a *ConstructionError.
func Construction(op, field string, cause error) error {
	return &ConstructionError{Op: op, Field: field, Err: cause}
}
