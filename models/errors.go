package models

import (
	"errors"
	"fmt"
)

// ErrNotFound is the root of every "referenced record does not exist" error.
var ErrNotFound = errors.New("not found")

var (
	ErrMakeNotFound     = fmt.Errorf("make %w", ErrNotFound)
	ErrCarModelNotFound = fmt.Errorf("car model %w", ErrNotFound)
	ErrProductNotFound  = fmt.Errorf("product %w", ErrNotFound)
	ErrLinkNotFound     = fmt.Errorf("product connection %w", ErrNotFound)
	ErrVariantNotFound  = fmt.Errorf("variant %w", ErrNotFound)
	ErrImageNotFound    = fmt.Errorf("variant image %w", ErrNotFound)
	ErrStatNotFound     = fmt.Errorf("stat %w", ErrNotFound)
	ErrAudioNotFound    = fmt.Errorf("audio track %w", ErrNotFound)
)

// ErrValidation marks input rejected by a write rule.
var ErrValidation = errors.New("validation failed")

var (
	ErrAmbiguousParent   = errors.New("select either a make or a model, not both")
	ErrMissingParent     = errors.New("select either a make or a model")
	ErrSelfParent        = errors.New("a model cannot be its own parent")
	ErrParentCycle       = errors.New("parent is a descendant of the model")
	ErrUnknownParentKind = errors.New("unknown parent kind")
	ErrCapExceeded       = errors.New("cap exceeded")
	ErrDuplicateName     = errors.New("name already exists")
	ErrBlankName         = errors.New("name is blank")
	ErrDuplicateLink     = errors.New("product is already connected to this parent")
	ErrInUse             = errors.New("still referenced by car models or products")
)

// ValidationError carries the offending field and the rule it broke.
// errors.Is matches both ErrValidation and the wrapped rule.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Err}
}

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}
