package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"yatube/forms"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("only the author may change this post")
)

// ValidationError carries per-field messages back to the form that was submitted.
type ValidationError struct {
	Errors forms.Errors
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Errors.Error()
}

func invalid(errs forms.Errors) error {
	return &ValidationError{Errors: errs}
}

func fieldError(field, msg string) error {
	errs := forms.Errors{}
	errs.Add(field, msg)
	return invalid(errs)
}

// notFound maps gorm's missing-row error onto ErrNotFound and wraps the rest.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("load %s: %w", what, err)
}
