package engine

import (
	"errors"
	"fmt"

	"github.com/carelink-health/assesscore/internal/model"
)

// ValidationError reports a malformed evaluation request. These are caller
// errors: the request is rejected before any scoring work starts.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Validator screens incoming records before evaluation. Implementations
// return a *ValidationError describing the first problem found.
type Validator interface {
	Validate(rec *model.IndicatorRecord) error
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(rec *model.IndicatorRecord) error

func (f ValidatorFunc) Validate(rec *model.IndicatorRecord) error { return f(rec) }
