package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/deppfellow/pgdemo/internal/errs"
	"github.com/go-playground/validator/v10"
)

// Validatable is implemented by types that know how to validate themselves.
//
// Typical pattern:
//   - Define a struct with validator tags (`validate:"required"`)
//   - Implement Validate() error that calls Struct(v) and adds any
//     custom checks as CustomValidationErrors
type Validatable interface {
	Validate() error
}

// CustomValidationError represents a single validation issue for a field
// that cannot be expressed via validator tags.
type CustomValidationError struct {
	Field   string
	Message string
}

// CustomValidationErrors is a slice of custom validation errors that satisfies error.
type CustomValidationErrors []CustomValidationError

func (c CustomValidationErrors) Error() string {
	return "Validation failed"
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// instance returns the shared validator. validator caches struct metadata,
// so one instance is reused for every call.
func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Struct runs the tag rules of v.
func Struct(v any) error {
	return instance().Struct(v)
}

// Check calls v.Validate() and converts any failure into an
// *errs.Error of kind VALIDATION. entity prefixes the message, e.g.
// "Thing validation failed".
func Check(entity string, v Validatable) error {
	err := v.Validate()
	if err == nil {
		return nil
	}

	fieldErrors := extractValidationError(err)
	if fieldErrors == nil {
		return fmt.Errorf("validating %s: %w", entity, err)
	}

	return errs.NewValidationError(entity+" validation failed", fieldErrors)
}

// Join merges validator and custom errors from one Validate call.
// nil inputs are skipped; nil is returned when nothing failed.
func Join(tagErr error, custom CustomValidationErrors) error {
	switch {
	case tagErr == nil && len(custom) == 0:
		return nil
	case tagErr == nil:
		return custom
	case len(custom) == 0:
		return tagErr
	default:
		return errors.Join(tagErr, custom)
	}
}

func extractValidationError(err error) []errs.FieldError {
	var fieldErrors []errs.FieldError

	var customValidationErrors CustomValidationErrors
	if errors.As(err, &customValidationErrors) {
		for _, cerr := range customValidationErrors {
			fieldErrors = append(fieldErrors, errs.FieldError{
				Field: cerr.Field,
				Error: cerr.Message,
			})
		}
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fieldErrors
	}

	for _, ferr := range validationErrors {
		field := strings.ToLower(ferr.Field())
		var msg string

		switch ferr.Tag() {
		case "required":
			msg = "is required"

		case "min":
			if ferr.Type().Kind() == reflect.String {
				msg = fmt.Sprintf("must be at least %s characters", ferr.Param())
			} else {
				msg = fmt.Sprintf("must be at least %s", ferr.Param())
			}

		case "max":
			if ferr.Type().Kind() == reflect.String {
				msg = fmt.Sprintf("must not exceed %s characters", ferr.Param())
			} else {
				msg = fmt.Sprintf("must not exceed %s", ferr.Param())
			}

		case "gte":
			msg = fmt.Sprintf("must be greater than or equal to %s", ferr.Param())

		case "oneof":
			msg = fmt.Sprintf("must be one of: %s", ferr.Param())

		case "email":
			msg = "must be a valid email address"

		default:
			if ferr.Param() != "" {
				msg = fmt.Sprintf("%s: %s:%s", field, ferr.Tag(), ferr.Param())
			} else {
				msg = fmt.Sprintf("%s: %s", field, ferr.Tag())
			}
		}

		fieldErrors = append(fieldErrors, errs.FieldError{
			Field: field,
			Error: msg,
		})
	}

	return fieldErrors
}
