package errs

import (
	"strings"
)

// Kind classifies an error by what went wrong, not where.
type Kind string

const (
	// KindConnection means the database could not be reached.
	KindConnection Kind = "CONNECTION"

	// KindAuthorization means the database rejected the credentials.
	KindAuthorization Kind = "AUTHORIZATION"

	// KindConstraint means a write broke a schema constraint: duplicate
	// key, missing referenced row, NULL in a required column, failed CHECK.
	KindConstraint Kind = "CONSTRAINT"

	// KindValidation means an entity failed validation before any write.
	KindValidation Kind = "VALIDATION"

	// KindPrecondition means stored data does not have the shape the
	// caller relies on, e.g. a Thing without owners.
	KindPrecondition Kind = "PRECONDITION"

	// KindInternal is everything else.
	KindInternal Kind = "INTERNAL"
)

// FieldError represents a field-level validation error.
//
//	{ "field": "name", "error": "is required" }
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// Error is the main custom error type.
//
// Fields:
//   - Kind: category used by errors.Is.
//   - Code: machine-friendly code (e.g. "ORDER_ITEM_ALREADY_EXISTS").
//   - Message: human-friendly message.
//   - Errors: per-field errors (validation).
type Error struct {
	Kind    Kind         `json:"kind"`
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`

	cause error
}

// Sentinels for errors.Is(err, errs.ErrConstraint) style checks.
var (
	ErrConnection    = &Error{Kind: KindConnection}
	ErrAuthorization = &Error{Kind: KindAuthorization}
	ErrConstraint    = &Error{Kind: KindConstraint}
	ErrValidation    = &Error{Kind: KindValidation}
	ErrPrecondition  = &Error{Kind: KindPrecondition}
	ErrInternal      = &Error{Kind: KindInternal}
)

// Error renders the message followed by any field errors.
func (e *Error) Error() string {
	if len(e.Errors) == 0 {
		return e.Message
	}

	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+" "+fe.Error)
	}
	return e.Message + ": " + strings.Join(parts, "; ")
}

// Unwrap exposes the underlying driver or library error, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches another *Error of the same Kind. A target without a Kind
// matches any *Error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == "" || t.Kind == e.Kind
}

// MakeUpperCaseWithUnderscores converts a string into UPPER_CASE_WITH_UNDERSCORES.
//
//	"Order Item" -> "ORDER_ITEM"
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(str), " ", "_"))
}
