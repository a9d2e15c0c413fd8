package errs

import "errors"

func codeOr(code *string, kind Kind) string {
	if code != nil {
		return *code
	}
	return string(kind)
}

// NewConnectionError reports an unreachable database.
func NewConnectionError(message string, cause error) *Error {
	return &Error{
		Kind:    KindConnection,
		Code:    "DATABASE_UNREACHABLE",
		Message: message,
		cause:   cause,
	}
}

// NewAuthorizationError reports credentials the database refused.
func NewAuthorizationError(message string, cause error) *Error {
	return &Error{
		Kind:    KindAuthorization,
		Code:    "DATABASE_ACCESS_DENIED",
		Message: message,
		cause:   cause,
	}
}

// NewConstraintError reports a broken schema constraint.
//
// code is optional; when nil the code defaults to "CONSTRAINT".
func NewConstraintError(message string, code *string, fieldErrors []FieldError, cause error) *Error {
	return &Error{
		Kind:    KindConstraint,
		Code:    codeOr(code, KindConstraint),
		Message: message,
		Errors:  fieldErrors,
		cause:   cause,
	}
}

// NewValidationError reports entity validation failures.
func NewValidationError(message string, fieldErrors []FieldError) *Error {
	return &Error{
		Kind:    KindValidation,
		Code:    string(KindValidation),
		Message: message,
		Errors:  fieldErrors,
	}
}

// NewPreconditionError reports data that lacks a shape the caller needs.
func NewPreconditionError(message string, code *string) *Error {
	return &Error{
		Kind:    KindPrecondition,
		Code:    codeOr(code, KindPrecondition),
		Message: message,
	}
}

// NewInternalError wraps anything that has no better classification.
func NewInternalError(cause error) *Error {
	message := "internal error"
	if cause != nil {
		message = cause.Error()
	}
	return &Error{
		Kind:    KindInternal,
		Code:    string(KindInternal),
		Message: message,
		cause:   cause,
	}
}

// KindOf returns the Kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
