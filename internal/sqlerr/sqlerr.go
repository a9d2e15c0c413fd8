// Package sqlerr specifically handles database driver errors.
//
// It parses SQLSTATE codes from the PostgreSQL driver and converts
// them into application errors (e.g. a "unique violation" on
// order_items becomes a CONSTRAINT error coded ORDER_ITEM_ALREADY_EXISTS,
// a rejected password becomes an AUTHORIZATION error).
package sqlerr

import (
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Code is a driver-independent category for a SQLSTATE.
type Code string

const (
	Other                Code = "other"
	UniqueViolation      Code = "unique_violation"
	ForeignKeyViolation  Code = "foreign_key_violation"
	NotNullViolation     Code = "not_null_violation"
	CheckViolation       Code = "check_violation"
	ExclusionViolation   Code = "exclusion_violation"
	ConnectionFailure    Code = "connection_failure"
	InvalidAuthorization Code = "invalid_authorization"
	InvalidCatalog       Code = "invalid_catalog"
	UndefinedTable       Code = "undefined_table"
	TransactionRollback  Code = "transaction_rollback"
)

// Severity mirrors PostgreSQL's message severity.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityFatal   Severity = "FATAL"
	SeverityPanic   Severity = "PANIC"
	SeverityWarning Severity = "WARNING"
	SeverityNotice  Severity = "NOTICE"
	SeverityDebug   Severity = "DEBUG"
	SeverityInfo    Severity = "INFO"
	SeverityLog     Severity = "LOG"
)

var sqlstates = map[string]Code{
	"23505": UniqueViolation,
	"23503": ForeignKeyViolation,
	"23502": NotNullViolation,
	"23514": CheckViolation,
	"23P01": ExclusionViolation,
	"28000": InvalidAuthorization,
	"28P01": InvalidAuthorization,
	"3D000": InvalidCatalog,
	"42P01": UndefinedTable,
	"57P01": ConnectionFailure,
	"57P03": ConnectionFailure,
	"40001": TransactionRollback,
	"40P01": TransactionRollback,
}

// MapCode maps a SQLSTATE to a Code. Every class 08 state is a
// connection failure.
func MapCode(sqlstate string) Code {
	if code, ok := sqlstates[sqlstate]; ok {
		return code
	}
	if strings.HasPrefix(sqlstate, "08") {
		return ConnectionFailure
	}
	return Other
}

// MapSeverity normalises the severity string reported by the server.
func MapSeverity(severity string) Severity {
	switch s := Severity(strings.ToUpper(severity)); s {
	case SeverityError, SeverityFatal, SeverityPanic, SeverityWarning,
		SeverityNotice, SeverityDebug, SeverityInfo, SeverityLog:
		return s
	default:
		return SeverityError
	}
}

// Error is a PostgreSQL error with its SQLSTATE already classified.
type Error struct {
	Code           Code
	Severity       Severity
	DatabaseCode   string
	Message        string
	SchemaName     string
	TableName      string
	ColumnName     string
	DataTypeName   string
	ConstraintName string
	driverErr      error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.driverErr
}

// ConvertPgError converts a pgconn.PgError into an Error.
func ConvertPgError(src *pgconn.PgError) *Error {
	return &Error{
		Code:           MapCode(src.Code),
		Severity:       MapSeverity(src.Severity),
		DatabaseCode:   src.Code,
		Message:        src.Message,
		SchemaName:     src.SchemaName,
		TableName:      src.TableName,
		ColumnName:     src.ColumnName,
		DataTypeName:   src.DataTypeName,
		ConstraintName: src.ConstraintName,
		driverErr:      src,
	}
}
