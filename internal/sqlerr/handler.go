package sqlerr

import (
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"

	"github.com/deppfellow/pgdemo/internal/errs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// singular strips a plural "s" from a table name: order_items -> order_item.
func singular(name string) string {
	if strings.HasSuffix(name, "s") && len(name) > 1 {
		return name[:len(name)-1]
	}
	return name
}

// generateErrorCode creates codes of the form <DOMAIN>_<ACTION>:
//
//	order_items + UniqueViolation => ORDER_ITEM_ALREADY_EXISTS
func generateErrorCode(tableName string, errType Code) string {
	if tableName == "" {
		tableName = "RECORD"
	}

	domain := strings.ToUpper(singular(tableName))

	action := "ERROR"
	switch errType {
	case ForeignKeyViolation:
		action = "NOT_FOUND"
	case UniqueViolation:
		action = "ALREADY_EXISTS"
	case NotNullViolation:
		action = "REQUIRED"
	case CheckViolation:
		action = "INVALID"
	}

	return fmt.Sprintf("%s_%s", domain, action)
}

// formatUserFriendlyMessage phrases a constraint failure using the table
// and column it happened on.
func formatUserFriendlyMessage(sqlErr *Error) string {
	entityName := getEntityName(sqlErr.TableName, sqlErr.ColumnName)

	switch sqlErr.Code {
	case ForeignKeyViolation:
		return fmt.Sprintf("The referenced %s does not exist", entityName)

	case UniqueViolation:
		return fmt.Sprintf("A %s with this identifier already exists", entityName)

	case NotNullViolation:
		fieldName := humanizeText(sqlErr.ColumnName)
		if fieldName == "" {
			fieldName = "field"
		}
		return fmt.Sprintf("The %s is required", fieldName)

	case CheckViolation:
		fieldName := humanizeText(columnFromCheck(sqlErr.ConstraintName))
		if fieldName != "" {
			return fmt.Sprintf("The %s value does not meet required conditions", fieldName)
		}
		return "One or more values do not meet required conditions"

	default:
		return "An error occurred while processing your request"
	}
}

// getEntityName tries to infer an entity name from table/column data.
//
//  1. Column ending in "_id" wins: "stock_item_id" -> "Stock Item".
//  2. Otherwise the singular table name.
//  3. Otherwise "record".
func getEntityName(tableName, columnName string) string {
	if columnName != "" && strings.HasSuffix(strings.ToLower(columnName), "_id") {
		return humanizeText(strings.TrimSuffix(strings.ToLower(columnName), "_id"))
	}

	if tableName != "" {
		return humanizeText(singular(tableName))
	}

	return "record"
}

// humanizeText converts snake_case into Title Case: "first_name" -> "First Name".
func humanizeText(text string) string {
	if text == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(text, "_", " "))
}

var (
	uniqueKeyRe = regexp.MustCompile(`_([^_]+)_(?:key|ukey)$`)
	checkRe     = regexp.MustCompile(`_([^_]+)_check$`)
)

// extractColumnForUniqueViolation infers the column from a unique
// constraint name.
//
//  1. "unique_<table>_<column>"     unique_customers_email -> "email"
//  2. "<table>_<column>_(key|ukey)" customers_email_key    -> "email"
//  3. "<table>_pkey"                order_items_pkey       -> "" (composite)
func extractColumnForUniqueViolation(constraintName string) string {
	if constraintName == "" || strings.HasSuffix(constraintName, "_pkey") {
		return ""
	}

	if strings.HasPrefix(constraintName, "unique_") {
		parts := strings.Split(constraintName, "_")
		if len(parts) >= 3 {
			return parts[len(parts)-1]
		}
	}

	if matches := uniqueKeyRe.FindStringSubmatch(constraintName); len(matches) > 1 {
		return matches[1]
	}

	return ""
}

// columnFromForeignKey infers the referencing column from PostgreSQL's
// default foreign key name "<table>_<column>_fkey", since the server does
// not report a column for foreign key violations:
//
//	order_items + order_items_stock_item_id_fkey -> "stock_item_id"
func columnFromForeignKey(tableName, constraintName string) string {
	if tableName == "" || !strings.HasSuffix(constraintName, "_fkey") {
		return ""
	}

	column, ok := strings.CutPrefix(strings.TrimSuffix(constraintName, "_fkey"), tableName+"_")
	if !ok {
		return ""
	}
	return column
}

// columnFromCheck infers the column from PostgreSQL's default CHECK
// constraint name "<table>_<column>_check". Only the last word of the
// column is recovered: stock_items_price_check -> "price".
func columnFromCheck(constraintName string) string {
	if matches := checkRe.FindStringSubmatch(constraintName); len(matches) > 1 {
		return matches[1]
	}
	return ""
}

// isConnectionError reports dial, timeout and pgconn connect failures.
func isConnectionError(err error) bool {
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return pgconn.Timeout(err)
}

// HandleError converts a low-level database error into an *errs.Error.
//
//   - *errs.Error: returned unchanged.
//   - *pgconn.PgError: mapped by SQLSTATE.
//   - connect/dial/timeout failures: CONNECTION.
//   - ErrNoRows: PRECONDITION.
//   - anything else: INTERNAL.
func HandleError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *errs.Error
	if errors.As(err, &appErr) {
		return err
	}

	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) {
		sqlErr := ConvertPgError(pgerr)

		if sqlErr.Code == ForeignKeyViolation && sqlErr.ColumnName == "" {
			sqlErr.ColumnName = columnFromForeignKey(sqlErr.TableName, sqlErr.ConstraintName)
		}

		errorCode := generateErrorCode(sqlErr.TableName, sqlErr.Code)
		if sqlErr.Code == ForeignKeyViolation {
			// Name the missing parent: STOCK_ITEM_NOT_FOUND, not ORDER_ITEM_NOT_FOUND.
			entity := getEntityName(sqlErr.TableName, sqlErr.ColumnName)
			errorCode = errs.MakeUpperCaseWithUnderscores(entity) + "_NOT_FOUND"
		}
		userMessage := formatUserFriendlyMessage(sqlErr)

		switch sqlErr.Code {
		case ForeignKeyViolation, CheckViolation, ExclusionViolation:
			return errs.NewConstraintError(userMessage, &errorCode, nil, sqlErr)

		case UniqueViolation:
			if columnName := extractColumnForUniqueViolation(sqlErr.ConstraintName); columnName != "" {
				userMessage = strings.ReplaceAll(userMessage, "identifier", humanizeText(columnName))
			}
			return errs.NewConstraintError(userMessage, &errorCode, nil, sqlErr)

		case NotNullViolation:
			fieldErrors := []errs.FieldError{
				{
					Field: strings.ToLower(sqlErr.ColumnName),
					Error: "is required",
				},
			}
			return errs.NewConstraintError(userMessage, &errorCode, fieldErrors, sqlErr)

		case InvalidAuthorization:
			return errs.NewAuthorizationError("The database rejected the configured credentials", sqlErr)

		case InvalidCatalog:
			return errs.NewConnectionError("The configured database does not exist", sqlErr)

		case ConnectionFailure:
			return errs.NewConnectionError("The database connection failed", sqlErr)

		case UndefinedTable:
			code := "SCHEMA_MISSING"
			return errs.NewPreconditionError("The schema has not been created yet, run migrate or reset first", &code)

		default:
			return errs.NewInternalError(sqlErr)
		}
	}

	if isConnectionError(err) {
		return errs.NewConnectionError("The database could not be reached", err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		code := "RECORD_NOT_FOUND"
		return errs.NewPreconditionError("Resource not found", &code)
	}

	return errs.NewInternalError(err)
}
