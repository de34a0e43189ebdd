// Package sqlerr classifies database driver errors.
//
// It parses the SQLSTATE codes carried by pgconn.PgError and converts them
// into a typed Error that call sites can inspect with errors.As or ErrCode,
// instead of string-matching driver messages.
package sqlerr

import (
	"errors"
	"fmt"
	"strings"
)

// Code is the normalized category of a database error.
type Code string

const (
	UniqueViolation       Code = "unique_violation"
	ForeignKeyViolation   Code = "foreign_key_violation"
	NotNullViolation      Code = "not_null_violation"
	CheckViolation        Code = "check_violation"
	UndefinedTable        Code = "undefined_table"
	UndefinedColumn       Code = "undefined_column"
	DuplicateTable        Code = "duplicate_table"
	InvalidTextRepr       Code = "invalid_text_representation"
	InsufficientPrivilege Code = "insufficient_privilege"
	SyntaxError           Code = "syntax_error"
	Other                 Code = "other"
)

// Severity mirrors the severity reported by the server.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityFatal   Severity = "FATAL"
	SeverityPanic   Severity = "PANIC"
	SeverityUnknown Severity = "UNKNOWN"
)

// MapCode converts a SQLSTATE into a Code.
//
// See https://www.postgresql.org/docs/current/errcodes-appendix.html for the
// full table; only the states the client can meaningfully react to are
// mapped, everything else is Other.
func MapCode(sqlstate string) Code {
	switch sqlstate {
	case "23505":
		return UniqueViolation
	case "23503":
		return ForeignKeyViolation
	case "23502":
		return NotNullViolation
	case "23514":
		return CheckViolation
	case "42P01":
		return UndefinedTable
	case "42703":
		return UndefinedColumn
	case "42P07":
		return DuplicateTable
	case "22P02":
		return InvalidTextRepr
	case "42501":
		return InsufficientPrivilege
	case "42601":
		return SyntaxError
	}
	return Other
}

// MapSeverity converts the server-reported severity string.
func MapSeverity(s string) Severity {
	switch strings.ToUpper(s) {
	case "ERROR":
		return SeverityError
	case "FATAL":
		return SeverityFatal
	case "PANIC":
		return SeverityPanic
	}
	return SeverityUnknown
}

// Error is the normalized database error.
//
// DatabaseCode keeps the original SQLSTATE; Schema/Table/Column/Constraint
// are filled when the server reports them (constraint violations do).
type Error struct {
	Code           Code
	Severity       Severity
	DatabaseCode   string
	Message        string
	SchemaName     string
	TableName      string
	ColumnName     string
	ConstraintName string

	driverErr error
}

func (e *Error) Error() string {
	if e.TableName != "" {
		return fmt.Sprintf("%s on %s: %s", e.Code, e.TableName, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the original driver error for errors.Is/As chains.
func (e *Error) Unwrap() error { return e.driverErr }

// ErrCode reports the Code for any error. Errors that do not unwrap to
// *Error report Other.
func ErrCode(err error) Code {
	var sqlErr *Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code
	}
	return Other
}
