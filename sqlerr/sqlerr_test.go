package sqlerr

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapCode(t *testing.T) {
	tests := []struct {
		sqlstate string
		want     Code
	}{
		{"23505", UniqueViolation},
		{"23503", ForeignKeyViolation},
		{"23502", NotNullViolation},
		{"23514", CheckViolation},
		{"42P01", UndefinedTable},
		{"42703", UndefinedColumn},
		{"42P07", DuplicateTable},
		{"22P02", InvalidTextRepr},
		{"42501", InsufficientPrivilege},
		{"42601", SyntaxError},
		{"XX000", Other},
		{"", Other},
	}
	for _, tt := range tests {
		if got := MapCode(tt.sqlstate); got != tt.want {
			t.Errorf("MapCode(%q) = %q, want %q", tt.sqlstate, got, tt.want)
		}
	}
}

func TestMapSeverity(t *testing.T) {
	if got := MapSeverity("error"); got != SeverityError {
		t.Errorf("got %q", got)
	}
	if got := MapSeverity("FATAL"); got != SeverityFatal {
		t.Errorf("got %q", got)
	}
	if got := MapSeverity("NOTICE"); got != SeverityUnknown {
		t.Errorf("got %q", got)
	}
}

func TestNormalize_PgError(t *testing.T) {
	pgErr := &pgconn.PgError{
		Severity:       "ERROR",
		Code:           "23505",
		Message:        "duplicate key value violates unique constraint",
		TableName:      "orders",
		ConstraintName: "orders_pkey",
	}
	err := Normalize(fmt.Errorf("inserting rows: %w", pgErr))

	var sqlErr *Error
	if !errors.As(err, &sqlErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if sqlErr.Code != UniqueViolation {
		t.Errorf("code = %q, want %q", sqlErr.Code, UniqueViolation)
	}
	if sqlErr.DatabaseCode != "23505" {
		t.Errorf("database code = %q", sqlErr.DatabaseCode)
	}
	if sqlErr.Severity != SeverityError {
		t.Errorf("severity = %q", sqlErr.Severity)
	}
	if sqlErr.TableName != "orders" || sqlErr.ConstraintName != "orders_pkey" {
		t.Errorf("server fields not carried over: %+v", sqlErr)
	}
	// The driver error stays reachable through the chain.
	var unwrapped *pgconn.PgError
	if !errors.As(err, &unwrapped) {
		t.Error("original pgconn.PgError must remain in the chain")
	}
}

func TestNormalize_Passthrough(t *testing.T) {
	if Normalize(nil) != nil {
		t.Error("nil must stay nil")
	}
	plain := errors.New("dial tcp: connection refused")
	if Normalize(plain) != plain {
		t.Error("non-driver errors must pass through unchanged")
	}
}

func TestErrCode(t *testing.T) {
	err := Normalize(&pgconn.PgError{Code: "42P01", Message: "relation does not exist"})
	if got := ErrCode(err); got != UndefinedTable {
		t.Errorf("ErrCode = %q, want %q", got, UndefinedTable)
	}
	if got := ErrCode(fmt.Errorf("wrapped: %w", err)); got != UndefinedTable {
		t.Errorf("ErrCode through wrap = %q, want %q", got, UndefinedTable)
	}
	if got := ErrCode(errors.New("plain")); got != Other {
		t.Errorf("ErrCode plain = %q, want %q", got, Other)
	}
	if got := ErrCode(nil); got != Other {
		t.Errorf("ErrCode nil = %q, want %q", got, Other)
	}
}

func TestError_Message(t *testing.T) {
	err := &Error{Code: UndefinedTable, Message: "relation does not exist", TableName: "orders"}
	if msg := err.Error(); !strings.Contains(msg, "orders") || !strings.Contains(msg, "undefined_table") {
		t.Errorf("message should name the code and table: %q", msg)
	}
	err = &Error{Code: SyntaxError, Message: "syntax error at end of input"}
	if msg := err.Error(); strings.Contains(msg, " on ") {
		t.Errorf("message without table should not include one: %q", msg)
	}
}
