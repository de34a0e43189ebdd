package sqlerr

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ConvertPgError converts a raw pgconn.PgError into *Error.
func ConvertPgError(src *pgconn.PgError) *Error {
	return &Error{
		Code:           MapCode(src.Code),
		Severity:       MapSeverity(src.Severity),
		DatabaseCode:   src.Code,
		Message:        src.Message,
		SchemaName:     src.SchemaName,
		TableName:      src.TableName,
		ColumnName:     src.ColumnName,
		ConstraintName: src.ConstraintName,
		driverErr:      src,
	}
}

// Normalize rewrites err so that any pgconn.PgError in its chain becomes a
// typed *Error. Non-driver errors pass through unchanged; nil stays nil.
//
// This is meant to wrap every driver call site:
//
//	if err != nil {
//	    return sqlerr.Normalize(err)
//	}
func Normalize(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return ConvertPgError(pgErr)
	}
	return err
}
