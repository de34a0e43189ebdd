package pgclient

import (
	"context"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"

	"github.com/dataplumb/pgframe/frame"
	"github.com/dataplumb/pgframe/internal/sqlbuild"
	"github.com/dataplumb/pgframe/internal/typemap"
	"github.com/dataplumb/pgframe/sqlerr"
)

// ReplaceMode selects what happens when the target table already exists.
type ReplaceMode string

const (
	// ReplaceCascade drops the existing table together with its
	// dependents. This is the default.
	ReplaceCascade ReplaceMode = "replace_cascade"
	// Replace drops only the table itself; the drop fails if dependent
	// objects exist.
	Replace ReplaceMode = "replace"
)

// WriteOptions customizes WriteTable.
type WriteOptions struct {
	IfExists ReplaceMode
	// PrimaryKey adds a primary key over these columns after the insert.
	PrimaryKey []string
	// ForeignKeys maps a column of the written table to the foreign table
	// it references; the key column name must match on both sides. Use
	// AddForeignKey directly when the names differ.
	ForeignKeys map[string]string
	// ColumnComments attaches a comment per column at creation.
	ColumnComments map[string]string
}

// WriteTable creates (or replaces) a table from a frame and bulk-inserts
// its rows.
//
// Behavior:
//   - drop the existing table (cascade by default)
//   - CREATE TABLE from the frame's dtypes, with column comments
//   - bulk insert through the copy protocol
//   - add primary/foreign keys when requested
//   - record the table in the registry (best effort)
func (c *Client) WriteTable(ctx context.Context, f *frame.Frame, table string, opts *WriteOptions) error {
	if opts == nil {
		opts = &WriteOptions{}
	}
	table = sqlbuild.Qualify(table)
	defer c.timed("write_table", table)()

	c.warnSchemaDrift(ctx, f, table)

	cascade := opts.IfExists != Replace
	if err := c.exec(ctx, sqlbuild.DropTable(table, sqlbuild.Table, cascade)); err != nil {
		return fmt.Errorf("dropping %s: %w", table, err)
	}
	if err := c.createFromFrame(ctx, f, table, opts.ColumnComments); err != nil {
		return err
	}
	if err := c.Insert(ctx, f, table); err != nil {
		return err
	}

	if len(opts.PrimaryKey) > 0 {
		if err := c.AddPrimaryKey(ctx, table, opts.PrimaryKey...); err != nil {
			return err
		}
	}
	for column, foreignTable := range opts.ForeignKeys {
		if err := c.AddForeignKey(ctx, table, column, foreignTable, column); err != nil {
			return err
		}
	}

	c.recordTable(ctx, table)
	return nil
}

// Insert bulk-inserts a frame into an existing table through the copy
// protocol. The frame's columns must match the table's.
func (c *Client) Insert(ctx context.Context, f *frame.Frame, table string) error {
	table = sqlbuild.Qualify(table)
	defer c.timed("insert", table)()

	schema, name := sqlbuild.SplitName(table)
	n, err := c.pool.CopyFrom(ctx,
		pgx.Identifier{schema, name}, f.Names(), newCopySource(f))
	if err != nil {
		return fmt.Errorf("bulk copy into %s: %w", table, sqlerr.Normalize(err))
	}
	if n != int64(f.Len()) {
		return fmt.Errorf("bulk copy into %s: inserted %d of %d rows", table, n, f.Len())
	}
	c.log.Debug().Str("table", table).Int64("rows", n).Msg("inserted")
	return nil
}

// CreateInsert inserts into the table when it exists and creates it from
// the frame otherwise.
func (c *Client) CreateInsert(ctx context.Context, f *frame.Frame, table string, opts *WriteOptions) error {
	schema, name := sqlbuild.SplitName(table)
	names, err := c.TableNames(ctx, schema)
	if err != nil {
		return err
	}
	if slices.Contains(names, name) {
		return c.Insert(ctx, f, table)
	}
	return c.WriteTable(ctx, f, table, opts)
}

// createFromFrame issues the CREATE TABLE derived from the frame dtypes.
func (c *Client) createFromFrame(ctx context.Context, f *frame.Frame, table string, comments map[string]string) error {
	cols := make([]sqlbuild.ColumnDef, f.Width())
	for i, col := range f.Columns() {
		udt, ok := typemap.UDT(col.Type)
		if !ok {
			return fmt.Errorf("column %q: no column type for dtype %q", col.Name, col.Type)
		}
		cols[i] = sqlbuild.ColumnDef{Name: col.Name, UDT: udt}
	}
	if err := c.exec(ctx, sqlbuild.CreateTable(table, cols, comments)); err != nil {
		return fmt.Errorf("creating %s: %w", table, err)
	}
	return nil
}

// warnSchemaDrift compares the frame's declared dtypes with the live table
// schema, when the table exists. Mismatches are warnings, never errors: the
// subsequent drop-and-create resolves them anyway, but the caller should
// know a type changed under an existing consumer.
func (c *Client) warnSchemaDrift(ctx context.Context, f *frame.Frame, table string) {
	if c.verbosity < 2 {
		return
	}
	live, err := c.Dtypes(ctx, table)
	if err != nil || len(live) == 0 {
		return
	}
	byName := make(map[string]frame.DType, len(live))
	for _, ct := range live {
		byName[ct.Name] = ct.DType
	}
	for _, col := range f.Columns() {
		if liveType, ok := byName[col.Name]; ok && liveType != col.Type {
			c.log.Warn().
				Str("table", table).
				Str("column", col.Name).
				Str("declared", string(col.Type)).
				Str("live", string(liveType)).
				Msg("column type differs from live schema")
		}
	}
}
