package pgclient

import (
	"context"
	"fmt"

	"github.com/dataplumb/pgframe/frame"
	"github.com/dataplumb/pgframe/internal/sqlbuild"
	"github.com/dataplumb/pgframe/internal/typemap"
)

// ObjectKind aliases the SQL builder's object selector so callers can say
// pgclient.View without importing an internal package.
type ObjectKind = sqlbuild.ObjectKind

const (
	Table = sqlbuild.Table
	View  = sqlbuild.View
)

// AddPrimaryKey adds a primary key over one or more columns.
func (c *Client) AddPrimaryKey(ctx context.Context, table string, columns ...string) error {
	if len(columns) == 0 {
		return fmt.Errorf("add primary key: no columns given")
	}
	return c.exec(ctx, sqlbuild.PrimaryKey(table, columns))
}

// AddForeignKey adds a foreign key from column to foreignKey on the foreign
// table. An empty foreignKey means the column name matches on both sides.
//
// The referencing column is first re-typed to the referenced column's type
// (with a cast), since a key over mismatched types is rejected by the
// server.
func (c *Client) AddForeignKey(ctx context.Context, table, column, foreignTable, foreignKey string) error {
	if foreignKey == "" {
		foreignKey = column
	}
	dtypes, err := c.Dtypes(ctx, foreignTable)
	if err != nil {
		return err
	}
	for _, ct := range dtypes {
		if ct.Name != foreignKey {
			continue
		}
		if err := c.exec(ctx, sqlbuild.AlterColumnType(table, column, ct.UDT)); err != nil {
			return fmt.Errorf("aligning %s.%s with %s.%s: %w", table, column, foreignTable, foreignKey, err)
		}
		break
	}
	return c.exec(ctx, sqlbuild.ForeignKey(table, []string{column}, foreignTable, foreignKey))
}

// AddColumns extends a table with the columns of a frame, matched on the
// given key columns.
//
// The frame lands in a temporary table, is joined against the target on the
// key columns, and the join result replaces the target. Shared non-key
// columns get the _x/_y suffixes.
func (c *Client) AddColumns(ctx context.Context, table string, f *frame.Frame, on ...string) error {
	if len(on) == 0 {
		return fmt.Errorf("add columns: no key columns given")
	}
	table = sqlbuild.Qualify(table)
	defer c.timed("add_columns", table)()

	schema, _ := sqlbuild.SplitName(table)
	tmp := schema + ".pgframe_tmp_add"
	merged := schema + ".pgframe_tmp_merge"

	if err := c.WriteTable(ctx, f, tmp, nil); err != nil {
		return err
	}
	defer func() {
		if err := c.exec(ctx, sqlbuild.DropTable(tmp, sqlbuild.Table, true)); err != nil {
			c.log.Warn().Err(err).Str("table", tmp).Msg("dropping temp table failed")
		}
	}()

	cols1, err := c.Columns(ctx, table)
	if err != nil {
		return err
	}
	cols2, err := c.Columns(ctx, tmp)
	if err != nil {
		return err
	}

	if err := c.exec(ctx, sqlbuild.DropTable(merged, sqlbuild.Table, true)); err != nil {
		return err
	}
	merge := sqlbuild.Merge(merged, sqlbuild.Table, table, tmp, cols1, cols2, on, sqlbuild.DefaultSuffixes)
	if err := c.exec(ctx, merge); err != nil {
		return fmt.Errorf("merging %s with new columns: %w", table, err)
	}
	if err := c.exec(ctx, sqlbuild.DropTable(table, sqlbuild.Table, true)); err != nil {
		return err
	}
	return c.exec(ctx, sqlbuild.Rename(merged, table, sqlbuild.Table))
}

// DropColumns removes columns from a table or view.
func (c *Client) DropColumns(ctx context.Context, table string, kind ObjectKind, cascade bool, columns ...string) error {
	if len(columns) == 0 {
		return fmt.Errorf("drop columns: no columns given")
	}
	return c.exec(ctx, sqlbuild.DropColumns(table, kind, columns, cascade))
}

// DropTable removes a table or view; with cascade, dependents go too.
func (c *Client) DropTable(ctx context.Context, table string, kind ObjectKind, cascade bool) error {
	return c.exec(ctx, sqlbuild.DropTable(table, kind, cascade))
}

// Rename renames a table or view within its schema.
func (c *Client) Rename(ctx context.Context, table, newName string, kind ObjectKind) error {
	return c.exec(ctx, sqlbuild.Rename(table, newName, kind))
}

// CopyTable copies a table into a new table (new data) or a view over it
// (no new data). An existing target is dropped first.
func (c *Client) CopyTable(ctx context.Context, table, newName string, kind ObjectKind) error {
	defer c.timed("copy_table", sqlbuild.Qualify(newName))()
	if err := c.exec(ctx, sqlbuild.DropTable(newName, kind, true)); err != nil {
		return err
	}
	return c.exec(ctx, sqlbuild.CopyObject(table, newName, kind))
}

// Update sets one column to a value on the rows matched by where; an empty
// where updates every row. The value goes through a bind parameter.
func (c *Client) Update(ctx context.Context, table, column string, value any, where string) error {
	return c.exec(ctx, sqlbuild.Update(table, column, "$1", where), value)
}

// CreateTable creates an empty table from column definitions, with optional
// per-column comments.
func (c *Client) CreateTable(ctx context.Context, table string, cols []frame.Column, comments map[string]string) error {
	defs := make([]sqlbuild.ColumnDef, len(cols))
	for i, col := range cols {
		udt, ok := typemap.UDT(col.Type)
		if !ok {
			return fmt.Errorf("column %q: no column type for dtype %q", col.Name, col.Type)
		}
		defs[i] = sqlbuild.ColumnDef{Name: col.Name, UDT: udt}
	}
	return c.exec(ctx, sqlbuild.CreateTable(table, defs, comments))
}

// CreateSchema creates a schema when it does not exist yet.
func (c *Client) CreateSchema(ctx context.Context, schema string) error {
	return c.exec(ctx, sqlbuild.CreateSchema(schema))
}
