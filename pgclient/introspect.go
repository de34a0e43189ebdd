package pgclient

import (
	"context"
	"strings"

	"github.com/dataplumb/pgframe/frame"
	"github.com/dataplumb/pgframe/internal/sqlbuild"
	"github.com/dataplumb/pgframe/internal/typemap"
	"github.com/dataplumb/pgframe/sqlerr"
)

// ColumnType describes one live column: its name, the PostgreSQL udt name,
// and the frame dtype it reads back as.
type ColumnType struct {
	Name  string
	UDT   string
	DType frame.DType
}

// Dtypes reports name and type of every column of a table, in ordinal order.
func (c *Client) Dtypes(ctx context.Context, table string) ([]ColumnType, error) {
	schema, name := sqlbuild.SplitName(table)
	rows, err := c.query(ctx, sqlbuild.Dtypes(schema, name))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ColumnType
	for rows.Next() {
		var ct ColumnType
		if err := rows.Scan(&ct.Name, &ct.UDT); err != nil {
			return nil, sqlerr.Normalize(err)
		}
		ct.DType = typemap.DType(ct.UDT)
		out = append(out, ct)
	}
	return out, sqlerr.Normalize(rows.Err())
}

// Columns reports the column names of a table.
func (c *Client) Columns(ctx context.Context, table string) ([]string, error) {
	dtypes, err := c.Dtypes(ctx, table)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(dtypes))
	for i, ct := range dtypes {
		out[i] = ct.Name
	}
	return out, nil
}

// Metadata reports column names, comments, and types of a table as a frame.
func (c *Client) Metadata(ctx context.Context, table string) (*frame.Frame, error) {
	schema, name := sqlbuild.SplitName(table)
	rows, err := c.query(ctx, sqlbuild.Metadata(schema, name))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make(map[string]string)
	for rows.Next() {
		var column, description *string
		if err := rows.Scan(&column, &description); err != nil {
			return nil, sqlerr.Normalize(err)
		}
		if column == nil {
			continue
		}
		if description != nil {
			comments[*column] = *description
		}
	}
	if err := rows.Err(); err != nil {
		return nil, sqlerr.Normalize(err)
	}

	dtypes, err := c.Dtypes(ctx, table)
	if err != nil {
		return nil, err
	}
	meta := frame.MustNew(
		frame.Column{Name: "column_name", Type: frame.String},
		frame.Column{Name: "data_type", Type: frame.String},
		frame.Column{Name: "description", Type: frame.String},
	)
	for _, ct := range dtypes {
		var desc any
		if d, ok := comments[ct.Name]; ok {
			desc = d
		}
		if err := meta.AppendRow(ct.Name, ct.UDT, desc); err != nil {
			return nil, err
		}
	}
	return meta, nil
}

// Shape reports (rows, columns) of a table.
func (c *Client) Shape(ctx context.Context, table string) (int64, int, error) {
	var nrows int64
	if err := c.pool.QueryRow(ctx, sqlbuild.Count(table)).Scan(&nrows); err != nil {
		return 0, 0, sqlerr.Normalize(err)
	}
	cols, err := c.Columns(ctx, table)
	if err != nil {
		return 0, 0, err
	}
	return nrows, len(cols), nil
}

// SchemaNames lists user schemas, skipping the catalog and information
// schemas.
func (c *Client) SchemaNames(ctx context.Context) ([]string, error) {
	rows, err := c.query(ctx,
		"SELECT DISTINCT schemaname FROM pg_catalog.pg_tables ORDER BY schemaname")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var schema string
		if err := rows.Scan(&schema); err != nil {
			return nil, sqlerr.Normalize(err)
		}
		if strings.HasPrefix(schema, "pg_") || strings.Contains(schema, "schema") {
			continue
		}
		out = append(out, schema)
	}
	return out, sqlerr.Normalize(rows.Err())
}

// TableNames lists the tables of a schema.
func (c *Client) TableNames(ctx context.Context, schema string) ([]string, error) {
	return c.scanNames(ctx,
		"SELECT tablename FROM pg_catalog.pg_tables WHERE schemaname = $1 ORDER BY tablename", schema)
}

// ViewNames lists the views of a schema.
func (c *Client) ViewNames(ctx context.Context, schema string) ([]string, error) {
	return c.scanNames(ctx,
		"SELECT viewname FROM pg_catalog.pg_views WHERE schemaname = $1 ORDER BY viewname", schema)
}

func (c *Client) scanNames(ctx context.Context, sql string, args ...any) ([]string, error) {
	rows, err := c.query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, sqlerr.Normalize(err)
		}
		out = append(out, name)
	}
	return out, sqlerr.Normalize(rows.Err())
}

// ListTables reports name and type of every relation in a schema as a frame.
func (c *Client) ListTables(ctx context.Context, schema string) (*frame.Frame, error) {
	rows, err := c.query(ctx, sqlbuild.ListTables(schema))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := frame.MustNew(
		frame.Column{Name: "table_name", Type: frame.String},
		frame.Column{Name: "table_type", Type: frame.String},
	)
	for rows.Next() {
		var name, kind string
		if err := rows.Scan(&name, &kind); err != nil {
			return nil, sqlerr.Normalize(err)
		}
		if err := out.AppendRow(name, kind); err != nil {
			return nil, err
		}
	}
	return out, sqlerr.Normalize(rows.Err())
}

// HasPostGIS probes for the PostGIS extension.
func (c *Client) HasPostGIS(ctx context.Context) (bool, error) {
	var count int
	err := c.pool.QueryRow(ctx,
		"SELECT COUNT(1) FROM information_schema.routines WHERE routine_name = 'postgis_version'").
		Scan(&count)
	if err != nil {
		return false, sqlerr.Normalize(err)
	}
	return count > 0, nil
}
