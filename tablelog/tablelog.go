// Package tablelog writes log records into a database table, so pipeline
// runs leave an audit trail queryable next to the data they produced.
package tablelog

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dataplumb/pgframe/frame"
	"github.com/dataplumb/pgframe/internal/sqlbuild"
	"github.com/dataplumb/pgframe/pgclient"
)

// DefaultColumns is the log table layout used when the table has to be
// created: a timestamp plus free-form text fields.
var DefaultColumns = []frame.Column{
	{Name: "date", Type: frame.Timestamp},
	{Name: "value", Type: frame.String},
	{Name: "message", Type: frame.String},
	{Name: "other_info", Type: frame.String},
}

// Logger appends rows to one log table.
type Logger struct {
	client *pgclient.Client
	table  string
	cols   []frame.Column
}

// New binds a logger to a table, creating the table with DefaultColumns
// when it does not exist. An existing table is used with its live columns.
func New(ctx context.Context, c *pgclient.Client, table string) (*Logger, error) {
	// Bare names land in public: log tables are shared infrastructure,
	// not part of the default data schema.
	if !strings.Contains(table, ".") {
		table = "public." + table
	}
	schema, name := sqlbuild.SplitName(table)
	table = schema + "." + name

	names, err := c.TableNames(ctx, schema)
	if err != nil {
		return nil, err
	}
	var cols []frame.Column
	if slices.Contains(names, name) {
		dtypes, err := c.Dtypes(ctx, table)
		if err != nil {
			return nil, err
		}
		for _, ct := range dtypes {
			cols = append(cols, frame.Column{Name: ct.Name, Type: ct.DType})
		}
	} else {
		if err := c.CreateTable(ctx, table, DefaultColumns, nil); err != nil {
			return nil, fmt.Errorf("creating log table %s: %w", table, err)
		}
		cols = slices.Clone(DefaultColumns)
	}
	return &Logger{client: c, table: table, cols: cols}, nil
}

// Table reports the qualified log table name.
func (l *Logger) Table() string { return l.table }

// Write inserts one record. Keys outside the table's columns are dropped,
// missing string columns are filled with empty strings, a missing date
// column value is stamped with the current time, and other missing columns
// are left NULL.
func (l *Logger) Write(ctx context.Context, record map[string]any) error {
	f, err := l.buildRow(record)
	if err != nil {
		return err
	}
	return l.client.Insert(ctx, f, l.table)
}

// buildRow maps a record onto the table's columns as a one-row frame.
func (l *Logger) buildRow(record map[string]any) (*frame.Frame, error) {
	f, err := frame.New(l.cols...)
	if err != nil {
		return nil, err
	}
	row := make([]any, len(l.cols))
	for i, col := range l.cols {
		if v, ok := record[col.Name]; ok {
			row[i] = v
			continue
		}
		switch {
		case col.Name == "date" && col.Type == frame.Timestamp:
			row[i] = time.Now()
		case col.Type == frame.String:
			row[i] = ""
		}
	}
	if err := f.AppendRow(row...); err != nil {
		return nil, err
	}
	return f, nil
}

// WriteMessage is shorthand for a record with only the message field.
func (l *Logger) WriteMessage(ctx context.Context, message string) error {
	return l.Write(ctx, map[string]any{"message": message})
}
