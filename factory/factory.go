// Package factory layers documented table definitions on top of the
// client: a Definition declares a table's columns, their dtypes, their
// descriptions, and its keys, and the read/write helpers check frames
// against that declaration.
//
// Mismatches between data and documentation are surfaced as warnings, not
// hard failures; only structurally impossible operations return errors.
package factory

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dataplumb/pgframe/frame"
	"github.com/dataplumb/pgframe/pgclient"
)

// ColumnDoc documents one column of a defined table.
type ColumnDoc struct {
	Name        string
	Type        frame.DType
	Description string
}

// ForeignRef points a column at the key of another defined table.
type ForeignRef struct {
	Table string // qualified "schema.name"
	Key   string // column on the foreign table
}

// Definition declares a documented table.
type Definition interface {
	SchemaName() string
	TableName() string
	// Columns is the ordered column documentation; it is the contract
	// both reads and writes are checked against.
	Columns() []ColumnDoc
	// PrimaryKey names the key columns, or nil.
	PrimaryKey() []string
	// ForeignKeys maps local columns to foreign references, or nil.
	ForeignKeys() map[string]ForeignRef
}

// FullName reports the qualified table name of a definition.
func FullName(def Definition) string {
	return def.SchemaName() + "." + def.TableName()
}

// Check compares a frame against the definition and logs a warning per
// discrepancy: columns present in the data but undocumented, documented
// columns missing from the data, and empty descriptions. It reports the
// number of warnings.
func Check(f *frame.Frame, def Definition, log zerolog.Logger) int {
	documented := make(map[string]ColumnDoc, len(def.Columns()))
	warnings := 0
	for _, doc := range def.Columns() {
		documented[doc.Name] = doc
		if doc.Description == "" {
			log.Warn().Str("table", FullName(def)).Str("column", doc.Name).
				Msg("missing column description")
			warnings++
		}
	}
	inData := make(map[string]struct{}, f.Width())
	for _, name := range f.Names() {
		inData[name] = struct{}{}
		if _, ok := documented[name]; !ok {
			log.Warn().Str("table", FullName(def)).Str("column", name).
				Msg("column statement is missing")
			warnings++
		}
	}
	for name := range documented {
		if _, ok := inData[name]; !ok {
			log.Warn().Str("table", FullName(def)).Str("column", name).
				Msg("data is missing")
			warnings++
		}
	}
	return warnings
}

// Write checks the frame against the definition, projects it onto the
// documented columns, and writes it with the column comments and keys the
// definition declares.
func Write(ctx context.Context, c *pgclient.Client, def Definition, f *frame.Frame, log zerolog.Logger) error {
	Check(f, def, log)

	docs := def.Columns()
	names := make([]string, len(docs))
	comments := make(map[string]string, len(docs))
	for i, doc := range docs {
		names[i] = doc.Name
		comments[doc.Name] = doc.Description
	}
	projected := f.SelectColumns(names...)
	if projected.Width() != len(docs) {
		return fmt.Errorf("factory: frame for %s misses documented columns", FullName(def))
	}

	opts := &pgclient.WriteOptions{
		PrimaryKey:     def.PrimaryKey(),
		ColumnComments: comments,
	}
	if err := c.WriteTable(ctx, projected, FullName(def), opts); err != nil {
		return err
	}

	for column, ref := range def.ForeignKeys() {
		if err := c.AddForeignKey(ctx, FullName(def), column, ref.Table, ref.Key); err != nil {
			return err
		}
	}
	return nil
}

// Read reads the defined table back, restricted to the documented columns,
// and verifies every documented column came back with its declared dtype
// position.
func Read(ctx context.Context, c *pgclient.Client, def Definition, opts *pgclient.ReadOptions) (*frame.Frame, error) {
	docs := def.Columns()
	names := make([]string, len(docs))
	for i, doc := range docs {
		names[i] = doc.Name
	}

	readOpts := pgclient.ReadOptions{}
	if opts != nil {
		readOpts = *opts
	}
	if len(readOpts.Columns) == 0 {
		readOpts.Columns = names
	}

	f, err := c.ReadTable(ctx, FullName(def), &readOpts)
	if err != nil {
		return nil, err
	}
	for _, name := range readOpts.Columns {
		if _, err := f.Col(name); err != nil {
			return nil, fmt.Errorf("factory: %s: documented column %q missing from table", FullName(def), name)
		}
	}
	return f, nil
}

// Describe renders the definition itself as a frame: one row per column
// with its name, type, and description.
func Describe(def Definition) *frame.Frame {
	out := frame.MustNew(
		frame.Column{Name: "column_name", Type: frame.String},
		frame.Column{Name: "data_type", Type: frame.String},
		frame.Column{Name: "description", Type: frame.String},
	)
	for _, doc := range def.Columns() {
		// Columns of a valid definition always append cleanly.
		_ = out.AppendRow(doc.Name, string(doc.Type), doc.Description)
	}
	return out
}
