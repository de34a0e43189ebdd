// Package frame provides the in-memory tabular value exchanged with the
// database: an ordered set of named, typed columns plus rows of cells.
//
// A Frame is the transient mirror of a relational table. It enforces two
// invariants the database side relies on:
//   - column names are normalized to lower case on construction
//   - every cell holds the canonical Go representation of its column's
//     DType, or nil for SQL NULL
package frame

import (
	"fmt"
	"strings"
)

// Column describes a single named, typed column.
type Column struct {
	Name string
	Type DType
}

// Frame is a rows × columns labeled table.
//
// The zero value is not usable; construct with New.
type Frame struct {
	cols []Column
	rows [][]any
}

// New builds an empty frame with the given columns.
//
// Column names are lowercased. Duplicate names and non-eligible dtypes are
// rejected, since both would be silently destructive at write time.
func New(cols ...Column) (*Frame, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("frame: at least one column is required")
	}
	seen := make(map[string]struct{}, len(cols))
	normalized := make([]Column, len(cols))
	for i, c := range cols {
		name := strings.ToLower(strings.TrimSpace(c.Name))
		if name == "" {
			return nil, fmt.Errorf("frame: column %d has an empty name", i)
		}
		if !c.Type.Eligible() {
			return nil, fmt.Errorf("frame: column %q has non-eligible dtype %q", name, c.Type)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("frame: duplicate column %q", name)
		}
		seen[name] = struct{}{}
		normalized[i] = Column{Name: name, Type: c.Type}
	}
	return &Frame{cols: normalized}, nil
}

// MustNew is New for statically known column sets; it panics on error.
func MustNew(cols ...Column) *Frame {
	f, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return f
}

// AppendRow coerces vals into the column dtypes and appends them as a row.
func (f *Frame) AppendRow(vals ...any) error {
	if len(vals) != len(f.cols) {
		return fmt.Errorf("frame: row has %d values, frame has %d columns", len(vals), len(f.cols))
	}
	row := make([]any, len(vals))
	for i, v := range vals {
		cv, err := f.cols[i].Type.Coerce(v)
		if err != nil {
			return fmt.Errorf("frame: column %q: %w", f.cols[i].Name, err)
		}
		row[i] = cv
	}
	f.rows = append(f.rows, row)
	return nil
}

// Len reports the number of rows.
func (f *Frame) Len() int { return len(f.rows) }

// Width reports the number of columns.
func (f *Frame) Width() int { return len(f.cols) }

// Shape reports (rows, columns).
func (f *Frame) Shape() (int, int) { return len(f.rows), len(f.cols) }

// Columns returns a copy of the column definitions.
func (f *Frame) Columns() []Column {
	out := make([]Column, len(f.cols))
	copy(out, f.cols)
	return out
}

// Names returns the column names in order.
func (f *Frame) Names() []string {
	out := make([]string, len(f.cols))
	for i, c := range f.cols {
		out[i] = c.Name
	}
	return out
}

// Row returns the i-th row. The slice is shared, not copied.
func (f *Frame) Row(i int) []any { return f.rows[i] }

// index reports the position of a column, or -1.
func (f *Frame) index(name string) int {
	name = strings.ToLower(name)
	for i, c := range f.cols {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Col returns all values of a named column.
func (f *Frame) Col(name string) ([]any, error) {
	i := f.index(name)
	if i < 0 {
		return nil, fmt.Errorf("frame: no column %q", name)
	}
	out := make([]any, len(f.rows))
	for r, row := range f.rows {
		out[r] = row[i]
	}
	return out, nil
}

// Value returns the cell at row i of a named column.
func (f *Frame) Value(i int, name string) (any, error) {
	c := f.index(name)
	if c < 0 {
		return nil, fmt.Errorf("frame: no column %q", name)
	}
	if i < 0 || i >= len(f.rows) {
		return nil, fmt.Errorf("frame: row %d out of range", i)
	}
	return f.rows[i][c], nil
}

// SelectColumns projects the frame onto the named columns, in the order
// given. Names that do not exist are silently dropped, matching the read
// path's tolerance for misspelled column requests.
func (f *Frame) SelectColumns(names ...string) *Frame {
	idx := make([]int, 0, len(names))
	cols := make([]Column, 0, len(names))
	seen := make(map[int]struct{})
	for _, n := range names {
		i := f.index(n)
		if i < 0 {
			continue
		}
		if _, dup := seen[i]; dup {
			continue
		}
		seen[i] = struct{}{}
		idx = append(idx, i)
		cols = append(cols, f.cols[i])
	}
	out := &Frame{cols: cols, rows: make([][]any, len(f.rows))}
	for r, row := range f.rows {
		sel := make([]any, len(idx))
		for j, i := range idx {
			sel[j] = row[i]
		}
		out.rows[r] = sel
	}
	return out
}

// RenameColumn renames a column in place.
func (f *Frame) RenameColumn(old, name string) error {
	i := f.index(old)
	if i < 0 {
		return fmt.Errorf("frame: no column %q", old)
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return fmt.Errorf("frame: new column name is empty")
	}
	if j := f.index(name); j >= 0 && j != i {
		return fmt.Errorf("frame: column %q already exists", name)
	}
	f.cols[i].Name = name
	return nil
}

// Equal reports whether two frames have identical columns and cell values.
func (f *Frame) Equal(other *Frame) bool {
	if other == nil || len(f.cols) != len(other.cols) || len(f.rows) != len(other.rows) {
		return false
	}
	for i, c := range f.cols {
		if other.cols[i] != c {
			return false
		}
	}
	for r, row := range f.rows {
		for i, v := range row {
			if !f.cols[i].Type.equalValue(v, other.rows[r][i]) {
				return false
			}
		}
	}
	return true
}
