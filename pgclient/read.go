package pgclient

import (
	"context"
	"math/big"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dataplumb/pgframe/cache"
	"github.com/dataplumb/pgframe/frame"
	"github.com/dataplumb/pgframe/internal/sqlbuild"
	"github.com/dataplumb/pgframe/internal/typemap"
	"github.com/dataplumb/pgframe/sqlerr"
	"github.com/shopspring/decimal"
)

// ReadOptions narrows a table read.
type ReadOptions struct {
	// Columns restricts the read to these columns. Names absent from the
	// live table are ignored rather than rejected.
	Columns []string
	// Where is appended verbatim as the filter clause.
	Where string
	// Limit caps the number of rows; zero means no limit.
	Limit int
	// Cache reads through the client's disk cache: a hit skips the
	// database entirely, a miss stores the result. No-op when the client
	// has no cache attached.
	Cache bool
}

// ReadTable reads a table (or a column/row subset of it) into a frame.
func (c *Client) ReadTable(ctx context.Context, table string, opts *ReadOptions) (*frame.Frame, error) {
	if opts == nil {
		opts = &ReadOptions{}
	}
	table = sqlbuild.Qualify(table)
	defer c.timed("read_table", table)()

	var key string
	if opts.Cache && c.cache != nil {
		key = cache.Key(table, opts.Columns, opts.Where, opts.Limit)
		if f, ok, err := c.cache.Read(key); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		} else if ok {
			c.log.Debug().Str("key", key).Msg("cache hit")
			return f, nil
		}
	}

	dtypes, err := c.Dtypes(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(dtypes) == 0 {
		return nil, &sqlerr.Error{
			Code:         sqlerr.UndefinedTable,
			Severity:     sqlerr.SeverityError,
			DatabaseCode: "42P01",
			Message:      "relation " + table + " does not exist",
			TableName:    table,
		}
	}

	selected := selectColumns(dtypes, opts.Columns)
	cols := make([]frame.Column, len(selected))
	names := make([]string, len(selected))
	for i, ct := range selected {
		cols[i] = frame.Column{Name: ct.Name, Type: ct.DType}
		names[i] = ct.Name
		if !typemap.Known(ct.UDT) {
			c.log.Warn().Str("table", table).Str("column", ct.Name).Str("udt", ct.UDT).
				Msg("column type has no exact mapping, reading as string")
		}
	}
	f, err := frame.New(cols...)
	if err != nil {
		return nil, err
	}

	rows, err := c.query(ctx, sqlbuild.Select(table, names, opts.Where, opts.Limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, sqlerr.Normalize(err)
		}
		for i, v := range vals {
			vals[i] = normalizeDBValue(v)
		}
		if err := f.AppendRow(vals...); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, sqlerr.Normalize(err)
	}

	if key != "" {
		if err := c.cache.Write(key, f); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
		}
	}
	return f, nil
}

// selectColumns keeps the requested columns in request order, dropping
// names the table does not have. An empty request selects everything.
func selectColumns(live []ColumnType, requested []string) []ColumnType {
	if len(requested) == 0 {
		return live
	}
	byName := make(map[string]ColumnType, len(live))
	for _, ct := range live {
		byName[ct.Name] = ct
	}
	var out []ColumnType
	seen := make(map[string]struct{}, len(requested))
	for _, name := range requested {
		ct, ok := byName[strings.ToLower(name)]
		if !ok {
			continue
		}
		if _, dup := seen[ct.Name]; dup {
			continue
		}
		seen[ct.Name] = struct{}{}
		out = append(out, ct)
	}
	return out
}

// normalizeDBValue converts driver-specific scan types into values the
// frame coercion accepts.
func normalizeDBValue(v any) any {
	switch n := v.(type) {
	case pgtype.Numeric:
		if !n.Valid {
			return nil
		}
		if n.Int == nil {
			return nil
		}
		return decimal.NewFromBigInt(new(big.Int).Set(n.Int), n.Exp)
	case [16]byte:
		return n // frame coerces to uuid.UUID
	}
	return v
}
