// Package typemap holds the static lookup between frame dtypes and
// PostgreSQL column types (udt names), plus its inverse.
package typemap

import "github.com/dataplumb/pgframe/frame"

var toUDT = map[frame.DType]string{
	frame.Bool:      "bool",
	frame.Int16:     "int2",
	frame.Int32:     "int4",
	frame.Int64:     "int8",
	frame.Float32:   "float4",
	frame.Float64:   "float8",
	frame.Numeric:   "numeric",
	frame.String:    "text",
	frame.Bytes:     "bytea",
	frame.Timestamp: "timestamp",
	frame.Date:      "date",
	frame.UUID:      "uuid",
}

// fromUDT is wider than the inverse of toUDT: the live schema may carry
// types the writer never produces (varchar, timestamptz, ...). Anything not
// listed here reads back as a string column.
var fromUDT = map[string]frame.DType{
	"bool":        frame.Bool,
	"int2":        frame.Int16,
	"int4":        frame.Int32,
	"int8":        frame.Int64,
	"float4":      frame.Float32,
	"float8":      frame.Float64,
	"numeric":     frame.Numeric,
	"text":        frame.String,
	"varchar":     frame.String,
	"bpchar":      frame.String,
	"name":        frame.String,
	"bytea":       frame.Bytes,
	"timestamp":   frame.Timestamp,
	"timestamptz": frame.Timestamp,
	"date":        frame.Date,
	"uuid":        frame.UUID,
}

// UDT reports the PostgreSQL column type for a dtype.
func UDT(t frame.DType) (string, bool) {
	u, ok := toUDT[t]
	return u, ok
}

// DType reports the frame dtype for a PostgreSQL udt name.
// Unknown udt names fall back to frame.String.
func DType(udt string) frame.DType {
	if t, ok := fromUDT[udt]; ok {
		return t
	}
	return frame.String
}

// Known reports whether a udt name has an exact dtype mapping.
func Known(udt string) bool {
	_, ok := fromUDT[udt]
	return ok
}
