package frame

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// DType identifies the declared type of a column.
//
// The set of eligible types is deliberately closed: every DType has exactly
// one PostgreSQL column type and one Go value representation. Values stored
// in a Frame are always in that representation (or nil for SQL NULL).
type DType string

const (
	Bool      DType = "bool"
	Int16     DType = "int16"
	Int32     DType = "int32"
	Int64     DType = "int64"
	Float32   DType = "float32"
	Float64   DType = "float64"
	Numeric   DType = "numeric"
	String    DType = "string"
	Bytes     DType = "bytes"
	Timestamp DType = "timestamp"
	Date      DType = "date"
	UUID      DType = "uuid"
)

// DTypes lists every eligible column type.
func DTypes() []DType {
	return []DType{
		Bool, Int16, Int32, Int64, Float32, Float64,
		Numeric, String, Bytes, Timestamp, Date, UUID,
	}
}

// Eligible reports whether t is one of the closed set of column types.
func (t DType) Eligible() bool {
	switch t {
	case Bool, Int16, Int32, Int64, Float32, Float64,
		Numeric, String, Bytes, Timestamp, Date, UUID:
		return true
	}
	return false
}

// Coerce converts an arbitrary Go scalar into the canonical value
// representation for this dtype. nil passes through as SQL NULL.
//
// Scalar conversion is delegated to spf13/cast for the primitive types;
// Numeric and UUID accept their own types, strings, and (for Numeric)
// numeric Go values.
func (t DType) Coerce(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch t {
	case Bool:
		return cast.ToBoolE(v)
	case Int16:
		return cast.ToInt16E(v)
	case Int32:
		return cast.ToInt32E(v)
	case Int64:
		return cast.ToInt64E(v)
	case Float32:
		return cast.ToFloat32E(v)
	case Float64:
		return cast.ToFloat64E(v)
	case Numeric:
		return coerceNumeric(v)
	case String:
		return cast.ToStringE(v)
	case Bytes:
		switch b := v.(type) {
		case []byte:
			return b, nil
		case string:
			return []byte(b), nil
		}
		return nil, fmt.Errorf("cannot coerce %T to bytes", v)
	case Timestamp:
		return cast.ToTimeE(v)
	case Date:
		ts, err := cast.ToTimeE(v)
		if err != nil {
			return nil, err
		}
		// Dates are location-naive: normalize to midnight UTC so a date
		// coerced in any zone compares equal after serialization.
		y, m, d := ts.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	case UUID:
		return coerceUUID(v)
	}
	return nil, fmt.Errorf("unknown dtype %q", t)
}

func coerceNumeric(v any) (any, error) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, nil
	case string:
		return decimal.NewFromString(n)
	case float32:
		return decimal.NewFromFloat32(n), nil
	case float64:
		return decimal.NewFromFloat(n), nil
	}
	// Fall back to the integer path for the remaining numeric kinds.
	i, err := cast.ToInt64E(v)
	if err != nil {
		return nil, fmt.Errorf("cannot coerce %T to numeric: %w", v, err)
	}
	return decimal.NewFromInt(i), nil
}

func coerceUUID(v any) (any, error) {
	switch u := v.(type) {
	case uuid.UUID:
		return u, nil
	case string:
		return uuid.Parse(u)
	case [16]byte:
		return uuid.UUID(u), nil
	case []byte:
		return uuid.FromBytes(u)
	}
	return nil, fmt.Errorf("cannot coerce %T to uuid", v)
}

// equalValue compares two canonical cell values of the same dtype.
func (t DType) equalValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch t {
	case Numeric:
		x, xok := a.(decimal.Decimal)
		y, yok := b.(decimal.Decimal)
		return xok && yok && x.Equal(y)
	case Timestamp, Date:
		x, xok := a.(time.Time)
		y, yok := b.(time.Time)
		return xok && yok && x.Equal(y)
	case Bytes:
		x, xok := a.([]byte)
		y, yok := b.([]byte)
		return xok && yok && string(x) == string(y)
	}
	return a == b
}
