package cache

import (
	"bufio"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dataplumb/pgframe/frame"
)

// Entry layout: one JSON line holding the column schema, then CSV rows.
// NULL cells are written as the COPY text sentinel `\N` so they stay
// distinguishable from empty strings. As in COPY text, backslashes in
// string cells are doubled so a literal `\N` value never reads back as
// NULL.

const nullSentinel = `\N`

type header struct {
	Columns []frame.Column `json:"columns"`
}

func encode(w io.Writer, f *frame.Frame) error {
	bw := bufio.NewWriter(w)
	hdr, err := json.Marshal(header{Columns: f.Columns()})
	if err != nil {
		return err
	}
	bw.Write(hdr)
	bw.WriteByte('\n')

	cw := csv.NewWriter(bw)
	cols := f.Columns()
	record := make([]string, len(cols))
	for i := 0; i < f.Len(); i++ {
		row := f.Row(i)
		for j, c := range cols {
			record[j], err = encodeValue(c.Type, row[j])
			if err != nil {
				return fmt.Errorf("row %d column %q: %w", i, c.Name, err)
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return bw.Flush()
}

func decode(r io.Reader) (*frame.Frame, error) {
	br := bufio.NewReader(r)
	line, err := br.ReadBytes('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}
	var hdr header
	if err := json.Unmarshal(line, &hdr); err != nil {
		return nil, fmt.Errorf("parsing schema header: %w", err)
	}
	f, err := frame.New(hdr.Columns...)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = len(hdr.Columns)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		vals := make([]any, len(record))
		for j, s := range record {
			vals[j], err = decodeValue(hdr.Columns[j].Type, s)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", hdr.Columns[j].Name, err)
			}
		}
		if err := f.AppendRow(vals...); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func encodeValue(t frame.DType, v any) (string, error) {
	if v == nil {
		return nullSentinel, nil
	}
	switch t {
	case frame.Bool:
		if v.(bool) {
			return "t", nil
		}
		return "f", nil
	case frame.Int16:
		return strconv.FormatInt(int64(v.(int16)), 10), nil
	case frame.Int32:
		return strconv.FormatInt(int64(v.(int32)), 10), nil
	case frame.Int64:
		return strconv.FormatInt(v.(int64), 10), nil
	case frame.Float32:
		return strconv.FormatFloat(float64(v.(float32)), 'g', -1, 32), nil
	case frame.Float64:
		return strconv.FormatFloat(v.(float64), 'g', -1, 64), nil
	case frame.Numeric:
		return v.(decimal.Decimal).String(), nil
	case frame.String:
		return strings.ReplaceAll(v.(string), `\`, `\\`), nil
	case frame.Bytes:
		return `\x` + hex.EncodeToString(v.([]byte)), nil
	case frame.Timestamp:
		return v.(time.Time).Format(time.RFC3339Nano), nil
	case frame.Date:
		return v.(time.Time).Format("2006-01-02"), nil
	case frame.UUID:
		return v.(uuid.UUID).String(), nil
	}
	return "", fmt.Errorf("unknown dtype %q", t)
}

func decodeValue(t frame.DType, s string) (any, error) {
	if s == nullSentinel {
		return nil, nil
	}
	switch t {
	case frame.Bool:
		return s == "t", nil
	case frame.Int16, frame.Int32, frame.Int64, frame.Float32, frame.Float64,
		frame.Numeric, frame.UUID:
		// Coerce handles the string forms of these types directly.
		return t.Coerce(s)
	case frame.String:
		return strings.ReplaceAll(s, `\\`, `\`), nil
	case frame.Bytes:
		if len(s) >= 2 && s[0] == '\\' && s[1] == 'x' {
			return hex.DecodeString(s[2:])
		}
		return []byte(s), nil
	case frame.Timestamp:
		return time.Parse(time.RFC3339Nano, s)
	case frame.Date:
		return time.Parse("2006-01-02", s)
	}
	return nil, fmt.Errorf("unknown dtype %q", t)
}
