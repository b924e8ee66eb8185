// Package frame holds the tabular result a query returns and the
// post-processor reshapes. Cells are nil, string, float64, int64, bool,
// time.Time, Tuple or json.RawMessage.
package frame

import (
	"encoding/json"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Tuple is a list-valued cell (e.g. ship_owner_names). It keeps vessel order
// and compares by Key so list facets group without a hash/unhash round trip.
type Tuple []string

func (t Tuple) Key() string {
	return strings.Join(t, "\x1f")
}

type Row map[string]any

type Frame struct {
	Columns []string
	Rows    []Row
}

func New(columns []string, rows ...Row) *Frame {
	return &Frame{Columns: slices.Clone(columns), Rows: rows}
}

func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Rows)
}

func (f *Frame) Empty() bool {
	return f.Len() == 0
}

func (f *Frame) Has(column string) bool {
	return slices.Contains(f.Columns, column)
}

// Clone copies the frame and every row map; cell values are shared.
func (f *Frame) Clone() *Frame {
	rows := make([]Row, len(f.Rows))
	for i, row := range f.Rows {
		copied := make(Row, len(row))
		for k, v := range row {
			copied[k] = v
		}
		rows[i] = copied
	}
	return &Frame{Columns: slices.Clone(f.Columns), Rows: rows}
}

// Filter returns the rows for which keep is true. Rows are shared.
func (f *Frame) Filter(keep func(Row) bool) *Frame {
	out := &Frame{Columns: slices.Clone(f.Columns)}
	for _, row := range f.Rows {
		if keep(row) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// Present returns the columns from candidates that exist in the frame, in candidate order.
func (f *Frame) Present(candidates ...string) []string {
	var out []string
	for _, c := range candidates {
		if f.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// ColumnsWhere returns frame columns matching pred, in frame order.
func (f *Frame) ColumnsWhere(pred func(string) bool) []string {
	var out []string
	for _, c := range f.Columns {
		if pred(c) {
			out = append(out, c)
		}
	}
	return out
}

// NumericColumns returns the columns whose non-null cells are all numbers and
// which hold at least one number.
func (f *Frame) NumericColumns() []string {
	var out []string
	for _, c := range f.Columns {
		seen := false
		numeric := true
		for _, row := range f.Rows {
			v := row[c]
			if v == nil {
				continue
			}
			if _, ok := Float(v); !ok {
				numeric = false
				break
			}
			seen = true
		}
		if seen && numeric {
			out = append(out, c)
		}
	}
	return out
}

// IsValueColumn reports whether column carries a summable measure.
func IsValueColumn(column string) bool {
	return strings.HasPrefix(column, "value_")
}

// IsDateColumn reports whether column carries a (possibly truncated) date.
func IsDateColumn(column string) bool {
	return IsDailyDateColumn(column) || strings.HasSuffix(column, "_month") || strings.HasSuffix(column, "_year")
}

// IsDailyDateColumn reports whether column carries a day-resolution date.
func IsDailyDateColumn(column string) bool {
	return column == "date" || strings.HasSuffix(column, "_date")
}

// Float converts a numeric cell. NaN and infinities count as missing.
func Float(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case float32:
		return Float(float64(n))
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	default:
		return 0, false
	}
}

// Key encodes the given cells of row into a string usable as a map key.
// Values of different types never collide.
func Key(row Row, columns []string) string {
	var b strings.Builder
	for i, c := range columns {
		if i > 0 {
			b.WriteByte('\x1e')
		}
		writeKeyCell(&b, row[c])
	}
	return b.String()
}

func writeKeyCell(b *strings.Builder, v any) {
	switch x := v.(type) {
	case nil:
		b.WriteString("n:")
	case string:
		b.WriteString("s:")
		b.WriteString(x)
	case Tuple:
		b.WriteString("t:")
		b.WriteString(x.Key())
	case []string:
		b.WriteString("t:")
		b.WriteString(Tuple(x).Key())
	case time.Time:
		b.WriteString("d:")
		b.WriteString(x.UTC().Format(time.RFC3339Nano))
	case bool:
		b.WriteString("b:")
		b.WriteString(strconv.FormatBool(x))
	case json.RawMessage:
		b.WriteString("j:")
		b.Write(x)
	default:
		if f, ok := Float(x); ok {
			b.WriteString("f:")
			b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
			return
		}
		b.WriteString("f:NaN")
	}
}

// Compare orders two cells: nulls last, then numbers, times, strings and tuples by natural order.
func Compare(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return 1
		default:
			return -1
		}
	}

	if fa, ok := Float(a); ok {
		if fb, ok := Float(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			default:
				return 0
			}
		}
	}

	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}

	return strings.Compare(String(a), String(b))
}

// String renders a cell as text. Lists join with commas; nulls become the empty string.
func String(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case Tuple:
		return strings.Join(x, ",")
	case []string:
		return strings.Join(x, ",")
	case time.Time:
		return FormatTime(x)
	case bool:
		return strconv.FormatBool(x)
	case json.RawMessage:
		return string(x)
	default:
		if f, ok := Float(x); ok {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return ""
	}
}

// FormatTime renders dates without a clock as YYYY-MM-DD and timestamps as RFC 3339.
func FormatTime(t time.Time) string {
	t = t.UTC()
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339)
}
