package response

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"math"
	"time"

	"github.com/Ramsey-B/fern/pkg/frame"
)

// cellJSON normalises a cell for JSON: dates as ISO-8601 text, NaN as null.
func cellJSON(v any) ([]byte, error) {
	switch x := v.(type) {
	case nil:
		return []byte("null"), nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return []byte("null"), nil
		}
	case time.Time:
		return json.Marshal(frame.FormatTime(x))
	case frame.Tuple:
		return json.Marshal([]string(x))
	case json.RawMessage:
		if len(x) == 0 {
			return []byte("null"), nil
		}
		return x, nil
	}
	return json.Marshal(v)
}

// writeObject writes the row as a JSON object keeping column order.
func writeObject(buf *bytes.Buffer, row frame.Row, columns []string) error {
	buf.WriteByte('{')
	for i, c := range columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := cellJSON(row[c])
		if err != nil {
			return err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return nil
}

func encodeJSON(f *frame.Frame, nest bool) ([]byte, error) {
	var buf bytes.Buffer
	if nest {
		buf.WriteString(`{"data":`)
	}
	buf.WriteByte('[')
	for i, row := range f.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeObject(&buf, row, f.Columns); err != nil {
			return nil, err
		}
	}
	buf.WriteByte(']')
	if nest {
		buf.WriteByte('}')
	}
	return buf.Bytes(), nil
}

func encodeCSV(f *frame.Frame) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(f.Columns); err != nil {
		return nil, err
	}
	record := make([]string, len(f.Columns))
	for _, row := range f.Rows {
		for i, c := range f.Columns {
			record[i] = frame.String(row[c])
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// encodeGeoJSON wraps every row in a Feature whose geometry is the geometry
// column and whose properties are the remaining columns.
func encodeGeoJSON(f *frame.Frame) ([]byte, error) {
	properties := f.ColumnsWhere(func(c string) bool { return c != GeometryColumn })

	var buf bytes.Buffer
	buf.WriteString(`{"type":"FeatureCollection","features":[`)
	for i, row := range f.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		geometry, err := cellJSON(row[GeometryColumn])
		if err != nil {
			return nil, err
		}
		buf.WriteString(`{"type":"Feature","geometry":`)
		buf.Write(geometry)
		buf.WriteString(`,"properties":`)
		if err := writeObject(&buf, row, properties); err != nil {
			return nil, err
		}
		buf.WriteByte('}')
	}
	buf.WriteString("]}")
	return buf.Bytes(), nil
}
