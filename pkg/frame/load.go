package frame

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type cellDecoder func(src any) (any, error)

// FromRows drains rows into a frame, converting driver values into frame cells.
func FromRows(rows *sqlx.Rows) (*Frame, error) {
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read column types: %w", err)
	}

	columns := make([]string, len(types))
	decoders := make([]cellDecoder, len(types))
	for i, t := range types {
		columns[i] = t.Name()
		decoders[i] = decoderFor(t.DatabaseTypeName())
	}

	f := New(columns)
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(Row, len(columns))
		for i, v := range values {
			cell, err := decoders[i](v)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", columns[i], err)
			}
			row[columns[i]] = cell
		}
		f.Rows = append(f.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return f, nil
}

func decoderFor(databaseType string) cellDecoder {
	switch {
	case strings.HasPrefix(databaseType, "_"):
		return decodeArray
	case databaseType == "NUMERIC":
		return decodeNumeric
	case databaseType == "JSON" || databaseType == "JSONB":
		return decodeJSON
	default:
		return decodeScalar
	}
}

func decodeScalar(src any) (any, error) {
	switch v := src.(type) {
	case nil, string, float64, int64, bool:
		return v, nil
	case time.Time:
		return v.UTC(), nil
	case []byte:
		return string(v), nil
	case float32:
		return float64(v), nil
	default:
		return fmt.Sprint(v), nil
	}
}

func decodeNumeric(src any) (any, error) {
	var raw string
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return decodeScalar(src)
	}
	if raw == "NaN" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, err
	}
	f, _ := d.Float64()
	return f, nil
}

func decodeJSON(src any) (any, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		return json.RawMessage(v), nil
	case string:
		return json.RawMessage(v), nil
	default:
		return nil, fmt.Errorf("unexpected json value %T", src)
	}
}

// decodeArray turns a postgres array literal into a Tuple. NULL elements become "".
func decodeArray(src any) (any, error) {
	if src == nil {
		return nil, nil
	}
	var items []sql.NullString
	if err := (pq.GenericArray{A: &items}).Scan(src); err != nil {
		return nil, err
	}
	out := make(Tuple, len(items))
	for i, item := range items {
		if item.Valid {
			out[i] = item.String
		}
	}
	return out, nil
}
