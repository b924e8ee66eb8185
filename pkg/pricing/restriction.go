package pricing

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"slices"

	"github.com/lib/pq"
)

// AnySentinel is the stored value of a restriction column that applies to any
// value: a one-element array holding NULL. It is not SQL NULL.
const AnySentinel = "{NULL}"

// Restriction is one of a price's allow-list columns.
type Restriction struct {
	Any    bool
	Values []string
}

func AnyValue() Restriction {
	return Restriction{Any: true}
}

func Only(values ...string) Restriction {
	return Restriction{Values: values}
}

// Admits reports whether a fact attribute satisfies the restriction. An empty
// attribute (no ship, unknown destination) only passes the sentinel.
func (r Restriction) Admits(value string) bool {
	if r.Any {
		return true
	}
	return value != "" && slices.Contains(r.Values, value)
}

// Specific reports whether the restriction is an explicit allow-list.
func (r Restriction) Specific() bool {
	return !r.Any
}

// Scan reads text and integer arrays; integer columns should be cast to text[] in SQL.
func (r *Restriction) Scan(src any) error {
	*r = Restriction{}
	if src == nil {
		return nil
	}

	var items []sql.NullString
	if err := (pq.GenericArray{A: &items}).Scan(src); err != nil {
		return fmt.Errorf("restriction: %w", err)
	}
	if len(items) == 1 && !items[0].Valid {
		r.Any = true
		return nil
	}
	for _, item := range items {
		if item.Valid {
			r.Values = append(r.Values, item.String)
		}
	}
	return nil
}

func (r Restriction) Value() (driver.Value, error) {
	if r.Any {
		return AnySentinel, nil
	}
	return pq.StringArray(r.Values).Value()
}

// List renders the restriction for output; the sentinel becomes an empty list.
func (r Restriction) List() []string {
	if r.Any {
		return []string{}
	}
	return slices.Clone(r.Values)
}
