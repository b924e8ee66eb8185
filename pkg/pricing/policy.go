package pricing

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Policy chooses between the ship-level prices of one fact and scenario.
type Policy interface {
	Name() string
	// Prefer reports whether a is strictly better than b. Null prices lose to any value.
	Prefer(a, b decimal.NullDecimal) bool
}

type lowestPolicy struct{}

func (lowestPolicy) Name() string { return "lowest" }

func (lowestPolicy) Prefer(a, b decimal.NullDecimal) bool {
	if !a.Valid {
		return false
	}
	return !b.Valid || a.Decimal.LessThan(b.Decimal)
}

type highestPolicy struct{}

func (highestPolicy) Name() string { return "highest" }

func (highestPolicy) Prefer(a, b decimal.NullDecimal) bool {
	if !a.Valid {
		return false
	}
	return !b.Valid || a.Decimal.GreaterThan(b.Decimal)
}

var (
	// Lowest applies a price cap whenever any ship of the fact is eligible for it.
	Lowest Policy = lowestPolicy{}
	// Highest values a fact at its most expensive eligible ship price.
	Highest Policy = highestPolicy{}
)

var policies = map[string]Policy{
	Lowest.Name():  Lowest,
	Highest.Name(): Highest,
}

func PolicyByName(name string) (Policy, error) {
	if p, ok := policies[name]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("unknown price policy %q (available: %v)", name, PolicyNames())
}

func PolicyNames() []string {
	names := make([]string, 0, len(policies))
	for name := range policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
