package pricing

import (
	"cmp"
	"slices"
)

// Key identifies a selection: one price per fact and scenario.
type Key struct {
	Fact     FactKey
	Scenario string
}

// Choice is the price selected for a fact under a scenario.
type Choice struct {
	Key       Key
	ShipOrder int
	Price     Price
}

type shipKey struct {
	Fact      FactKey
	ShipOrder int
	Scenario  string
}

// Selector picks, per (fact, ship, scenario), the most specific matching
// price and then, per (fact, scenario), the ship price preferred by its policy.
type Selector struct {
	policy Policy
}

func NewSelector(policy Policy) *Selector {
	if policy == nil {
		policy = Lowest
	}
	return &Selector{policy: policy}
}

func (s *Selector) Policy() Policy {
	return s.policy
}

// Select returns one choice per (fact, scenario) that has at least one
// matching price, ordered by fact then scenario.
func (s *Selector) Select(candidates []Candidate) []Choice {
	ships := map[shipKey]Choice{}
	var shipOrder []shipKey

	for _, c := range candidates {
		if !Matches(c.Leg, c.Price) {
			continue
		}
		key := shipKey{Fact: c.Leg.Fact, ShipOrder: c.Leg.ShipOrder, Scenario: c.Price.Scenario}
		current, seen := ships[key]
		if !seen {
			shipOrder = append(shipOrder, key)
			ships[key] = Choice{Key: Key{Fact: c.Leg.Fact, Scenario: c.Price.Scenario}, ShipOrder: c.Leg.ShipOrder, Price: c.Price}
			continue
		}
		if s.moreSpecific(c.Price, current.Price) {
			current.Price = c.Price
			ships[key] = current
		}
	}

	facts := map[Key]Choice{}
	for _, key := range shipOrder {
		pick := ships[key]
		current, seen := facts[pick.Key]
		if !seen || s.policy.Prefer(pick.Price.EurPerTonne, current.Price.EurPerTonne) ||
			(samePrice(pick.Price, current.Price) && pick.ShipOrder < current.ShipOrder) {
			facts[pick.Key] = pick
		}
	}

	out := make([]Choice, 0, len(facts))
	for _, choice := range facts {
		out = append(out, choice)
	}
	slices.SortFunc(out, func(a, b Choice) int {
		return cmp.Or(
			cmp.Compare(a.Key.Fact.ID, b.Key.Fact.ID),
			cmp.Compare(a.Key.Fact.Sub, b.Key.Fact.Sub),
			cmp.Compare(a.Key.Scenario, b.Key.Scenario),
		)
	})
	return out
}

// moreSpecific breaks ties between prices matching the same ship: the higher
// specificity wins, then the policy's preference.
func (s *Selector) moreSpecific(a, b Price) bool {
	if c := SpecificityOf(a).Compare(SpecificityOf(b)); c != 0 {
		return c > 0
	}
	return s.policy.Prefer(a.EurPerTonne, b.EurPerTonne)
}

func samePrice(a, b Price) bool {
	if a.EurPerTonne.Valid != b.EurPerTonne.Valid {
		return false
	}
	return !a.EurPerTonne.Valid || a.EurPerTonne.Decimal.Equal(b.EurPerTonne.Decimal)
}
