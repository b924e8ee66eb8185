package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// Price is a precomputed price curve point for one scenario and restriction set.
type Price struct {
	Date           time.Time
	Commodity      string
	Scenario       string
	EurPerTonne    decimal.NullDecimal
	Destinations   Restriction
	DeparturePorts Restriction
	ShipOwners     Restriction
	ShipInsurers   Restriction
}

// FactKey identifies a priced fact: (trade_id, flow_id) for trades, (id, 0) otherwise.
type FactKey struct {
	ID  int64
	Sub int64
}

// Leg is the unit a price is matched against: a fact and, for seaborne facts,
// one of its ships. Insurer and Owner are empty when the fact has no ship.
type Leg struct {
	Fact        FactKey
	ShipOrder   int
	Date        time.Time
	Commodity   string
	Destination string
	Insurer     string
	Owner       string
}

// Candidate pairs a leg with a price sharing its date and pricing commodity.
type Candidate struct {
	Leg   Leg
	Price Price
}

// Matches applies the restriction predicates a price must satisfy for a leg.
func Matches(leg Leg, p Price) bool {
	return sameDay(leg.Date, p.Date) &&
		p.Commodity == leg.Commodity &&
		p.ShipInsurers.Admits(leg.Insurer) &&
		p.ShipOwners.Admits(leg.Owner) &&
		p.Destinations.Admits(leg.Destination) &&
		p.DeparturePorts.Any
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// Specificity ranks how targeted a price is: destination, then insurer, then owner.
type Specificity [3]bool

func SpecificityOf(p Price) Specificity {
	return Specificity{p.Destinations.Specific(), p.ShipInsurers.Specific(), p.ShipOwners.Specific()}
}

// Compare returns a positive number when s is more specific than o.
func (s Specificity) Compare(o Specificity) int {
	for i := range s {
		if s[i] != o[i] {
			if s[i] {
				return 1
			}
			return -1
		}
	}
	return 0
}
