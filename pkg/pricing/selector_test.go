package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/database"
)

var day = time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC)

func eur(v string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(v))
}

func price(scenario, value string, mods ...func(*Price)) Price {
	p := Price{
		Date:           day,
		Commodity:      "crude_oil_urals",
		Scenario:       scenario,
		EurPerTonne:    eur(value),
		Destinations:   AnyValue(),
		DeparturePorts: AnyValue(),
		ShipOwners:     AnyValue(),
		ShipInsurers:   AnyValue(),
	}
	for _, mod := range mods {
		mod(&p)
	}
	return p
}

func leg(id int64, ship int, insurer, owner, destination string) Leg {
	return Leg{
		Fact:        FactKey{ID: id, Sub: 1},
		ShipOrder:   ship,
		Date:        day.Add(7 * time.Hour),
		Commodity:   "crude_oil_urals",
		Destination: destination,
		Insurer:     insurer,
		Owner:       owner,
	}
}

func TestRestriction_Admits(t *testing.T) {
	assert.True(t, AnyValue().Admits("GB"))
	assert.True(t, AnyValue().Admits(""))
	assert.True(t, Only("GB", "NO").Admits("GB"))
	assert.False(t, Only("GB", "NO").Admits("RU"))
	assert.False(t, Only("GB").Admits(""), "missing attributes only pass the sentinel")
}

func TestRestriction_Scan(t *testing.T) {
	var r Restriction
	require.NoError(t, r.Scan([]byte("{NULL}")))
	assert.True(t, r.Any)

	require.NoError(t, r.Scan([]byte("{GB,NO}")))
	assert.False(t, r.Any)
	assert.Equal(t, []string{"GB", "NO"}, r.Values)

	require.NoError(t, r.Scan([]byte("{1234,5678}")))
	assert.Equal(t, []string{"1234", "5678"}, r.Values)

	require.NoError(t, r.Scan(nil))
	assert.False(t, r.Any)
	assert.False(t, r.Admits("GB"), "SQL NULL is an empty allow-list, not the sentinel")
}

func TestRestriction_Value(t *testing.T) {
	v, err := AnyValue().Value()
	require.NoError(t, err)
	assert.Equal(t, AnySentinel, v)

	v, err = Only("GB").Value()
	require.NoError(t, err)
	assert.Equal(t, `{"GB"}`, v)
	assert.Equal(t, []string{}, AnyValue().List())
}

func TestMatches(t *testing.T) {
	l := leg(1, 1, "GB", "GR", "IN")

	assert.True(t, Matches(l, price("default", "500")))
	assert.False(t, Matches(l, price("default", "500", func(p *Price) { p.Date = day.AddDate(0, 0, 1) })))
	assert.False(t, Matches(l, price("default", "500", func(p *Price) { p.Commodity = "crude_oil_espo" })))
	assert.False(t, Matches(l, price("default", "500", func(p *Price) { p.ShipInsurers = Only("NO") })))
	assert.True(t, Matches(l, price("default", "500", func(p *Price) { p.ShipInsurers = Only("GB", "NO") })))
	assert.False(t, Matches(l, price("default", "500", func(p *Price) { p.ShipOwners = Only("NO") })))
	assert.False(t, Matches(l, price("default", "500", func(p *Price) { p.Destinations = Only("CN") })))
	assert.False(t, Matches(l, price("default", "500", func(p *Price) { p.DeparturePorts = Only("42") })),
		"port-restricted prices never apply")
}

func TestSpecificity(t *testing.T) {
	dest := SpecificityOf(price("x", "1", func(p *Price) { p.Destinations = Only("IN") }))
	insurer := SpecificityOf(price("x", "1", func(p *Price) { p.ShipInsurers = Only("GB") }))
	owner := SpecificityOf(price("x", "1", func(p *Price) { p.ShipOwners = Only("GR") }))
	generic := SpecificityOf(price("x", "1"))

	assert.Positive(t, dest.Compare(insurer))
	assert.Positive(t, insurer.Compare(owner))
	assert.Positive(t, owner.Compare(generic))
	assert.Zero(t, generic.Compare(generic))
	assert.Negative(t, generic.Compare(dest))
}

func TestSelector_MostSpecificPerShip(t *testing.T) {
	l := leg(42, 1, "GB", "GR", "IN")
	candidates := []Candidate{
		{Leg: l, Price: price("pricecap", "300")},
		{Leg: l, Price: price("pricecap", "450", func(p *Price) { p.ShipInsurers = Only("GB", "NO") })},
		{Leg: l, Price: price("pricecap", "999", func(p *Price) { p.ShipInsurers = Only("RU") })},
	}

	choices := NewSelector(Lowest).Select(candidates)
	require.Len(t, choices, 1)
	assert.Equal(t, "450", choices[0].Price.EurPerTonne.Decimal.String(),
		"the insurer-restricted price is more specific than the generic one even though it is higher")
}

func TestSelector_LowestAcrossShips(t *testing.T) {
	capped := func(p *Price) { p.ShipInsurers = Only("GB") }
	candidates := []Candidate{
		{Leg: leg(42, 1, "RU", "RU", "IN"), Price: price("pricecap", "500")},
		{Leg: leg(42, 2, "GB", "GR", "IN"), Price: price("pricecap", "500")},
		{Leg: leg(42, 2, "GB", "GR", "IN"), Price: price("pricecap", "400", capped)},
	}

	choices := NewSelector(Lowest).Select(candidates)
	require.Len(t, choices, 1)
	assert.Equal(t, 2, choices[0].ShipOrder)
	assert.Equal(t, "400", choices[0].Price.EurPerTonne.Decimal.String())

	choices = NewSelector(Highest).Select(candidates)
	require.Len(t, choices, 1)
	assert.Equal(t, "500", choices[0].Price.EurPerTonne.Decimal.String())
	assert.Equal(t, 1, choices[0].ShipOrder, "ties keep the first ship")
}

func TestSelector_NullPricesLast(t *testing.T) {
	candidates := []Candidate{
		{Leg: leg(7, 1, "", "", "CN"), Price: price("default", "0", func(p *Price) { p.EurPerTonne = decimal.NullDecimal{} })},
		{Leg: leg(7, 2, "", "", "CN"), Price: price("default", "610")},
	}

	choices := NewSelector(Lowest).Select(candidates)
	require.Len(t, choices, 1)
	assert.True(t, choices[0].Price.EurPerTonne.Valid)
	assert.Equal(t, "610", choices[0].Price.EurPerTonne.Decimal.String())
}

func TestSelector_OnePerScenarioAndChosenPricesMatch(t *testing.T) {
	l1 := leg(1, 1, "GB", "GR", "IN")
	l2 := leg(2, 1, "unknown", "unknown", "")
	candidates := []Candidate{
		{Leg: l1, Price: price("default", "500")},
		{Leg: l1, Price: price("pricecap", "420", func(p *Price) { p.ShipInsurers = Only("GB") })},
		{Leg: l1, Price: price("pricecap", "500")},
		{Leg: l2, Price: price("default", "500")},
		{Leg: l2, Price: price("pricecap", "420", func(p *Price) { p.ShipInsurers = Only("GB") })},
		{Leg: l2, Price: price("pricecap", "500", func(p *Price) { p.Destinations = Only("IN") })},
	}

	choices := NewSelector(Lowest).Select(candidates)
	require.Len(t, choices, 3)

	byKey := map[Key]Choice{}
	for _, c := range choices {
		_, dup := byKey[c.Key]
		require.False(t, dup)
		byKey[c.Key] = c
	}

	assert.Equal(t, "420", byKey[Key{Fact: FactKey{1, 1}, Scenario: "pricecap"}].Price.EurPerTonne.Decimal.String())
	assert.Equal(t, "500", byKey[Key{Fact: FactKey{1, 1}, Scenario: "default"}].Price.EurPerTonne.Decimal.String())
	_, ok := byKey[Key{Fact: FactKey{2, 1}, Scenario: "pricecap"}]
	assert.False(t, ok, "no pricecap price admits an unknown insurer and destination")

	legs := map[FactKey]Leg{{1, 1}: l1, {2, 1}: l2}
	for _, c := range choices {
		assert.True(t, Matches(legs[c.Key.Fact], c.Price))
	}

	assert.Equal(t, FactKey{1, 1}, choices[0].Key.Fact)
	assert.Equal(t, "default", choices[0].Key.Scenario)
}

func TestPolicyByName(t *testing.T) {
	p, err := PolicyByName("lowest")
	require.NoError(t, err)
	assert.Equal(t, Lowest, p)

	_, err = PolicyByName("median")
	assert.ErrorContains(t, err, "unknown price policy")
	assert.Equal(t, []string{"highest", "lowest"}, PolicyNames())
}

func TestCandidateQuery(t *testing.T) {
	legs := database.NewSelectBuilder()
	legs.Select("*").From("legs")
	legs.Where(legs.Equal("kind", "seaborne"))

	query, args := database.Build(CandidateQuery(legs, []string{"default", "pricecap"}))
	assert.Contains(t, query, "FROM (SELECT * FROM legs WHERE kind = $1) AS l")
	assert.Contains(t, query, "JOIN price p ON p.date = l.leg_date::date AND p.commodity = l.pricing_commodity")
	assert.Contains(t, query, "p.scenario IN ($2, $3)")
	assert.Contains(t, query, "p.ship_insurer_iso2s::text[] AS ship_insurer_iso2s")
	assert.Equal(t, []any{"seaborne", "default", "pricecap"}, args)
}
