package pricing

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/huandu/go-sqlbuilder"
	"github.com/shopspring/decimal"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Leg relations passed to CandidateQuery must expose these columns.
const (
	LegFactID      = "fact_id"
	LegFactSub     = "fact_sub"
	LegShipOrder   = "ship_order"
	LegDate        = "leg_date"
	LegCommodity   = "pricing_commodity"
	LegDestination = "destination_iso2"
	LegInsurer     = "insurer_iso2"
	LegOwner       = "owner_iso2"
)

type candidateRow struct {
	FactID         int64               `db:"fact_id"`
	FactSub        int64               `db:"fact_sub"`
	ShipOrder      int                 `db:"ship_order"`
	LegDate        time.Time           `db:"leg_date"`
	LegCommodity   string              `db:"pricing_commodity"`
	Destination    sql.NullString      `db:"destination_iso2"`
	Insurer        sql.NullString      `db:"insurer_iso2"`
	Owner          sql.NullString      `db:"owner_iso2"`
	PriceDate      time.Time           `db:"price_date"`
	PriceCommodity string              `db:"price_commodity"`
	Scenario       string              `db:"scenario"`
	EurPerTonne    decimal.NullDecimal `db:"eur_per_tonne"`
	Destinations   Restriction         `db:"destination_iso2s"`
	DeparturePorts Restriction         `db:"departure_port_ids"`
	ShipOwners     Restriction         `db:"ship_owner_iso2s"`
	ShipInsurers   Restriction         `db:"ship_insurer_iso2s"`
}

func (r candidateRow) candidate() Candidate {
	return Candidate{
		Leg: Leg{
			Fact:        FactKey{ID: r.FactID, Sub: r.FactSub},
			ShipOrder:   r.ShipOrder,
			Date:        r.LegDate,
			Commodity:   r.LegCommodity,
			Destination: r.Destination.String,
			Insurer:     r.Insurer.String,
			Owner:       r.Owner.String,
		},
		Price: Price{
			Date:           r.PriceDate,
			Commodity:      r.PriceCommodity,
			Scenario:       r.Scenario,
			EurPerTonne:    r.EurPerTonne,
			Destinations:   r.Destinations,
			DeparturePorts: r.DeparturePorts,
			ShipOwners:     r.ShipOwners,
			ShipInsurers:   r.ShipInsurers,
		},
	}
}

// CandidateQuery pairs every leg with the prices sharing its day and pricing
// commodity. Restriction predicates are left to the Selector.
func CandidateQuery(legs sqlbuilder.Builder, scenarios []string) sqlbuilder.Builder {
	sb := database.NewSelectBuilder()
	sb.Select(
		"l."+LegFactID, "l."+LegFactSub, "l."+LegShipOrder, "l."+LegDate, "l."+LegCommodity,
		"l."+LegDestination, "l."+LegInsurer, "l."+LegOwner,
		sb.As("p.date", "price_date"),
		sb.As("p.commodity", "price_commodity"),
		"p.scenario",
		"p.eur_per_tonne",
		sb.As("p.destination_iso2s::text[]", "destination_iso2s"),
		sb.As("p.departure_port_ids::text[]", "departure_port_ids"),
		sb.As("p.ship_owner_iso2s::text[]", "ship_owner_iso2s"),
		sb.As("p.ship_insurer_iso2s::text[]", "ship_insurer_iso2s"),
	)
	sb.From(sb.BuilderAs(legs, "l"))
	sb.Join("price p", "p.date = l."+LegDate+"::date", "p.commodity = l."+LegCommodity)
	if len(scenarios) > 0 {
		sb.Where(sb.In("p.scenario", sqlbuilder.Flatten(scenarios)...))
	}
	return sb
}

// LoadCandidates runs a CandidateQuery.
func LoadCandidates(ctx context.Context, q database.Querier, query sqlbuilder.Builder) ([]Candidate, error) {
	ctx, span := tracing.StartSpan(ctx, "pricing.LoadCandidates")
	defer span.End()

	sqlText, args := database.Build(query)
	var rows []candidateRow
	if err := q.SelectContext(ctx, &rows, sqlText, args...); err != nil {
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("failed to load price candidates: %w", err)
	}

	out := make([]Candidate, len(rows))
	for i, row := range rows {
		out[i] = row.candidate()
	}
	return out, nil
}
