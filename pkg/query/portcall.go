package query

import (
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/pkg/aggregate"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/params"
)

const (
	PortISO2   = "port_iso2"
	PortID     = "port_id"
	MoveType   = "move_type"
	LoadStatus = "load_status"
)

var (
	MoveTypes    = []string{"arrival", "departure"}
	LoadStatuses = []string{"fully_laden", "partially_laden", "in_ballast"}
)

// PortCall serves /v0/portcall: ship arrivals and departures at ports.
type PortCall struct{}

func NewPortCall() *PortCall {
	return &PortCall{}
}

func (p *PortCall) Schema() params.Schema {
	return params.Shared().With(
		isoList(PortISO2, "port country"),
		params.Spec{Name: PortID, Type: params.List, Validate: "dive,numeric", Help: "port id"},
		textList(MoveType, "arrival or departure", MoveTypes...),
		textList(LoadStatus, "load status", LoadStatuses...),
		textList(ShipIMO, "ship imo"),
	)
}

func (p *PortCall) MustGroupBy() []aggregate.Token {
	return nil
}

func (p *PortCall) fields(useEU bool) fields {
	out := fields{
		{"id", "pc.id"},
		{"date", "pc.date"},
		{"move_type", "pc.move_type"},
		{"load_status", "pc.load_status"},
		{"port_id", "po.id"},
		{"port_name", "po.name"},
	}
	out = append(out, place("port", "po.iso2", "poc", useEU)...)
	return append(out, field{"ship_imo", "pc.ship_imo"}, field{"ship_name", "sh.name"})
}

func (p *PortCall) Columns() []string {
	return p.fields(true).names()
}

func (p *PortCall) Base(values params.Values, _ *Prices) sqlbuilder.Builder {
	sb := database.NewSelectBuilder()
	sb.Select(p.fields(values.Bool(params.UseEU)).selectList(sb)...)
	sb.From("portcall pc")
	sb.Join("port po", "po.id = pc.port_id")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "country poc", "poc.iso2 = po.iso2")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "ship sh", "sh.imo = pc.ship_imo")

	applyDateRange(sb, values, "pc.date")
	applyFilters(sb, values, []Filter{
		In(PortISO2, "po.iso2"),
		In(PortID, "po.id"),
		In(MoveType, "pc.move_type"),
		In(LoadStatus, "pc.load_status"),
		In(ShipIMO, "pc.ship_imo"),
	})
	sb.OrderBy("pc.date", "pc.id")
	return sb
}
