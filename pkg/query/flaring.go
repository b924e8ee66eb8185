package query

import (
	"fmt"
	"os"

	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/pkg/aggregate"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/params"
)

const (
	ISO2         = "iso2"
	FacilityType = "facility_type"
	FacilityID   = "facility_id"
)

// Flaring serves /v0/flaring: satellite-observed gas flaring per facility.
// Rows carry the facility's GeoJSON geometry for format=geojson.
type Flaring struct{}

func NewFlaring() *Flaring {
	return &Flaring{}
}

func (f *Flaring) Schema() params.Schema {
	return params.Shared().With(
		params.Spec{Name: params.PivotValue, Type: params.List, Default: []string{"value_m3"}, Help: "value columns to pivot"},
		isoList(ISO2, "facility country"),
		textList(FacilityType, "facility type"),
		params.Spec{Name: FacilityID, Type: params.List, Validate: "dive,numeric", Help: "facility id"},
	)
}

func (f *Flaring) MustGroupBy() []aggregate.Token {
	return nil
}

func (f *Flaring) fields(useEU bool) fields {
	return fields{
		{"date", "fl.date"},
		{"facility_id", "fa.id"},
		{"facility_name", "fa.name"},
		{"facility_type", "fa.type"},
		{"iso2", "fa.iso2"},
		{"country", "fc.name"},
		{"region", regionExpr("fc", useEU)},
		{"geometry", "fa.geometry"},
		{"value_m3", "fl.value_m3"},
	}
}

func (f *Flaring) Columns() []string {
	return f.fields(true).names()
}

func (f *Flaring) Base(values params.Values, _ *Prices) sqlbuilder.Builder {
	sb := database.NewSelectBuilder()
	sb.Select(f.fields(values.Bool(params.UseEU)).selectList(sb)...)
	sb.From("flaring fl")
	sb.Join("flaring_facility fa", "fa.id = fl.facility_id")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "country fc", "fc.iso2 = fa.iso2")

	applyDateRange(sb, values, "fl.date")
	applyFilters(sb, values, []Filter{
		In(ISO2, "fa.iso2"),
		In(FacilityType, "fa.type"),
		In(FacilityID, "fa.id"),
	})
	sb.OrderBy("fl.date", "fa.id")
	return sb
}

// FlaringAnomaly serves /v0/flaring_anomaly from a maintained SQL file. The
// file references ${date_from} and ${date_to}.
type FlaringAnomaly struct {
	sql string
}

var flaringAnomalyColumns = []string{
	"date", "facility_id", "facility_name", "facility_type", "iso2", "country", "value_m3", "baseline_m3", "anomaly",
}

// LoadFlaringAnomaly reads the anomaly query from path.
func LoadFlaringAnomaly(path string) (*FlaringAnomaly, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read flaring anomaly query: %w", err)
	}
	return NewFlaringAnomaly(string(content)), nil
}

func NewFlaringAnomaly(sql string) *FlaringAnomaly {
	return &FlaringAnomaly{sql: sql}
}

func (f *FlaringAnomaly) Schema() params.Schema {
	return params.Shared().With(
		params.Spec{Name: params.DateFrom, Type: params.Date, Default: "-30", Help: "start date (YYYY-MM-DD or day offset from today)"},
		params.Spec{Name: params.DateTo, Type: params.Date, Default: "0", Help: "end date (YYYY-MM-DD or day offset from today)"},
		params.Spec{Name: params.PivotValue, Type: params.List, Default: []string{"value_m3"}, Help: "value columns to pivot"},
		isoList(ISO2, "facility country"),
	)
}

func (f *FlaringAnomaly) MustGroupBy() []aggregate.Token {
	return nil
}

func (f *FlaringAnomaly) Columns() []string {
	return flaringAnomalyColumns
}

func (f *FlaringAnomaly) Base(values params.Values, _ *Prices) sqlbuilder.Builder {
	from, _ := values.Date(params.DateFrom)
	to, _ := values.Date(params.DateTo)
	inner := sqlbuilder.Build(f.sql,
		sqlbuilder.Named("date_from", from),
		sqlbuilder.Named("date_to", to),
	)
	return filtered(inner, values, []Filter{In(ISO2, "iso2")})
}
