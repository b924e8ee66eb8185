// Package endpoint runs the query pipeline for the registered endpoints.
package endpoint

import (
	"slices"
	"time"

	"github.com/Ramsey-B/fern/pkg/commodity"
	"github.com/Ramsey-B/fern/pkg/query"
)

// Endpoint binds a path to its base query and response settings.
type Endpoint struct {
	Path string
	// Filename names downloads, without extension.
	Filename string
	Builder  query.Builder
	// CacheTTL is the max_age of cached responses; zero disables caching.
	CacheTTL time.Duration
	Spatial  bool
	// Datasets are the warehouse tables the endpoint reads.
	Datasets []string
}

var (
	pricingDatasets = []string{"price", "currency", "commodity", "country"}
	shipDatasets    = []string{"ship_owner", "ship_insurer", "company"}
)

func datasets(groups ...[]string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// Catalogue lists every endpoint served.
func Catalogue(taxonomy *commodity.Taxonomy, anomaly *query.FlaringAnomaly) []*Endpoint {
	endpoints := []*Endpoint{
		{
			Path:     "/v1/kpler_trade",
			Filename: "kpler_trade",
			Builder:  query.NewTrade(taxonomy),
			CacheTTL: time.Hour,
			Datasets: datasets([]string{"kpler_trade", "kpler_zone", "kpler_product"}, pricingDatasets, shipDatasets),
		},
		{
			Path:     "/v0/voyage",
			Filename: "voyages",
			Builder:  query.NewVoyage(taxonomy),
			CacheTTL: time.Hour,
			Datasets: datasets([]string{"voyage", "port", "ship"}, pricingDatasets, shipDatasets),
		},
		{
			Path:     "/v0/overland",
			Filename: "overland",
			Builder:  query.NewOverland(taxonomy),
			CacheTTL: time.Hour,
			Datasets: datasets([]string{"pipeline_flow"}, pricingDatasets),
		},
		{
			Path:     "/v0/entsogflow",
			Filename: "entsogflows",
			Builder:  query.NewEntsogFlow(taxonomy),
			CacheTTL: time.Hour,
			Datasets: datasets([]string{"entsog_flow"}, pricingDatasets),
		},
		{
			Path:     "/v0/counter",
			Filename: "counter",
			Builder:  query.NewCounter(taxonomy),
			CacheTTL: time.Hour,
			Datasets: datasets([]string{"counter"}, pricingDatasets),
		},
		{
			Path:     "/v0/portcall",
			Filename: "portcalls",
			Builder:  query.NewPortCall(),
			Datasets: []string{"portcall", "port", "ship", "country"},
		},
		{
			Path:     "/v0/flaring",
			Filename: "flaring",
			Builder:  query.NewFlaring(),
			CacheTTL: time.Hour,
			Spatial:  true,
			Datasets: []string{"flaring", "flaring_facility", "country"},
		},
		{
			Path:     "/v0/price",
			Filename: "prices",
			Builder:  query.NewPrice(),
			Datasets: []string{"price"},
		},
		{
			Path:     "/v0/commodity",
			Filename: "commodities",
			Builder:  query.NewCommodities(taxonomy),
			CacheTTL: 24 * time.Hour,
			Datasets: []string{"commodity"},
		},
	}
	if anomaly != nil {
		endpoints = append(endpoints, &Endpoint{
			Path:     "/v0/flaring_anomaly",
			Filename: "flaring_anomaly",
			Builder:  anomaly,
			CacheTTL: time.Hour,
			Datasets: []string{"flaring", "flaring_facility", "country"},
		})
	}
	return endpoints
}

// PathsReading returns the paths of endpoints that read dataset.
func PathsReading(endpoints []*Endpoint, dataset string) []string {
	var out []string
	for _, e := range endpoints {
		if slices.Contains(e.Datasets, dataset) {
			out = append(out, e.Path)
		}
	}
	return out
}
