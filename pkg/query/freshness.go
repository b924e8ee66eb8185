package query

import (
	"fmt"
	"time"

	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/pkg/database"
	pipelineerrors "github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/params"
)

// Freshness names the column whose latest value tells how far a dataset has
// been ingested, and how many days it may trail the requested end date.
type Freshness struct {
	Table  string
	Column string
	Lag    int
}

// Fresh builders can reject requests reaching past the ingested data.
type Fresh interface {
	Freshness() Freshness
}

func (t *Trade) Freshness() Freshness {
	return Freshness{Table: "kpler_trade", Column: "origin_date", Lag: 3}
}

func (v *Voyage) Freshness() Freshness {
	return Freshness{Table: "voyage", Column: "departure_date", Lag: 3}
}

func (e *EntsogFlow) Freshness() Freshness {
	return Freshness{Table: "entsog_flow", Column: "date", Lag: 5}
}

func (c *Counter) Freshness() Freshness {
	return Freshness{Table: "counter", Column: "date", Lag: 3}
}

// Latest selects the dataset's most recent day as "latest".
func (f Freshness) Latest() sqlbuilder.Builder {
	sb := database.NewSelectBuilder()
	sb.Select(sb.As(fmt.Sprintf("max(%s)::date", f.Column), "latest"))
	sb.From(f.Table)
	return sb
}

// Check fails with IncompleteDataset when latest trails the requested end
// (or today, if earlier) by more than the lag.
func (f Freshness) Check(latest *time.Time, values params.Values, now time.Time) error {
	end := params.Today(now)
	if to, ok := values.Date(params.DateTo); ok && to.Before(end) {
		end = params.Today(to)
	}
	required := end.AddDate(0, 0, -f.Lag)

	if latest == nil {
		return pipelineerrors.IncompleteDataset(fmt.Sprintf("no %s data has been loaded yet", f.Table))
	}
	if params.Today(*latest).Before(required) {
		return pipelineerrors.IncompleteDataset(fmt.Sprintf(
			"%s data is only complete up to %s; set date_to to that date or check_complete=false",
			f.Table, latest.UTC().Format(time.DateOnly)))
	}
	return nil
}
