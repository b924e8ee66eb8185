package endpoint

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/Gobusters/ectologger"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Ramsey-B/fern/pkg/aggregate"
	"github.com/Ramsey-B/fern/pkg/cache"
	"github.com/Ramsey-B/fern/pkg/database"
	pipelineerrors "github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/frame"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/params"
	"github.com/Ramsey-B/fern/pkg/postprocess"
	"github.com/Ramsey-B/fern/pkg/pricing"
	"github.com/Ramsey-B/fern/pkg/query"
	"github.com/Ramsey-B/fern/pkg/response"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Gate admits privileged requests.
type Gate interface {
	Check(ctx context.Context, endpoint string, values params.Values) error
}

type Config struct {
	// Maintenance rejects requests with 503 unless bypass_maintenance is set.
	Maintenance func() bool
}

// Pipeline is the entrypoint every endpoint request runs through:
// maintenance, parse, credential, cache, then under one read snapshot the
// completeness check, price selection, base query and aggregation, and
// finally post-processing and rendering.
type Pipeline struct {
	db        database.DB
	parser    *params.Parser
	gate      Gate
	selector  *pricing.Selector
	processor *postprocess.Processor
	cache     *cache.Cache
	config    Config
	now       func() time.Time
	logger    ectologger.Logger
}

// NewPipeline builds a pipeline. responses may be nil to disable caching.
func NewPipeline(
	db database.DB,
	parser *params.Parser,
	gate Gate,
	selector *pricing.Selector,
	processor *postprocess.Processor,
	responses *cache.Cache,
	config Config,
	logger ectologger.Logger,
) *Pipeline {
	if config.Maintenance == nil {
		config.Maintenance = func() bool { return false }
	}
	return &Pipeline{
		db:        db,
		parser:    parser,
		gate:      gate,
		selector:  selector,
		processor: processor,
		cache:     responses,
		config:    config,
		now:       time.Now,
		logger:    logger,
	}
}

func (p *Pipeline) stage(ctx context.Context, e *Endpoint, name string, fn func(context.Context) error) error {
	ctx, span := tracing.StartSpan(ctx, "Pipeline."+name, attribute.String("endpoint", e.Path))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	metrics.RecordStage(e.Path, name, time.Since(start).Seconds())
	if err != nil {
		tracing.RecordError(span, err)
	}
	return err
}

// Serve answers one request to e.
func (p *Pipeline) Serve(ctx context.Context, e *Endpoint, raw url.Values) (*response.Response, error) {
	if p.config.Maintenance() && !bypassMaintenance(raw) {
		return nil, pipelineerrors.MaintenanceMode()
	}

	schema := e.Builder.Schema()
	var values params.Values
	err := p.stage(ctx, e, "parse", func(context.Context) (err error) {
		values, err = p.parser.Parse(schema, raw)
		if err != nil {
			return err
		}
		return response.CheckFormat(values.String(params.Format), e.Spatial)
	})
	if err != nil {
		return nil, err
	}

	if gated, ok := e.Builder.(query.Gated); ok && gated.Privileged(values) {
		if err := p.stage(ctx, e, "credential", func(ctx context.Context) error {
			return p.gate.Check(ctx, e.Path, values)
		}); err != nil {
			return nil, err
		}
	}

	compute := func(ctx context.Context) (*cache.Entry, error) {
		resp, err := p.run(ctx, e, values)
		if err != nil {
			return nil, err
		}
		return toEntry(resp), nil
	}

	var entry *cache.Entry
	if p.cache == nil {
		entry, err = compute(ctx)
	} else {
		key := cache.Canonicalize(e.Path, schema, raw)
		entry, _, err = p.cache.Fetch(ctx, key, e.CacheTTL, compute)
	}
	if err != nil {
		return nil, err
	}
	return fromEntry(entry), nil
}

func bypassMaintenance(raw url.Values) bool {
	bypass, ok := params.ParseBool(raw.Get(params.BypassMaintenance))
	return ok && bypass
}

// run computes the response inside one read-only snapshot.
func (p *Pipeline) run(ctx context.Context, e *Endpoint, values params.Values) (*response.Response, error) {
	ctx, tx, err := database.ReadSnapshot(ctx, p.db)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if fresh, ok := e.Builder.(query.Fresh); ok && values.Bool(params.CheckComplete) {
		if err := p.stage(ctx, e, "freshness", func(ctx context.Context) error {
			return p.checkFreshness(ctx, tx, fresh.Freshness(), values)
		}); err != nil {
			return nil, err
		}
	}

	var prices *query.Prices
	if priced, ok := e.Builder.(query.Priced); ok {
		if err := p.stage(ctx, e, "pricing", func(ctx context.Context) error {
			candidates, err := pricing.LoadCandidates(ctx, tx,
				pricing.CandidateQuery(priced.Legs(values), values.Strings(params.PricingScenario)))
			if err != nil {
				return err
			}
			prices = query.NewPrices(p.selector.Select(candidates))
			metrics.PricesSelected.WithLabelValues(e.Path).Observe(float64(prices.Len()))
			return nil
		}); err != nil {
			return nil, err
		}
	}

	base := e.Builder.Base(values, prices)
	plan := p.plan(ctx, e, values)
	if plan != nil {
		base = plan.Wrap(base)
	}

	var result *frame.Frame
	if err := p.stage(ctx, e, "query", func(ctx context.Context) error {
		start := time.Now()
		rows, err := database.Queryx(ctx, tx, base)
		if err != nil {
			return fmt.Errorf("failed to query %s: %w", e.Path, err)
		}
		result, err = frame.FromRows(rows)
		metrics.RecordWarehouseQuery(e.Path, "base", time.Since(start).Seconds())
		return err
	}); err != nil {
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"endpoint": e.Path}).Error("Warehouse query failed")
		return nil, err
	}

	return p.finish(ctx, e, values, plan, result)
}

// finish post-processes the warehouse result and renders it.
func (p *Pipeline) finish(ctx context.Context, e *Endpoint, values params.Values, plan *aggregate.Plan, result *frame.Frame) (*response.Response, error) {
	var dateColumns []string
	if plan != nil {
		dateColumns = plan.DateColumns()
	}
	result, err := p.processor.Run(ctx, result, postprocess.OptionsFrom(e.Path, values, dateColumns))
	if err != nil {
		return nil, err
	}

	var resp *response.Response
	err = p.stage(ctx, e, "render", func(context.Context) (err error) {
		resp, err = response.Build(result, response.Options{
			Format:     values.String(params.Format),
			NestInData: values.Bool(params.NestInData),
			Download:   values.Bool(params.Download),
			Filename:   e.Filename,
			Spatial:    e.Spatial,
		})
		return err
	})
	return resp, err
}

// plan resolves aggregate_by. Unknown and inapplicable tokens are dropped with a warning.
func (p *Pipeline) plan(ctx context.Context, e *Endpoint, values params.Values) *aggregate.Plan {
	tokens, unknown := aggregate.ParseTokens(values.Strings(params.AggregateBy))
	plan := aggregate.NewPlan(tokens, e.Builder.MustGroupBy(), e.Builder.Columns())

	dropped := unknown
	if plan != nil {
		for _, token := range plan.Dropped {
			dropped = append(dropped, string(token))
		}
	}
	if len(dropped) > 0 {
		metrics.DroppedTokensTotal.WithLabelValues(e.Path).Add(float64(len(dropped)))
		p.logger.WithContext(ctx).WithFields(map[string]any{
			"endpoint": e.Path,
			"tokens":   dropped,
		}).Warn("Ignoring aggregate_by tokens")
	}
	return plan
}

func (p *Pipeline) checkFreshness(ctx context.Context, q database.Querier, f query.Freshness, values params.Values) error {
	sqlText, args := database.Build(f.Latest())
	var latest sql.NullTime
	if err := q.GetContext(ctx, &latest, sqlText, args...); err != nil {
		return fmt.Errorf("failed to read %s completeness: %w", f.Table, err)
	}
	var at *time.Time
	if latest.Valid {
		at = &latest.Time
	}
	return f.Check(at, values, p.now())
}

func toEntry(r *response.Response) *cache.Entry {
	return &cache.Entry{Status: r.Status, ContentType: r.ContentType, Filename: r.Filename, Body: r.Body}
}

func fromEntry(e *cache.Entry) *response.Response {
	return &response.Response{Status: e.Status, ContentType: e.ContentType, Filename: e.Filename, Body: e.Body}
}
