package postprocess

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Ramsey-B/fern/pkg/frame"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/translate"
)

// run carries the frame through the steps of one request.
type run struct {
	ctx   context.Context
	frame *frame.Frame
	opts  Options
	lists []string
}

type step struct {
	name  string
	apply func(*run) error
}

type Processor struct {
	translator *translate.Translator
	logger     ectologger.Logger
}

func NewProcessor(translator *translate.Translator, logger ectologger.Logger) *Processor {
	return &Processor{translator: translator, logger: logger}
}

// steps are applied in this order on every request; each is a no-op when its
// parameters are unset.
func (p *Processor) steps() []step {
	return []step{
		{"hash", func(r *run) error {
			r.lists = hashLists(r.frame)
			return nil
		}},
		{"roll", p.roll},
		{"spread", func(r *run) (err error) {
			r.frame, err = Spread(r.frame)
			return err
		}},
		{"unhash", func(r *run) error {
			unhashLists(r.frame, r.lists)
			return nil
		}},
		{"keep_zeros", func(r *run) error {
			if !r.opts.KeepZeros {
				r.frame = DropZeros(r.frame)
			}
			return nil
		}},
		{"sort", func(r *run) error {
			r.frame = Sort(r.frame, r.opts.SortBy)
			return nil
		}},
		{"limit", func(r *run) error {
			r.frame = Limit(r.frame, r.opts.Limit, r.opts.LimitBy)
			return nil
		}},
		{"pivot", func(r *run) error {
			r.frame = Pivot(r.frame, r.opts.PivotBy, r.opts.PivotValue)
			return nil
		}},
		{"project", func(r *run) error {
			r.frame = Project(r.frame, r.opts.Select)
			return nil
		}},
		{"totals", func(r *run) error {
			if r.opts.AddTotalCommodity {
				r.frame = AddTotals(r.frame, CommodityFacets)
			}
			if r.opts.AddTotalRegion {
				r.frame = AddTotals(r.frame, RegionFacets)
			}
			return nil
		}},
		{"postcompute", func(r *run) (err error) {
			r.frame, err = Postcompute(r.frame, r.opts.Postcompute)
			return err
		}},
		{"translate", p.translate},
	}
}

func (p *Processor) roll(r *run) (err error) {
	if r.opts.RollingDays <= 0 {
		return nil
	}
	if n := undated(r.frame, r.opts.DateColumns); n > 0 {
		p.logger.WithContext(r.ctx).WithFields(map[string]any{
			"endpoint": r.opts.Endpoint,
			"rows":     n,
		}).Warn("Rolling drops rows without a date")
	}
	r.frame, err = Roll(r.frame, r.opts.DateColumns, r.opts.RollingDays)
	return err
}

func (p *Processor) translate(r *run) error {
	if p.translator == nil || r.opts.Language == "" {
		return nil
	}
	dictionary, err := p.translator.Load(r.opts.Language)
	if err != nil {
		return err
	}
	if dictionary != nil {
		r.frame = dictionary.Apply(r.frame)
	}
	return nil
}

// Run applies every step to f. f must not be used afterwards.
func (p *Processor) Run(ctx context.Context, f *frame.Frame, opts Options) (*frame.Frame, error) {
	ctx, span := tracing.StartSpan(ctx, "Processor.Run", attribute.String("endpoint", opts.Endpoint))
	defer span.End()

	r := &run{ctx: ctx, frame: f, opts: opts}
	for _, s := range p.steps() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		if err := s.apply(r); err != nil {
			tracing.RecordError(span, err)
			p.logger.WithContext(ctx).WithFields(map[string]any{
				"endpoint": opts.Endpoint,
				"step":     s.name,
			}).WithError(err).Warn("Post-processing step failed")
			return nil, err
		}
		metrics.RecordStage(opts.Endpoint, "postprocess_"+s.name, time.Since(start).Seconds())
	}

	span.SetAttributes(attribute.Int("rows", r.frame.Len()))
	return r.frame, nil
}
