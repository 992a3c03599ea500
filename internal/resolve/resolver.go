// Package resolve turns extracted BOQ line items into annotated emission
// factor assignments. Each candidate ends in exactly one terminal outcome:
// exact hit, structural risk, category hit, keyword hit or no match.
package resolve

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/boq-resolver/internal/convert"
	"github.com/sells-group/boq-resolver/internal/matcher"
	"github.com/sells-group/boq-resolver/internal/model"
	"github.com/sells-group/boq-resolver/internal/region"
	"github.com/sells-group/boq-resolver/internal/units"
)

// Provenance labels for unresolved items.
const (
	SourceRequiresSpecification = "N/A - requires specification"
	SourceRequiresSelection     = "N/A - requires selection"
)

// ErrInvalidSnapshot is returned by ResolveBatch for a snapshot with
// malformed records.
var ErrInvalidSnapshot = model.ErrInvalidSnapshot

// Defaults for outlier annotation.
const (
	DefaultOutlierRatio    = 2.0
	DefaultMinOutlierPeers = 3
)

// Options configures a Resolver.
type Options struct {
	Jurisdiction region.Jurisdiction
	Converter    *convert.Converter
	// Keywords overrides the keyword tier's ordered list.
	Keywords []string
	// OutlierRatio flags factors above ratio x category median. Zero uses
	// the default; a negative value disables outlier annotation.
	OutlierRatio    float64
	MinOutlierPeers int
	// Workers > 1 resolves candidates of a batch concurrently.
	Workers int
}

// Resolver resolves candidates against a materials snapshot. It holds no
// mutable state and is safe for concurrent use.
type Resolver struct {
	opts Options
}

// New creates a Resolver, filling unset options with defaults.
func New(opts Options) *Resolver {
	if opts.Converter == nil {
		opts.Converter = convert.Default()
	}
	if len(opts.Keywords) == 0 {
		opts.Keywords = matcher.DefaultKeywords
	}
	if opts.OutlierRatio == 0 {
		opts.OutlierRatio = DefaultOutlierRatio
	}
	if opts.MinOutlierPeers <= 0 {
		opts.MinOutlierPeers = DefaultMinOutlierPeers
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Jurisdiction.Code == "" {
		opts.Jurisdiction = region.DefaultRegistry().Resolve("")
	}
	return &Resolver{opts: opts}
}

// Jurisdiction returns the jurisdiction the resolver filters for.
func (r *Resolver) Jurisdiction() region.Jurisdiction {
	return r.opts.Jurisdiction
}

// WithJurisdiction returns a copy of r that filters for j.
func (r *Resolver) WithJurisdiction(j region.Jurisdiction) *Resolver {
	opts := r.opts
	opts.Jurisdiction = j
	return &Resolver{opts: opts}
}

// Resolve resolves every candidate in order. The result has the same length
// and order as candidates. It never fails: unresolvable input becomes a
// review record.
func (r *Resolver) Resolve(candidates []model.Candidate, db []model.MaterialRecord) []model.ResolvedMaterial {
	b := r.prepare(db)
	out := make([]model.ResolvedMaterial, len(candidates))
	for i, c := range candidates {
		out[i] = b.resolve(c)
	}
	return out
}

// ResolveBatch validates the snapshot and resolves candidates, concurrently
// when Workers > 1. The only errors are an invalid snapshot and context
// cancellation.
func (r *Resolver) ResolveBatch(ctx context.Context, candidates []model.Candidate, db []model.MaterialRecord) ([]model.ResolvedMaterial, error) {
	if err := model.ValidateSnapshot(db); err != nil {
		return nil, err
	}

	start := time.Now()
	b := r.prepare(db)
	out := make([]model.ResolvedMaterial, len(candidates))

	if r.opts.Workers <= 1 || len(candidates) < 2 {
		for i, c := range candidates {
			if err := ctx.Err(); err != nil {
				return nil, eris.Wrap(err, "resolve: batch cancelled")
			}
			out[i] = b.resolve(c)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.opts.Workers)
		for i, c := range candidates {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				out[i] = b.resolve(c)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, eris.Wrap(err, "resolve: batch cancelled")
		}
	}

	zap.L().Debug("resolved batch",
		zap.String("jurisdiction", r.opts.Jurisdiction.Code),
		zap.Int("candidates", len(candidates)),
		zap.Int("snapshot", len(db)),
		zap.Int("applicable", b.index.Len()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

// batch is the read-only state shared by all candidates of one pass.
type batch struct {
	jurisdiction region.Jurisdiction
	conv         *convert.Converter
	index        *matcher.Index
	outliers     *outlierTable
}

func (r *Resolver) prepare(db []model.MaterialRecord) *batch {
	applicable := region.Filter(db, r.opts.Jurisdiction)
	var outliers *outlierTable
	if r.opts.OutlierRatio > 0 {
		outliers = newOutlierTable(db, r.opts.OutlierRatio, r.opts.MinOutlierPeers)
	}
	return &batch{
		jurisdiction: r.opts.Jurisdiction,
		conv:         r.opts.Converter,
		index:        matcher.NewIndexWithKeywords(applicable, r.opts.Converter, r.opts.Keywords),
		outliers:     outliers,
	}
}

func (b *batch) resolve(c model.Candidate) model.ResolvedMaterial {
	base := model.ResolvedMaterial{
		Name:             c.Name,
		Category:         c.Category,
		TypeID:           c.TypeID,
		Quantity:         c.Quantity,
		Unit:             c.Unit,
		OriginalQuantity: c.Quantity,
		OriginalUnit:     c.Unit,
	}

	if c.TypeID != "" {
		if m, ok := b.index.Exact(c.TypeID); ok {
			return b.matched(base, c, m, model.OutcomeExactHit)
		}
	}
	if IsHighRiskSteelInLength(c.Name, c.Unit) {
		return unresolved(base, model.OutcomeStructuralRisk, SourceRequiresSpecification, StructuralSteelReason)
	}
	if m, ok := b.index.Category(c); ok {
		return b.matched(base, c, m, model.OutcomeCategoryHit)
	}
	if m, ok := b.index.Keyword(c); ok {
		return b.matched(base, c, m, model.OutcomeKeywordHit)
	}
	return unresolved(base, model.OutcomeNoMatch, SourceRequiresSelection, b.noMatchReason(c))
}

func (b *batch) matched(out model.ResolvedMaterial, c model.Candidate, m matcher.Match, outcome model.Outcome) model.ResolvedMaterial {
	rec := m.Record

	conv := b.conv.Convert(c.Quantity, c.Unit, rec.Unit, c.Name)
	out.Quantity = conv.Quantity
	out.Unit = conv.Unit
	out.UnitConversionApplied = conv.Applied
	out.ConversionNote = conv.Note
	out.ConversionRule = string(conv.Rule)

	factor := rec.EFTotal
	out.Factor = &factor
	out.NormalizedFactor = model.Float64Ptr(perKg(factor, rec.Unit))
	out.NormalizedUnit = rec.Unit
	if units.Normalize(rec.Unit) == units.Tonne {
		out.NormalizedUnit = units.Kilogram
	}

	out.Outcome = outcome
	out.ConfidenceLevel = outcome.Confidence()
	out.RequiresReview = outcome.RequiresReview()
	out.IsCustom = outcome.IsProxy()

	if outcome == model.OutcomeExactHit {
		out.Source = rec.DataSource
		out.EPDNumber = rec.EPDNumber
		out.Manufacturer = rec.Manufacturer
		if out.Category == "" {
			out.Category = rec.Category
		}
	} else {
		out.Source = fmt.Sprintf("%s (proxy match: %s)", rec.DataSource, rec.Name)
		out.ProxyMaterialID = rec.ID
		out.ProxyMaterialName = rec.Name
	}

	if reason, ok := b.outliers.check(factor, rec.Category, rec.Unit); ok {
		out.IsOutlier = true
		out.OutlierReason = reason
	}
	return out
}

func unresolved(out model.ResolvedMaterial, outcome model.Outcome, source, reason string) model.ResolvedMaterial {
	out.Factor = nil
	out.IsCustom = true
	out.Source = source
	out.Outcome = outcome
	out.ConfidenceLevel = outcome.Confidence()
	out.RequiresReview = outcome.RequiresReview()
	out.ReviewReason = reason
	return out
}

func (b *batch) noMatchReason(c model.Candidate) string {
	return fmt.Sprintf("No verified %s material found for %q in category %q with unit %q. Please select a material from the database.",
		b.jurisdiction.Name, c.Name, c.Category, c.Unit)
}
