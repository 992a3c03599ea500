// Package pipeline runs one resolution pass end to end: it picks the
// snapshot, resolves the batch, records metrics and persists the run.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/boq-resolver/internal/metrics"
	"github.com/sells-group/boq-resolver/internal/model"
	"github.com/sells-group/boq-resolver/internal/region"
	"github.com/sells-group/boq-resolver/internal/resolve"
	"github.com/sells-group/boq-resolver/internal/store"
)

// ErrNoSnapshot is returned when a request carries no materials and no
// store is available to supply them.
var ErrNoSnapshot = eris.New("pipeline: no materials snapshot")

// Request is the input of one pass.
type Request struct {
	Jurisdiction string
	Candidates   []model.Candidate
	// Materials is the snapshot to resolve against. Nil means the snapshot
	// held in the store.
	Materials     []model.MaterialRecord
	SnapshotLabel string
	// Save persists the run when a store is configured.
	Save bool
}

// Result is the output of one pass.
type Result struct {
	RunID        string                   `json:"run_id,omitempty"`
	Jurisdiction string                   `json:"jurisdiction"`
	Resolved     []model.ResolvedMaterial `json:"resolved"`
	Summary      model.Summary            `json:"summary"`
}

// Pipeline wires the resolver to its snapshot source, metrics and run log.
type Pipeline struct {
	store    store.Store
	resolver *resolve.Resolver
	registry *region.Registry
	metrics  *metrics.Metrics
}

// New creates a Pipeline. st and m may be nil.
func New(st store.Store, r *resolve.Resolver, reg *region.Registry, m *metrics.Metrics) *Pipeline {
	if reg == nil {
		reg = region.DefaultRegistry()
	}
	return &Pipeline{store: st, resolver: r, registry: reg, metrics: m}
}

// Registry returns the jurisdiction registry requests are resolved against.
func (p *Pipeline) Registry() *region.Registry {
	return p.registry
}

// DefaultJurisdiction returns the jurisdiction used when a request names none.
func (p *Pipeline) DefaultJurisdiction() region.Jurisdiction {
	return p.resolver.Jurisdiction()
}

// Run resolves req. Errors are limited to an unusable snapshot, store
// failures and cancellation; candidate data never fails a run.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	j := p.resolver.Jurisdiction()
	if req.Jurisdiction != "" {
		j = p.registry.Resolve(req.Jurisdiction)
	}
	label := p.metricLabel(j)
	log := zap.L().With(zap.String("jurisdiction", j.Code), zap.Int("candidates", len(req.Candidates)))

	db := req.Materials
	if db == nil {
		if p.store == nil {
			p.metrics.ObserveFailure(label)
			return nil, ErrNoSnapshot
		}
		stored, err := p.store.ListMaterials(ctx)
		if err != nil {
			p.metrics.ObserveFailure(label)
			return nil, eris.Wrap(err, "pipeline: load stored snapshot")
		}
		if len(stored) == 0 {
			log.Warn("pipeline: stored snapshot is empty")
		}
		db = stored
	}

	var run *model.Run
	if req.Save && p.store != nil {
		var err error
		run, err = p.store.CreateRun(ctx, model.RunRequest{
			Jurisdiction:  j.Code,
			Candidates:    req.Candidates,
			SnapshotSize:  len(db),
			SnapshotLabel: req.SnapshotLabel,
		})
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: create run")
		}
	}

	// Run status writes must land even when the caller has gone away.
	statusCtx := context.WithoutCancel(ctx)

	start := time.Now()
	resolved, err := p.resolver.WithJurisdiction(j).ResolveBatch(ctx, req.Candidates, db)
	if err != nil {
		p.metrics.ObserveFailure(label)
		if run != nil {
			if failErr := p.store.FailRun(statusCtx, run.ID, err.Error()); failErr != nil {
				log.Warn("pipeline: failed to record run failure", zap.Error(failErr))
			}
		}
		return nil, err
	}
	elapsed := time.Since(start)
	p.metrics.ObserveBatch(label, resolved, elapsed)

	result := &Result{
		Jurisdiction: j.Code,
		Resolved:     resolved,
		Summary:      model.Summarize(resolved),
	}

	if run != nil {
		result.RunID = run.ID
		if saveErr := p.store.CompleteRun(statusCtx, run.ID, &model.RunResult{
			Resolved: resolved,
			Summary:  result.Summary,
		}); saveErr != nil {
			log.Warn("pipeline: failed to save run result", zap.String("run_id", run.ID), zap.Error(saveErr))
		}
	}

	log.Info("pipeline: resolution complete",
		zap.String("run_id", result.RunID),
		zap.Int("requires_review", result.Summary.RequiresReview),
		zap.Int("snapshot", len(db)),
		zap.Duration("elapsed", elapsed),
	)

	return result, nil
}

// metricLabel bounds the jurisdiction label to registered codes.
func (p *Pipeline) metricLabel(j region.Jurisdiction) string {
	if p.registry.Registered(j.Code) {
		return j.Code
	}
	return metrics.AdHocJurisdiction
}
