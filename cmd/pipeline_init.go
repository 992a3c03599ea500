package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/boq-resolver/internal/config"
	"github.com/sells-group/boq-resolver/internal/convert"
	"github.com/sells-group/boq-resolver/internal/fetcher"
	"github.com/sells-group/boq-resolver/internal/metrics"
	"github.com/sells-group/boq-resolver/internal/pipeline"
	"github.com/sells-group/boq-resolver/internal/region"
	"github.com/sells-group/boq-resolver/internal/resolve"
	"github.com/sells-group/boq-resolver/internal/store"
)

// pipelineEnv holds the store, metrics and pipeline used by the resolve and
// serve commands.
type pipelineEnv struct {
	Store    store.Store // may be nil
	Metrics  *metrics.Metrics
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initPipeline validates c for mode, opens and migrates the store when
// withStore is set, and builds the Pipeline. Callers should defer env.Close().
func initPipeline(ctx context.Context, c *config.Config, mode string, withStore bool) (*pipelineEnv, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	reg, err := newRegistry(c)
	if err != nil {
		return nil, err
	}
	res, err := newResolver(c, reg)
	if err != nil {
		return nil, err
	}

	env := &pipelineEnv{Metrics: metrics.New()}
	if withStore {
		st, err := openStore(ctx, c)
		if err != nil {
			return nil, err
		}
		env.Store = st
	}

	env.Pipeline = pipeline.New(env.Store, res, reg, env.Metrics)

	zap.L().Debug("pipeline initialized",
		zap.String("jurisdiction", res.Jurisdiction().Code),
		zap.String("gauge", c.Resolver.Gauge),
		zap.Bool("store", env.Store != nil),
	)
	return env, nil
}

// newRegistry returns the built-in jurisdictions, merged with the configured
// jurisdictions file when one is set.
func newRegistry(c *config.Config) (*region.Registry, error) {
	if c.Resolver.JurisdictionsFile == "" {
		return region.DefaultRegistry(), nil
	}
	reg, err := region.LoadRegistry(c.Resolver.JurisdictionsFile)
	if err != nil {
		return nil, eris.Wrap(err, "load jurisdictions")
	}
	return reg, nil
}

// newResolver builds a resolver from the resolver section of c.
func newResolver(c *config.Config, reg *region.Registry) (*resolve.Resolver, error) {
	conv, err := convert.New(c.Resolver.Gauge)
	if err != nil {
		return nil, err
	}
	return resolve.New(resolve.Options{
		Jurisdiction:    reg.Resolve(c.Resolver.Jurisdiction),
		Converter:       conv,
		OutlierRatio:    c.Resolver.OutlierRatio,
		MinOutlierPeers: c.Resolver.MinOutlierPeers,
		Workers:         c.Resolver.Workers,
	}), nil
}

// newFetcher builds the HTTP fetcher used for snapshot downloads.
func newFetcher(c *config.Config) *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:  c.Fetch.UserAgent,
		Timeout:    time.Duration(c.Fetch.TimeoutSecs) * time.Second,
		MaxRetries: c.Fetch.MaxRetries,
	})
}
