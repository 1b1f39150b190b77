package dataset

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/warp/fiscal-trends/fiscal"
)

// =============================================================================
// REGISTRY - The current dataset and the reports computed from it
// =============================================================================

type Registry struct {
	mu      sync.RWMutex
	current *Dataset

	cache  *Cache[*fiscal.Report]
	flight singleflight.Group
	log    zerolog.Logger
}

// NewRegistry creates an empty registry holding up to cacheSize reports.
func NewRegistry(cacheSize int, log zerolog.Logger) *Registry {
	return &Registry{
		cache: NewCache[*fiscal.Report](cacheSize),
		log:   log.With().Str("component", "registry").Logger(),
	}
}

// Replace makes ds the current dataset and invalidates every cached report.
func (r *Registry) Replace(ds *Dataset) {
	r.mu.Lock()
	prev := r.current
	r.current = ds
	r.cache.Purge()
	r.mu.Unlock()

	evt := r.log.Info().
		Str("dataset", ds.ShortID()).
		Str("load_id", ds.LoadID.String()).
		Str("name", ds.Name).
		Int("records", len(ds.Records)).
		Int("skipped", len(ds.Skipped))
	if prev != nil {
		evt = evt.Str("replaced", prev.ShortID())
	}
	evt.Msg("dataset replaced")
}

// Current returns the current dataset or fiscal.ErrNoDataset.
func (r *Registry) Current() (*Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil {
		return nil, fiscal.ErrNoDataset
	}
	return r.current, nil
}

// CacheStats reports usage of the report cache.
func (r *Registry) CacheStats() CacheStats {
	return r.cache.Stats()
}

// Report returns the rollups of the current dataset under spec, together
// with the dataset they were computed from. Results are cached per
// (dataset, filter) and concurrent requests for the same key share one
// computation.
func (r *Registry) Report(ctx context.Context, spec fiscal.FilterSpec) (*fiscal.Report, *Dataset, error) {
	ds, err := r.Current()
	if err != nil {
		return nil, nil, err
	}

	key := ds.ID + "|" + spec.Key()
	if rep, ok := r.cache.Get(key); ok {
		return rep, ds, nil
	}

	// The flight is shared with other callers, so the first caller's
	// cancellation must not fail theirs.
	flightCtx := context.WithoutCancel(ctx)
	v, err, shared := r.flight.Do(key, func() (any, error) {
		rep, err := Compute(flightCtx, ds.Records, spec)
		if err != nil {
			return nil, err
		}
		r.mu.RLock()
		if r.current == ds {
			r.cache.Set(key, rep)
		}
		r.mu.RUnlock()
		return rep, nil
	})
	if err != nil {
		return nil, nil, err
	}
	r.log.Debug().Str("dataset", ds.ShortID()).Str("filter", spec.Key()).Bool("shared", shared).Msg("report computed")
	return v.(*fiscal.Report), ds, nil
}

// Compute filters records once and builds the three rollups concurrently.
// The result equals fiscal.BuildReport(records, spec).
func Compute(ctx context.Context, records []fiscal.NormalizedRecord, spec fiscal.FilterSpec) (*fiscal.Report, error) {
	rep := fiscal.NewReport(spec, fiscal.Filter(records, spec))
	subset := rep.Records

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rep.Weekly = fiscal.AggregateByWeek(subset)
		return ctx.Err()
	})
	g.Go(func() error {
		rep.Monthly = fiscal.AggregateByMonth(subset)
		return ctx.Err()
	})
	g.Go(func() error {
		rep.FiscalYearMonths = fiscal.AggregateByFiscalYearMonth(subset)
		return ctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rep, nil
}
