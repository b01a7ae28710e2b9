package explorer

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/i474232898/city-explorer/internal/logger"
	"github.com/i474232898/city-explorer/internal/telemetry"
)

// Resolver turns a free-text search query into a stored Location, geocoding it on
// first sight. Locations are never updated once stored.
type Resolver struct {
	store    Store
	adapter  Adapter
	provider providerCaller
	inflight inflight
	log      *zap.SugaredLogger
}

// NewResolver wires the location adapter to the store.
func NewResolver(store Store, fetcher Fetcher, adapter Adapter, opts Options) (*Resolver, error) {
	if store == nil {
		return nil, errors.New("resolver: store is nil")
	}
	if fetcher == nil {
		return nil, errors.New("resolver: fetcher is nil")
	}
	if adapter == nil || adapter.Resource() != ResourceLocations {
		return nil, errors.New("resolver: a locations adapter is required")
	}

	timeout := opts.ProviderTimeout
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}

	return &Resolver{
		store:    store,
		adapter:  adapter,
		provider: providerCaller{fetcher: fetcher, timeout: timeout},
		inflight: newInflight(opts.DedupeInflight),
		log:      logger.GetLogger("resolver"),
	}, nil
}

// Resolve returns the stored location for query, creating it on a miss.
func (r *Resolver) Resolve(ctx context.Context, query string) (Location, error) {
	ctx, span := telemetry.StartSpan(ctx, "resolver.resolve", attribute.String("search_query", query))
	defer span.End()

	v, err := r.inflight.do(ctx, "locations:"+query, func(ctx context.Context) (any, error) {
		return r.resolve(ctx, query)
	})
	if err != nil {
		span.RecordError(err)
		return Location{}, err
	}
	return v.(Location), nil
}

func (r *Resolver) resolve(ctx context.Context, query string) (Location, error) {
	loc, found, err := r.lookup(ctx, query)
	if err != nil {
		return Location{}, err
	}
	if found {
		telemetry.RecordCacheLookup(string(ResourceLocations), true)
		return loc, nil
	}
	telemetry.RecordCacheLookup(string(ResourceLocations), false)

	records, err := r.provider.call(ctx, r.adapter, Query{SearchQuery: query})
	if err != nil {
		return Location{}, err
	}
	if len(records) == 0 {
		return Location{}, fmt.Errorf("%w: %q", ErrNotFound, query)
	}

	row := records[0].Row()
	stored, err := r.store.Insert(ctx, ResourceLocations, row)
	if err != nil {
		// A concurrent resolve may have inserted the same search query first.
		existing, found, lookupErr := r.lookup(ctx, query)
		if lookupErr == nil && found {
			r.log.Infof("location %q inserted concurrently, using id=%d", query, existing.ID)
			return existing, nil
		}
		return Location{}, fmt.Errorf("%w: insert location %q: %w", ErrPersistence, query, err)
	}

	loc, err = DecodeLocation(stored)
	if err != nil {
		return Location{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	r.log.Infof("stored new location %q id=%d", query, loc.ID)
	return loc, nil
}

func (r *Resolver) lookup(ctx context.Context, query string) (Location, bool, error) {
	rows, err := r.store.FindBy(ctx, ResourceLocations, "search_query", query)
	if err != nil {
		return Location{}, false, fmt.Errorf("%w: find location: %w", ErrPersistence, err)
	}
	if len(rows) == 0 {
		return Location{}, false, nil
	}
	loc, err := DecodeLocation(rows[0])
	if err != nil {
		return Location{}, false, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return loc, true, nil
}
