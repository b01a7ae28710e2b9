package explorer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/i474232898/city-explorer/internal/logger"
	"github.com/i474232898/city-explorer/internal/telemetry"
)

// DefaultProviderTimeout bounds a single provider call when Options leaves it unset.
const DefaultProviderTimeout = 10 * time.Second

// Options tunes provider calls and concurrent-miss handling.
type Options struct {
	// ProviderTimeout bounds each provider call, retries included.
	ProviderTimeout time.Duration
	// DedupeInflight collapses concurrent misses for the same key into one provider
	// call. When false, racing misses each call the provider and each insert rows.
	// The shared call is bounded by ProviderTimeout, not by the first caller's deadline.
	DedupeInflight bool
}

// providerCaller runs one adapter round trip: build, fetch, parse.
type providerCaller struct {
	fetcher Fetcher
	timeout time.Duration
}

func (p providerCaller) call(ctx context.Context, adapter Adapter, q Query) ([]Record, error) {
	resource := string(adapter.Resource())

	req, err := adapter.BuildRequest(q)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", resource, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	started := time.Now()
	raw, err := p.fetcher.Fetch(ctx, req)
	telemetry.RecordProviderCall(resource, started, err)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrProviderUnavailable, resource, err)
	}

	records, err := adapter.Parse(q, raw)
	if err != nil {
		if errors.Is(err, ErrMalformedPayload) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrProviderUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedPayload, resource, err)
	}
	return records, nil
}

// inflight optionally collapses concurrent calls sharing a key.
type inflight struct {
	group *singleflight.Group
}

func newInflight(enabled bool) inflight {
	if !enabled {
		return inflight{}
	}
	return inflight{group: &singleflight.Group{}}
}

// do runs fn once per key among concurrent callers. The shared call runs on a context
// detached from any single caller's cancellation; each caller still stops waiting when
// its own ctx ends.
func (f inflight) do(ctx context.Context, key string, fn func(ctx context.Context) (any, error)) (any, error) {
	if f.group == nil {
		return fn(ctx)
	}

	shared := context.WithoutCancel(ctx)
	ch := f.group.DoChan(key, func() (any, error) {
		return fn(shared)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

// Orchestrator serves resource records cache-aside: stored rows when a location already
// has them, otherwise a provider fetch that is persisted and returned.
type Orchestrator struct {
	store    Store
	adapters map[ResourceType]Adapter
	provider providerCaller
	inflight inflight
	log      *zap.SugaredLogger
}

// NewOrchestrator registers one adapter per resource type.
func NewOrchestrator(store Store, fetcher Fetcher, adapters []Adapter, opts Options) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("orchestrator: store is nil")
	}
	if fetcher == nil {
		return nil, errors.New("orchestrator: fetcher is nil")
	}

	byType := make(map[ResourceType]Adapter, len(adapters))
	for _, a := range adapters {
		rt := a.Resource()
		if Columns(rt) == nil {
			return nil, fmt.Errorf("orchestrator: %w: %s", ErrUnknownResource, rt)
		}
		if _, dup := byType[rt]; dup {
			return nil, fmt.Errorf("orchestrator: duplicate adapter for %s", rt)
		}
		byType[rt] = a
	}

	timeout := opts.ProviderTimeout
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}

	return &Orchestrator{
		store:    store,
		adapters: byType,
		provider: providerCaller{fetcher: fetcher, timeout: timeout},
		inflight: newInflight(opts.DedupeInflight),
		log:      logger.GetLogger("orchestrator"),
	}, nil
}

// Resources lists the registered resource types.
func (o *Orchestrator) Resources() []ResourceType {
	out := make([]ResourceType, 0, len(o.adapters))
	for _, rt := range []ResourceType{ResourceLocations, ResourceWeather, ResourceEvents, ResourceMovies} {
		if _, ok := o.adapters[rt]; ok {
			out = append(out, rt)
		}
	}
	return out
}

// Fetch returns the records of one resource type for a location.
//
// Stored rows are returned as-is without touching the provider. On a miss the provider
// result is inserted row by row and the fresh records are returned. Insert failures are
// logged and skipped: the caller still gets the fetched data even if it was not persisted.
func (o *Orchestrator) Fetch(ctx context.Context, locationID int64, resource ResourceType, q Query) ([]Record, error) {
	adapter, ok := o.adapters[resource]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownResource, resource)
	}

	ctx, span := telemetry.StartSpan(ctx, "orchestrator.fetch",
		attribute.String("resource", string(resource)),
		attribute.Int64("location_id", locationID),
	)
	defer span.End()

	key := string(resource) + ":" + strconv.FormatInt(locationID, 10)
	v, err := o.inflight.do(ctx, key, func(ctx context.Context) (any, error) {
		return o.fetch(ctx, adapter, locationID, q)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return v.([]Record), nil
}

func (o *Orchestrator) fetch(ctx context.Context, adapter Adapter, locationID int64, q Query) ([]Record, error) {
	resource := adapter.Resource()

	rows, err := o.store.FindBy(ctx, resource, "location_id", locationID)
	if err != nil {
		return nil, fmt.Errorf("%w: find %s: %w", ErrPersistence, resource, err)
	}

	if len(rows) > 0 {
		telemetry.RecordCacheLookup(string(resource), true)
		o.log.Debugf("cache hit for %s location=%d rows=%d", resource, locationID, len(rows))

		out := make([]Record, 0, len(rows))
		for _, row := range rows {
			rec, err := adapter.Decode(row)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrPersistence, resource, err)
			}
			out = append(out, rec)
		}
		return out, nil
	}

	telemetry.RecordCacheLookup(string(resource), false)
	o.log.Debugf("cache miss for %s location=%d, calling provider", resource, locationID)

	records, err := o.provider.call(ctx, adapter, q)
	if err != nil {
		return nil, err
	}

	out := make([]Record, 0, len(records))
	for _, rec := range records {
		row := rec.Row()
		row["location_id"] = locationID

		stored, err := o.store.Insert(ctx, resource, row)
		if err != nil {
			telemetry.RecordPersistenceFailure(string(resource))
			o.log.Warnw("insert failed, returning unpersisted record",
				"resource", resource, "location_id", locationID, "error", err)
			stored = row
		}

		fresh, err := adapter.Decode(stored)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrMalformedPayload, resource, err)
		}
		out = append(out, fresh)
	}

	o.log.Infof("fetched %d %s records for location=%d", len(out), resource, locationID)
	return out, nil
}
