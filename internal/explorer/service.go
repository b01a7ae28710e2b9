package explorer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/i474232898/city-explorer/internal/logger"
)

// Service resolves locations and serves their cached resources.
type Service struct {
	resolver     *Resolver
	orchestrator *Orchestrator
	log          *zap.SugaredLogger
}

// NewService builds the resolver from the locations adapter and hands every other
// adapter to the orchestrator.
func NewService(store Store, fetcher Fetcher, adapters []Adapter, opts Options) (*Service, error) {
	var (
		locationAdapter  Adapter
		resourceAdapters []Adapter
	)
	for _, a := range adapters {
		if a.Resource() == ResourceLocations {
			locationAdapter = a
			continue
		}
		resourceAdapters = append(resourceAdapters, a)
	}

	resolver, err := NewResolver(store, fetcher, locationAdapter, opts)
	if err != nil {
		return nil, err
	}
	orchestrator, err := NewOrchestrator(store, fetcher, resourceAdapters, opts)
	if err != nil {
		return nil, err
	}

	return &Service{
		resolver:     resolver,
		orchestrator: orchestrator,
		log:          logger.GetLogger("service"),
	}, nil
}

// ResolveLocation returns the location stored for query, geocoding it on first use.
func (s *Service) ResolveLocation(ctx context.Context, query string) (Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Location{}, fmt.Errorf("%w: search query is empty", ErrInvalidQuery)
	}
	return s.resolver.Resolve(ctx, query)
}

// Resources resolves q.SearchQuery and returns the location's records of one type.
func (s *Service) Resources(ctx context.Context, resource ResourceType, q Query) ([]Record, error) {
	loc, err := s.ResolveLocation(ctx, q.SearchQuery)
	if err != nil {
		return nil, err
	}
	return s.orchestrator.Fetch(ctx, loc.ID, resource, q)
}

// WarmLocation resolves query and fills every registered resource type for it using
// the stored coordinates. Every type is attempted; failures are joined.
func (s *Service) WarmLocation(ctx context.Context, query string) error {
	loc, err := s.ResolveLocation(ctx, query)
	if err != nil {
		return fmt.Errorf("warm %q: %w", query, err)
	}

	q := Query{
		SearchQuery: loc.SearchQuery,
		Latitude:    loc.Latitude,
		Longitude:   loc.Longitude,
	}

	var errs []error
	for _, rt := range s.orchestrator.Resources() {
		records, err := s.orchestrator.Fetch(ctx, loc.ID, rt, q)
		if err != nil {
			s.log.Warnf("warm %s for %q failed: %v", rt, query, err)
			errs = append(errs, fmt.Errorf("warm %s for %q: %w", rt, query, err))
			continue
		}
		s.log.Debugf("warmed %s for %q: %d records", rt, query, len(records))
	}
	return errors.Join(errs...)
}
