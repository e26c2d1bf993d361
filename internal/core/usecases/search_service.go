package usecases

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/smarttrack/internal/core/domain"
	"github.com/samirrijal/smarttrack/internal/core/ports"
	"github.com/samirrijal/smarttrack/internal/pkg/metrics"
)

const (
	// SearchLimit is the number of candidates returned per query.
	SearchLimit = 5
	// MaxQueryLength bounds free-text place queries.
	MaxQueryLength = 200

	geocodeCacheTTL = 3600
)

// SearchService resolves place queries through a geocoder with a
// read-through cache.
type SearchService struct {
	geocoder ports.Geocoder
	cache    ports.CacheService
}

// NewSearchService creates a new SearchService. cache may be nil.
func NewSearchService(geocoder ports.Geocoder, cache ports.CacheService) *SearchService {
	return &SearchService{geocoder: geocoder, cache: cache}
}

// Search returns up to SearchLimit places matching query.
func (s *SearchService) Search(ctx context.Context, query string) ([]domain.GeocodeResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query must not be empty", domain.ErrInvalidQuery)
	}
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return nil, fmt.Errorf("%w: query longer than %d characters", domain.ErrInvalidQuery, MaxQueryLength)
	}

	ctx, span := tracer.Start(ctx, "SearchService.Search")
	defer span.End()
	span.SetAttributes(attribute.String("search.query", query))

	cacheKey := "geocode:" + strings.ToLower(query)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var results []domain.GeocodeResult
			if err := json.Unmarshal(data, &results); err == nil {
				metrics.CacheHits.WithLabelValues("geocode").Inc()
				span.SetAttributes(attribute.Bool("search.cached", true))
				return results, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("geocode").Inc()
	}

	results, err := s.geocoder.Search(ctx, query, SearchLimit)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("geocode %q: %w", query, err)
	}
	if len(results) > SearchLimit {
		results = results[:SearchLimit]
	}

	if s.cache != nil {
		if data, err := json.Marshal(results); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, geocodeCacheTTL)
		}
	}
	return results, nil
}
