package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/smarttrack/internal/core/domain"
	"github.com/samirrijal/smarttrack/internal/core/ports"
)

const (
	boundaryListCacheKey = "boundaries:list"
	boundaryListCacheTTL = 60
)

var tracer = otel.Tracer("github.com/samirrijal/smarttrack/internal/core/usecases")

// BoundaryRefresher triggers an out-of-cycle boundary snapshot.
type BoundaryRefresher interface {
	RefreshBoundaries(ctx context.Context) error
}

// BoundaryService handles boundary persistence and change fan-out.
type BoundaryService struct {
	boundaries ports.BoundaryRepository
	publisher  ports.EventPublisher
	cache      ports.CacheService
	refresher  BoundaryRefresher
}

// NewBoundaryService creates a new BoundaryService. publisher, cache and
// refresher may be nil.
func NewBoundaryService(
	boundaries ports.BoundaryRepository,
	publisher ports.EventPublisher,
	cache ports.CacheService,
	refresher BoundaryRefresher,
) *BoundaryService {
	return &BoundaryService{boundaries: boundaries, publisher: publisher, cache: cache, refresher: refresher}
}

// List returns all boundaries, newest first.
func (s *BoundaryService) List(ctx context.Context) ([]domain.Boundary, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, boundaryListCacheKey); err == nil {
			var boundaries []domain.Boundary
			if err := json.Unmarshal(data, &boundaries); err == nil {
				return boundaries, nil
			}
		}
	}

	boundaries, err := s.boundaries.List(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(boundaries); err == nil {
			_ = s.cache.Set(ctx, boundaryListCacheKey, data, boundaryListCacheTTL)
		}
	}
	return boundaries, nil
}

// Get returns a single boundary.
func (s *BoundaryService) Get(ctx context.Context, id string) (*domain.Boundary, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("boundary id: %w", domain.ErrNotFound)
	}
	return s.boundaries.GetByID(ctx, id)
}

// Create validates and stores a drawn boundary, then announces it.
func (s *BoundaryService) Create(ctx context.Context, draft domain.BoundaryDraft) (*domain.Boundary, error) {
	ctx, span := tracer.Start(ctx, "BoundaryService.Create")
	defer span.End()

	draft = draft.Normalize()
	span.SetAttributes(
		attribute.String("boundary.name", draft.Name),
		attribute.Int("boundary.vertices", len(draft.Coords)),
	)
	if err := draft.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	b, err := s.boundaries.Create(ctx, draft)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create boundary")
		return nil, fmt.Errorf("create boundary: %w", err)
	}
	span.SetAttributes(attribute.String("boundary.id", b.ID))

	s.invalidate(ctx)
	if s.publisher != nil {
		if err := s.publisher.PublishBoundaryCreated(ctx, b); err != nil {
			slog.WarnContext(ctx, "publish boundary created", "id", b.ID, "error", err)
		}
	}
	s.refresh(ctx)
	return b, nil
}

// Delete removes a boundary.
func (s *BoundaryService) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("boundary id: %w", domain.ErrNotFound)
	}
	if err := s.boundaries.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete boundary %s: %w", id, err)
	}

	s.invalidate(ctx)
	if s.publisher != nil {
		if err := s.publisher.PublishBoundaryDeleted(ctx, id); err != nil {
			slog.WarnContext(ctx, "publish boundary deleted", "id", id, "error", err)
		}
	}
	s.refresh(ctx)
	return nil
}

func (s *BoundaryService) invalidate(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, boundaryListCacheKey)
	}
}

func (s *BoundaryService) refresh(ctx context.Context) {
	if s.refresher == nil {
		return
	}
	if err := s.refresher.RefreshBoundaries(ctx); err != nil {
		slog.WarnContext(ctx, "refresh boundaries", "error", err)
	}
}
