package usecases_test

import (
	"context"
	"errors"
	"sync"

	"github.com/samirrijal/smarttrack/internal/core/domain"
)

// --- Mock BoundaryRepository ---

type mockBoundaryRepo struct {
	listFn    func(ctx context.Context) ([]domain.Boundary, error)
	getByIDFn func(ctx context.Context, id string) (*domain.Boundary, error)
	createFn  func(ctx context.Context, draft domain.BoundaryDraft) (*domain.Boundary, error)
	deleteFn  func(ctx context.Context, id string) error
}

func (m *mockBoundaryRepo) List(ctx context.Context) ([]domain.Boundary, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockBoundaryRepo) GetByID(ctx context.Context, id string) (*domain.Boundary, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockBoundaryRepo) Create(ctx context.Context, draft domain.BoundaryDraft) (*domain.Boundary, error) {
	if m.createFn != nil {
		return m.createFn(ctx, draft)
	}
	return &domain.Boundary{ID: "b-1", Name: draft.Name, Coords: draft.Coords, Color: draft.Color}, nil
}

func (m *mockBoundaryRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// --- Mock UserRepository ---

type mockUserRepo struct {
	listFn           func(ctx context.Context) ([]domain.User, error)
	getByIDFn        func(ctx context.Context, id string) (*domain.User, error)
	updateLocationFn func(ctx context.Context, update domain.LocationUpdate) error
}

func (m *mockUserRepo) List(ctx context.Context) ([]domain.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockUserRepo) Upsert(ctx context.Context, user *domain.User) error { return nil }

func (m *mockUserRepo) UpdateLocation(ctx context.Context, update domain.LocationUpdate) error {
	if m.updateLocationFn != nil {
		return m.updateLocationFn(ctx, update)
	}
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	created   []string
	deleted   []string
	locations []domain.LocationUpdate
	err       error
}

func (m *mockPublisher) PublishBoundaryCreated(ctx context.Context, b *domain.Boundary) error {
	m.created = append(m.created, b.ID)
	return m.err
}

func (m *mockPublisher) PublishBoundaryDeleted(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return m.err
}

func (m *mockPublisher) PublishLocation(ctx context.Context, update *domain.LocationUpdate) error {
	m.locations = append(m.locations, *update)
	return m.err
}

// --- In-memory CacheService ---

var errCacheMiss = errors.New("cache miss")

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]int
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte), ttls: make(map[string]int)}
}

func (c *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, errCacheMiss
	}
	return v, nil
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.ttls[key] = ttlSeconds
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// --- Mock Geocoder ---

type mockGeocoder struct {
	calls    int
	searchFn func(ctx context.Context, query string, limit int) ([]domain.GeocodeResult, error)
}

func (m *mockGeocoder) Search(ctx context.Context, query string, limit int) ([]domain.GeocodeResult, error) {
	m.calls++
	if m.searchFn != nil {
		return m.searchFn(ctx, query, limit)
	}
	return nil, nil
}

// --- Refresher / sink doubles ---

type countingRefresher struct {
	users, boundaries int
}

func (r *countingRefresher) RefreshUsers(ctx context.Context) error {
	r.users++
	return nil
}

func (r *countingRefresher) RefreshBoundaries(ctx context.Context) error {
	r.boundaries++
	return nil
}

type recordingSink struct {
	mu         sync.Mutex
	userSeqs   []uint64
	boundSeqs  []uint64
	lastUsers  []domain.User
	lastBounds []domain.Boundary
}

func (s *recordingSink) PushUsers(seq uint64, users []domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userSeqs = append(s.userSeqs, seq)
	s.lastUsers = users
}

func (s *recordingSink) PushBoundaries(seq uint64, boundaries []domain.Boundary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boundSeqs = append(s.boundSeqs, seq)
	s.lastBounds = boundaries
}

func ptr(f float64) *float64 { return &f }

var triangle = []domain.LatLng{
	{Lat: 28.61, Lng: 77.20},
	{Lat: 28.62, Lng: 77.21},
	{Lat: 28.60, Lng: 77.22},
}
