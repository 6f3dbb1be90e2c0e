package usecases_test

import (
	"context"
	"errors"
	"sync"

	"github.com/paulmach/orb"

	"github.com/samirrijal/poimap/internal/core/domain"
)

// --- Mock PointOfInterestRepository ---

type mockPOIRepo struct {
	createFn          func(ctx context.Context, poi *domain.PointOfInterest) error
	createBatchFn     func(ctx context.Context, pois []domain.PointOfInterest) error
	getByIDFn         func(ctx context.Context, id string) (*domain.PointOfInterest, error)
	updateFn          func(ctx context.Context, poi *domain.PointOfInterest) error
	deleteFn          func(ctx context.Context, id string) (bool, error)
	listFn            func(ctx context.Context, limit int) ([]domain.PointOfInterest, error)
	findNearbyFn      func(ctx context.Context, q domain.NearbyQuery) ([]domain.PointOfInterest, error)
	findInBoundFn     func(ctx context.Context, bound orb.Bound, categories []string, limit int) ([]domain.PointOfInterest, error)
	findByCategoryFn  func(ctx context.Context, category string, limit int) ([]domain.PointOfInterest, error)
	searchFn          func(ctx context.Context, term string, limit int) ([]domain.PointOfInterest, error)
	categoriesFn      func(ctx context.Context) ([]string, error)
	countByCategoryFn func(ctx context.Context, category string) (int64, error)
}

func (m *mockPOIRepo) Create(ctx context.Context, poi *domain.PointOfInterest) error {
	if m.createFn != nil {
		return m.createFn(ctx, poi)
	}
	return nil
}

func (m *mockPOIRepo) CreateBatch(ctx context.Context, pois []domain.PointOfInterest) error {
	if m.createBatchFn != nil {
		return m.createBatchFn(ctx, pois)
	}
	return nil
}

func (m *mockPOIRepo) GetByID(ctx context.Context, id string) (*domain.PointOfInterest, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockPOIRepo) Update(ctx context.Context, poi *domain.PointOfInterest) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, poi)
	}
	return nil
}

func (m *mockPOIRepo) Delete(ctx context.Context, id string) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return false, nil
}

func (m *mockPOIRepo) List(ctx context.Context, limit int) ([]domain.PointOfInterest, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockPOIRepo) FindNearby(ctx context.Context, q domain.NearbyQuery) ([]domain.PointOfInterest, error) {
	if m.findNearbyFn != nil {
		return m.findNearbyFn(ctx, q)
	}
	return nil, nil
}

func (m *mockPOIRepo) FindInBound(ctx context.Context, bound orb.Bound, categories []string, limit int) ([]domain.PointOfInterest, error) {
	if m.findInBoundFn != nil {
		return m.findInBoundFn(ctx, bound, categories, limit)
	}
	return nil, nil
}

func (m *mockPOIRepo) FindByCategory(ctx context.Context, category string, limit int) ([]domain.PointOfInterest, error) {
	if m.findByCategoryFn != nil {
		return m.findByCategoryFn(ctx, category, limit)
	}
	return nil, nil
}

func (m *mockPOIRepo) Search(ctx context.Context, term string, limit int) ([]domain.PointOfInterest, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, term, limit)
	}
	return nil, nil
}

func (m *mockPOIRepo) Categories(ctx context.Context) ([]string, error) {
	if m.categoriesFn != nil {
		return m.categoriesFn(ctx)
	}
	return nil, nil
}

func (m *mockPOIRepo) CountByCategory(ctx context.Context, category string) (int64, error) {
	if m.countByCategoryFn != nil {
		return m.countByCategoryFn(ctx, category)
	}
	return 0, nil
}

func (m *mockPOIRepo) Ping(ctx context.Context) error { return nil }

// --- Mock CacheService ---

var errCacheMiss = errors.New("miss")

type mockCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deleted []string
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (c *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, errCacheMiss
	}
	return v, nil
}

func (c *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mockCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	c.deleted = append(c.deleted, key)
	return nil
}

func (c *mockCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	events []*domain.POIEvent
	err    error
}

func (p *mockPublisher) PublishPOIEvent(ctx context.Context, event *domain.POIEvent) error {
	p.events = append(p.events, event)
	return p.err
}
