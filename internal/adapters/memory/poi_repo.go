// Package memory is an in-process PointOfInterestRepository backed by an R-tree.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/paulmach/orb"
	"github.com/tidwall/rtree"

	"github.com/samirrijal/poimap/internal/core/domain"
	"github.com/samirrijal/poimap/internal/pkg/geospatial"
)

// POIRepo implements ports.PointOfInterestRepository in memory.
// Points are indexed as [lat, lon] rectangles of zero size.
type POIRepo struct {
	mu    sync.RWMutex
	pois  map[string]domain.PointOfInterest
	order []string // insertion order, used by List
	tree  rtree.RTree
}

// NewPOIRepo creates an empty repository.
func NewPOIRepo() *POIRepo {
	return &POIRepo{pois: make(map[string]domain.PointOfInterest)}
}

func indexKey(p orb.Point) [2]float64 {
	return [2]float64{p.Lat(), p.Lon()}
}

// Create stores a new point of interest. The caller assigns the ID.
func (r *POIRepo) Create(ctx context.Context, poi *domain.PointOfInterest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.insert(*poi)
	return nil
}

// CreateBatch stores many points of interest under one lock.
func (r *POIRepo) CreateBatch(ctx context.Context, pois []domain.PointOfInterest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pois {
		r.insert(p)
	}
	return nil
}

func (r *POIRepo) insert(p domain.PointOfInterest) {
	p.Category = domain.CleanCategory(p.Category)
	p.Distance = nil
	p.Href = ""
	if old, exists := r.pois[p.ID]; exists {
		r.tree.Delete(indexKey(old.Location.Coordinates), indexKey(old.Location.Coordinates), old.ID)
	} else {
		r.order = append(r.order, p.ID)
	}
	r.pois[p.ID] = detach(p)
	r.tree.Insert(indexKey(p.Location.Coordinates), indexKey(p.Location.Coordinates), p.ID)
}

// GetByID returns a copy of the stored point of interest.
func (r *POIRepo) GetByID(ctx context.Context, id string) (*domain.PointOfInterest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pois[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p = detach(p)
	return &p, nil
}

// Update replaces an existing point of interest.
func (r *POIRepo) Update(ctx context.Context, poi *domain.PointOfInterest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pois[poi.ID]; !ok {
		return domain.ErrNotFound
	}
	r.insert(*poi)
	return nil
}

// Delete removes a point of interest and reports whether it existed.
func (r *POIRepo) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pois[id]
	if !ok {
		return false, nil
	}
	r.tree.Delete(indexKey(p.Location.Coordinates), indexKey(p.Location.Coordinates), id)
	delete(r.pois, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// List returns points of interest in insertion order.
func (r *POIRepo) List(ctx context.Context, limit int) ([]domain.PointOfInterest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.PointOfInterest, 0, len(r.order))
	for _, id := range r.order {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, detach(r.pois[id]))
	}
	return out, nil
}

// FindNearby searches the R-tree with the bounding box of the circle and keeps
// candidates whose haversine distance is within the radius.
func (r *POIRepo) FindNearby(ctx context.Context, q domain.NearbyQuery) ([]domain.PointOfInterest, error) {
	bound := geospatial.BoundAround(q.Center, q.RadiusMeters)
	cats := categorySet(q.Categories)

	r.mu.RLock()
	var out []domain.PointOfInterest
	r.tree.Search(indexKey(bound.Min), indexKey(bound.Max), func(min, max [2]float64, data interface{}) bool {
		p := r.pois[data.(string)]
		if cats != nil && !cats[p.Category] {
			return true
		}
		dist := geospatial.Distance(q.Center, p.Location.Coordinates)
		if dist > q.RadiusMeters {
			return true
		}
		p = detach(p)
		p.Distance = &dist
		out = append(out, p)
		return true
	})
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return *out[i].Distance < *out[j].Distance })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// FindInBound returns the points inside bound in insertion order. The limit
// applies after the bound and category filters.
func (r *POIRepo) FindInBound(ctx context.Context, bound orb.Bound, categories []string, limit int) ([]domain.PointOfInterest, error) {
	cats := categorySet(categories)

	r.mu.RLock()
	hits := make(map[string]bool)
	r.tree.Search(indexKey(bound.Min), indexKey(bound.Max), func(min, max [2]float64, data interface{}) bool {
		id := data.(string)
		if cats == nil || cats[r.pois[id].Category] {
			hits[id] = true
		}
		return true
	})
	r.mu.RUnlock()

	if len(hits) == 0 {
		return nil, nil
	}
	return r.filter(limit, func(p domain.PointOfInterest) bool { return hits[p.ID] }), nil
}

// FindByCategory matches categories case-insensitively.
func (r *POIRepo) FindByCategory(ctx context.Context, category string, limit int) ([]domain.PointOfInterest, error) {
	want := domain.CleanCategory(category)
	return r.filter(limit, func(p domain.PointOfInterest) bool { return p.Category == want }), nil
}

// Search matches a case-insensitive substring of name or details, or an exact tag.
func (r *POIRepo) Search(ctx context.Context, term string, limit int) ([]domain.PointOfInterest, error) {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return nil, nil
	}
	return r.filter(limit, func(p domain.PointOfInterest) bool {
		if strings.Contains(strings.ToLower(p.Name), needle) || strings.Contains(strings.ToLower(p.Details), needle) {
			return true
		}
		for _, tag := range p.Tags {
			if strings.ToLower(tag) == needle {
				return true
			}
		}
		return false
	}), nil
}

func (r *POIRepo) filter(limit int, keep func(domain.PointOfInterest) bool) []domain.PointOfInterest {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.PointOfInterest
	for _, id := range r.order {
		if limit > 0 && len(out) >= limit {
			break
		}
		if p := r.pois[id]; keep(p) {
			out = append(out, detach(p))
		}
	}
	return out
}

// Categories returns distinct non-blank categories, sorted.
func (r *POIRepo) Categories(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	seen := make(map[string]struct{})
	for _, p := range r.pois {
		if p.Category != "" {
			seen[p.Category] = struct{}{}
		}
	}
	r.mu.RUnlock()

	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

// CountByCategory counts case-insensitively.
func (r *POIRepo) CountByCategory(ctx context.Context, category string) (int64, error) {
	want := domain.CleanCategory(category)
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, p := range r.pois {
		if p.Category == want {
			n++
		}
	}
	return n, nil
}

// Ping always succeeds.
func (r *POIRepo) Ping(ctx context.Context) error {
	return nil
}

// detach copies the tag slice so callers never share it with the store.
func detach(p domain.PointOfInterest) domain.PointOfInterest {
	if p.Tags != nil {
		p.Tags = append([]string(nil), p.Tags...)
	}
	return p
}

func categorySet(categories []string) map[string]bool {
	if len(categories) == 0 {
		return nil
	}
	set := make(map[string]bool, len(categories))
	for _, c := range categories {
		set[domain.CleanCategory(c)] = true
	}
	return set
}
