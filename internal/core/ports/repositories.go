package ports

import (
	"context"

	"github.com/paulmach/orb"

	"github.com/samirrijal/poimap/internal/core/domain"
)

// PointOfInterestRepository persists points of interest.
// Implementations return domain.ErrNotFound for missing records.
type PointOfInterestRepository interface {
	Create(ctx context.Context, poi *domain.PointOfInterest) error
	CreateBatch(ctx context.Context, pois []domain.PointOfInterest) error
	GetByID(ctx context.Context, id string) (*domain.PointOfInterest, error)
	Update(ctx context.Context, poi *domain.PointOfInterest) error
	// Delete removes a record and reports whether it existed.
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, limit int) ([]domain.PointOfInterest, error)
	// FindNearby returns records within the radius, closest first, with Distance set.
	FindNearby(ctx context.Context, q domain.NearbyQuery) ([]domain.PointOfInterest, error)
	// FindInBound returns records inside a lon/lat box. The limit applies after the box filter.
	FindInBound(ctx context.Context, bound orb.Bound, categories []string, limit int) ([]domain.PointOfInterest, error)
	FindByCategory(ctx context.Context, category string, limit int) ([]domain.PointOfInterest, error)
	Search(ctx context.Context, term string, limit int) ([]domain.PointOfInterest, error)
	// Categories returns distinct non-blank categories, sorted.
	Categories(ctx context.Context) ([]string, error)
	CountByCategory(ctx context.Context, category string) (int64, error)
	Ping(ctx context.Context) error
}
