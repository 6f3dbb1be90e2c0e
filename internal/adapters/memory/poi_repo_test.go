package memory_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/poimap/internal/adapters/memory"
	"github.com/samirrijal/poimap/internal/core/domain"
)

// Dresden city center and a few points around it.
var center = orb.Point{13.7373, 51.0504}

func seed(t *testing.T) *memory.POIRepo {
	t.Helper()
	repo := memory.NewPOIRepo()
	pois := []domain.PointOfInterest{
		{ID: "1", Name: "Frauenkirche", Category: "Other", Details: "Neumarkt", Tags: []string{"church"}, Location: domain.NewLocation(51.0519, 13.7416)},
		{ID: "2", Name: "Café Schinkelwache", Category: "coffee", Details: "Theaterplatz 2", Location: domain.NewLocation(51.0540, 13.7365)},
		{ID: "3", Name: "Hauptbahnhof Parking", Category: "parking", Details: "Wiener Platz", Location: domain.NewLocation(51.0404, 13.7320)},
		{ID: "4", Name: "Pillnitz Café", Category: "Coffee", Details: "Schloss Pillnitz", Location: domain.NewLocation(51.0080, 13.8700)},
		{ID: "5", Name: "Leipzig Zoo", Category: "other", Details: "Pfaffendorfer Str. 29", Location: domain.NewLocation(51.3486, 12.3709)},
	}
	require.NoError(t, repo.CreateBatch(context.Background(), pois))
	return repo
}

func TestFindNearby_RadiusAndOrder(t *testing.T) {
	repo := seed(t)

	got, err := repo.FindNearby(context.Background(), domain.NearbyQuery{Center: center, RadiusMeters: 2000})
	require.NoError(t, err)

	ids := make([]string, len(got))
	for i, p := range got {
		ids[i] = p.ID
		require.NotNil(t, p.Distance)
		assert.LessOrEqual(t, *p.Distance, 2000.0)
	}
	assert.Equal(t, []string{"1", "2", "3"}, ids)
}

func TestFindNearby_LargeRadiusAndLimit(t *testing.T) {
	repo := seed(t)

	got, err := repo.FindNearby(context.Background(), domain.NearbyQuery{Center: center, RadiusMeters: 50000})
	require.NoError(t, err)
	assert.Len(t, got, 4, "Leipzig is ~100 km away")

	got, err = repo.FindNearby(context.Background(), domain.NearbyQuery{Center: center, RadiusMeters: 50000, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestFindNearby_Categories(t *testing.T) {
	repo := seed(t)

	got, err := repo.FindNearby(context.Background(), domain.NearbyQuery{
		Center: center, RadiusMeters: 20000, Categories: []string{"COFFEE"},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].ID)
	assert.Equal(t, "4", got[1].ID)
}

func TestFindInBound(t *testing.T) {
	repo := seed(t)
	ctx := context.Background()
	// Dresden old town; excludes Pillnitz and Leipzig.
	bound := orb.Bound{Min: orb.Point{13.72, 51.03}, Max: orb.Point{13.76, 51.06}}

	got, err := repo.FindInBound(ctx, bound, nil, 0)
	require.NoError(t, err)
	ids := make([]string, len(got))
	for i, p := range got {
		ids[i] = p.ID
	}
	assert.Equal(t, []string{"1", "2", "3"}, ids)

	got, err = repo.FindInBound(ctx, bound, []string{"Coffee"}, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)

	got, err = repo.FindInBound(ctx, bound, nil, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestFindInBound_LimitAppliesAfterBound(t *testing.T) {
	repo := memory.NewPOIRepo()
	ctx := context.Background()

	far := make([]domain.PointOfInterest, 1500)
	for i := range far {
		far[i] = domain.PointOfInterest{
			ID:       fmt.Sprintf("syd-%d", i),
			Name:     "Sydney",
			Category: "other",
			Location: domain.NewLocation(-33.86, 151.2),
		}
	}
	require.NoError(t, repo.CreateBatch(ctx, far))
	require.NoError(t, repo.Create(ctx, &domain.PointOfInterest{
		ID: "dd", Name: "Zwinger", Category: "other", Location: domain.NewLocation(51.0530, 13.7335),
	}))

	bound := orb.Bound{Min: orb.Point{13, 51}, Max: orb.Point{14, 52}}
	got, err := repo.FindInBound(ctx, bound, nil, 1000)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "dd", got[0].ID)
}

func TestReturnedTagsAreDetached(t *testing.T) {
	ctx := context.Background()
	repo := seed(t)

	p, err := repo.GetByID(ctx, "1")
	require.NoError(t, err)
	p.Tags[0] = "mutated"

	listed, err := repo.List(ctx, 0)
	require.NoError(t, err)
	listed[0].Tags[0] = "mutated"

	again, err := repo.GetByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"church"}, again.Tags)

	tags := []string{"a"}
	require.NoError(t, repo.Create(ctx, &domain.PointOfInterest{ID: "6", Name: "x", Tags: tags, Location: domain.NewLocation(51, 13)}))
	tags[0] = "b"
	stored, err := repo.GetByID(ctx, "6")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, stored.Tags)
}

func TestCRUD(t *testing.T) {
	ctx := context.Background()
	repo := seed(t)

	p, err := repo.GetByID(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "coffee", p.Category)

	p.Location = domain.NewLocation(51.3400, 12.3700)
	p.Category = "Restaurant"
	require.NoError(t, repo.Update(ctx, p))

	got, err := repo.FindNearby(ctx, domain.NearbyQuery{Center: center, RadiusMeters: 2000})
	require.NoError(t, err)
	for _, g := range got {
		assert.NotEqual(t, "2", g.ID, "moved point must leave the old index position")
	}

	updated, err := repo.GetByID(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "restaurant", updated.Category)

	existed, err := repo.Delete(ctx, "2")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = repo.Delete(ctx, "2")
	require.NoError(t, err)
	assert.False(t, existed)

	_, err = repo.GetByID(ctx, "2")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	err = repo.Update(ctx, &domain.PointOfInterest{ID: "missing"})
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	all, err := repo.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "1", all[0].ID)
}

func TestFindByCategoryAndCount(t *testing.T) {
	ctx := context.Background()
	repo := seed(t)

	got, err := repo.FindByCategory(ctx, "OTHER", 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = repo.FindByCategory(ctx, "other", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	n, err := repo.CountByCategory(ctx, "Coffee")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = repo.CountByCategory(ctx, "police")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	repo := seed(t)

	got, err := repo.Search(ctx, "café", 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = repo.Search(ctx, "CHURCH", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)

	got, err = repo.Search(ctx, "platz", 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = repo.Search(ctx, "   ", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCategories(t *testing.T) {
	ctx := context.Background()
	repo := seed(t)
	require.NoError(t, repo.Create(ctx, &domain.PointOfInterest{ID: "6", Category: "  ", Details: "x", Location: domain.NewLocation(0, 0)}))

	cats, err := repo.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"coffee", "other", "parking"}, cats)
}

func TestConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewPOIRepo()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				id := fmt.Sprintf("%d-%d", i, j)
				_ = repo.Create(ctx, &domain.PointOfInterest{ID: id, Category: "other", Details: "d",
					Location: domain.NewLocation(51+float64(j)/1000, 13.7)})
				_, _ = repo.FindNearby(ctx, domain.NearbyQuery{Center: center, RadiusMeters: 10000})
				if j%2 == 0 {
					_, _ = repo.Delete(ctx, id)
				}
			}
		}(i)
	}
	wg.Wait()

	all, err := repo.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 8*25)
}
