package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/paulmach/orb"

	"github.com/samirrijal/poimap/internal/core/domain"
)

const poiColumns = `id::text, name, category, details, tags,
		       ST_Y(location::geometry) AS lat,
		       ST_X(location::geometry) AS lon,
		       created_at, updated_at`

const insertPOI = `
	INSERT INTO points_of_interest (id, name, category, details, tags, location, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, ST_SetSRID(ST_MakePoint($6, $7), 4326)::geography, $8, $9)
`

// POIRepo implements ports.PointOfInterestRepository with pgx and PostGIS.
type POIRepo struct {
	db *DB
}

// NewPOIRepo creates a new POIRepo.
func NewPOIRepo(db *DB) *POIRepo {
	return &POIRepo{db: db}
}

func insertArgs(p *domain.PointOfInterest) []any {
	return []any{
		p.ID, p.Name, domain.CleanCategory(p.Category), p.Details, nonNilTags(p.Tags),
		p.Location.Lon(), p.Location.Lat(), p.CreatedAt, p.UpdatedAt,
	}
}

// Create inserts a single point of interest.
func (r *POIRepo) Create(ctx context.Context, p *domain.PointOfInterest) error {
	_, err := r.db.Pool.Exec(ctx, insertPOI, insertArgs(p)...)
	return err
}

// CreateBatch inserts many points of interest using pgx.Batch.
func (r *POIRepo) CreateBatch(ctx context.Context, pois []domain.PointOfInterest) error {
	if len(pois) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i := range pois {
		batch.Queue(insertPOI, insertArgs(&pois[i])...)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range pois {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// GetByID returns a point of interest by UUID.
func (r *POIRepo) GetByID(ctx context.Context, id string) (*domain.PointOfInterest, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+poiColumns+` FROM points_of_interest WHERE id = $1`, id)
	p, err := scanPOI(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Update replaces the mutable fields of a point of interest.
func (r *POIRepo) Update(ctx context.Context, p *domain.PointOfInterest) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE points_of_interest
		SET name = $2, category = $3, details = $4, tags = $5,
		    location = ST_SetSRID(ST_MakePoint($6, $7), 4326)::geography,
		    updated_at = $8
		WHERE id = $1
	`, p.ID, p.Name, domain.CleanCategory(p.Category), p.Details, nonNilTags(p.Tags),
		p.Location.Lon(), p.Location.Lat(), p.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a point of interest and reports whether a row existed.
func (r *POIRepo) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM points_of_interest WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// List returns points of interest, oldest first.
func (r *POIRepo) List(ctx context.Context, limit int) ([]domain.PointOfInterest, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+poiColumns+`
		FROM points_of_interest
		ORDER BY created_at, id
		LIMIT $1
	`, limitArg(limit))
	if err != nil {
		return nil, err
	}
	return collectPOIs(rows)
}

// FindNearby returns points within RadiusMeters using PostGIS ST_DWithin.
func (r *POIRepo) FindNearby(ctx context.Context, q domain.NearbyQuery) ([]domain.PointOfInterest, error) {
	cats := cleanCategories(q.Categories)

	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+poiColumns+`,
		       ST_Distance(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) AS distance
		FROM points_of_interest
		WHERE ST_DWithin(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
		  AND (cardinality($4::text[]) = 0 OR category = ANY($4))
		ORDER BY distance
		LIMIT $5
	`, q.Center.Lon(), q.Center.Lat(), q.RadiusMeters, cats, limitArg(q.Limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pois []domain.PointOfInterest
	for rows.Next() {
		var p domain.PointOfInterest
		var lat, lon, dist float64
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Category, &p.Details, &p.Tags,
			&lat, &lon, &p.CreatedAt, &p.UpdatedAt, &dist,
		); err != nil {
			return nil, err
		}
		p.Location = domain.NewLocation(lat, lon)
		p.Distance = &dist
		pois = append(pois, p)
	}
	return pois, rows.Err()
}

// FindInBound returns points inside a lon/lat bounding box, oldest first.
func (r *POIRepo) FindInBound(ctx context.Context, bound orb.Bound, categories []string, limit int) ([]domain.PointOfInterest, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+poiColumns+`
		FROM points_of_interest
		WHERE location::geometry && ST_MakeEnvelope($1, $2, $3, $4, 4326)
		  AND (cardinality($5::text[]) = 0 OR category = ANY($5))
		ORDER BY created_at, id
		LIMIT $6
	`, bound.Min.Lon(), bound.Min.Lat(), bound.Max.Lon(), bound.Max.Lat(), cleanCategories(categories), limitArg(limit))
	if err != nil {
		return nil, err
	}
	return collectPOIs(rows)
}

// FindByCategory matches the stored lowercase category.
func (r *POIRepo) FindByCategory(ctx context.Context, category string, limit int) ([]domain.PointOfInterest, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+poiColumns+`
		FROM points_of_interest
		WHERE category = $1
		ORDER BY created_at, id
		LIMIT $2
	`, domain.CleanCategory(category), limitArg(limit))
	if err != nil {
		return nil, err
	}
	return collectPOIs(rows)
}

// Search matches a case-insensitive substring of name or details, or an exact tag.
func (r *POIRepo) Search(ctx context.Context, term string, limit int) ([]domain.PointOfInterest, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+poiColumns+`
		FROM points_of_interest
		WHERE name ILIKE $1 ESCAPE '\' OR details ILIKE $1 ESCAPE '\'
		   OR lower($2) = ANY(SELECT lower(t) FROM unnest(tags) AS t)
		ORDER BY created_at, id
		LIMIT $3
	`, "%"+escapeLike(term)+"%", term, limitArg(limit))
	if err != nil {
		return nil, err
	}
	return collectPOIs(rows)
}

// Categories returns distinct non-blank categories, sorted.
func (r *POIRepo) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT DISTINCT category FROM points_of_interest
		WHERE btrim(category) <> ''
		ORDER BY category
	`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// CountByCategory counts rows of a category.
func (r *POIRepo) CountByCategory(ctx context.Context, category string) (int64, error) {
	var n int64
	err := r.db.Pool.QueryRow(ctx,
		`SELECT count(*) FROM points_of_interest WHERE category = $1`,
		domain.CleanCategory(category),
	).Scan(&n)
	return n, err
}

// Ping checks database connectivity.
func (r *POIRepo) Ping(ctx context.Context) error {
	return r.db.Pool.Ping(ctx)
}

func scanPOI(row pgx.Row) (*domain.PointOfInterest, error) {
	var p domain.PointOfInterest
	var lat, lon float64
	if err := row.Scan(
		&p.ID, &p.Name, &p.Category, &p.Details, &p.Tags,
		&lat, &lon, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Location = domain.NewLocation(lat, lon)
	return &p, nil
}

func collectPOIs(rows pgx.Rows) ([]domain.PointOfInterest, error) {
	defer rows.Close()
	var pois []domain.PointOfInterest
	for rows.Next() {
		p, err := scanPOI(rows)
		if err != nil {
			return nil, err
		}
		pois = append(pois, *p)
	}
	return pois, rows.Err()
}

// limitArg maps "no limit" to NULL, which LIMIT treats as unbounded.
func limitArg(limit int) *int {
	if limit <= 0 {
		return nil
	}
	return &limit
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func cleanCategories(in []string) []string {
	out := make([]string, 0, len(in))
	for _, c := range in {
		out = append(out, domain.CleanCategory(c))
	}
	return out
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
