package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/poimap/internal/core/domain"
	"github.com/samirrijal/poimap/internal/core/ports"
	"github.com/samirrijal/poimap/internal/pkg/metrics"
	"github.com/samirrijal/poimap/internal/pkg/telemetry"
)

// Query defaults and caps.
const (
	DefaultRadiusMeters = 10000.0
	MaxRadiusMeters     = 100000.0
	MaxListLimit        = 1000
)

const (
	poiCacheTTL        = 600
	categoriesCacheTTL = 300
	countCacheTTL      = 300
	categoriesCacheKey = "poi:categories"
)

var tracer = otel.Tracer("github.com/samirrijal/poimap/internal/core/usecases")

// ListQuery selects points of interest. The first applicable branch wins:
// geo with categories, geo only, categories, search term, everything.
type ListQuery struct {
	Lat        *float64
	Lon        *float64
	Radius     float64 // meters, DefaultRadiusMeters when <= 0
	Categories []string
	Search     string
	Limit      int // capped at MaxListLimit, which also applies when <= 0
}

// POIService handles point-of-interest business logic.
type POIService struct {
	repo      ports.PointOfInterestRepository
	cache     ports.CacheService
	publisher ports.EventPublisher
	source    string
	now       func() time.Time
}

// NewPOIService creates a new POIService. cache and publisher may be nil.
func NewPOIService(repo ports.PointOfInterestRepository, cache ports.CacheService, publisher ports.EventPublisher) *POIService {
	return &POIService{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		source:    uuid.NewString(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Source identifies this instance in published events.
func (s *POIService) Source() string {
	return s.source
}

// ValidID reports whether id is a well-formed UUID.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func endSpan(span trace.Span, op string, err error) {
	status := "ok"
	if err != nil && !isClientError(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		status = "error"
	} else if err != nil {
		status = "rejected"
	}
	metrics.POIOperations.WithLabelValues(op, status).Inc()
	span.End()
}

func isClientError(err error) bool {
	var ve *domain.ValidationError
	return errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrIDMismatch) || errors.As(err, &ve)
}

// List runs the first matching query branch.
func (s *POIService) List(ctx context.Context, q ListQuery) (pois []domain.PointOfInterest, err error) {
	ctx, span := tracer.Start(ctx, "POIService.List")
	defer func() { endSpan(span, "list", err) }()

	limit := q.Limit
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}
	cats := cleanCategories(q.Categories)

	var branch string
	switch {
	case q.Lat != nil && q.Lon != nil:
		center, radius, verr := nearbyParams(*q.Lat, *q.Lon, q.Radius)
		if verr != nil {
			return nil, verr
		}
		branch = "nearby"
		if len(cats) > 0 {
			branch = "nearby_category"
		}
		span.SetAttributes(telemetry.AttrMapRadius.Float64(radius))
		pois, err = s.repo.FindNearby(ctx, domain.NearbyQuery{
			Center: center, RadiusMeters: radius, Categories: cats, Limit: limit,
		})

	case q.Lat != nil || q.Lon != nil:
		return nil, domain.NewValidationError("lat", "lat and lng must be given together")

	case len(cats) > 0:
		branch = "category"
		pois, err = s.byCategories(ctx, cats, limit)

	case strings.TrimSpace(q.Search) != "":
		branch = "search"
		span.SetAttributes(telemetry.AttrPOIQuery.String(q.Search))
		pois, err = s.repo.Search(ctx, strings.TrimSpace(q.Search), limit)

	default:
		branch = "all"
		pois, err = s.repo.List(ctx, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", branch, err)
	}

	if len(pois) > limit {
		pois = pois[:limit]
	}
	if pois == nil {
		pois = []domain.PointOfInterest{}
	}
	span.SetAttributes(telemetry.AttrPOIResults.Int(len(pois)))
	metrics.POIQueryResults.WithLabelValues(branch).Observe(float64(len(pois)))
	return pois, nil
}

// InBound returns up to MaxListLimit points of interest inside bound.
func (s *POIService) InBound(ctx context.Context, bound orb.Bound, categories []string) (pois []domain.PointOfInterest, err error) {
	ctx, span := tracer.Start(ctx, "POIService.InBound")
	defer func() { endSpan(span, "list", err) }()

	pois, err = s.repo.FindInBound(ctx, bound, cleanCategories(categories), MaxListLimit)
	if err != nil {
		return nil, fmt.Errorf("list bound: %w", err)
	}
	if pois == nil {
		pois = []domain.PointOfInterest{}
	}
	span.SetAttributes(telemetry.AttrPOIResults.Int(len(pois)))
	metrics.POIQueryResults.WithLabelValues("bound").Observe(float64(len(pois)))
	return pois, nil
}

func (s *POIService) byCategories(ctx context.Context, cats []string, limit int) ([]domain.PointOfInterest, error) {
	var out []domain.PointOfInterest
	for _, c := range cats {
		found, err := s.repo.FindByCategory(ctx, c, limit-len(out))
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func nearbyParams(lat, lon, radius float64) (orb.Point, float64, error) {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return orb.Point{}, 0, domain.NewValidationError("lat", "latitude must be between -90 and 90")
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return orb.Point{}, 0, domain.NewValidationError("lng", "longitude must be between -180 and 180")
	}
	if math.IsNaN(radius) || radius <= 0 {
		radius = DefaultRadiusMeters
	}
	if radius > MaxRadiusMeters {
		return orb.Point{}, 0, domain.NewValidationError("radius", fmt.Sprintf("radius must be at most %.0f meters", MaxRadiusMeters))
	}
	return orb.Point{lon, lat}, radius, nil
}

func cleanCategories(in []string) []string {
	var out []string
	seen := make(map[string]bool, len(in))
	for _, c := range in {
		c = domain.CleanCategory(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// Get returns a point of interest. Malformed ids are reported as not found.
func (s *POIService) Get(ctx context.Context, id string) (poi *domain.PointOfInterest, err error) {
	ctx, span := tracer.Start(ctx, "POIService.Get", trace.WithAttributes(telemetry.AttrPOIID.String(id)))
	defer func() { endSpan(span, "get", err) }()

	if !ValidID(id) {
		return nil, domain.ErrInvalidID
	}

	cacheKey := poiCacheKey(id)
	var cached domain.PointOfInterest
	if s.cacheGet(ctx, "poi", cacheKey, &cached) {
		return &cached, nil
	}

	poi, err = s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, cacheKey, poi, poiCacheTTL)
	return poi, nil
}

// Create validates and stores a new point of interest, assigning its id.
func (s *POIService) Create(ctx context.Context, poi *domain.PointOfInterest) (err error) {
	ctx, span := tracer.Start(ctx, "POIService.Create")
	defer func() { endSpan(span, "create", err) }()

	normalize(poi)
	if err := poi.Validate(); err != nil {
		return err
	}

	now := s.now()
	poi.ID = uuid.NewString()
	poi.CreatedAt = now
	poi.UpdatedAt = now
	poi.Distance = nil

	if err := s.repo.Create(ctx, poi); err != nil {
		return fmt.Errorf("create poi: %w", err)
	}
	span.SetAttributes(telemetry.AttrPOIID.String(poi.ID), telemetry.AttrPOICategory.String(poi.Category))

	s.invalidate(ctx, poi.ID, poi.Category)
	s.publish(ctx, domain.ActionCreated, poi.ID, poi.Category, poi)
	return nil
}

// Import stores pois in one batch without publishing per-item events.
// Invalid entries are skipped and counted in rejected.
func (s *POIService) Import(ctx context.Context, pois []domain.PointOfInterest) (stored, rejected int, err error) {
	ctx, span := tracer.Start(ctx, "POIService.Import")
	defer func() { endSpan(span, "import", err) }()

	now := s.now()
	batch := make([]domain.PointOfInterest, 0, len(pois))
	touched := map[string]bool{}
	for i := range pois {
		p := pois[i]
		p.Tags = append([]string(nil), p.Tags...)
		normalize(&p)
		if verr := p.Validate(); verr != nil {
			slog.DebugContext(ctx, "skipping invalid poi", "name", p.Name, "error", verr)
			rejected++
			continue
		}
		p.ID = uuid.NewString()
		p.CreatedAt = now
		p.UpdatedAt = now
		p.Distance = nil
		batch = append(batch, p)
		touched[p.Category] = true
	}
	if len(batch) == 0 {
		return 0, rejected, nil
	}

	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		return 0, rejected, fmt.Errorf("import pois: %w", err)
	}

	cats := make([]string, 0, len(touched))
	for c := range touched {
		cats = append(cats, c)
	}
	s.invalidate(ctx, "", cats...)
	return len(batch), rejected, nil
}

// Update replaces an existing point of interest. A non-empty body id must match id.
func (s *POIService) Update(ctx context.Context, id string, poi *domain.PointOfInterest) (err error) {
	ctx, span := tracer.Start(ctx, "POIService.Update", trace.WithAttributes(telemetry.AttrPOIID.String(id)))
	defer func() { endSpan(span, "update", err) }()

	if poi.ID != "" && poi.ID != id {
		return domain.ErrIDMismatch
	}
	if !ValidID(id) {
		return domain.ErrInvalidID
	}

	normalize(poi)
	if err := poi.Validate(); err != nil {
		return err
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	poi.ID = id
	poi.CreatedAt = existing.CreatedAt
	poi.UpdatedAt = s.now()
	poi.Distance = nil

	if err := s.repo.Update(ctx, poi); err != nil {
		return err
	}

	s.invalidate(ctx, id, existing.Category, poi.Category)
	s.publish(ctx, domain.ActionUpdated, id, poi.Category, poi)
	return nil
}

// Delete removes a point of interest. Missing or malformed ids are not an error.
func (s *POIService) Delete(ctx context.Context, id string) (err error) {
	ctx, span := tracer.Start(ctx, "POIService.Delete", trace.WithAttributes(telemetry.AttrPOIID.String(id)))
	defer func() { endSpan(span, "delete", err) }()

	if !ValidID(id) {
		return nil
	}

	// Category is only needed for cache keys and the event subject.
	var category string
	if existing, gerr := s.repo.GetByID(ctx, id); gerr == nil {
		category = existing.Category
	}

	existed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete poi: %w", err)
	}
	if !existed {
		return nil
	}

	s.invalidate(ctx, id, category)
	s.publish(ctx, domain.ActionDeleted, id, category, nil)
	return nil
}

// Categories returns the distinct categories in use, sorted.
func (s *POIService) Categories(ctx context.Context) (cats []string, err error) {
	ctx, span := tracer.Start(ctx, "POIService.Categories")
	defer func() { endSpan(span, "categories", err) }()

	if s.cacheGet(ctx, "categories", categoriesCacheKey, &cats) {
		return cats, nil
	}

	cats, err = s.repo.Categories(ctx)
	if err != nil {
		return nil, err
	}
	if cats == nil {
		cats = []string{}
	}
	s.cacheSet(ctx, categoriesCacheKey, cats, categoriesCacheTTL)
	return cats, nil
}

// CountByCategory counts points of interest in a category, case-insensitively.
func (s *POIService) CountByCategory(ctx context.Context, category string) (n int64, err error) {
	ctx, span := tracer.Start(ctx, "POIService.CountByCategory")
	defer func() { endSpan(span, "count", err) }()

	category = domain.CleanCategory(category)
	if category == "" {
		return 0, domain.NewValidationError("category", "is required")
	}
	span.SetAttributes(telemetry.AttrPOICategory.String(category))

	key := countCacheKey(category)
	if s.cacheGet(ctx, "count", key, &n) {
		return n, nil
	}

	n, err = s.repo.CountByCategory(ctx, category)
	if err != nil {
		return 0, err
	}
	s.cacheSet(ctx, key, n, countCacheTTL)
	return n, nil
}

// Ping checks the repository.
func (s *POIService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// HandleRemoteEvent drops cache entries touched by another instance.
// Events published by this instance are ignored.
func (s *POIService) HandleRemoteEvent(ctx context.Context, event *domain.POIEvent) error {
	if event.Source == s.source {
		return nil
	}
	metrics.EventsReceived.WithLabelValues(event.Action).Inc()
	cats := []string{event.Category}
	if event.POI != nil && event.POI.Category != event.Category {
		cats = append(cats, event.POI.Category)
	}
	s.invalidate(ctx, event.ID, cats...)
	return nil
}

func normalize(p *domain.PointOfInterest) {
	p.Name = strings.TrimSpace(p.Name)
	p.Category = domain.CleanCategory(p.Category)
	p.Details = strings.TrimSpace(p.Details)
	p.Href = ""
	if p.Location.Type == "" {
		p.Location.Type = domain.GeoJSONPoint
	}
	tags := p.Tags[:0]
	for _, t := range p.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	p.Tags = tags
}

func poiCacheKey(id string) string { return "poi:id:" + id }

func countCacheKey(category string) string { return "poi:count:" + category }

func (s *POIService) cacheGet(ctx context.Context, op, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	data, err := s.cache.Get(ctx, key)
	if err == nil && json.Unmarshal(data, dst) == nil {
		metrics.CacheHits.WithLabelValues(op).Inc()
		return true
	}
	metrics.CacheMisses.WithLabelValues(op).Inc()
	return false
}

func (s *POIService) cacheSet(ctx context.Context, key string, v any, ttl int) {
	if s.cache == nil {
		return
	}
	if data, err := json.Marshal(v); err == nil {
		_ = s.cache.Set(ctx, key, data, ttl)
	}
}

func (s *POIService) invalidate(ctx context.Context, id string, categories ...string) {
	if s.cache == nil {
		return
	}
	keys := []string{categoriesCacheKey}
	if id != "" {
		keys = append(keys, poiCacheKey(id))
	}
	for _, c := range categories {
		if c = domain.CleanCategory(c); c != "" {
			keys = append(keys, countCacheKey(c))
		}
	}
	for _, k := range keys {
		if err := s.cache.Delete(ctx, k); err != nil {
			slog.WarnContext(ctx, "cache invalidation failed", "key", k, "error", err)
		}
	}
}

func (s *POIService) publish(ctx context.Context, action, id, category string, poi *domain.PointOfInterest) {
	if s.publisher == nil {
		return
	}
	event := &domain.POIEvent{
		Action:     action,
		ID:         id,
		Category:   category,
		POI:        poi,
		Source:     s.source,
		OccurredAt: s.now(),
	}
	if err := s.publisher.PublishPOIEvent(ctx, event); err != nil {
		metrics.EventsPublished.WithLabelValues(action, "error").Inc()
		slog.WarnContext(ctx, "publish poi event failed", "action", action, "id", id, "error", err)
		return
	}
	metrics.EventsPublished.WithLabelValues(action, "ok").Inc()
}
