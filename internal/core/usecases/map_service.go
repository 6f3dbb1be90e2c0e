package usecases

import (
	"context"
	"fmt"
	"math"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/poimap/internal/core/domain"
	"github.com/samirrijal/poimap/internal/pkg/geospatial"
	"github.com/samirrijal/poimap/internal/pkg/metrics"
	"github.com/samirrijal/poimap/internal/pkg/poiformat"
	"github.com/samirrijal/poimap/internal/pkg/telemetry"
)

// MapConfig is what a map client needs to initialise itself.
type MapConfig struct {
	Defaults       domain.MapDefaults      `json:"defaults"`
	ZoomTable      []geospatial.ZoomRadius `json:"zoom_table"`
	RadiusBands    []geospatial.RadiusBand `json:"radius_bands"`
	FallbackRadius int                     `json:"fallback_radius"`
	Categories     []string                `json:"categories"`
}

// MapService turns map state (zoom, tiles) into point-of-interest queries.
type MapService struct {
	pois     *POIService
	mapper   *geospatial.ZoomRadiusMapper
	defaults domain.MapDefaults
}

// NewMapService creates a new MapService.
func NewMapService(pois *POIService, mapper *geospatial.ZoomRadiusMapper, defaults domain.MapDefaults) *MapService {
	return &MapService{pois: pois, mapper: mapper, defaults: defaults}
}

// RadiusForZoom returns the search radius in meters for a zoom level.
func (s *MapService) RadiusForZoom(zoom float64) int {
	return s.mapper.RadiusForZoom(zoom)
}

// RestoreZoom returns the zoom level to restore for a stored radius.
func (s *MapService) RestoreZoom(radius float64) int {
	return s.mapper.ZoomForRadius(radius)
}

// Defaults returns the initial map view.
func (s *MapService) Defaults() domain.MapDefaults {
	return s.defaults
}

// Config returns defaults, the zoom table, radius bands and the known categories.
func (s *MapService) Config() MapConfig {
	cats := make([]string, len(domain.KnownCategories))
	copy(cats, domain.KnownCategories)
	return MapConfig{
		Defaults:       s.defaults,
		ZoomTable:      s.mapper.Table(),
		RadiusBands:    s.mapper.Bands(),
		FallbackRadius: s.mapper.FallbackRadius(),
		Categories:     cats,
	}
}

// Viewport searches around the map center with the radius that fits zoom.
func (s *MapService) Viewport(ctx context.Context, lat, lon, zoom float64, categories []string, limit int) (*domain.Viewport, error) {
	ctx, span := tracer.Start(ctx, "MapService.Viewport", trace.WithAttributes(
		telemetry.AttrMapZoom.Float64(zoom),
	))
	defer span.End()

	if math.IsNaN(zoom) || math.IsInf(zoom, 0) {
		return nil, domain.NewValidationError("zoom", "must be a finite number")
	}

	radius := s.mapper.RadiusForZoom(zoom)
	span.SetAttributes(telemetry.AttrMapRadius.Int(radius))
	metrics.MapSearchRadius.Observe(float64(radius))

	pois, err := s.pois.List(ctx, ListQuery{
		Lat:        &lat,
		Lon:        &lon,
		Radius:     float64(radius),
		Categories: categories,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}

	return &domain.Viewport{
		Center: domain.NewLocation(lat, lon),
		Zoom:   zoom,
		Radius: radius,
		POIs:   pois,
	}, nil
}

// Tile returns points of interest inside a slippy-map tile.
func (s *MapService) Tile(ctx context.Context, z, x, y uint32, categories []string) ([]domain.PointOfInterest, error) {
	ctx, span := tracer.Start(ctx, "MapService.Tile", trace.WithAttributes(
		attribute.String("map.tile", fmt.Sprintf("%d/%d/%d", z, x, y)),
	))
	defer span.End()

	if !geospatial.ValidTile(z, x, y) {
		return nil, domain.NewValidationError("tile", fmt.Sprintf("%d/%d/%d is outside the tile grid", z, x, y))
	}

	bound := geospatial.TileBound(z, x, y)
	span.SetAttributes(telemetry.AttrMapRadius.Float64(geospatial.CoveringRadius(bound)))

	out, err := s.pois.InBound(ctx, bound, categories)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(telemetry.AttrPOIResults.Int(len(out)))
	return out, nil
}

// Popup renders the HTML popup of a point of interest.
func (s *MapService) Popup(ctx context.Context, id string) (string, error) {
	poi, err := s.pois.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return PopupHTML(poi), nil
}

// PopupHTML renders a popup without a lookup.
func PopupHTML(poi *domain.PointOfInterest) string {
	return poiformat.Popup(poi.Category, poi.Details)
}
