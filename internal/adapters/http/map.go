package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/poimap/internal/core/domain"
	"github.com/samirrijal/poimap/internal/core/usecases"
	"github.com/samirrijal/poimap/internal/pkg/poiformat"
)

// featureCollection renders points of interest as GeoJSON features with
// popup markup and icon class in their properties.
func featureCollection(base string, pois []domain.PointOfInterest) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i := range pois {
		p := &pois[i]
		f := geojson.NewFeature(p.Location.Coordinates)
		f.ID = p.ID
		f.Properties["name"] = p.Name
		f.Properties["category"] = p.Category
		f.Properties["details"] = p.Details
		f.Properties["icon"] = poiformat.CategoryIcon(p.Category)
		f.Properties["popup"] = usecases.PopupHTML(p)
		f.Properties["href"] = poiURL(base, p.ID)
		if len(p.Tags) > 0 {
			f.Properties["tags"] = p.Tags
		}
		if p.Distance != nil {
			f.Properties["distance"] = *p.Distance
		}
		fc.Append(f)
	}
	return fc
}

func sendGeoJSON(c *fiber.Ctx, fc *geojson.FeatureCollection) error {
	data, err := fc.MarshalJSON()
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/geo+json")
	return c.Send(data)
}

// viewportFromQuery runs a viewport search, falling back to the map defaults
// for any missing lat, lon or zoom.
func viewportFromQuery(c *fiber.Ctx, deps *Dependencies) (*domain.Viewport, error) {
	defaults := deps.Map.Defaults()

	lat, err := queryFloat(c, "lat")
	if err != nil {
		return nil, domain.NewValidationError("lat", err.Error())
	}
	lon, err := queryFloat(c, "lon", "lng")
	if err != nil {
		return nil, domain.NewValidationError("lon", err.Error())
	}
	zoom, err := queryFloat(c, "zoom")
	if err != nil {
		return nil, domain.NewValidationError("zoom", err.Error())
	}
	limit, err := queryLimit(c)
	if err != nil {
		return nil, domain.NewValidationError("limit", err.Error())
	}

	la, lo, z := defaults.Lat, defaults.Lon, float64(defaults.Zoom)
	if lat != nil {
		la = *lat
	}
	if lon != nil {
		lo = *lon
	}
	if zoom != nil {
		z = *zoom
	}
	return deps.Map.Viewport(c.UserContext(), la, lo, z, queryCategories(c), limit)
}

// MapPOIsHandler searches around the map center with the radius matching the zoom.
func MapPOIsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		vp, err := viewportFromQuery(c, deps)
		if err != nil {
			return writeError(c, err)
		}
		withHrefs(c, deps, vp.POIs)
		return c.JSON(vp)
	}
}

// MapGeoJSONHandler is MapPOIsHandler rendered as a GeoJSON FeatureCollection.
func MapGeoJSONHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		vp, err := viewportFromQuery(c, deps)
		if err != nil {
			return writeError(c, err)
		}
		c.Set("X-Search-Radius", strconv.Itoa(vp.Radius))
		return sendGeoJSON(c, featureCollection(baseURL(c, deps), vp.POIs))
	}
}

// TileHandler returns the points of interest inside a slippy-map tile as GeoJSON.
func TileHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var zxy [3]uint32
		for i, name := range []string{"z", "x", "y"} {
			v, err := strconv.ParseUint(c.Params(name), 10, 32)
			if err != nil {
				return errBadRequest(c, name+" must be a non-negative integer")
			}
			zxy[i] = uint32(v)
		}

		pois, err := deps.Map.Tile(c.UserContext(), zxy[0], zxy[1], zxy[2], queryCategories(c))
		if err != nil {
			return writeError(c, err)
		}
		return sendGeoJSON(c, featureCollection(baseURL(c, deps), pois))
	}
}

// RadiusHandler maps a zoom level to a search radius.
func RadiusHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		zoom, err := queryFloat(c, "zoom")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		if zoom == nil {
			return errBadRequest(c, "zoom query parameter is required")
		}
		return c.JSON(fiber.Map{"zoom": *zoom, "radius": deps.Map.RadiusForZoom(*zoom)})
	}
}

// ZoomHandler maps a stored radius back to the zoom level to restore.
func ZoomHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		radius, err := queryFloat(c, "radius")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		if radius == nil {
			return errBadRequest(c, "radius query parameter is required")
		}
		return c.JSON(fiber.Map{"radius": *radius, "zoom": deps.Map.RestoreZoom(*radius)})
	}
}

// MapConfigHandler returns defaults, the zoom table, radius bands and categories.
func MapConfigHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Map.Config())
	}
}
