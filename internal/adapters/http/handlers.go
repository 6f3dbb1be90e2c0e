package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/poimap/internal/core/domain"
	"github.com/samirrijal/poimap/internal/core/usecases"
)

// queryFloat parses the first present key. Absent keys yield nil.
func queryFloat(c *fiber.Ctx, keys ...string) (*float64, error) {
	for _, k := range keys {
		raw := strings.TrimSpace(c.Query(k))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%s must be a number", k)
		}
		return &v, nil
	}
	return nil, nil
}

func queryLimit(c *fiber.Ctx) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("limit must be a non-negative integer")
	}
	return n, nil
}

// queryCategories accepts repeated and comma separated category parameters.
func queryCategories(c *fiber.Ctx) []string {
	var out []string
	for _, raw := range c.Context().QueryArgs().PeekMulti("category") {
		for _, part := range strings.Split(string(raw), ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func baseURL(c *fiber.Ctx, deps *Dependencies) string {
	if deps.BaseURL != "" {
		return strings.TrimRight(deps.BaseURL, "/")
	}
	return c.BaseURL()
}

func poiURL(base, id string) string {
	return base + "/v1/poi/" + id
}

func withHrefs(c *fiber.Ctx, deps *Dependencies, pois []domain.PointOfInterest) []domain.PointOfInterest {
	base := baseURL(c, deps)
	for i := range pois {
		pois[i].Href = poiURL(base, pois[i].ID)
	}
	return pois
}

func parsePOIBody(c *fiber.Ctx) (*domain.PointOfInterest, error) {
	var poi domain.PointOfInterest
	if err := json.Unmarshal(c.Body(), &poi); err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			return nil, ve
		}
		return nil, domain.NewValidationError("body", "must be a JSON point of interest")
	}
	return &poi, nil
}

// ListPOIsHandler lists points of interest by location, category, search term or all.
func ListPOIsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat, err := queryFloat(c, "lat")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		lon, err := queryFloat(c, "lng", "lon")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		radius, err := queryFloat(c, "radius")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		limit, err := queryLimit(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		q := usecases.ListQuery{
			Lat:        lat,
			Lon:        lon,
			Categories: queryCategories(c),
			Search:     c.Query("search"),
			Limit:      limit,
		}
		if radius != nil {
			if *radius <= 0 {
				return errBadRequest(c, "radius must be positive")
			}
			q.Radius = *radius
		}
		paged := c.Query("offset") != ""
		if paged {
			// Page over the whole capped result set.
			q.Limit = 0
		}

		pois, err := deps.POIs.List(c.UserContext(), q)
		if err != nil {
			return writeError(c, err)
		}
		if paged {
			if pois, err = paginate(c, pois, limit); err != nil {
				return errBadRequest(c, err.Error())
			}
		}
		return c.JSON(withHrefs(c, deps, pois))
	}
}

// GetPOIHandler returns a single point of interest.
func GetPOIHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		poi, err := deps.POIs.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeError(c, err)
		}
		poi.Href = poiURL(baseURL(c, deps), poi.ID)
		return c.JSON(poi)
	}
}

// CreatePOIHandler stores a new point of interest and answers 201 with its location.
func CreatePOIHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		poi, err := parsePOIBody(c)
		if err != nil {
			return writeError(c, err)
		}
		if err := deps.POIs.Create(c.UserContext(), poi); err != nil {
			return writeError(c, err)
		}

		poi.Href = poiURL(baseURL(c, deps), poi.ID)
		c.Location(poi.Href)
		return c.Status(fiber.StatusCreated).JSON(poi)
	}
}

// UpdatePOIHandler replaces a point of interest.
func UpdatePOIHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		poi, err := parsePOIBody(c)
		if err != nil {
			return writeError(c, err)
		}
		if err := deps.POIs.Update(c.UserContext(), c.Params("id"), poi); err != nil {
			return writeError(c, err)
		}
		poi.Href = poiURL(baseURL(c, deps), poi.ID)
		return c.JSON(poi)
	}
}

// DeletePOIHandler removes a point of interest. Missing ids still answer 204.
func DeletePOIHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.POIs.Delete(c.UserContext(), c.Params("id")); err != nil {
			return writeError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// POIPopupHandler renders the map popup fragment of a point of interest.
func POIPopupHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		html, err := deps.Map.Popup(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeError(c, err)
		}
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString(html)
	}
}

// CategoriesHandler returns the distinct categories in use.
func CategoriesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cats, err := deps.POIs.Categories(c.UserContext())
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(cats)
	}
}

// CategoryCountHandler counts points of interest in a category.
func CategoryCountHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		category := domain.CleanCategory(c.Params("category"))
		n, err := deps.POIs.CountByCategory(c.UserContext(), category)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"category": category, "count": n})
	}
}
