package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses based on endpoint.
// Handlers that set their own header win.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet {
			return err
		}
		if existing := c.Get(fiber.HeaderCacheControl); existing != "" {
			return err
		}
		if status := c.Response().StatusCode(); status >= 400 {
			c.Set(fiber.HeaderCacheControl, "no-store")
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/v1/health" || path == "/v1/ready" || path == "/poi/health":
			ttl = "public, max-age=10"

		case path == "/metrics":
			ttl = "no-cache"

		case path == "/graphql":
			ttl = "private, max-age=0"

		case strings.HasPrefix(path, "/docs"):
			ttl = "public, max-age=300"

		// Pure functions of configuration.
		case path == "/v1/map/config" || path == "/v1/map/radius" || path == "/v1/map/zoom":
			ttl = "public, max-age=3600"

		case strings.HasPrefix(path, "/v1/map/tiles/"):
			ttl = "public, max-age=120"

		case strings.HasPrefix(path, "/v1/map/"):
			ttl = "public, max-age=60"

		// Editable resources: revalidate with the ETag every time.
		case strings.HasPrefix(path, "/v1/poi") || strings.HasPrefix(path, "/poi"):
			ttl = "no-cache"

		case strings.HasPrefix(path, "/v1/"), strings.HasPrefix(path, "/categories"), strings.HasPrefix(path, "/stats/"):
			ttl = "public, max-age=300"
		}

		if ttl != "" {
			c.Set(fiber.HeaderCacheControl, ttl)
		}

		return err
	}
}
