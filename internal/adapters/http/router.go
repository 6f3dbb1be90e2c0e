package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/poimap/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

// LegacySunset is when the unversioned routes go away.
var LegacySunset = time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC)

// LegacyRoutes lists the unversioned routes kept for older map clients.
var LegacyRoutes = []DeprecatedRoute{
	{Path: "/poi", SunsetDate: LegacySunset, Alternative: "/v1/poi"},
	{Path: "/poi/health", SunsetDate: LegacySunset, Alternative: "/v1/health"},
	{Path: "/poi/:id", SunsetDate: LegacySunset, Alternative: "/v1/poi/{id}"},
	{Path: "/poi/:id/popup", SunsetDate: LegacySunset, Alternative: "/v1/poi/{id}/popup"},
	{Path: "/categories", SunsetDate: LegacySunset, Alternative: "/v1/categories"},
	{Path: "/stats/category/:category", SunsetDate: LegacySunset, Alternative: "/v1/stats/category/{category}"},
}

func withTimeout(h fiber.Handler) fiber.Handler {
	return timeout.NewWithContext(h, requestTimeout)
}

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	if deps.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        deps.RateLimit,
			Expiration: 1 * time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
			},
		}))
	}

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())
	app.Use(DeprecationMiddleware(LegacyRoutes))

	// Health and readiness run without the request timeout
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	registerPOIRoutes(v1, deps)

	v1.Get("/map/pois", withTimeout(MapPOIsHandler(deps)))
	v1.Get("/map/pois.geojson", withTimeout(MapGeoJSONHandler(deps)))
	v1.Get("/map/tiles/:z/:x/:y", withTimeout(TileHandler(deps)))
	v1.Get("/map/radius", RadiusHandler(deps))
	v1.Get("/map/zoom", ZoomHandler(deps))
	v1.Get("/map/config", MapConfigHandler(deps))

	// Legacy unversioned routes
	app.Get("/poi/health", HealthHandler(deps))
	registerPOIRoutes(app, deps)

	app.Post("/graphql", withTimeout(GraphQLHandler(deps)))

	specPath := deps.SpecPath
	if specPath == "" {
		specPath = DefaultSpecPath
	}
	SetupDocs(app, specPath)

	if deps.NATS != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
	}
}

func registerPOIRoutes(r fiber.Router, deps *Dependencies) {
	r.Get("/poi", withTimeout(ListPOIsHandler(deps)))
	r.Post("/poi", withTimeout(CreatePOIHandler(deps)))
	r.Get("/poi/:id", withTimeout(GetPOIHandler(deps)))
	r.Put("/poi/:id", withTimeout(UpdatePOIHandler(deps)))
	r.Delete("/poi/:id", withTimeout(DeletePOIHandler(deps)))
	r.Get("/poi/:id/popup", withTimeout(POIPopupHandler(deps)))
	r.Get("/categories", withTimeout(CategoriesHandler(deps)))
	r.Get("/stats/category/:category", withTimeout(CategoryCountHandler(deps)))
}
