package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/poimap/internal/core/usecases"
)

// Pinger is anything readiness can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	POIs  *usecases.POIService
	Map   *usecases.MapService
	NATS  *nats.Conn
	Cache Pinger // nil when caching is disabled

	// BaseURL prefixes href and Location values. Empty means derive from the request.
	BaseURL string
	// RateLimit is requests per minute per IP. Zero disables the limiter.
	RateLimit int
	// SpecPath locates the OpenAPI document served under /docs.
	SpecPath string
}
