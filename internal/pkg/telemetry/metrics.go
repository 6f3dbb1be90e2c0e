package telemetry

import "go.opentelemetry.io/otel/attribute"

// Span attribute keys used for instrumentation.
const (
	// Point-of-interest queries
	AttrPOIID       = attribute.Key("poi.id")
	AttrPOICategory = attribute.Key("poi.category")
	AttrPOIQuery    = attribute.Key("poi.query")
	AttrPOIResults  = attribute.Key("poi.results")

	// Map
	AttrMapZoom   = attribute.Key("map.zoom")
	AttrMapRadius = attribute.Key("map.radius_meters")
)
