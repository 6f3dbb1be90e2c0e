package domain

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
)

// GeoJSONPoint is the only geometry type stored for points of interest.
const GeoJSONPoint = "Point"

// Location is a GeoJSON point. Coordinates are [lon, lat] (WGS 84).
type Location struct {
	Type        string    `json:"type" validate:"required,eq=Point"`
	Coordinates orb.Point `json:"coordinates"`
}

// NewLocation builds a GeoJSON point from lat/lon.
func NewLocation(lat, lon float64) Location {
	return Location{Type: GeoJSONPoint, Coordinates: orb.Point{lon, lat}}
}

// Lat returns the latitude.
func (l Location) Lat() float64 { return l.Coordinates.Lat() }

// Lon returns the longitude.
func (l Location) Lon() float64 { return l.Coordinates.Lon() }

// UnmarshalJSON rejects coordinate arrays that are not exactly [lon, lat].
func (l *Location) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type        string    `json:"type"`
		Coordinates []float64 `json:"coordinates"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw.Coordinates) != 2 {
		return &ValidationError{Fields: map[string]string{
			"coordinates": fmt.Sprintf("must contain exactly 2 values [lon, lat], got %d", len(raw.Coordinates)),
		}}
	}
	l.Type = raw.Type
	l.Coordinates = orb.Point{raw.Coordinates[0], raw.Coordinates[1]}
	return nil
}

// NearbyQuery describes a radius search around a center point.
type NearbyQuery struct {
	Center       orb.Point
	RadiusMeters float64
	Categories   []string
	Limit        int
}

// MapDefaults is the initial map view handed to clients.
type MapDefaults struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Radius int     `json:"radius"`
	Zoom   int     `json:"zoom"`
}

// Viewport is the result of a zoom-driven map search.
type Viewport struct {
	Center Location          `json:"center"`
	Zoom   float64           `json:"zoom"`
	Radius int               `json:"radius"`
	POIs   []PointOfInterest `json:"pois"`
}
