package geospatial

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestHaversine_KnownDistance(t *testing.T) {
	// Dresden Hauptbahnhof to Frauenkirche, roughly 1.4 km.
	d := Haversine(51.0404, 13.7320, 51.0519, 13.7416)
	assert.InDelta(t, 1440, d, 60)
	assert.Equal(t, 0.0, Haversine(51, 13, 51, 13))
}

func TestDistance_UsesLonLatOrder(t *testing.T) {
	a := orb.Point{13.7373, 51.0504}
	b := orb.Point{13.7373, 51.0604}
	assert.InDelta(t, 1112, Distance(a, b), 5)
}

func TestBoundAround(t *testing.T) {
	center := orb.Point{13.7373, 51.0504}
	b := BoundAround(center, 3000)

	assert.True(t, b.Contains(center))
	assert.InDelta(t, 3000/metersPerDegLat, b.Max.Lat()-center.Lat(), 1e-9)
	assert.Greater(t, b.Max.Lon()-center.Lon(), b.Max.Lat()-center.Lat(), "longitude span widens away from the equator")

	// Every point at the radius edge must be inside.
	for _, bearing := range []float64{0, 90, 180, 270} {
		rad := bearing * math.Pi / 180
		p := orb.Point{
			center.Lon() + math.Sin(rad)*2999/(metersPerDegLat*math.Cos(center.Lat()*math.Pi/180)),
			center.Lat() + math.Cos(rad)*2999/metersPerDegLat,
		}
		assert.True(t, b.Contains(p), "bearing %v", bearing)
	}
}

func TestBoundAround_Pole(t *testing.T) {
	b := BoundAround(orb.Point{0, 89.99}, 5000)
	assert.Equal(t, -180.0, b.Min.Lon())
	assert.Equal(t, 180.0, b.Max.Lon())
	assert.Equal(t, 90.0, b.Max.Lat())
}

func TestTileBoundAndValidity(t *testing.T) {
	assert.True(t, ValidTile(0, 0, 0))
	assert.False(t, ValidTile(0, 1, 0))
	assert.True(t, ValidTile(13, 4400, 2740))
	assert.False(t, ValidTile(23, 0, 0))

	b := TileBound(0, 0, 0)
	assert.InDelta(t, -180, b.Min.Lon(), 1e-9)
	assert.InDelta(t, 180, b.Max.Lon(), 1e-9)

	// Tile containing Dresden at zoom 13.
	dresden := TileBound(13, 4408, 2740)
	assert.Greater(t, CoveringRadius(dresden), 1000.0)
	assert.Less(t, CoveringRadius(dresden), 5000.0)
}
