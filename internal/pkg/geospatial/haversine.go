package geospatial

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

const (
	earthRadiusKm    = 6371.0
	metersPerDegLat  = 111320.0
	maxTileZoomLevel = 22
)

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c * 1000
}

// Distance is Haversine over orb points ([lon, lat]).
func Distance(a, b orb.Point) float64 {
	return Haversine(a.Lat(), a.Lon(), b.Lat(), b.Lon())
}

// BoundAround returns the box enclosing a circle of radiusMeters around center.
// Latitudes are clamped to [-90, 90]; near the poles the box spans all longitudes.
func BoundAround(center orb.Point, radiusMeters float64) orb.Bound {
	latDelta := radiusMeters / metersPerDegLat

	minLat := math.Max(center.Lat()-latDelta, -90)
	maxLat := math.Min(center.Lat()+latDelta, 90)

	cos := math.Cos(toRad(center.Lat()))
	if cos < 1e-9 || minLat == -90 || maxLat == 90 {
		return orb.Bound{Min: orb.Point{-180, minLat}, Max: orb.Point{180, maxLat}}
	}

	lonDelta := radiusMeters / (metersPerDegLat * cos)
	if lonDelta >= 180 {
		return orb.Bound{Min: orb.Point{-180, minLat}, Max: orb.Point{180, maxLat}}
	}

	return orb.Bound{
		Min: orb.Point{center.Lon() - lonDelta, minLat},
		Max: orb.Point{center.Lon() + lonDelta, maxLat},
	}
}

// ValidTile reports whether z/x/y addresses an existing slippy-map tile.
func ValidTile(z, x, y uint32) bool {
	if z > maxTileZoomLevel {
		return false
	}
	n := uint32(1) << z
	return x < n && y < n
}

// TileBound returns the geographic bound of a slippy-map tile.
func TileBound(z, x, y uint32) orb.Bound {
	return maptile.New(x, y, maptile.Zoom(z)).Bound()
}

// CoveringRadius returns the distance from the bound's center to its farthest corner.
func CoveringRadius(b orb.Bound) float64 {
	c := b.Center()
	return math.Max(Distance(c, b.Min), Distance(c, b.Max))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
