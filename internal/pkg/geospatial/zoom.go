package geospatial

import (
	"fmt"
	"math"
	"sort"
)

// ZoomRadius pairs a map zoom level with a search radius in meters.
type ZoomRadius struct {
	Zoom   int `json:"zoom" mapstructure:"zoom"`
	Radius int `json:"radius" mapstructure:"radius"`
}

// RadiusBand maps every zoom up to and including MaxZoom to Radius. An
// Exact band only matches MaxZoom itself, so fractional zooms skip it.
type RadiusBand struct {
	MaxZoom float64 `json:"max_zoom"`
	Radius  int     `json:"radius"`
	Exact   bool    `json:"exact,omitempty"`
}

// DefaultZoomTable is the reverse lookup table used to restore a zoom level
// from a stored search radius.
var DefaultZoomTable = []ZoomRadius{
	{Zoom: 9, Radius: 50000},
	{Zoom: 10, Radius: 30000},
	{Zoom: 11, Radius: 20000},
	{Zoom: 12, Radius: 10000},
	{Zoom: 13, Radius: 3000},
	{Zoom: 14, Radius: 2000},
	{Zoom: 15, Radius: 1000},
}

// DefaultRadiusBands drive the forward zoom to radius mapping. They are
// coarser than DefaultZoomTable and are not its inverse.
var DefaultRadiusBands = []RadiusBand{
	{MaxZoom: 8, Radius: 50000},
	{MaxZoom: 11, Radius: 20000},
	{MaxZoom: 12, Radius: 10000, Exact: true},
	{MaxZoom: 13, Radius: 3000, Exact: true},
}

// DefaultFallbackRadius applies to zooms above the last band.
const DefaultFallbackRadius = 2000

// ZoomRadiusMapper converts between map zoom levels and search radii.
// It is immutable after construction and safe for concurrent use.
type ZoomRadiusMapper struct {
	table    []ZoomRadius
	bands    []RadiusBand
	fallback int
}

var defaultMapper = mustZoomRadiusMapper(DefaultZoomTable, DefaultRadiusBands, DefaultFallbackRadius)

// DefaultZoomRadiusMapper returns the shared mapper built from the default tables.
func DefaultZoomRadiusMapper() *ZoomRadiusMapper {
	return defaultMapper
}

// NewZoomRadiusMapper validates the tables and builds a mapper.
// The table is sorted ascending by zoom; zooms must be unique and radii must
// not increase with zoom. Bands must be given in strictly ascending MaxZoom order.
func NewZoomRadiusMapper(table []ZoomRadius, bands []RadiusBand, fallback int) (*ZoomRadiusMapper, error) {
	if len(table) == 0 {
		return nil, fmt.Errorf("zoom table is empty")
	}
	if fallback <= 0 {
		return nil, fmt.Errorf("fallback radius must be positive, got %d", fallback)
	}

	sorted := make([]ZoomRadius, len(table))
	copy(sorted, table)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Zoom < sorted[j].Zoom })

	for i, e := range sorted {
		if e.Radius <= 0 {
			return nil, fmt.Errorf("zoom %d: radius must be positive, got %d", e.Zoom, e.Radius)
		}
		if i == 0 {
			continue
		}
		prev := sorted[i-1]
		if prev.Zoom == e.Zoom {
			return nil, fmt.Errorf("duplicate zoom %d in table", e.Zoom)
		}
		if e.Radius > prev.Radius {
			return nil, fmt.Errorf("radius increases from zoom %d (%d m) to zoom %d (%d m)",
				prev.Zoom, prev.Radius, e.Zoom, e.Radius)
		}
	}

	bandsCopy := make([]RadiusBand, len(bands))
	copy(bandsCopy, bands)
	for i, b := range bandsCopy {
		if b.Radius <= 0 {
			return nil, fmt.Errorf("band <= %g: radius must be positive, got %d", b.MaxZoom, b.Radius)
		}
		if i > 0 && b.MaxZoom <= bandsCopy[i-1].MaxZoom {
			return nil, fmt.Errorf("bands must be in ascending zoom order (%g after %g)", b.MaxZoom, bandsCopy[i-1].MaxZoom)
		}
	}

	return &ZoomRadiusMapper{table: sorted, bands: bandsCopy, fallback: fallback}, nil
}

func mustZoomRadiusMapper(table []ZoomRadius, bands []RadiusBand, fallback int) *ZoomRadiusMapper {
	m, err := NewZoomRadiusMapper(table, bands, fallback)
	if err != nil {
		panic("geospatial: " + err.Error())
	}
	return m
}

// RadiusForZoom returns the search radius in meters for a zoom level.
// The first matching band wins; anything no band matches (including NaN
// and fractional zooms between exact bands) gets the fallback radius.
func (m *ZoomRadiusMapper) RadiusForZoom(zoom float64) int {
	for _, b := range m.bands {
		if b.matches(zoom) {
			return b.Radius
		}
	}
	return m.fallback
}

func (b RadiusBand) matches(zoom float64) bool {
	if b.Exact {
		return zoom == b.MaxZoom
	}
	return zoom <= b.MaxZoom
}

// ZoomForRadius returns the zoom whose tabulated radius is closest to radius.
// On equal distance the entry with the lower zoom wins.
func (m *ZoomRadiusMapper) ZoomForRadius(radius float64) int {
	best := m.table[0]
	bestDiff := math.Abs(radius - float64(best.Radius))
	for _, e := range m.table[1:] {
		if d := math.Abs(radius - float64(e.Radius)); d < bestDiff {
			best, bestDiff = e, d
		}
	}
	return best.Zoom
}

// Table returns a copy of the zoom table, ascending by zoom.
func (m *ZoomRadiusMapper) Table() []ZoomRadius {
	out := make([]ZoomRadius, len(m.table))
	copy(out, m.table)
	return out
}

// Bands returns a copy of the forward radius bands.
func (m *ZoomRadiusMapper) Bands() []RadiusBand {
	out := make([]RadiusBand, len(m.bands))
	copy(out, m.bands)
	return out
}

// FallbackRadius is the radius used above the last band.
func (m *ZoomRadiusMapper) FallbackRadius() int {
	return m.fallback
}
