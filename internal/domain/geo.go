package domain

import (
	"math"
	"regexp"
	"strconv"
)

const (
	// EarthRadiusKm is the mean Earth radius used for great-circle distance.
	EarthRadiusKm = 6371.0

	// kmPerDegree approximates one degree of latitude.
	kmPerDegree = 111.0

	// minCosLat keeps the longitude span finite near the poles.
	minCosLat = 1e-6
)

// Haversine returns the great-circle distance in kilometers between a and b.
func Haversine(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// BoundingBox is a latitude/longitude rectangle. South <= North and
// West <= East always hold for boxes built by Around and NewBounds.
type BoundingBox struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// Around returns a box that contains every point within radiusKm of center.
// It is a cheap pre-filter: corners lie outside the circle.
func Around(center Point, radiusKm float64) BoundingBox {
	dLat := radiusKm / kmPerDegree
	cos := math.Max(math.Abs(math.Cos(center.Lat*math.Pi/180)), minCosLat)
	dLon := radiusKm / (kmPerDegree * cos)
	return BoundingBox{
		South: center.Lat - dLat,
		West:  center.Lon - dLon,
		North: center.Lat + dLat,
		East:  center.Lon + dLon,
	}
}

// NewBounds builds a box from two corners given in any order.
func NewBounds(lat1, lon1, lat2, lon2 float64) BoundingBox {
	return BoundingBox{
		South: math.Min(lat1, lat2),
		West:  math.Min(lon1, lon2),
		North: math.Max(lat1, lat2),
		East:  math.Max(lon1, lon2),
	}
}

// Valid reports whether both corners are within WGS-84 range. NaN corners
// are not valid.
func (b BoundingBox) Valid() bool {
	return Point{Lat: b.South, Lon: b.West}.Valid() && Point{Lat: b.North, Lon: b.East}.Valid()
}

// ValidRadius reports whether km is a usable search radius: positive and
// finite.
func ValidRadius(km float64) bool {
	return km > 0 && !math.IsInf(km, 1)
}

// Contains reports whether p lies inside the box, edges included.
func (b BoundingBox) Contains(p Point) bool {
	return p.Lat >= b.South && p.Lat <= b.North && p.Lon >= b.West && p.Lon <= b.East
}

var latLonRe = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)\s*[,; ]\s*(-?\d+(?:\.\d+)?)\s*$`)

// ParseLatLon parses text such as "10.7769, 106.7009" or "10.7769;106.7009".
// It returns false when the text is not a coordinate pair or is out of range.
func ParseLatLon(s string) (Point, bool) {
	m := latLonRe.FindStringSubmatch(s)
	if m == nil {
		return Point{}, false
	}
	lat, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Point{}, false
	}
	lon, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return Point{}, false
	}
	p := Point{Lat: lat, Lon: lon}
	if !p.Valid() {
		return Point{}, false
	}
	return p, true
}

// Valid reports whether the coordinates are within WGS-84 range.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}
