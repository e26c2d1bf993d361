package geospatial

import (
	"math"

	"github.com/samirrijal/smarttrack/internal/core/domain"
)

// MaxZoom is the deepest zoom level served by the tile layer.
const MaxZoom = 19

// Perimeter returns the length in meters of the closed ring through points.
func Perimeter(points []domain.LatLng) float64 {
	if len(points) < 2 {
		return 0
	}
	var total float64
	for i, p := range points {
		q := points[(i+1)%len(points)]
		total += Haversine(p.Lat, p.Lng, q.Lat, q.Lng)
	}
	return total
}

// Area returns the approximate area in square meters of the ring through
// points, using the spherical excess formula leaflet-draw uses for its
// area readout. Winding direction does not affect the result.
func Area(points []domain.LatLng) float64 {
	if len(points) < 3 {
		return 0
	}
	r := earthRadiusKm * 1000
	var sum float64
	for i, p := range points {
		q := points[(i+1)%len(points)]
		sum += toRad(q.Lng-p.Lng) * (2 + math.Sin(toRad(p.Lat)) + math.Sin(toRad(q.Lat)))
	}
	return math.Abs(sum * r * r / 2)
}

// Centroid returns the planar centroid of the ring. Degenerate rings fall
// back to the vertex average.
func Centroid(points []domain.LatLng) domain.LatLng {
	if len(points) == 0 {
		return domain.LatLng{}
	}
	var a, cx, cy float64
	for i, p := range points {
		q := points[(i+1)%len(points)]
		cross := p.Lng*q.Lat - q.Lng*p.Lat
		a += cross
		cx += (p.Lng + q.Lng) * cross
		cy += (p.Lat + q.Lat) * cross
	}
	if math.Abs(a) < 1e-12 {
		var lat, lng float64
		for _, p := range points {
			lat += p.Lat
			lng += p.Lng
		}
		n := float64(len(points))
		return domain.LatLng{Lat: lat / n, Lng: lng / n}
	}
	a /= 2
	return domain.LatLng{Lat: cy / (6 * a), Lng: cx / (6 * a)}
}

// FitZoom returns the highest zoom level, capped at maxZoom, at which the
// bounds still fit a roughly square viewport.
func FitZoom(b domain.Bounds, maxZoom int) int {
	span := math.Max(b.MaxLat-b.MinLat, b.MaxLng-b.MinLng)
	if span <= 0 {
		return maxZoom
	}
	z := int(math.Floor(math.Log2(360 / span)))
	if z < 1 {
		return 1
	}
	if z > maxZoom {
		return maxZoom
	}
	return z
}
