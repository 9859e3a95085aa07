package geo

import (
	"math"

	"github.com/shopspring/decimal"
)

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

// Coordinate is a geographic point in decimal degrees.
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

// TotalDistance returns the sum of great-circle distances between consecutive
// points, in kilometers, rounded to two decimal places. Sequences with fewer
// than two points have zero length.
func TotalDistance(points []Coordinate) float64 {
	if len(points) < 2 {
		return 0
	}
	var total float64
	for i := 0; i < len(points)-1; i++ {
		total += haversine(points[i], points[i+1])
	}
	return Round(total)
}

// Round rounds a kilometer figure to two decimal places. Decimal
// arithmetic avoids float artifacts like 222.37999999999997 leaking into
// stored distances.
func Round(km float64) float64 {
	return decimal.NewFromFloat(km).Round(2).InexactFloat64()
}

func haversine(a, b Coordinate) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}
