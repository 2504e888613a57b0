package utils

import (
	"math"

	"github.com/mmcloughlin/geohash"
	"github.com/piresc/tirtha/internal/pkg/models"
)

// EarthRadiusMeters is the mean Earth radius used by the haversine formula
const EarthRadiusMeters = 6371000.0

// Distance returns the great-circle distance in meters between two points
// given in decimal degrees. Non-finite input yields 0.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	for _, v := range [...]float64{lat1, lon1, lat2, lon2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
	}

	phi1 := lat1 * math.Pi / 180.0
	phi2 := lat2 * math.Pi / 180.0
	dPhi := (lat2 - lat1) * math.Pi / 180.0
	dLambda := (lon2 - lon1) * math.Pi / 180.0

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	a := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda
	// rounding can push a slightly outside [0, 1] for near-antipodal points
	a = math.Min(1, math.Max(0, a))

	return EarthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// DistanceBetween is Distance for two GeoPoints
func DistanceBetween(p1, p2 models.GeoPoint) float64 {
	return Distance(p1.Latitude, p1.Longitude, p2.Latitude, p2.Longitude)
}

// SampleDistance returns the distance between two samples, or 0 if either is missing
func SampleDistance(prev, next *models.LocationSample) float64 {
	if prev == nil || next == nil {
		return 0
	}
	return Distance(prev.Latitude, prev.Longitude, next.Latitude, next.Longitude)
}

// ValidCoordinate reports whether lat/lon are finite and inside WGS84 bounds
func ValidCoordinate(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// EncodeGeohash converts a coordinate to a geohash string
func EncodeGeohash(lat, lon float64, precision uint) string {
	return geohash.EncodeWithPrecision(lat, lon, precision)
}

// GeohashPrecisionForRadius picks the longest geohash whose cell is at least
// as large as radiusMeters, so a cell plus its neighbours covers the radius
func GeohashPrecisionForRadius(radiusMeters float64) uint {
	// approximate cell heights in meters for precisions 1..9
	heights := [...]float64{4992600, 624100, 156000, 19500, 4890, 610, 153, 19.1, 4.77}
	precision := uint(1)
	for i, h := range heights {
		if h >= radiusMeters {
			precision = uint(i + 1)
		}
	}
	return precision
}

// CoveringGeohashes returns the cell containing the point and its eight neighbours
func CoveringGeohashes(lat, lon float64, precision uint) []string {
	center := geohash.EncodeWithPrecision(lat, lon, precision)
	return append([]string{center}, geohash.Neighbors(center)...)
}
