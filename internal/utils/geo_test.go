package utils

import (
	"math"
	"strings"
	"testing"

	"github.com/piresc/tirtha/internal/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestDistance_IdenticalPointsIsZero(t *testing.T) {
	points := []models.GeoPoint{
		{Latitude: 0, Longitude: 0},
		{Latitude: 10, Longitude: 77},
		{Latitude: -33.8688, Longitude: 151.2093},
		{Latitude: 90, Longitude: 0},
		{Latitude: -90, Longitude: 180},
	}
	for _, p := range points {
		assert.Equal(t, 0.0, DistanceBetween(p, p))
	}
}

func TestDistance_Symmetric(t *testing.T) {
	pairs := [][2]models.GeoPoint{
		{{Latitude: 10, Longitude: 77}, {Latitude: 10.001, Longitude: 77.001}},
		{{Latitude: 51.5007, Longitude: -0.1246}, {Latitude: 40.6892, Longitude: -74.0445}},
		{{Latitude: -45, Longitude: 170}, {Latitude: 45, Longitude: -170}},
	}
	for _, p := range pairs {
		assert.InDelta(t, DistanceBetween(p[0], p[1]), DistanceBetween(p[1], p[0]), 1e-9)
	}
}

func TestDistance_Antipodal(t *testing.T) {
	d := Distance(0, 0, 0, 180)
	assert.InDelta(t, math.Pi*EarthRadiusMeters, d, 1e-6)

	d = Distance(90, 0, -90, 0)
	assert.InDelta(t, math.Pi*EarthRadiusMeters, d, 1e-6)
	assert.False(t, math.IsNaN(Distance(45, 45, -45, -135)))
}

func TestDistance_KnownValue(t *testing.T) {
	// (10.0000, 77.0000) -> (10.0010, 77.0010) is about 156 m on a 6371 km sphere
	d := Distance(10.0, 77.0, 10.001, 77.001)
	assert.InDelta(t, 156.0, d, 2.0)
}

func TestDistance_NonFiniteInputIsZero(t *testing.T) {
	assert.Equal(t, 0.0, Distance(math.NaN(), 0, 1, 1))
	assert.Equal(t, 0.0, Distance(0, math.Inf(1), 1, 1))
}

func TestSampleDistance_NilIsZero(t *testing.T) {
	s := &models.LocationSample{Latitude: 1, Longitude: 1}
	assert.Equal(t, 0.0, SampleDistance(nil, s))
	assert.Equal(t, 0.0, SampleDistance(s, nil))
	assert.Equal(t, 0.0, SampleDistance(nil, nil))
	assert.Greater(t, SampleDistance(s, &models.LocationSample{Latitude: 1.1, Longitude: 1}), 0.0)
}

func TestValidCoordinate(t *testing.T) {
	tests := []struct {
		lat, lon float64
		want     bool
	}{
		{0, 0, true},
		{90, 180, true},
		{-90, -180, true},
		{90.0001, 0, false},
		{0, -180.5, false},
		{math.NaN(), 0, false},
		{0, math.Inf(-1), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidCoordinate(tt.lat, tt.lon), "lat=%v lon=%v", tt.lat, tt.lon)
	}
}

func TestGeohashHelpers(t *testing.T) {
	hash := EncodeGeohash(10.0, 77.0, 7)
	assert.Len(t, hash, 7)

	cells := CoveringGeohashes(10.0, 77.0, 6)
	assert.Len(t, cells, 9)
	assert.True(t, strings.HasPrefix(hash, cells[0]))

	assert.Equal(t, uint(6), GeohashPrecisionForRadius(500))
	assert.Equal(t, uint(5), GeohashPrecisionForRadius(1000))
	assert.Equal(t, uint(1), GeohashPrecisionForRadius(10000000))
}
