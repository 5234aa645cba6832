package geo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversineDistanceKnownPairs(t *testing.T) {
	// San Francisco to Los Angeles, roughly 559 km
	d := DistanceKm(37.7749, -122.4194, 34.0522, -118.2437)
	assert.InDelta(t, 559, d, 5)

	// identical points
	assert.Equal(t, 0.0, HaversineDistance(38.2324, -122.6367, 38.2324, -122.6367))

	// symmetric
	a := HaversineDistance(40.7128, -74.0060, 51.5074, -0.1278)
	b := HaversineDistance(51.5074, -0.1278, 40.7128, -74.0060)
	assert.InDelta(t, a, b, 0.0001)
}

func TestValidCoordinates(t *testing.T) {
	assert.True(t, ValidCoordinates(0, 0))
	assert.True(t, ValidCoordinates(90, 180))
	assert.True(t, ValidCoordinates(-90, -180))
	assert.False(t, ValidCoordinates(90.1, 0))
	assert.False(t, ValidCoordinates(-90.1, 0))
	assert.False(t, ValidCoordinates(0, 180.1))
	assert.False(t, ValidCoordinates(0, -180.1))
}

func TestEncodeKnownHashes(t *testing.T) {
	// reference hashes from geohash.org
	assert.Equal(t, "u4pruydqqvj", Encode(57.64911, 10.40744, 11)[:11])
	assert.Equal(t, "9q8yyk8", Encode(37.7749, -122.4194, 7))
	assert.Equal(t, "s000", Encode(0, 0, 4))
}

func TestEncodeIsPrefixStable(t *testing.T) {
	lat, lng := 38.2324, -122.6367
	full := Encode(lat, lng, MaxPrecision)
	for p := 1; p < MaxPrecision; p++ {
		assert.Equal(t, full[:p], Encode(lat, lng, p))
	}
}

func TestPrecisionForRadius(t *testing.T) {
	cases := []struct {
		radiusKm float64
		want     int
	}{
		{0, MaxPrecision},
		{-5, MaxPrecision},
		{0.001, 9},
		{0.1, 7},
		{3, 5},
		{15, 4},
		{25, 3},
		{150, 3},
		{200, 2},
		{600, 2},
		{5000, 1},
		{10000, 1},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, PrecisionForRadius(tc.radiusKm), "radius %.3f", tc.radiusKm)
	}
}

func TestCellCoverContainsCircle(t *testing.T) {
	lat, lng, radiusKm := 38.2324, -122.6367, 25.0
	cover := CellCover(lat, lng, radiusKm)
	require.NotEmpty(t, cover)
	assert.LessOrEqual(t, len(cover), 9)

	precision := len(cover[0])
	// sample points on the circle boundary must land in a covered cell
	offsets := []struct{ dLat, dLng float64 }{
		{0.225, 0},  // ~25 km north
		{-0.225, 0}, // ~25 km south
		{0, 0.285},  // ~25 km east at this latitude
		{0, -0.285},
		{0.16, 0.2},
	}
	for _, off := range offsets {
		hash := Encode(lat+off.dLat, lng+off.dLng, precision)
		found := false
		for _, prefix := range cover {
			if strings.HasPrefix(hash, prefix) {
				found = true
				break
			}
		}
		assert.True(t, found, "point at offset (%f,%f) not covered", off.dLat, off.dLng)
	}
}

func TestCellCoverDedupesAtPoles(t *testing.T) {
	cover := CellCover(89.99, 0, 100)
	seen := map[string]struct{}{}
	for _, hash := range cover {
		_, dup := seen[hash]
		assert.False(t, dup, "duplicate cell %s", hash)
		seen[hash] = struct{}{}
	}
}

func TestCellCoverWrapsAntimeridian(t *testing.T) {
	cover := CellCover(0, 179.99, 100)
	assert.NotEmpty(t, cover)
	for _, hash := range cover {
		latMin, latMax, lngMin, lngMax := decodeBounds(hash)
		assert.GreaterOrEqual(t, latMax, latMin)
		assert.GreaterOrEqual(t, lngMax, lngMin)
	}
}
