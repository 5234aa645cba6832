package geo

import "math"

const (
	base32Alphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

	// MaxPrecision is the number of geohash characters stored per listing.
	MaxPrecision = 9
)

// cellMinDimKm holds the smaller side of a geohash cell, in kilometers,
// indexed by precision. A circle of radius r is always contained in the
// 3x3 neighbor block of the cell holding its center when r does not
// exceed the cell's smaller dimension.
var cellMinDimKm = [...]float64{
	0:  math.Inf(1),
	1:  4992,
	2:  624,
	3:  156,
	4:  19.5,
	5:  4.89,
	6:  0.61,
	7:  0.153,
	8:  0.019,
	9:  0.0048,
	10: 0.0006,
}

// Encode returns the geohash of the coordinate at the given precision.
func Encode(lat, lng float64, precision int) string {
	if precision <= 0 {
		precision = MaxPrecision
	}

	latRange := [2]float64{-90, 90}
	lngRange := [2]float64{-180, 180}

	buf := make([]byte, 0, precision)
	var bits, chunk int
	evenBit := true

	for len(buf) < precision {
		if evenBit {
			mid := (lngRange[0] + lngRange[1]) / 2
			if lng >= mid {
				chunk = chunk<<1 | 1
				lngRange[0] = mid
			} else {
				chunk = chunk << 1
				lngRange[1] = mid
			}
		} else {
			mid := (latRange[0] + latRange[1]) / 2
			if lat >= mid {
				chunk = chunk<<1 | 1
				latRange[0] = mid
			} else {
				chunk = chunk << 1
				latRange[1] = mid
			}
		}
		evenBit = !evenBit

		bits++
		if bits == 5 {
			buf = append(buf, base32Alphabet[chunk])
			bits = 0
			chunk = 0
		}
	}

	return string(buf)
}

// decodeBounds returns the bounding box of a geohash cell.
func decodeBounds(hash string) (latMin, latMax, lngMin, lngMax float64) {
	latMin, latMax = -90, 90
	lngMin, lngMax = -180, 180
	evenBit := true

	for i := 0; i < len(hash); i++ {
		idx := indexOfBase32(hash[i])
		if idx < 0 {
			continue
		}
		for bit := 4; bit >= 0; bit-- {
			set := idx>>bit&1 == 1
			if evenBit {
				mid := (lngMin + lngMax) / 2
				if set {
					lngMin = mid
				} else {
					lngMax = mid
				}
			} else {
				mid := (latMin + latMax) / 2
				if set {
					latMin = mid
				} else {
					latMax = mid
				}
			}
			evenBit = !evenBit
		}
	}
	return latMin, latMax, lngMin, lngMax
}

func indexOfBase32(ch byte) int {
	for i := 0; i < len(base32Alphabet); i++ {
		if base32Alphabet[i] == ch {
			return i
		}
	}
	return -1
}

// PrecisionForRadius picks the deepest prefix length whose cell still
// spans the requested radius, so a 3x3 block of cells covers the circle.
func PrecisionForRadius(radiusKm float64) int {
	if radiusKm <= 0 {
		return MaxPrecision
	}
	for p := len(cellMinDimKm) - 1; p >= 1; p-- {
		if p > MaxPrecision {
			continue
		}
		if cellMinDimKm[p] >= radiusKm {
			return p
		}
	}
	return 1
}

// CellCover returns the geohash prefixes whose union contains every point
// within radiusKm of the origin: the origin's cell plus its eight
// neighbors at a precision chosen from the radius. Duplicates from pole
// clamping and antimeridian wrap are removed.
func CellCover(lat, lng, radiusKm float64) []string {
	precision := PrecisionForRadius(radiusKm)
	center := Encode(lat, lng, precision)

	latMin, latMax, lngMin, lngMax := decodeBounds(center)
	latStep := latMax - latMin
	lngStep := lngMax - lngMin
	centerLat := (latMin + latMax) / 2
	centerLng := (lngMin + lngMax) / 2

	seen := make(map[string]struct{}, 9)
	cover := make([]string, 0, 9)
	for _, dLat := range []float64{0, latStep, -latStep} {
		for _, dLng := range []float64{0, lngStep, -lngStep} {
			nLat := clampLat(centerLat + dLat)
			nLng := wrapLng(centerLng + dLng)
			hash := Encode(nLat, nLng, precision)
			if _, ok := seen[hash]; ok {
				continue
			}
			seen[hash] = struct{}{}
			cover = append(cover, hash)
		}
	}
	return cover
}

func clampLat(lat float64) float64 {
	if lat > 90 {
		return 90
	}
	if lat < -90 {
		return -90
	}
	return lat
}

func wrapLng(lng float64) float64 {
	for lng > 180 {
		lng -= 360
	}
	for lng < -180 {
		lng += 360
	}
	return lng
}
