package rules

import "math"

const earthRadiusKM = 6371.0

// BoundingBox returns the lat/lon window that contains every point within
// radiusKM of the center. Callers still filter by exact distance.
func BoundingBox(lat, lon, radiusKM float64) (minLat, maxLat, minLon, maxLon float64) {
	dLat := radiusKM / earthRadiusKM * 180 / math.Pi
	minLat = math.Max(lat-dLat, -90)
	maxLat = math.Min(lat+dLat, 90)

	cosLat := math.Cos(radians(lat))
	if cosLat < 1e-6 || maxLat >= 90 || minLat <= -90 {
		return minLat, maxLat, -180, 180
	}
	dLon := radiusKM / (earthRadiusKM * cosLat) * 180 / math.Pi
	if dLon >= 180 {
		return minLat, maxLat, -180, 180
	}
	return minLat, maxLat, lon - dLon, lon + dLon
}

func ValidCoordinates(lon, lat float64) bool {
	return lon >= -180 && lon <= 180 && lat >= -90 && lat <= 90 &&
		!math.IsNaN(lon) && !math.IsNaN(lat)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
