package gps

import "math"

const earthRadiusKm = 6371

// DistanceKm returns the great-circle distance between two points in
// kilometers, using the haversine formula.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// ETAMinutes estimates the travel time from the current position to the
// destination at the current speed (km/h), rounded to whole minutes.
// Returns -1 when speed is zero: no ETA can be computed and callers must
// check for the sentinel.
func ETAMinutes(currentLat, currentLng, destLat, destLng, speedKmh float64) int {
	if speedKmh == 0 {
		return -1
	}
	distance := DistanceKm(currentLat, currentLng, destLat, destLng)
	return int(math.Round(distance / speedKmh * 60))
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
