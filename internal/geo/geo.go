// Package geo holds the coordinate validation and great-circle distance
// math used by stop placement.
package geo

import "math"

// earthRadiusMeters is the mean Earth radius of the spherical model.
// Accurate to within a few percent at the scales we care about.
const earthRadiusMeters = 6371000.0

// ValidLat reports whether lat is a real number in [-90, 90].
func ValidLat(lat float64) bool {
	return !math.IsNaN(lat) && !math.IsInf(lat, 0) && lat >= -90 && lat <= 90
}

// ValidLon reports whether lon is a real number in [-180, 180].
func ValidLon(lon float64) bool {
	return !math.IsNaN(lon) && !math.IsInf(lon, 0) && lon >= -180 && lon <= 180
}

// Distance returns the great-circle distance between two points in meters,
// using the haversine formula on a spherical Earth.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}
