package services

import (
	"math"

	"mechanic-setu/internal/job-tracking-service/core/domain/model"
)

const earthRadiusKm = 6371

// DistanceKm returns the great-circle distance between two points using
// the haversine formula.
func DistanceKm(a, b model.Coordinates) float64 {
	dLat := deg2rad(b.Latitude - a.Latitude)
	dLon := deg2rad(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(deg2rad(a.Latitude))*math.Cos(deg2rad(b.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

func deg2rad(deg float64) float64 {
	return deg * (math.Pi / 180)
}

// EstimateMinutes derives an arrival estimate from the distance between
// the user and the mechanic, an assumed average city speed, and a fixed
// startup buffer. This is the client-side fallback; a fresher
// server-pushed value only holds until the next position update.
func EstimateMinutes(user, mech model.Coordinates, avgSpeedKmh float64, startupBufferMin int) int {
	if avgSpeedKmh <= 0 {
		return 0
	}
	distance := DistanceKm(user, mech)
	timeMinutes := int(math.Round(distance / avgSpeedKmh * 60))
	return timeMinutes + startupBufferMin
}
