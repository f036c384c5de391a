// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package geo computes great-circle distances between coordinates.
package geo

import (
	"github.com/jftuga/geodist"

	"github.com/pdiddy/trial-scout/pkg/types"
)

// DistanceKm returns the great-circle distance between a and b in
// kilometers (Haversine, Earth radius 6371 km). Symmetric, non-negative,
// and zero for identical points. Never fails.
func DistanceKm(a, b types.GeoPoint) float64 {
	_, km := geodist.HaversineDistance(
		geodist.Coord{Lat: a.Latitude, Lon: a.Longitude},
		geodist.Coord{Lat: b.Latitude, Lon: b.Longitude},
	)
	return km
}

// ClosestKm returns the minimum distance from origin to any of the given
// points, or types.UnknownDistance when points is empty.
func ClosestKm(origin types.GeoPoint, points []types.GeoPoint) float64 {
	closest := types.UnknownDistance
	for _, p := range points {
		if d := DistanceKm(origin, p); d < closest {
			closest = d
		}
	}
	return closest
}
