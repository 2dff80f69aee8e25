// Package geo provides the great-circle distance gate applied to accepted
// match candidates.
package geo

import (
	"math"

	"github.com/refind-app/refind/internal/domain"
)

// EarthRadiusKM is the mean radius of Earth used for haversine distance.
const EarthRadiusKM = 6371.0

// DefaultMaxDistanceKM is the reference cutoff between a lost and a found report.
const DefaultMaxDistanceKM = 2.0

// Reason explains a gate verdict.
type Reason string

const (
	// ReasonWithinRange means both points are inside the cutoff.
	ReasonWithinRange Reason = "within_range"
	// ReasonNoCoordinates means at least one side carries no coordinates, so
	// no geo constraint can be applied and the gate passes.
	ReasonNoCoordinates Reason = "no_coordinates"
	// ReasonTooFar means the distance exceeds the cutoff.
	ReasonTooFar Reason = "too_far"
)

// Result is the structured gate verdict. DistanceKM is meaningful only when
// both coordinates were known.
type Result struct {
	Pass       bool
	Reason     Reason
	DistanceKM float64
}

// Gate rejects pairs separated by more than a fixed cutoff.
type Gate struct {
	maxDistanceKM float64
}

// NewGate creates a gate with the given cutoff in kilometers.
// Non-positive cutoffs fall back to the default.
func NewGate(maxDistanceKM float64) Gate {
	if maxDistanceKM <= 0 {
		maxDistanceKM = DefaultMaxDistanceKM
	}
	return Gate{maxDistanceKM: maxDistanceKM}
}

// Check evaluates the gate for two optional coordinate pairs.
func (g Gate) Check(a, b *domain.Coordinates) Result {
	if a == nil || b == nil {
		return Result{Pass: true, Reason: ReasonNoCoordinates}
	}

	dist := HaversineKM(a.Lat, a.Lng, b.Lat, b.Lng)
	if dist > g.maxDistanceKM {
		return Result{Pass: false, Reason: ReasonTooFar, DistanceKM: dist}
	}
	return Result{Pass: true, Reason: ReasonWithinRange, DistanceKM: dist}
}

// HaversineKM returns the great-circle distance in kilometers between two
// points specified by latitude and longitude in degrees.
func HaversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r := lat1 * math.Pi / 180
	lat2r := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKM * c
}
