package geofence

import (
	"context"
	"fmt"
	"math"

	"pma-companion/internal/api"
)

// Coordinate is a WGS84 position fix.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

const earthRadiusKm = 6371

// HaversineKm computes the great-circle distance between two points.
func HaversineKm(a, b Coordinate) float64 {
	toRad := func(v float64) float64 { return v * math.Pi / 180 }

	dLat := toRad(b.Latitude - a.Latitude)
	dLon := toRad(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Latitude))*math.Cos(toRad(b.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// Status is the outcome of a safety evaluation. When either coordinate
// is unavailable Known is false and Away stays false, so a missing GPS
// fix never raises a false alarm.
type Status struct {
	Away       bool    `json:"away"`
	Known      bool    `json:"known"`
	DistanceKm float64 `json:"distanceKm"`
}

// Evaluator decides whether a current position counts as away from the
// permanent location.
type Evaluator interface {
	Evaluate(ctx context.Context, current, permanent *Coordinate) (Status, error)
}

// HaversineEvaluator is the local strategy: straight distance against a
// fixed threshold.
type HaversineEvaluator struct {
	ThresholdKm float64
}

func (e HaversineEvaluator) Evaluate(_ context.Context, current, permanent *Coordinate) (Status, error) {
	if current == nil || permanent == nil {
		return Status{}, nil
	}

	dist := HaversineKm(*current, *permanent)
	return Status{
		Away:       dist > e.ThresholdKm,
		Known:      true,
		DistanceKm: dist,
	}, nil
}

// ServerEvaluator delegates the decision to the backend safety check.
// This is the authoritative strategy: the server holds the threshold,
// so client clock or GPS drift cannot disagree with it.
type ServerEvaluator struct {
	Client    *api.Client
	PatientID string

	// Fallback recomputes locally when the backend is unreachable.
	Fallback HaversineEvaluator
}

func (e ServerEvaluator) Evaluate(ctx context.Context, current, permanent *Coordinate) (Status, error) {
	if current == nil || permanent == nil {
		return Status{}, nil
	}

	isSafe, err := e.Client.SafetyCheck(ctx, e.PatientID, current.Latitude, current.Longitude)
	if err != nil {
		return e.Fallback.Evaluate(ctx, current, permanent)
	}

	return Status{
		Away:       !isSafe,
		Known:      true,
		DistanceKm: HaversineKm(*current, *permanent),
	}, nil
}

// DirectionsURL builds a walking-directions link from the current
// position back to the permanent location.
func DirectionsURL(current, permanent Coordinate) string {
	return fmt.Sprintf(
		"https://www.google.com/maps/dir/?api=1&origin=%g,%g&destination=%g,%g&travelmode=walking",
		current.Latitude, current.Longitude,
		permanent.Latitude, permanent.Longitude,
	)
}
