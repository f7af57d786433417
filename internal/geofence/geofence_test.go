package geofence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversineZeroForSamePoint(t *testing.T) {
	p := Coordinate{Latitude: -23.5505, Longitude: -46.6333}
	assert.Equal(t, 0.0, HaversineKm(p, p))
}

func TestHaversineIsSymmetric(t *testing.T) {
	a := Coordinate{Latitude: -23.5505, Longitude: -46.6333}
	b := Coordinate{Latitude: -23.5605, Longitude: -46.6433}
	assert.InDelta(t, HaversineKm(a, b), HaversineKm(b, a), 1e-9)
}

func TestHaversineKnownDistance(t *testing.T) {
	// One degree of latitude is about 111.19 km on the sphere.
	a := Coordinate{Latitude: 0, Longitude: 0}
	b := Coordinate{Latitude: 1, Longitude: 0}
	assert.InDelta(t, 111.19, HaversineKm(a, b), 0.1)
}

func TestEvaluatorInsideThreshold(t *testing.T) {
	e := HaversineEvaluator{ThresholdKm: 0.2}
	home := &Coordinate{Latitude: -23.5505, Longitude: -46.6333}

	// ~0.11 km north of home.
	near := &Coordinate{Latitude: -23.5495, Longitude: -46.6333}

	status, err := e.Evaluate(context.Background(), near, home)
	require.NoError(t, err)
	assert.True(t, status.Known)
	assert.False(t, status.Away)
	assert.Less(t, status.DistanceKm, 0.2)
}

func TestEvaluatorBeyondThreshold(t *testing.T) {
	e := HaversineEvaluator{ThresholdKm: 0.2}
	home := &Coordinate{Latitude: -23.5505, Longitude: -46.6333}

	// ~0.5 km north of home.
	far := &Coordinate{Latitude: -23.5460, Longitude: -46.6333}

	status, err := e.Evaluate(context.Background(), far, home)
	require.NoError(t, err)
	assert.True(t, status.Known)
	assert.True(t, status.Away)
	assert.Greater(t, status.DistanceKm, 0.2)
}

func TestEvaluatorAtHomeIsNotAway(t *testing.T) {
	e := HaversineEvaluator{ThresholdKm: 0.2}
	home := &Coordinate{Latitude: 10, Longitude: 20}

	status, err := e.Evaluate(context.Background(), home, home)
	require.NoError(t, err)
	assert.False(t, status.Away)
	assert.Equal(t, 0.0, status.DistanceKm)
}

func TestEvaluatorMissingCoordinates(t *testing.T) {
	e := HaversineEvaluator{ThresholdKm: 0.2}
	point := &Coordinate{Latitude: 10, Longitude: 20}

	// A missing fix must never raise a false alarm.
	for _, tc := range []struct {
		name               string
		current, permanent *Coordinate
	}{
		{"no current fix", nil, point},
		{"no permanent location", point, nil},
		{"neither", nil, nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			status, err := e.Evaluate(context.Background(), tc.current, tc.permanent)
			require.NoError(t, err)
			assert.False(t, status.Away)
			assert.False(t, status.Known)
		})
	}
}

func TestDirectionsURL(t *testing.T) {
	url := DirectionsURL(
		Coordinate{Latitude: 1.5, Longitude: 2.5},
		Coordinate{Latitude: 3.5, Longitude: 4.5},
	)
	assert.Contains(t, url, "origin=1.5,2.5")
	assert.Contains(t, url, "destination=3.5,4.5")
	assert.Contains(t, url, "travelmode=walking")
}
