package geofence

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"pma-companion/internal/api"
	"pma-companion/internal/notify"
	"pma-companion/internal/store"
	"pma-companion/pkg/models"
)

// PositionSource yields the latest position fix, or nil while no fix is
// available yet. The actual GPS provider lives outside this module; the
// daemon wires in whatever the host platform offers.
type PositionSource interface {
	Current() *Coordinate
}

// Watcher periodically evaluates the patient's position against the
// permanent location and surfaces transitions. It implements
// poller.Poller.
type Watcher struct {
	patientID string
	client    *api.Client
	cache     *store.Store
	source    PositionSource
	evaluator Evaluator
	bus       *notify.Bus
	interval  time.Duration

	mu        sync.RWMutex
	permanent *Coordinate
	status    Status
}

func NewWatcher(patientID string, client *api.Client, cache *store.Store, source PositionSource, evaluator Evaluator, bus *notify.Bus, interval time.Duration) *Watcher {
	return &Watcher{
		patientID: patientID,
		client:    client,
		cache:     cache,
		source:    source,
		evaluator: evaluator,
		bus:       bus,
		interval:  interval,
	}
}

func (w *Watcher) Name() string            { return "geofence-watcher" }
func (w *Watcher) Interval() time.Duration { return w.interval }

// Poll refreshes the permanent location if needed, evaluates the
// current fix and surfaces an away/returned transition.
func (w *Watcher) Poll(ctx context.Context) error {
	permanent := w.permanentLocation(ctx)
	current := w.source.Current()

	status, err := w.evaluator.Evaluate(ctx, current, permanent)
	if err != nil {
		return fmt.Errorf("safety evaluation failed: %w", err)
	}

	w.mu.Lock()
	previous := w.status
	w.status = status
	w.mu.Unlock()

	if status.Away && !previous.Away {
		w.bus.Push(notify.Toast{
			Category: "alert",
			Title:    "Away from safe location",
			Body:     fmt.Sprintf("%.2f km from home (threshold exceeded)", status.DistanceKm),
		})
	} else if !status.Away && previous.Away {
		w.bus.Push(notify.Toast{
			Category: "alert",
			Title:    "Back in safe area",
			Body:     "Position is within the safe radius again",
		})
	}

	return nil
}

// Status returns the latest evaluation.
func (w *Watcher) Status() Status {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.status
}

// SavePermanent stores a new safe/home coordinate, falling back to the
// local cache when the backend is unreachable.
func (w *Watcher) SavePermanent(ctx context.Context, loc models.SavedLocation) error {
	loc.SavedAt = time.Now().UTC().Format(time.RFC3339)

	if err := w.client.SavePermanentLocation(ctx, w.patientID, loc); err != nil {
		log.Printf("⚠️  Backend unreachable, caching permanent location locally: %v", err)
		if cacheErr := w.cache.SavePermanentLocation(w.patientID, loc); cacheErr != nil {
			return cacheErr
		}
	} else if err := w.cache.SavePermanentLocation(w.patientID, loc); err != nil {
		log.Printf("⚠️  Failed to mirror permanent location to cache: %v", err)
	}

	w.setPermanent(&Coordinate{Latitude: loc.Latitude, Longitude: loc.Longitude})
	return nil
}

// SendDangerAlert is fire-and-forget: a failure surfaces a local toast
// and is not retried.
func (w *Watcher) SendDangerAlert(ctx context.Context, patientName, message string) {
	current := w.source.Current()

	alert := models.LocationAlert{
		PatientID:   w.patientID,
		PatientName: patientName,
		Message:     message,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
	if current != nil {
		alert.Latitude = current.Latitude
		alert.Longitude = current.Longitude
	}

	if err := w.client.SendDangerAlert(ctx, alert); err != nil {
		w.bus.Push(notify.Toast{
			Category: "alert",
			Title:    "Alert not sent",
			Body:     "Could not reach server to send the danger alert",
		})
		return
	}

	w.bus.Push(notify.Toast{
		Category: "alert",
		Title:    "Danger alert sent",
		Body:     "Connected family members have been notified",
	})
}

// Directions returns the walking-directions link back home, or "" when
// either coordinate is missing.
func (w *Watcher) Directions(ctx context.Context) string {
	current := w.source.Current()
	permanent := w.permanentLocation(ctx)
	if current == nil || permanent == nil {
		return ""
	}
	return DirectionsURL(*current, *permanent)
}

func (w *Watcher) permanentLocation(ctx context.Context) *Coordinate {
	w.mu.RLock()
	cached := w.permanent
	w.mu.RUnlock()
	if cached != nil {
		return cached
	}

	if loc, err := w.client.PermanentLocation(ctx, w.patientID); err == nil {
		coord := &Coordinate{Latitude: loc.Latitude, Longitude: loc.Longitude}
		w.setPermanent(coord)
		return coord
	}

	// Backend unreachable or nothing saved there: try the local cache.
	if loc, err := w.cache.PermanentLocation(w.patientID); err == nil && loc != nil {
		coord := &Coordinate{Latitude: loc.Latitude, Longitude: loc.Longitude}
		w.setPermanent(coord)
		return coord
	}

	return nil
}

func (w *Watcher) setPermanent(c *Coordinate) {
	w.mu.Lock()
	w.permanent = c
	w.mu.Unlock()
}

// StaticPosition is a PositionSource pinned to one coordinate, used by
// the daemon until a real provider is wired and by tests.
type StaticPosition struct {
	mu    sync.RWMutex
	coord *Coordinate
}

func NewStaticPosition() *StaticPosition { return &StaticPosition{} }

func (s *StaticPosition) Set(lat, lng float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coord = &Coordinate{Latitude: lat, Longitude: lng}
}

func (s *StaticPosition) Current() *Coordinate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.coord
}
