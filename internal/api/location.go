package api

import (
	"context"
	"fmt"
	"net/url"

	"pma-companion/pkg/models"
)

// PermanentLocation fetches the patient's saved safe/home coordinate.
func (c *Client) PermanentLocation(ctx context.Context, patientID string) (*models.SavedLocation, error) {
	var loc models.SavedLocation
	if err := c.getJSON(ctx, "/api/patients/"+url.PathEscape(patientID)+"/location", &loc); err != nil {
		return nil, fmt.Errorf("failed to fetch permanent location: %w", err)
	}
	if loc.Latitude == 0 && loc.Longitude == 0 {
		return nil, fmt.Errorf("no permanent location set for patient %s", patientID)
	}
	return &loc, nil
}

// SavePermanentLocation stores a new safe/home coordinate.
func (c *Client) SavePermanentLocation(ctx context.Context, patientID string, loc models.SavedLocation) error {
	if err := c.postJSON(ctx, "/api/patients/"+url.PathEscape(patientID)+"/location", loc, nil); err != nil {
		return fmt.Errorf("failed to save permanent location: %w", err)
	}
	return nil
}

// UpdatePermanentLocation replaces the saved safe/home coordinate.
func (c *Client) UpdatePermanentLocation(ctx context.Context, patientID string, loc models.SavedLocation) error {
	if err := c.putJSON(ctx, "/api/patients/"+url.PathEscape(patientID)+"/location", loc, nil); err != nil {
		return fmt.Errorf("failed to update permanent location: %w", err)
	}
	return nil
}

type safetyCheckRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type safetyCheckResponse struct {
	IsSafe bool `json:"isSafe"`
}

// SafetyCheck delegates the away decision to the backend. The client
// inverts isSafe into an "away" verdict.
func (c *Client) SafetyCheck(ctx context.Context, patientID string, lat, lng float64) (bool, error) {
	var resp safetyCheckResponse
	path := "/api/patients/" + url.PathEscape(patientID) + "/safety-check"
	if err := c.postJSON(ctx, path, safetyCheckRequest{Latitude: lat, Longitude: lng}, &resp); err != nil {
		return false, fmt.Errorf("safety check failed: %w", err)
	}
	return resp.IsSafe, nil
}

// SendDangerAlert posts a danger alert for the connected family to see.
func (c *Client) SendDangerAlert(ctx context.Context, alert models.LocationAlert) error {
	if err := c.postJSON(ctx, "/api/alerts/danger", alert, nil); err != nil {
		return fmt.Errorf("failed to send danger alert: %w", err)
	}
	return nil
}

// AlertsForUser fetches the danger alerts pending for a caregiver. An
// empty result means every alert has been resolved.
func (c *Client) AlertsForUser(ctx context.Context, userID string) ([]models.LocationAlert, error) {
	var alerts []models.LocationAlert
	if err := c.getJSON(ctx, "/api/alerts/"+url.PathEscape(userID), &alerts); err != nil {
		return nil, fmt.Errorf("failed to fetch alerts: %w", err)
	}
	return alerts, nil
}
