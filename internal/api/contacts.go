package api

import (
	"context"
	"fmt"
	"net/url"

	"pma-companion/pkg/models"
)

type ContactPage[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Size  int `json:"size"`
}

func (c *Client) EmergencyContacts(ctx context.Context, page, size int) (*ContactPage[models.EmergencyContact], error) {
	path := fmt.Sprintf("/api/emergencycontacts?page=%d&size=%d", page, size)
	var result ContactPage[models.EmergencyContact]
	if err := c.getJSON(ctx, path, &result); err != nil {
		return nil, fmt.Errorf("failed to list emergency contacts: %w", err)
	}
	return &result, nil
}

func (c *Client) CreateEmergencyContact(ctx context.Context, contact models.EmergencyContact) (*models.EmergencyContact, error) {
	var created models.EmergencyContact
	if err := c.postJSON(ctx, "/api/emergencycontacts", contact, &created); err != nil {
		return nil, fmt.Errorf("failed to create emergency contact: %w", err)
	}
	return &created, nil
}

func (c *Client) UpdateEmergencyContact(ctx context.Context, id string, contact models.EmergencyContact) (*models.EmergencyContact, error) {
	var updated models.EmergencyContact
	if err := c.putJSON(ctx, "/api/emergencycontacts/"+url.PathEscape(id), contact, &updated); err != nil {
		return nil, fmt.Errorf("failed to update emergency contact: %w", err)
	}
	return &updated, nil
}

func (c *Client) DeleteEmergencyContact(ctx context.Context, id string) error {
	if err := c.delete(ctx, "/api/emergencycontacts/"+url.PathEscape(id)); err != nil {
		return fmt.Errorf("failed to delete emergency contact: %w", err)
	}
	return nil
}

func (c *Client) PhotoContacts(ctx context.Context, page, size int) (*ContactPage[models.PhotoContact], error) {
	path := fmt.Sprintf("/api/photocontacts?page=%d&size=%d", page, size)
	var result ContactPage[models.PhotoContact]
	if err := c.getJSON(ctx, path, &result); err != nil {
		return nil, fmt.Errorf("failed to list photo contacts: %w", err)
	}
	return &result, nil
}

func (c *Client) CreatePhotoContact(ctx context.Context, contact models.PhotoContact) (*models.PhotoContact, error) {
	var created models.PhotoContact
	if err := c.postJSON(ctx, "/api/photocontacts", contact, &created); err != nil {
		return nil, fmt.Errorf("failed to create photo contact: %w", err)
	}
	return &created, nil
}

func (c *Client) UpdatePhotoContact(ctx context.Context, id string, contact models.PhotoContact) (*models.PhotoContact, error) {
	var updated models.PhotoContact
	if err := c.putJSON(ctx, "/api/photocontacts/"+url.PathEscape(id), contact, &updated); err != nil {
		return nil, fmt.Errorf("failed to update photo contact: %w", err)
	}
	return &updated, nil
}

func (c *Client) DeletePhotoContact(ctx context.Context, id string) error {
	if err := c.delete(ctx, "/api/photocontacts/"+url.PathEscape(id)); err != nil {
		return fmt.Errorf("failed to delete photo contact: %w", err)
	}
	return nil
}
