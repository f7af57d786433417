package api

import (
	"context"
	"fmt"
	"net/url"

	"pma-companion/pkg/models"
)

// ListMemories fetches a page of memories, optionally filtered by a
// search term.
func (c *Client) ListMemories(ctx context.Context, page, size int, search string) ([]models.Memory, error) {
	path := fmt.Sprintf("/api/memories?page=%d&size=%d", page, size)
	if search != "" {
		path += "&search=" + url.QueryEscape(search)
	}

	var memories []models.Memory
	if err := c.getJSON(ctx, path, &memories); err != nil {
		return nil, fmt.Errorf("failed to list memories: %w", err)
	}
	return memories, nil
}

func (c *Client) RecentMemories(ctx context.Context, userID string) ([]models.Memory, error) {
	var memories []models.Memory
	if err := c.getJSON(ctx, "/api/memories/recent/"+url.PathEscape(userID), &memories); err != nil {
		return nil, fmt.Errorf("failed to fetch recent memories: %w", err)
	}
	return memories, nil
}

// DueReminders fetches reminders whose time has elapsed and which the
// patient has not acknowledged yet.
func (c *Client) DueReminders(ctx context.Context, userID string) ([]models.Reminder, error) {
	var reminders []models.Reminder
	if err := c.getJSON(ctx, "/api/memories/reminders/due/"+url.PathEscape(userID), &reminders); err != nil {
		return nil, fmt.Errorf("failed to fetch due reminders: %w", err)
	}
	return reminders, nil
}

// MarkReminderRead acknowledges a reminder. The backend archives it once
// marked.
func (c *Client) MarkReminderRead(ctx context.Context, memoryID string) error {
	if err := c.patch(ctx, "/api/memories/"+url.PathEscape(memoryID)+"/mark-read"); err != nil {
		return fmt.Errorf("failed to mark reminder read: %w", err)
	}
	return nil
}

// VoiceNoteURL builds the download URL for a memory's attached voice note.
func (c *Client) VoiceNoteURL(memoryID string) string {
	return c.baseURL + "/api/memories/" + url.PathEscape(memoryID) + "/download?type=voice"
}

// FileURL builds the download URL for a memory's attached photo/file.
func (c *Client) FileURL(memoryID string) string {
	return c.baseURL + "/api/memories/" + url.PathEscape(memoryID) + "/download?type=file"
}
