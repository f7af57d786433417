package api

import (
	"context"
	"fmt"
	"net/url"

	"pma-companion/pkg/models"
)

type familyListResponse struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Data    []models.FamilyMember `json:"data"`
}

// ConnectFamily links the session user with another account by username.
func (c *Client) ConnectFamily(ctx context.Context, username string) error {
	body := map[string]string{"username": username}
	if err := c.postJSON(ctx, "/api/family/connect", body, nil); err != nil {
		return fmt.Errorf("failed to connect family member: %w", err)
	}
	return nil
}

// FamilyMembers lists the accounts connected to userID.
func (c *Client) FamilyMembers(ctx context.Context, userID string) ([]models.FamilyMember, error) {
	var resp familyListResponse
	if err := c.getJSON(ctx, "/api/family/list/"+url.PathEscape(userID), &resp); err != nil {
		return nil, fmt.Errorf("failed to list family members: %w", err)
	}
	return resp.Data, nil
}

// PatientForCaregiver resolves the patient a caregiver monitors: the
// first connected account. Returns "" when none is connected.
func (c *Client) PatientForCaregiver(ctx context.Context, caregiverID string) (string, error) {
	members, err := c.FamilyMembers(ctx, caregiverID)
	if err != nil {
		return "", err
	}
	if len(members) == 0 {
		return "", nil
	}
	return members[0].ID, nil
}

type sendMessageRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// SendChatMessage delivers a chat message to a connected family member.
func (c *Client) SendChatMessage(ctx context.Context, to, message string) error {
	if err := c.postJSON(ctx, "/api/chat/send", sendMessageRequest{To: to, Message: message}, nil); err != nil {
		return fmt.Errorf("failed to send chat message: %w", err)
	}
	return nil
}

// ReceiveChatMessages fetches messages pending for the session user.
func (c *Client) ReceiveChatMessages(ctx context.Context) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	if err := c.getJSON(ctx, "/api/chat/receive", &messages); err != nil {
		return nil, fmt.Errorf("failed to receive chat messages: %w", err)
	}
	return messages, nil
}
