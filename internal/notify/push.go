package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// PushService surfaces notifications as OS-level pushes on the paired
// device via FCM. Optional: when no credentials are configured the
// companion falls back to in-app toasts only.
type PushService struct {
	client *messaging.Client
	ctx    context.Context
}

func NewPushService(credentialsPath string) (*PushService, error) {
	ctx := context.Background()

	opt := option.WithCredentialsFile(credentialsPath)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting Messaging client: %w", err)
	}

	log.Println("✅ Push service initialized successfully")

	return &PushService{
		client: client,
		ctx:    ctx,
	}, nil
}

// SendReminderPush nudges the device when a memory reminder comes due.
func (s *PushService) SendReminderPush(deviceToken, title, description string) error {
	if deviceToken == "" {
		return fmt.Errorf("device token is empty")
	}

	message := &messaging.Message{
		Token: deviceToken,
		Notification: &messaging.Notification{
			Title: "💓 Memory reminder",
			Body:  fmt.Sprintf("%s: %s", title, description),
		},
		Data: map[string]string{
			"type":      "memory_reminder",
			"timestamp": fmt.Sprintf("%d", time.Now().Unix()),
		},
		Android: &messaging.AndroidConfig{
			Priority: "normal",
			Notification: &messaging.AndroidNotification{
				Sound:        "default",
				ChannelID:    "pma_reminders",
				DefaultSound: true,
			},
		},
	}

	response, err := s.client.Send(s.ctx, message)
	if err != nil {
		return fmt.Errorf("error sending reminder push: %w", err)
	}

	log.Printf("📲 Reminder push sent: %s", response)
	return nil
}

// SendRoutinePush nudges the device when a routine prompt arrives.
func (s *PushService) SendRoutinePush(deviceToken, question string) error {
	if deviceToken == "" {
		return fmt.Errorf("device token is empty")
	}

	message := &messaging.Message{
		Token: deviceToken,
		Notification: &messaging.Notification{
			Title: "📋 Routine check-in",
			Body:  question,
		},
		Data: map[string]string{
			"type":      "routine_prompt",
			"timestamp": fmt.Sprintf("%d", time.Now().Unix()),
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:        "default",
				Priority:     messaging.PriorityHigh,
				ChannelID:    "pma_routines",
				DefaultSound: true,
			},
		},
	}

	response, err := s.client.Send(s.ctx, message)
	if err != nil {
		return fmt.Errorf("error sending routine push: %w", err)
	}

	log.Printf("📲 Routine push sent: %s", response)
	return nil
}

// SendDangerAlertPush notifies the caregiver's device that a patient
// was judged away from their safe location.
func (s *PushService) SendDangerAlertPush(deviceToken, patientName, reason string) error {
	if deviceToken == "" {
		return fmt.Errorf("device token is empty")
	}

	message := &messaging.Message{
		Token: deviceToken,
		Notification: &messaging.Notification{
			Title: "⚠️ DANGER ALERT",
			Body:  fmt.Sprintf("%s may need help: %s", patientName, reason),
		},
		Data: map[string]string{
			"type":      "danger_alert",
			"patient":   patientName,
			"priority":  "high",
			"timestamp": fmt.Sprintf("%d", time.Now().Unix()),
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:        "alert",
				Priority:     messaging.PriorityHigh,
				ChannelID:    "pma_alerts",
				DefaultSound: true,
				Color:        "#FF0000",
			},
		},
	}

	response, err := s.client.Send(s.ctx, message)
	if err != nil {
		return fmt.Errorf("error sending danger alert push: %w", err)
	}

	log.Printf("⚠️ Danger alert push sent: %s", response)
	return nil
}

// ValidateToken checks a device token by sending a silent data message.
func (s *PushService) ValidateToken(deviceToken string) bool {
	if deviceToken == "" {
		return false
	}

	message := &messaging.Message{
		Token: deviceToken,
		Data: map[string]string{
			"type": "token_validation",
		},
		Android: &messaging.AndroidConfig{
			Priority: "normal",
		},
	}

	if _, err := s.client.Send(s.ctx, message); err != nil {
		log.Printf("❌ ValidateToken failed: %v", err)
		return false
	}
	return true
}

// IsInvalidTokenError reports whether the Firebase error means the
// token is dead and should be dropped.
func IsInvalidTokenError(err error) bool {
	return messaging.IsRegistrationTokenNotRegistered(err) || messaging.IsSenderIDMismatch(err)
}
