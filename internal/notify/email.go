package notify

import (
	"fmt"
	"log"

	"gopkg.in/gomail.v2"

	"pma-companion/internal/config"
)

// EmailService is the fallback surfacing channel, used when a danger
// alert cannot be delivered as a push.
type EmailService struct {
	cfg    *config.Config
	dialer *gomail.Dialer
}

func NewEmailService(cfg *config.Config) (*EmailService, error) {
	if cfg.SMTPUsername == "" || cfg.SMTPPassword == "" {
		return nil, fmt.Errorf("SMTP credentials not configured")
	}

	dialer := gomail.NewDialer(
		cfg.SMTPHost,
		cfg.SMTPPort,
		cfg.SMTPUsername,
		cfg.SMTPPassword,
	)

	return &EmailService{
		cfg:    cfg,
		dialer: dialer,
	}, nil
}

// SendEmail sends an HTML email.
func (s *EmailService) SendEmail(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", fmt.Sprintf("%s <%s>", s.cfg.SMTPFromName, s.cfg.SMTPFromEmail))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// SendDangerAlertEmail emails the caregiver about a patient judged away
// from their safe location.
func (s *EmailService) SendDangerAlertEmail(caregiverEmail, caregiverName, patientName, reason string) error {
	subject := fmt.Sprintf("🚨 DANGER ALERT - %s", patientName)
	htmlBody := DangerAlertTemplate(patientName, caregiverName, reason)

	if err := s.SendEmail(caregiverEmail, subject, htmlBody); err != nil {
		log.Printf("❌ Failed to send danger alert email: %v", err)
		return err
	}

	log.Printf("📧 Danger alert email sent to: %s", caregiverEmail)
	return nil
}
