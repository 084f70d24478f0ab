// internal/notifications/email.go

package notifications

import (
	"context"
	"fmt"
	"log"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type EmailService interface {
	SendEmail(ctx context.Context, notification *EmailNotification) error
}

// SendGridEmailService implements email notifications using SendGrid
type SendGridEmailService struct {
	apiKey string
	from   string
}

func NewSendGridEmailService(apiKey, from string) EmailService {
	return &SendGridEmailService{apiKey: apiKey, from: from}
}

func (s *SendGridEmailService) SendEmail(ctx context.Context, notification *EmailNotification) error {
	from := mail.NewEmail("FreightOps", s.from)
	to := mail.NewEmail("", notification.To)

	message := mail.NewSingleEmail(from, notification.Subject, to, notification.Body, "")
	client := sendgrid.NewSendClient(s.apiKey)

	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email via SendGrid: %w", err)
	}

	if response.StatusCode >= 400 {
		return fmt.Errorf("SendGrid returned error status: %d", response.StatusCode)
	}

	return nil
}

// MockEmailService logs instead of sending; used in development
type MockEmailService struct{}

func NewMockEmailService() EmailService {
	return &MockEmailService{}
}

func (s *MockEmailService) SendEmail(ctx context.Context, notification *EmailNotification) error {
	log.Printf("[MOCK EMAIL] to=%s subject=%q", notification.To, notification.Subject)
	return nil
}
