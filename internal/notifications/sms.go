// internal/notifications/sms.go

package notifications

import (
	"context"
	"fmt"
	"log"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type SMSService interface {
	SendSMS(ctx context.Context, notification *SMSNotification) error
}

// TwilioSMSService implements SMS notifications using Twilio
type TwilioSMSService struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioSMSService(accountSID, authToken, from string) SMSService {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioSMSService{client: client, from: from}
}

func (s *TwilioSMSService) SendSMS(ctx context.Context, notification *SMSNotification) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(notification.To)
	params.SetFrom(s.from)
	params.SetBody(notification.Message)

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("failed to send SMS to %s: %w", notification.To, err)
	}

	return nil
}

// MockSMSService logs instead of sending; used in development
type MockSMSService struct{}

func NewMockSMSService() SMSService {
	return &MockSMSService{}
}

func (s *MockSMSService) SendSMS(ctx context.Context, notification *SMSNotification) error {
	log.Printf("[MOCK SMS] to=%s message=%q", notification.To, notification.Message)
	return nil
}
