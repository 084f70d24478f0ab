// internal/notifications/service.go
// Dispatches the claimed-suggestion notification. All channels are
// best-effort: the in-app row is the source of truth, email and SMS are
// fire-and-forget extras.

package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/freightops/freightops-backend/internal/common/logger"
	"github.com/freightops/freightops-backend/internal/matching"
)

type Service interface {
	// SuggestionClaimed implements matching.Notifier.
	SuggestionClaimed(ctx context.Context, suggestion *matching.Suggestion) error
}

type service struct {
	repo         Repository
	emailService EmailService
	smsService   SMSService
	log          logger.Logger
}

func NewService(repo Repository, emailService EmailService, smsService SMSService, log logger.Logger) Service {
	return &service{
		repo:         repo,
		emailService: emailService,
		smsService:   smsService,
		log:          log,
	}
}

func (s *service) SuggestionClaimed(ctx context.Context, suggestion *matching.Suggestion) error {
	data, _ := json.Marshal(map[string]interface{}{
		"suggestion_id": suggestion.ID,
		"trip_id":       suggestion.TripID,
		"load_id":       suggestion.LoadID,
		"match_score":   suggestion.MatchScore,
	})

	title := "Load claimed"
	message := fmt.Sprintf(
		"Load #%d was claimed for trip #%d (score %.0f, est. profit $%.2f)",
		suggestion.LoadID, suggestion.TripID, suggestion.MatchScore, suggestion.ProfitEstimate,
	)

	n := &Notification{
		ID:      uuid.NewString(),
		OwnerID: suggestion.OwnerID,
		Type:    TypeSuggestionClaimed,
		Title:   title,
		Message: message,
		Data:    data,
	}

	if err := s.repo.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("create claimed notification: %w", err)
	}

	s.dispatchToDriver(ctx, suggestion, title, message)

	return nil
}

// dispatchToDriver sends email/SMS to the trip's driver when contact info is
// on file. Channel failures are logged and swallowed.
func (s *service) dispatchToDriver(ctx context.Context, suggestion *matching.Suggestion, title, message string) {
	contact, err := s.repo.GetDriverContactForTrip(ctx, suggestion.TripID)
	if err != nil {
		s.log.Warnf("driver contact lookup failed for trip %d: %v", suggestion.TripID, err)
		return
	}
	if contact == nil {
		return
	}

	if contact.Email != nil && *contact.Email != "" {
		email := &EmailNotification{To: *contact.Email, Subject: title, Body: message}
		if err := s.emailService.SendEmail(ctx, email); err != nil {
			s.log.Warnf("claimed email to driver %d failed: %v", contact.DriverID, err)
		}
	}

	if contact.Phone != nil && *contact.Phone != "" {
		sms := &SMSNotification{To: *contact.Phone, Message: message}
		if err := s.smsService.SendSMS(ctx, sms); err != nil {
			s.log.Warnf("claimed SMS to driver %d failed: %v", contact.DriverID, err)
		}
	}
}
