// internal/notifications/models.go

package notifications

import (
	"encoding/json"
	"time"
)

// NotificationType represents different notification types
type NotificationType string

const (
	TypeSuggestionClaimed NotificationType = "suggestion_claimed"
)

// Notification is an in-app notification row
type Notification struct {
	ID        string           `json:"id" db:"id"`
	OwnerID   int64            `json:"owner_id" db:"owner_id"`
	Type      NotificationType `json:"type" db:"type"`
	Title     string           `json:"title" db:"title"`
	Message   string           `json:"message" db:"message"`
	Data      json.RawMessage  `json:"data,omitempty" db:"data"`
	IsRead    bool             `json:"is_read" db:"is_read"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}

// DriverContact is the contact projection used for outbound channels
type DriverContact struct {
	DriverID int64   `json:"driver_id" db:"driver_id"`
	Name     string  `json:"name" db:"name"`
	Email    *string `json:"email,omitempty" db:"email"`
	Phone    *string `json:"phone,omitempty" db:"phone"`
}

// EmailNotification is a single outbound email
type EmailNotification struct {
	To      string
	Subject string
	Body    string
}

// SMSNotification is a single outbound SMS
type SMSNotification struct {
	To      string
	Message string
}
