package kafka

import (
	"strings"
	"time"
)

// NotificationDTO is the value published for one notification.
type NotificationDTO struct {
	ExternalContactID string    `json:"external_contact_id"`
	Message           string    `json:"message"`
	SentAt            time.Time `json:"sent_at"`
}

// NewNotificationDTO trims the contact id and stamps the message with at in UTC.
func NewNotificationDTO(externalID, message string, at time.Time) NotificationDTO {
	return NotificationDTO{
		ExternalContactID: strings.TrimSpace(externalID),
		Message:           message,
		SentAt:            at.UTC(),
	}
}
