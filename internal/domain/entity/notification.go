package entity

import "time"

// Notification status constants
const (
	NotificationStatusPending = "PENDING"
	NotificationStatusSent    = "SENT"
	NotificationStatusFailed  = "FAILED"
)

// TransitionNotification is the outbox record emitted on every successful
// transition. The engine only writes it; the delivery collaborator picks it
// up and marks it sent.
type TransitionNotification struct {
	ID          int64     `json:"id"`
	RequestID   int64     `json:"request_id"`
	RequestCode string    `json:"request_code"`
	NotifyRole  string    `json:"notify_role,omitempty"`
	NotifyUser  string    `json:"notify_user,omitempty"`
	NewStatus   string    `json:"new_status"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	SentAt      *time.Time `json:"sent_at,omitempty"`
}
