package models

import "time"

// NotificationStatus tracks whether the recipient has read a notification.
type NotificationStatus string

const (
	NotificationSent NotificationStatus = "sent"
	NotificationRead NotificationStatus = "read"
)

// Notification is one in-app notification record. Created by the
// dispatcher on reservation lifecycle events, flipped to read only by the
// recipient.
type Notification struct {
	ID      int64              `json:"id"`
	UserID  int64              `json:"user_id"`
	Message string             `json:"message"`
	Status  NotificationStatus `json:"status"`
	SentAt  time.Time          `json:"sent_at"`
}
