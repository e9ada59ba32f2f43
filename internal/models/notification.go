package models

import "time"

// Notification represents one entry in the notification feed
type Notification struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	Title    string    `json:"title"`
	Message  string    `json:"message"`
	Time     time.Time `json:"time"`
	Read     bool      `json:"read"`
	GroupID  string    `json:"groupId,omitempty"`
	MemberID string    `json:"memberId,omitempty"`
	Audience string    `json:"audience,omitempty"`
	Entity   string    `json:"entity,omitempty"`
	Action   string    `json:"action,omitempty"`
	EntityID string    `json:"entityId,omitempty"`
}

// Notification type constants
const (
	NotificationInfo    = "info"
	NotificationSuccess = "success"
	NotificationWarning = "warning"
	NotificationAlert   = "alert"
)
