package model

import "time"

// NotificationType selects the delivery channel of a notification.
type NotificationType string

const (
    NotificationEmail  NotificationType = "EMAIL"
    NotificationSMS    NotificationType = "SMS"
    NotificationSystem NotificationType = "SYSTEM"
)

// Valid reports whether t is one of the known channels.
func (t NotificationType) Valid() bool {
    switch t {
    case NotificationEmail, NotificationSMS, NotificationSystem:
        return true
    }
    return false
}

// Notification is a message for one recipient stored in the
// `notifications` table.  Only IsRead changes after creation.
type Notification struct {
    NotificationID string           `json:"notificationID"` // notifications.notificationID
    RecipientID    string           `json:"recipientID"`    // notifications.recipientID
    Message        string           `json:"message"`        // notifications.message
    DateSent       time.Time        `json:"dateSent"`       // notifications.dateSent
    IsRead         bool             `json:"isRead"`         // notifications.isRead
    Type           NotificationType `json:"type"`           // notifications.type
}
