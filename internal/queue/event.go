// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names, one per outbound notification channel.
const (
    EmailQueue = "notification.email"
    SMSQueue   = "notification.sms"
)

// NotificationEvent is published when an EMAIL or SMS notification is
// created.  It carries everything a delivery worker needs so it never
// has to read the portal's storage.
type NotificationEvent struct {
    NotificationID string `json:"notification_id"`
    RecipientID    string `json:"recipient_id"`
    Channel        string `json:"channel"` // EMAIL | SMS
    Message        string `json:"message"`
    SentAt         string `json:"sent_at"` // RFC 3339
}

// QueueFor returns the queue that carries channel, or "" when the
// channel is not delivered through the broker.
func QueueFor(channel string) string {
    switch channel {
    case "EMAIL":
        return EmailQueue
    case "SMS":
        return SMSQueue
    }
    return ""
}
