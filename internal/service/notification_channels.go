package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/student-services-portal/internal/model"
	"github.com/iliyamo/student-services-portal/internal/queue"
)

// Channel delivers a stored notification to its recipient.
type Channel interface {
	Deliver(ctx context.Context, n model.Notification) error
}

// NewChannel returns the channel for typ.  EMAIL and SMS go through
// pub when it is set; SYSTEM notifications live only in storage.
func NewChannel(typ model.NotificationType, pub Publisher, log *logrus.Logger) Channel {
	switch typ {
	case model.NotificationEmail, model.NotificationSMS:
		if pub != nil {
			return brokerChannel{pub: pub}
		}
	}
	return inAppChannel{log: orDiscard(log)}
}

type brokerChannel struct{ pub Publisher }

func (c brokerChannel) Deliver(ctx context.Context, n model.Notification) error {
	return c.pub.Publish(ctx, queue.NotificationEvent{
		NotificationID: n.NotificationID,
		RecipientID:    n.RecipientID,
		Channel:        string(n.Type),
		Message:        n.Message,
		SentAt:         n.DateSent.Format(time.RFC3339),
	})
}

type inAppChannel struct{ log *logrus.Logger }

func (c inAppChannel) Deliver(_ context.Context, n model.Notification) error {
	c.log.WithFields(logrus.Fields{
		"notification_id": n.NotificationID,
		"recipient_id":    n.RecipientID,
		"type":            n.Type,
	}).Debug("notification stored")
	return nil
}
