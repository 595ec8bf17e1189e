package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/student-services-portal/internal/model"
	"github.com/iliyamo/student-services-portal/internal/queue"
	"github.com/iliyamo/student-services-portal/internal/repository"
	"github.com/iliyamo/student-services-portal/internal/storage"
	"github.com/iliyamo/student-services-portal/internal/utils"
)

// NotificationService stores notifications and hands EMAIL and SMS
// ones to their delivery channel.
type NotificationService struct {
	repo     *repository.Repository
	channels map[model.NotificationType]Channel
	log      *logrus.Logger
}

// NewNotificationService wires the channels built by NewChannel
// around pub.  A nil pub keeps every notification in-app.
func NewNotificationService(r *repository.Repository, pub Publisher, log *logrus.Logger) *NotificationService {
	if r == nil {
		panic("nil repository passed to NewNotificationService")
	}
	log = orDiscard(log)
	s := &NotificationService{repo: r, log: log, channels: map[model.NotificationType]Channel{}}
	for _, t := range []model.NotificationType{model.NotificationEmail, model.NotificationSMS, model.NotificationSystem} {
		s.channels[t] = NewChannel(t, pub, log)
	}
	return s
}

// SendNotification stores a notification for recipientID and
// delivers it.  Delivery failures are logged; the stored row is the
// record of truth.
func (s *NotificationService) SendNotification(ctx context.Context, recipientID, message string, typ model.NotificationType) (model.Notification, error) {
	if typ == "" {
		typ = model.NotificationSystem
	}
	if !typ.Valid() {
		return model.Notification{}, NewError(ErrInvalidInput, "Unknown notification type %q", typ)
	}
	if strings.TrimSpace(recipientID) == "" {
		return model.Notification{}, NewError(ErrInvalidInput, "Recipient is required")
	}
	n := model.Notification{
		NotificationID: utils.NewID("notif"),
		RecipientID:    recipientID,
		Message:        message,
		DateSent:       time.Now().UTC(),
		Type:           typ,
	}
	if err := s.repo.Save(ctx, n, repository.TableNotifications); err != nil {
		return model.Notification{}, err
	}
	if err := s.channels[typ].Deliver(ctx, n); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"notification_id": n.NotificationID, "type": typ}).Warn("notification delivery failed")
	}
	return n, nil
}

// ViewNotifications returns the recipient's notifications, newest
// first.
func (s *NotificationService) ViewNotifications(ctx context.Context, recipientID string) ([]model.Notification, error) {
	rows, err := repository.Query[model.Notification](ctx, s.repo, repository.TableNotifications, storage.Criteria{"recipientID": recipientID})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].DateSent.After(rows[j].DateSent) })
	return rows, nil
}

// MarkAsRead sets isRead on one of the recipient's notifications.
func (s *NotificationService) MarkAsRead(ctx context.Context, recipientID, notificationID string) error {
	n, ok, err := repository.Get[model.Notification](ctx, s.repo, repository.TableNotifications, repository.IDNotification, notificationID)
	if err != nil {
		return err
	}
	if !ok {
		return NewError(ErrNotFound, "Notification not found")
	}
	if n.RecipientID != recipientID {
		return NewError(ErrUnauthorized, "Notification does not belong to this user")
	}
	_, err = s.repo.Patch(ctx, notificationID, repository.TableNotifications, repository.IDNotification, storage.Record{"isRead": true})
	return err
}

// MarkAllAsRead marks every notification of the recipient read and
// returns how many changed.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, recipientID string) (int, error) {
	unread, err := repository.Query[model.Notification](ctx, s.repo, repository.TableNotifications, storage.Criteria{
		"recipientID": recipientID,
		"isRead":      false,
	})
	if err != nil || len(unread) == 0 {
		return 0, err
	}
	n := 0
	for _, u := range unread {
		c, err := s.repo.Patch(ctx, u.NotificationID, repository.TableNotifications, repository.IDNotification, storage.Record{"isRead": true})
		if err != nil {
			return n, err
		}
		n += c
	}
	return n, nil
}

// UnreadCount returns how many notifications the recipient has not
// read.
func (s *NotificationService) UnreadCount(ctx context.Context, recipientID string) (int, error) {
	unread, err := repository.Query[model.Notification](ctx, s.repo, repository.TableNotifications, storage.Criteria{
		"recipientID": recipientID,
		"isRead":      false,
	})
	return len(unread), err
}

// Publisher sends notification events to an external broker.
// *queue.Publisher implements it.
type Publisher interface {
	Publish(ctx context.Context, ev queue.NotificationEvent) error
}
