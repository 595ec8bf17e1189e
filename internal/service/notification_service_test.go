package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/student-services-portal/internal/model"
	"github.com/iliyamo/student-services-portal/internal/queue"
	"github.com/iliyamo/student-services-portal/internal/service"
)

type recordingPublisher struct {
	events []queue.NotificationEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.NotificationEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

func TestNotificationsReadFlags(t *testing.T) {
	h := newHarness(t)
	a, err := h.notifications.SendNotification(h.ctx, "student_1", "first", model.NotificationSystem)
	require.NoError(t, err)
	_, err = h.notifications.SendNotification(h.ctx, "student_1", "second", "")
	require.NoError(t, err)
	_, err = h.notifications.SendNotification(h.ctx, "student_2", "other", model.NotificationSystem)
	require.NoError(t, err)

	n, err := h.notifications.UnreadCount(h.ctx, "student_1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.ErrorIs(t, h.notifications.MarkAsRead(h.ctx, "student_2", a.NotificationID), service.ErrUnauthorized)
	assert.ErrorIs(t, h.notifications.MarkAsRead(h.ctx, "student_1", "notif_nope"), service.ErrNotFound)
	require.NoError(t, h.notifications.MarkAsRead(h.ctx, "student_1", a.NotificationID))

	n, err = h.notifications.UnreadCount(h.ctx, "student_1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	changed, err := h.notifications.MarkAllAsRead(h.ctx, "student_1")
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	list, err := h.notifications.ViewNotifications(h.ctx, "student_1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, x := range list {
		assert.True(t, x.IsRead)
	}

	other, err := h.notifications.UnreadCount(h.ctx, "student_2")
	require.NoError(t, err)
	assert.Equal(t, 1, other)
}

func TestNotificationValidation(t *testing.T) {
	h := newHarness(t)
	_, err := h.notifications.SendNotification(h.ctx, "student_1", "x", "PIGEON")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
	_, err = h.notifications.SendNotification(h.ctx, " ", "x", model.NotificationSystem)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestEmailAndSMSGoToBroker(t *testing.T) {
	h := newHarness(t)
	pub := &recordingPublisher{}
	svc := service.NewNotificationService(h.repo, pub, nil)

	_, err := svc.SendNotification(h.ctx, "student_1", "mail", model.NotificationEmail)
	require.NoError(t, err)
	_, err = svc.SendNotification(h.ctx, "student_1", "text", model.NotificationSMS)
	require.NoError(t, err)
	_, err = svc.SendNotification(h.ctx, "student_1", "inbox", model.NotificationSystem)
	require.NoError(t, err)

	require.Len(t, pub.events, 2)
	assert.Equal(t, "EMAIL", pub.events[0].Channel)
	assert.Equal(t, "SMS", pub.events[1].Channel)
	assert.Equal(t, "student_1", pub.events[0].RecipientID)
}

func TestBrokerFailureKeepsNotification(t *testing.T) {
	h := newHarness(t)
	svc := service.NewNotificationService(h.repo, &recordingPublisher{err: errors.New("broker down")}, nil)

	_, err := svc.SendNotification(h.ctx, "student_1", "mail", model.NotificationEmail)
	require.NoError(t, err)
	list, err := svc.ViewNotifications(h.ctx, "student_1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
