package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/student-services-portal/internal/booking"
	"github.com/iliyamo/student-services-portal/internal/model"
	"github.com/iliyamo/student-services-portal/internal/repository"
	"github.com/iliyamo/student-services-portal/internal/storage"
	"github.com/iliyamo/student-services-portal/internal/utils"
)

// bookingFlow is the charge-then-book sequence shared by the four
// catalog services.
type bookingFlow struct {
	repo     *repository.Repository
	payments *PaymentService
	log      *logrus.Logger
	kind     model.ResourceType
}

func newBookingFlow(r *repository.Repository, p *PaymentService, log *logrus.Logger, kind model.ResourceType) *bookingFlow {
	if r == nil || p == nil {
		panic("nil dependency passed to service constructor")
	}
	return &bookingFlow{repo: r, payments: p, log: orDiscard(log), kind: kind}
}

// book charges amount and records a booking of this flow's kind.  A
// declined payment is an ErrPaymentDeclined; the FAILED row has
// already been written.  If the booking cannot be stored the charge
// is refunded so no COMPLETED payment is left without its booking.
func (f *bookingFlow) book(ctx context.Context, studentID, resourceID string, status model.BookingStatus, amount float64, description string) (model.Booking, error) {
	p, err := f.payments.pay(ctx, studentID, amount, f.payments.Method(), description)
	if err != nil {
		return model.Booking{}, err
	}
	if p.Status != model.PaymentCompleted {
		return model.Booking{}, NewError(ErrPaymentDeclined, "Payment failed")
	}

	b := model.Booking{
		BookingID:    utils.NewID("booking"),
		StudentID:    studentID,
		ResourceID:   resourceID,
		ResourceType: f.kind,
		BookingDate:  time.Now().UTC(),
		Status:       status,
		TotalAmount:  amount,
	}
	l := f.log.WithFields(logrus.Fields{
		"student_id":    studentID,
		"resource_id":   resourceID,
		"resource_type": f.kind,
		"booking_id":    b.BookingID,
	})
	if err := f.repo.Save(ctx, b, repository.TableBookings); err != nil {
		if rerr := f.payments.Refund(ctx, p); rerr != nil {
			l.WithError(rerr).WithField("payment_id", p.PaymentID).Error("refund after failed booking")
		}
		return model.Booking{}, err
	}
	l.Info("booking created")
	return b, nil
}

// cancel flips one of the student's bookings of this kind to
// CANCELLED.
func (f *bookingFlow) cancel(ctx context.Context, studentID, bookingID string) (model.Booking, error) {
	b, ok, err := repository.Get[model.Booking](ctx, f.repo, repository.TableBookings, repository.IDBooking, bookingID)
	if err != nil {
		return model.Booking{}, err
	}
	if !ok || b.ResourceType != f.kind {
		return model.Booking{}, NewError(ErrNotFound, "Booking not found")
	}
	return f.cancelLoaded(ctx, studentID, b)
}

func (f *bookingFlow) cancelLoaded(ctx context.Context, studentID string, b model.Booking) (model.Booking, error) {
	if b.StudentID != studentID {
		return model.Booking{}, NewError(ErrUnauthorized, "Booking does not belong to this student")
	}
	st, err := booking.Parse(string(b.Status))
	if err != nil {
		return model.Booking{}, err
	}
	if st.Terminal() {
		return model.Booking{}, NewError(ErrConflict, "Booking is already cancelled")
	}
	moved, err := transition(ctx, f.repo, b.BookingID, st, booking.Cancelled)
	if err != nil {
		return model.Booking{}, err
	}
	if !moved {
		return model.Booking{}, NewError(ErrConflict, "Booking is already cancelled")
	}
	b.Status = model.BookingCancelled
	f.log.WithFields(logrus.Fields{"student_id": studentID, "booking_id": b.BookingID}).Info("booking cancelled")
	return b, nil
}

// transition moves a booking from one status to another only if it
// still has the expected status.  It reports false when another
// request changed the booking first.
func transition(ctx context.Context, r *repository.Repository, bookingID string, from, to booking.State) (bool, error) {
	n, err := r.PatchWhere(ctx, bookingID, repository.TableBookings, repository.IDBooking,
		storage.Criteria{"status": string(from)}, storage.Record{"status": string(to)})
	return n == 1, err
}

// studentBookings lists every booking of this kind for the student.
func (f *bookingFlow) studentBookings(ctx context.Context, studentID string) ([]model.Booking, error) {
	return repository.Query[model.Booking](ctx, f.repo, repository.TableBookings, storage.Criteria{
		"studentID":    studentID,
		"resourceType": string(f.kind),
	})
}
