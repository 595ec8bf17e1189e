package service

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/student-services-portal/internal/booking"
	"github.com/iliyamo/student-services-portal/internal/model"
	"github.com/iliyamo/student-services-portal/internal/repository"
	"github.com/iliyamo/student-services-portal/internal/storage"
)

// BookingService reads bookings across every resource kind and lets
// an admin walk a booking through its lifecycle.
type BookingService struct {
	repo      *repository.Repository
	transport *TransportService
	log       *logrus.Logger
}

// NewBookingService needs the transport service so that a booking
// moved to CANCELLED gives its seat back.
func NewBookingService(r *repository.Repository, t *TransportService, log *logrus.Logger) *BookingService {
	if r == nil || t == nil {
		panic("nil dependency passed to NewBookingService")
	}
	return &BookingService{repo: r, transport: t, log: orDiscard(log)}
}

// Get loads one booking.
func (s *BookingService) Get(ctx context.Context, bookingID string) (model.Booking, error) {
	b, ok, err := repository.Get[model.Booking](ctx, s.repo, repository.TableBookings, repository.IDBooking, bookingID)
	if err != nil {
		return model.Booking{}, err
	}
	if !ok {
		return model.Booking{}, NewError(ErrNotFound, "Booking not found")
	}
	return b, nil
}

// ListForStudent returns every booking of the student, newest first.
func (s *BookingService) ListForStudent(ctx context.Context, studentID string) ([]model.Booking, error) {
	rows, err := repository.Query[model.Booking](ctx, s.repo, repository.TableBookings, storage.Criteria{"studentID": studentID})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].BookingDate.After(rows[j].BookingDate) })
	return rows, nil
}

// Advance moves the booking to its next state.
func (s *BookingService) Advance(ctx context.Context, bookingID string) (model.Booking, error) {
	return s.move(ctx, bookingID, booking.State.Next, "advance")
}

// Revert moves the booking to its previous state.
func (s *BookingService) Revert(ctx context.Context, bookingID string) (model.Booking, error) {
	return s.move(ctx, bookingID, booking.State.Prev, "revert")
}

func (s *BookingService) move(ctx context.Context, bookingID string, step func(booking.State) (booking.State, bool), verb string) (model.Booking, error) {
	b, err := s.Get(ctx, bookingID)
	if err != nil {
		return model.Booking{}, err
	}
	from, err := booking.Parse(string(b.Status))
	if err != nil {
		return model.Booking{}, err
	}
	to, ok := step(from)
	if !ok {
		return model.Booking{}, NewError(ErrConflict, "Cannot %s booking from %s", verb, from)
	}
	moved, err := transition(ctx, s.repo, bookingID, from, to)
	if err != nil {
		return model.Booking{}, err
	}
	if !moved {
		return model.Booking{}, NewError(ErrConflict, "Booking was changed by another request")
	}
	b.Status = to.Status()
	if to == booking.Cancelled && b.ResourceType == model.ResourceTransport {
		if err := s.transport.RestoreSeat(ctx, b.ResourceID); err != nil {
			return model.Booking{}, err
		}
	}
	s.log.WithFields(logrus.Fields{"booking_id": bookingID, "from": from, "to": to}).Info("booking state changed")
	return b, nil
}
