package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/student-services-portal/internal/model"
	"github.com/iliyamo/student-services-portal/internal/repository"
	"github.com/iliyamo/student-services-portal/internal/storage"
)

// TransportService books seats.  Each booking takes one seat from
// the transport row and each cancellation returns it.
//
// The seat check, payment, booking and decrement for one transport
// run under that transport's mutex so concurrent requests in this
// process cannot oversell.
type TransportService struct {
	flow  *bookingFlow
	locks sync.Map // transportID -> *sync.Mutex
}

func NewTransportService(r *repository.Repository, p *PaymentService, log *logrus.Logger) *TransportService {
	return &TransportService{flow: newBookingFlow(r, p, log, model.ResourceTransport)}
}

func (s *TransportService) lock(transportID string) func() {
	m, _ := s.locks.LoadOrStore(transportID, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// BookTransport reserves one seat.  A full transport is refused with
// ErrConflict before any payment is attempted.
func (s *TransportService) BookTransport(ctx context.Context, studentID, transportID string) (model.Booking, error) {
	defer s.lock(transportID)()

	t, ok, err := s.get(ctx, transportID)
	if err != nil {
		return model.Booking{}, err
	}
	if !ok {
		return model.Booking{}, NewError(ErrNotFound, "Transport not found")
	}
	if t.SeatsAvailable <= 0 {
		return model.Booking{}, NewError(ErrConflict, "No seats available")
	}
	b, err := s.flow.book(ctx, studentID, t.TransportID, model.BookingPending, t.PricePerSeat,
		fmt.Sprintf("Transport booking: %s", t.Type))
	if err != nil {
		return model.Booking{}, err
	}
	if err := s.setSeats(ctx, t.TransportID, t.SeatsAvailable-1); err != nil {
		return model.Booking{}, err
	}
	return b, nil
}

// CancelBooking cancels one of the student's transport bookings and
// gives its seat back.
func (s *TransportService) CancelBooking(ctx context.Context, studentID, bookingID string) (model.Booking, error) {
	b, err := s.flow.cancel(ctx, studentID, bookingID)
	if err != nil {
		return model.Booking{}, err
	}
	return b, s.RestoreSeat(ctx, b.ResourceID)
}

// RestoreSeat returns one seat to the transport.  A transport that no
// longer exists is ignored.
func (s *TransportService) RestoreSeat(ctx context.Context, transportID string) error {
	defer s.lock(transportID)()
	t, ok, err := s.get(ctx, transportID)
	if err != nil || !ok {
		return err
	}
	return s.setSeats(ctx, transportID, t.SeatsAvailable+1)
}

func (s *TransportService) GetAvailableTransport(ctx context.Context) ([]model.Transport, error) {
	return repository.List[model.Transport](ctx, s.flow.repo, repository.TableTransport)
}

func (s *TransportService) GetStudentBookings(ctx context.Context, studentID string) ([]model.Booking, error) {
	return s.flow.studentBookings(ctx, studentID)
}

func (s *TransportService) get(ctx context.Context, id string) (model.Transport, bool, error) {
	return repository.Get[model.Transport](ctx, s.flow.repo, repository.TableTransport, repository.IDTransport, id)
}

func (s *TransportService) setSeats(ctx context.Context, id string, seats int) error {
	_, err := s.flow.repo.Patch(ctx, id, repository.TableTransport, repository.IDTransport, storage.Record{"seatsAvailable": seats})
	return err
}
