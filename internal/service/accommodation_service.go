package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/student-services-portal/internal/model"
	"github.com/iliyamo/student-services-portal/internal/repository"
)

// AccommodationService books housing.  Bookings start PENDING.
type AccommodationService struct {
	flow *bookingFlow
}

func NewAccommodationService(r *repository.Repository, p *PaymentService, log *logrus.Logger) *AccommodationService {
	return &AccommodationService{flow: newBookingFlow(r, p, log, model.ResourceAccommodation)}
}

// BookHousing charges one night at the accommodation and records a
// PENDING booking.
func (s *AccommodationService) BookHousing(ctx context.Context, studentID, accommodationID string) (model.Booking, error) {
	acc, ok, err := repository.Get[model.Accommodation](ctx, s.flow.repo, repository.TableAccommodations, repository.IDAccommodation, accommodationID)
	if err != nil {
		return model.Booking{}, err
	}
	if !ok {
		return model.Booking{}, NewError(ErrNotFound, "Accommodation not found")
	}
	return s.flow.book(ctx, studentID, acc.AccommodationID, model.BookingPending, acc.PricePerNight,
		fmt.Sprintf("Accommodation booking: %s", acc.Name))
}

// CancelBooking cancels one of the student's accommodation bookings.
func (s *AccommodationService) CancelBooking(ctx context.Context, studentID, bookingID string) (model.Booking, error) {
	return s.flow.cancel(ctx, studentID, bookingID)
}

func (s *AccommodationService) GetAvailableAccommodations(ctx context.Context) ([]model.Accommodation, error) {
	return repository.List[model.Accommodation](ctx, s.flow.repo, repository.TableAccommodations)
}

func (s *AccommodationService) GetStudentBookings(ctx context.Context, studentID string) ([]model.Booking, error) {
	return s.flow.studentBookings(ctx, studentID)
}
