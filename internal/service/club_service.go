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

// ClubService manages club memberships.  A membership is a CLUB
// booking, CONFIRMED on join and CANCELLED on leave.
type ClubService struct {
	flow *bookingFlow
	mu   sync.Mutex // one join or leave at a time
}

func NewClubService(r *repository.Repository, p *PaymentService, log *logrus.Logger) *ClubService {
	return &ClubService{flow: newBookingFlow(r, p, log, model.ResourceClub)}
}

// ChooseClub charges the membership fee and records the membership.
// A student who is already an active member gets ErrConflict.
func (s *ClubService) ChooseClub(ctx context.Context, studentID, clubID string) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok, err := repository.Get[model.Club](ctx, s.flow.repo, repository.TableClubs, repository.IDClub, clubID)
	if err != nil {
		return model.Booking{}, err
	}
	if !ok {
		return model.Booking{}, NewError(ErrNotFound, "Club not found")
	}
	active, err := s.activeMembership(ctx, studentID, clubID)
	if err != nil {
		return model.Booking{}, err
	}
	if active != nil {
		return model.Booking{}, NewError(ErrConflict, "Already a member of %s", c.Name)
	}
	return s.flow.book(ctx, studentID, c.ClubID, model.BookingConfirmed, c.MembershipFee,
		fmt.Sprintf("Club membership: %s", c.Name))
}

// CancelClubMembership ends the student's active membership of clubID.
func (s *ClubService) CancelClubMembership(ctx context.Context, studentID, clubID string) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	active, err := s.activeMembership(ctx, studentID, clubID)
	if err != nil {
		return model.Booking{}, err
	}
	if active == nil {
		return model.Booking{}, NewError(ErrNotFound, "Membership not found")
	}
	return s.flow.cancelLoaded(ctx, studentID, *active)
}

func (s *ClubService) activeMembership(ctx context.Context, studentID, clubID string) (*model.Booking, error) {
	rows, err := repository.Query[model.Booking](ctx, s.flow.repo, repository.TableBookings, storage.Criteria{
		"studentID":    studentID,
		"resourceID":   clubID,
		"resourceType": string(model.ResourceClub),
	})
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].Active() {
			return &rows[i], nil
		}
	}
	return nil, nil
}

// GetAvailableClubs lists clubs.  MemberCount is the seeded baseline
// plus the club's active memberships.
func (s *ClubService) GetAvailableClubs(ctx context.Context) ([]model.Club, error) {
	clubs, err := repository.List[model.Club](ctx, s.flow.repo, repository.TableClubs)
	if err != nil {
		return nil, err
	}
	members, err := repository.Query[model.Booking](ctx, s.flow.repo, repository.TableBookings, storage.Criteria{
		"resourceType": string(model.ResourceClub),
	})
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(clubs))
	for _, b := range members {
		if b.Active() {
			counts[b.ResourceID]++
		}
	}
	for i := range clubs {
		clubs[i].MemberCount += counts[clubs[i].ClubID]
	}
	return clubs, nil
}

func (s *ClubService) GetStudentMemberships(ctx context.Context, studentID string) ([]model.Booking, error) {
	return s.flow.studentBookings(ctx, studentID)
}

// CancelByBooking cancels a membership given its booking id.
func (s *ClubService) CancelByBooking(ctx context.Context, studentID, bookingID string) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flow.cancel(ctx, studentID, bookingID)
}
