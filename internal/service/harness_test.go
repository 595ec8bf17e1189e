package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/student-services-portal/internal/model"
	"github.com/iliyamo/student-services-portal/internal/payment"
	"github.com/iliyamo/student-services-portal/internal/repository"
	"github.com/iliyamo/student-services-portal/internal/seed"
	"github.com/iliyamo/student-services-portal/internal/service"
	"github.com/iliyamo/student-services-portal/internal/storage"
)

// switchProcessor approves or declines on demand.
type switchProcessor struct {
	payment.VisaProcessor
	decline bool
}

func (p *switchProcessor) ProcessPayment(amount float64) bool {
	return !p.decline && p.VisaProcessor.ProcessPayment(amount)
}

type harness struct {
	ctx       context.Context
	engine    *storage.Engine
	repo      *repository.Repository
	users     *repository.UserRepo
	processor *switchProcessor

	payments      *service.PaymentService
	accommodation *service.AccommodationService
	transport     *service.TransportService
	meals         *service.MealService
	clubs         *service.ClubService
	bookings      *service.BookingService
	notifications *service.NotificationService
	authz         *service.AuthorizationService
	auth          *service.AuthenticationService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	e := storage.NewEngine(storage.NewMemoryBackend())
	_, err := seed.Seed(ctx, e, nil)
	require.NoError(t, err)

	repo := repository.New(storage.NewProxy(e, nil))
	h := &harness{ctx: ctx, engine: e, repo: repo, processor: &switchProcessor{}}
	h.users = repository.NewUserRepo(repo)
	h.payments = service.NewPaymentService(repo, h.processor, "CARD", nil)
	h.accommodation = service.NewAccommodationService(repo, h.payments, nil)
	h.transport = service.NewTransportService(repo, h.payments, nil)
	h.meals = service.NewMealService(repo, h.payments, nil)
	h.clubs = service.NewClubService(repo, h.payments, nil)
	h.bookings = service.NewBookingService(repo, h.transport, nil)
	h.notifications = service.NewNotificationService(repo, nil, nil)
	h.authz, err = service.NewAuthorizationService(h.users, nil)
	require.NoError(t, err)
	h.auth = service.NewAuthenticationService(h.users, repository.NewTokenRepo(repo), h.notifications,
		service.AuthConfig{Secret: "test-secret", TTL: time.Hour, BcryptCost: 4}, nil)
	return h
}

func (h *harness) register(t *testing.T, email string, role model.Role) model.User {
	t.Helper()
	u, err := h.auth.Register(h.ctx, service.RegisterInput{Name: "Test User", Email: email, Password: "password1", Role: role})
	require.NoError(t, err)
	return u
}

func (h *harness) paymentsOf(t *testing.T, studentID string) []model.Payment {
	t.Helper()
	p, err := h.payments.History(h.ctx, studentID)
	require.NoError(t, err)
	return p
}

func (h *harness) bookingsOf(t *testing.T, studentID string) []model.Booking {
	t.Helper()
	b, err := h.bookings.ListForStudent(h.ctx, studentID)
	require.NoError(t, err)
	return b
}

func (h *harness) seats(t *testing.T, transportID string) int {
	t.Helper()
	tr, ok, err := repository.Get[model.Transport](h.ctx, h.repo, repository.TableTransport, repository.IDTransport, transportID)
	require.NoError(t, err)
	require.True(t, ok)
	return tr.SeatsAvailable
}
