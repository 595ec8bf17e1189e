package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/student-services-portal/internal/model"
	"github.com/iliyamo/student-services-portal/internal/payment"
	"github.com/iliyamo/student-services-portal/internal/repository"
	"github.com/iliyamo/student-services-portal/internal/service"
	"github.com/iliyamo/student-services-portal/internal/storage"
)

func TestBookHousing(t *testing.T) {
	h := newHarness(t)
	b, err := h.accommodation.BookHousing(h.ctx, "student_1", "acc_1")
	require.NoError(t, err)
	assert.Equal(t, model.BookingPending, b.Status)
	assert.Equal(t, model.ResourceAccommodation, b.ResourceType)
	assert.Equal(t, 150.0, b.TotalAmount)

	got, err := h.accommodation.GetStudentBookings(h.ctx, "student_1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, b.BookingID, got[0].BookingID)
}

func TestBookingUnknownResourceChargesNothing(t *testing.T) {
	h := newHarness(t)
	_, err := h.transport.BookTransport(h.ctx, "student_1", "trans_missing")
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.Equal(t, "Transport not found", err.Error())
	assert.Empty(t, h.paymentsOf(t, "student_1"))
	assert.Empty(t, h.bookingsOf(t, "student_1"))
}

func TestPaymentBookingPairing(t *testing.T) {
	h := newHarness(t)

	_, err := h.meals.OrderMeal(h.ctx, "student_1", "meal_1")
	require.NoError(t, err)

	h.processor.decline = true
	_, err = h.clubs.ChooseClub(h.ctx, "student_1", "club_2")
	assert.ErrorIs(t, err, service.ErrPaymentDeclined)
	_, err = h.transport.BookTransport(h.ctx, "student_1", "trans_2")
	assert.ErrorIs(t, err, service.ErrPaymentDeclined)
	assert.Equal(t, 15, h.seats(t, "trans_2"), "declined booking keeps the seat")

	payments := h.paymentsOf(t, "student_1")
	bookings := h.bookingsOf(t, "student_1")
	require.Len(t, payments, 3)
	require.Len(t, bookings, 1)

	completed := 0
	for _, p := range payments {
		if p.Status == model.PaymentCompleted {
			completed++
		}
	}
	assert.Equal(t, completed, len(bookings))
	assert.Equal(t, model.ResourceMeal, bookings[0].ResourceType)
	assert.Equal(t, model.BookingConfirmed, bookings[0].Status)
}

func TestInvalidAmountLeavesNoPaymentRow(t *testing.T) {
	h := newHarness(t)
	ok, err := h.payments.ProcessTransaction(h.ctx, "student_1", 20000, "", "too much")
	assert.False(t, ok)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
	assert.Empty(t, h.paymentsOf(t, "student_1"))

	ok, err = h.payments.ProcessTransaction(h.ctx, "student_1", 42, "", "")
	require.NoError(t, err)
	assert.True(t, ok)
	p := h.paymentsOf(t, "student_1")
	require.Len(t, p, 1)
	assert.Equal(t, "CARD", p[0].PaymentMethod)
	assert.Equal(t, "Payment processed", p[0].Description)
}

func TestSeatInvariant(t *testing.T) {
	h := newHarness(t)
	var booked []model.Booking
	for i := 0; i < 15; i++ {
		b, err := h.transport.BookTransport(h.ctx, "student_1", "trans_2")
		require.NoError(t, err)
		booked = append(booked, b)
	}
	assert.Equal(t, 0, h.seats(t, "trans_2"))

	_, err := h.transport.BookTransport(h.ctx, "student_2", "trans_2")
	assert.ErrorIs(t, err, service.ErrConflict)
	assert.Empty(t, h.bookingsOf(t, "student_2"))
	assert.Empty(t, h.paymentsOf(t, "student_2"), "full transport is refused before payment")

	for _, b := range booked[:4] {
		_, err := h.transport.CancelBooking(h.ctx, "student_1", b.BookingID)
		require.NoError(t, err)
	}
	assert.Equal(t, 15-15+4, h.seats(t, "trans_2"))
}

func TestConcurrentBookingsNeverOversell(t *testing.T) {
	h := newHarness(t)
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.transport.BookTransport(h.ctx, "student_1", "trans_2")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, service.ErrConflict):
				conflicts++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 15, successes)
	assert.Equal(t, 10, conflicts)
	assert.Equal(t, 0, h.seats(t, "trans_2"))
}

func TestCancelRacingAdminAdvanceRestoresOneSeat(t *testing.T) {
	h := newHarness(t)
	start := h.seats(t, "trans_1")
	for round := 0; round < 50; round++ {
		b, err := h.transport.BookTransport(h.ctx, "student_1", "trans_1")
		require.NoError(t, err)
		_, err = h.bookings.Advance(h.ctx, b.BookingID)
		require.NoError(t, err)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, errs[0] = h.bookings.Advance(h.ctx, b.BookingID)
		}()
		go func() {
			defer wg.Done()
			_, errs[1] = h.transport.CancelBooking(h.ctx, "student_1", b.BookingID)
		}()
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
			} else {
				assert.ErrorIs(t, err, service.ErrConflict)
			}
		}
		require.Equal(t, 1, succeeded, "round %d", round)
		require.Equal(t, start, h.seats(t, "trans_1"), "round %d", round)

		got, err := h.bookings.Get(h.ctx, b.BookingID)
		require.NoError(t, err)
		assert.Equal(t, model.BookingCancelled, got.Status)
	}
}

func TestFailedBookingWriteRefundsPayment(t *testing.T) {
	h := newHarness(t)
	noBookings := func(_ context.Context, op storage.Operation, table string) bool {
		return !(op == storage.OpInsert && table == repository.TableBookings)
	}
	repo := repository.New(storage.NewProxy(h.engine, nil, storage.WithPolicy(noBookings)))
	payments := service.NewPaymentService(repo, payment.VisaProcessor{}, "CARD", nil)
	meals := service.NewMealService(repo, payments, nil)

	_, err := meals.OrderMeal(h.ctx, "student_1", "meal_1")
	require.ErrorIs(t, err, storage.ErrAccessDenied)

	rows, err := payments.History(h.ctx, "student_1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, model.PaymentRefunded, rows[0].Status)
	assert.Empty(t, h.bookingsOf(t, "student_1"))

	err = payments.Refund(h.ctx, rows[0])
	assert.ErrorIs(t, err, service.ErrConflict, "a refunded payment cannot be refunded again")
}

func TestCancellationRules(t *testing.T) {
	h := newHarness(t)
	b, err := h.transport.BookTransport(h.ctx, "student_1", "trans_1")
	require.NoError(t, err)

	_, err = h.transport.CancelBooking(h.ctx, "student_2", b.BookingID)
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	_, err = h.accommodation.CancelBooking(h.ctx, "student_1", b.BookingID)
	assert.ErrorIs(t, err, service.ErrNotFound, "a transport booking is not an accommodation booking")

	_, err = h.transport.CancelBooking(h.ctx, "student_1", "booking_nope")
	assert.ErrorIs(t, err, service.ErrNotFound)

	c, err := h.transport.CancelBooking(h.ctx, "student_1", b.BookingID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, c.Status)
	assert.Equal(t, 40, h.seats(t, "trans_1"))

	_, err = h.transport.CancelBooking(h.ctx, "student_1", b.BookingID)
	assert.ErrorIs(t, err, service.ErrConflict)
	assert.Equal(t, 40, h.seats(t, "trans_1"), "second cancel returns no seat")
}

func TestMealSelection(t *testing.T) {
	h := newHarness(t)
	b, err := h.meals.SelectMeal(h.ctx, "student_1", "healthy")
	require.NoError(t, err)
	assert.Equal(t, "meal_2", b.ResourceID)
	assert.Equal(t, 10.0, b.TotalAmount)

	_, err = h.meals.SelectMeal(h.ctx, "student_1", "VEGAN")
	assert.ErrorIs(t, err, service.ErrNotFound)

	all, err := h.meals.GetAvailableMeals(h.ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	orders, err := h.meals.GetStudentOrders(h.ctx, "student_1")
	require.NoError(t, err)
	require.Len(t, orders, 1)

	_, err = h.meals.CancelOrder(h.ctx, "student_1", b.BookingID)
	require.NoError(t, err)
}

func TestMealCombos(t *testing.T) {
	h := newHarness(t)
	c, err := h.meals.ComboFor("HEALTHY")
	require.NoError(t, err)
	assert.Equal(t, service.MealCombo{Main: "Grilled Chicken", Drink: "Water", Dessert: "Fruit"}, c)

	c, err = h.meals.ComboFor("regular")
	require.NoError(t, err)
	assert.Equal(t, service.MealCombo{Main: "Burger", Drink: "Soda", Dessert: "Cake"}, c)

	_, err = h.meals.ComboFor("keto")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestClubMembership(t *testing.T) {
	h := newHarness(t)
	_, err := h.clubs.ChooseClub(h.ctx, "student_1", "club_2")
	require.NoError(t, err)

	_, err = h.clubs.ChooseClub(h.ctx, "student_1", "club_2")
	assert.ErrorIs(t, err, service.ErrConflict)
	assert.Len(t, h.paymentsOf(t, "student_1"), 1, "second join is refused before payment")

	clubs, err := h.clubs.GetAvailableClubs(h.ctx)
	require.NoError(t, err)
	counts := map[string]int{}
	for _, c := range clubs {
		counts[c.ClubID] = c.MemberCount
	}
	assert.Equal(t, 81, counts["club_2"])
	assert.Equal(t, 45, counts["club_1"])

	_, err = h.clubs.CancelClubMembership(h.ctx, "student_1", "club_2")
	require.NoError(t, err)
	_, err = h.clubs.CancelClubMembership(h.ctx, "student_1", "club_2")
	assert.ErrorIs(t, err, service.ErrNotFound)

	clubs, err = h.clubs.GetAvailableClubs(h.ctx)
	require.NoError(t, err)
	for _, c := range clubs {
		if c.ClubID == "club_2" {
			assert.Equal(t, 80, c.MemberCount)
		}
	}

	_, err = h.clubs.ChooseClub(h.ctx, "student_1", "club_2")
	require.NoError(t, err, "rejoining after leaving is allowed")

	m, err := h.clubs.GetStudentMemberships(h.ctx, "student_1")
	require.NoError(t, err)
	assert.Len(t, m, 2)
}

func TestBookingLifecycle(t *testing.T) {
	h := newHarness(t)
	b, err := h.transport.BookTransport(h.ctx, "student_1", "trans_1")
	require.NoError(t, err)
	assert.Equal(t, 39, h.seats(t, "trans_1"))

	_, err = h.bookings.Revert(h.ctx, b.BookingID)
	assert.ErrorIs(t, err, service.ErrConflict, "pending has no previous state")

	b, err = h.bookings.Advance(h.ctx, b.BookingID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, b.Status)

	b, err = h.bookings.Revert(h.ctx, b.BookingID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingPending, b.Status)

	_, err = h.bookings.Advance(h.ctx, b.BookingID)
	require.NoError(t, err)
	b, err = h.bookings.Advance(h.ctx, b.BookingID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, b.Status)
	assert.Equal(t, 40, h.seats(t, "trans_1"), "cancelling through the lifecycle frees the seat")

	_, err = h.bookings.Advance(h.ctx, b.BookingID)
	assert.ErrorIs(t, err, service.ErrConflict)

	stored, err := h.bookings.Get(h.ctx, b.BookingID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, stored.Status)
}

func TestReadsGoThroughAuditLog(t *testing.T) {
	h := newHarness(t)
	proxy := storage.NewProxy(h.engine, nil)
	repo := repository.New(proxy)
	svc := service.NewAccommodationService(repo, service.NewPaymentService(repo, h.processor, "", nil), nil)

	list, err := svc.GetAvailableAccommodations(storage.WithActor(h.ctx, "student_9"))
	require.NoError(t, err)
	assert.Len(t, list, 3)

	logs := proxy.AccessLogs()
	require.NotEmpty(t, logs)
	assert.Equal(t, "SELECT_ALL accommodations", logs[len(logs)-1].Query)
	assert.Equal(t, "student_9", logs[len(logs)-1].User)
}
