package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/student-services-portal/internal/app"
	"github.com/iliyamo/student-services-portal/internal/config"
	"github.com/iliyamo/student-services-portal/internal/model"
	"github.com/iliyamo/student-services-portal/internal/storage"
)

const (
	adminEmail    = "admin@portal.test"
	adminPassword = "admin-pass"
)

func newApp(t *testing.T) *app.App {
	t.Helper()
	cfg := config.Config{
		SessionSecret:    "test-secret",
		SessionTTL:       time.Hour,
		BcryptCost:       4,
		AuditLogLimit:    1000,
		PaymentProcessor: "visa",
		AdminEmail:       adminEmail,
		AdminPassword:    adminPassword,
	}
	a, err := app.New(context.Background(), app.Deps{Config: cfg, Backend: storage.NewMemoryBackend()})
	require.NoError(t, err)
	return a
}

// call performs one request and decodes a JSON body into out when given.
func call(t *testing.T, a *app.App, method, path, token string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	if out != nil && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

type session struct {
	User struct {
		ID   string     `json:"userId"`
		Role model.Role `json:"role"`
	} `json:"user"`
	Session struct {
		Token string `json:"token"`
	} `json:"session"`
}

func register(t *testing.T, a *app.App, email string) session {
	t.Helper()
	var s session
	code := call(t, a, http.MethodPost, "/v1/auth/register", "",
		map[string]string{"name": "Alice", "email": email, "password": "secret1"}, &s)
	require.Equal(t, http.StatusCreated, code)
	require.NotEmpty(t, s.Session.Token)
	return s
}

func login(t *testing.T, a *app.App, email, password string) session {
	t.Helper()
	var s session
	code := call(t, a, http.MethodPost, "/v1/auth/login", "",
		map[string]string{"email": email, "password": password}, &s)
	require.Equal(t, http.StatusOK, code)
	return s
}

func TestHealth(t *testing.T) {
	a := newApp(t)
	assert.Equal(t, http.StatusOK, call(t, a, http.MethodGet, "/healthz", "", nil, nil))
}

func TestRegisterLoginAndProfile(t *testing.T) {
	a := newApp(t)
	s := register(t, a, "Alice@Example.com")
	assert.Equal(t, model.RoleStudent, s.User.Role)

	var errBody map[string]string
	code := call(t, a, http.MethodPost, "/v1/auth/register", "",
		map[string]string{"name": "Alice", "email": "alice@example.com", "password": "secret1"}, &errBody)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "User with this email already exists", errBody["error"])

	code = call(t, a, http.MethodPost, "/v1/auth/login", "",
		map[string]string{"email": "alice@example.com", "password": "wrong"}, &errBody)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid email or password", errBody["error"])

	again := login(t, a, "alice@example.com", "secret1")
	var me map[string]any
	require.Equal(t, http.StatusOK, call(t, a, http.MethodGet, "/v1/me", again.Session.Token, nil, &me))
	assert.Equal(t, "alice@example.com", me["email"])
}

func TestCatalogFilters(t *testing.T) {
	a := newApp(t)

	var accs []model.Accommodation
	require.Equal(t, http.StatusOK, call(t, a, http.MethodGet, "/v1/accommodations?price=100-160", "", nil, &accs))
	ids := []string{}
	for _, x := range accs {
		ids = append(ids, x.AccommodationID)
	}
	assert.ElementsMatch(t, []string{"acc_1", "acc_3"}, ids)

	require.Equal(t, http.StatusOK, call(t, a, http.MethodGet, "/v1/accommodations?location=south&price=bogus", "", nil, &accs))
	require.Len(t, accs, 1)
	assert.Equal(t, "acc_2", accs[0].AccommodationID)

	var meals []model.Meal
	require.Equal(t, http.StatusOK, call(t, a, http.MethodGet, "/v1/meals?type=healthy", "", nil, &meals))
	require.Len(t, meals, 1)
	assert.Equal(t, "meal_2", meals[0].MealID)

	var combo map[string]string
	require.Equal(t, http.StatusOK, call(t, a, http.MethodGet, "/v1/meals/combo/HEALTHY", "", nil, &combo))
	assert.Equal(t, "Grilled Chicken", combo["main"])
	assert.Equal(t, http.StatusBadRequest, call(t, a, http.MethodGet, "/v1/meals/combo/VEGAN", "", nil, nil))

	var clubs []model.Club
	require.Equal(t, http.StatusOK, call(t, a, http.MethodGet, "/v1/clubs?category=tech", "", nil, &clubs))
	require.Len(t, clubs, 1)
	assert.Equal(t, "club_2", clubs[0].ClubID)
}

func TestBookingRequiresSession(t *testing.T) {
	a := newApp(t)
	assert.Equal(t, http.StatusUnauthorized, call(t, a, http.MethodPost, "/v1/transport/trans_1/book", "", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, call(t, a, http.MethodPost, "/v1/transport/trans_1/book", "garbage", nil, nil))
}

func TestTransportBookingLifecycle(t *testing.T) {
	a := newApp(t)
	s := register(t, a, "bob@example.com")
	tok := s.Session.Token

	var b model.Booking
	require.Equal(t, http.StatusCreated, call(t, a, http.MethodPost, "/v1/transport/trans_2/book", tok, nil, &b))
	assert.Equal(t, model.BookingPending, b.Status)
	assert.Equal(t, s.User.ID, b.StudentID)

	seats := func() int {
		var list []model.Transport
		require.Equal(t, http.StatusOK, call(t, a, http.MethodGet, "/v1/transport?q=shuttle", "", nil, &list))
		require.Len(t, list, 1)
		return list[0].SeatsAvailable
	}
	assert.Equal(t, 14, seats())

	var errBody map[string]string
	assert.Equal(t, http.StatusNotFound, call(t, a, http.MethodPost, "/v1/transport/trans_missing/book", tok, nil, &errBody))
	assert.Equal(t, "Transport not found", errBody["error"])

	var cancelled model.Booking
	require.Equal(t, http.StatusOK, call(t, a, http.MethodPost, "/v1/bookings/"+b.BookingID+"/cancel", tok, nil, &cancelled))
	assert.Equal(t, model.BookingCancelled, cancelled.Status)
	assert.Equal(t, 15, seats())
	assert.Equal(t, http.StatusConflict, call(t, a, http.MethodPost, "/v1/bookings/"+b.BookingID+"/cancel", tok, nil, nil))

	var payments []model.Payment
	require.Equal(t, http.StatusOK, call(t, a, http.MethodGet, "/v1/payments", tok, nil, &payments))
	require.Len(t, payments, 1)
	assert.Equal(t, model.PaymentCompleted, payments[0].Status)

	var notes []model.Notification
	require.Equal(t, http.StatusOK, call(t, a, http.MethodGet, "/v1/notifications", tok, nil, &notes))
	msgs := []string{}
	for _, n := range notes {
		msgs = append(msgs, n.Message)
	}
	assert.Contains(t, msgs, "Your transport booking has been confirmed!")
	assert.Contains(t, msgs, "Transport booking failed: Transport not found")

	var unread map[string]int
	require.Equal(t, http.StatusOK, call(t, a, http.MethodGet, "/v1/notifications/unread-count", tok, nil, &unread))
	assert.Equal(t, len(notes), unread["unread"])
	require.Equal(t, http.StatusOK, call(t, a, http.MethodPost, "/v1/notifications/read-all", tok, nil, nil))
	require.Equal(t, http.StatusOK, call(t, a, http.MethodGet, "/v1/notifications/unread-count", tok, nil, &unread))
	assert.Equal(t, 0, unread["unread"])
}

func TestMealAndClubEndpoints(t *testing.T) {
	a := newApp(t)
	tok := register(t, a, "carol@example.com").Session.Token

	var b model.Booking
	require.Equal(t, http.StatusCreated, call(t, a, http.MethodPost, "/v1/meals/order", tok,
		map[string]string{"mealType": "regular"}, &b))
	assert.Equal(t, "meal_1", b.ResourceID)
	assert.Equal(t, http.StatusBadRequest, call(t, a, http.MethodPost, "/v1/meals/order", tok, map[string]string{}, nil))

	require.Equal(t, http.StatusCreated, call(t, a, http.MethodPost, "/v1/clubs/club_1/join", tok, nil, &b))
	assert.Equal(t, model.BookingConfirmed, b.Status)
	assert.Equal(t, http.StatusConflict, call(t, a, http.MethodPost, "/v1/clubs/club_1/join", tok, nil, nil))

	var clubs []model.Club
	require.Equal(t, http.StatusOK, call(t, a, http.MethodGet, "/v1/clubs?name=photo", "", nil, &clubs))
	require.Len(t, clubs, 1)
	assert.Equal(t, 46, clubs[0].MemberCount)

	require.Equal(t, http.StatusOK, call(t, a, http.MethodDelete, "/v1/clubs/club_1/membership", tok, nil, &b))
	assert.Equal(t, model.BookingCancelled, b.Status)
	assert.Equal(t, http.StatusNotFound, call(t, a, http.MethodDelete, "/v1/clubs/club_1/membership", tok, nil, nil))

	var list []model.Booking
	require.Equal(t, http.StatusOK, call(t, a, http.MethodGet, "/v1/bookings", tok, nil, &list))
	assert.Len(t, list, 2)
}

func TestBookingVisibility(t *testing.T) {
	a := newApp(t)
	alice := register(t, a, "alice@example.com").Session.Token
	mallory := register(t, a, "mallory@example.com").Session.Token

	var b model.Booking
	require.Equal(t, http.StatusCreated, call(t, a, http.MethodPost, "/v1/accommodations/acc_1/book", alice, nil, &b))
	assert.Equal(t, http.StatusOK, call(t, a, http.MethodGet, "/v1/bookings/"+b.BookingID, alice, nil, nil))
	assert.Equal(t, http.StatusNotFound, call(t, a, http.MethodGet, "/v1/bookings/"+b.BookingID, mallory, nil, nil))
	assert.Equal(t, http.StatusForbidden, call(t, a, http.MethodPost, "/v1/bookings/"+b.BookingID+"/cancel", mallory, nil, nil))
}

func TestAdminEndpoints(t *testing.T) {
	a := newApp(t)
	student := register(t, a, "dave@example.com")
	admin := login(t, a, adminEmail, adminPassword)
	require.Equal(t, model.RoleAdmin, admin.User.Role)

	assert.Equal(t, http.StatusForbidden, call(t, a, http.MethodGet, "/v1/admin/access-logs", student.Session.Token, nil, nil))

	var b model.Booking
	require.Equal(t, http.StatusCreated, call(t, a, http.MethodPost, "/v1/transport/trans_1/book", student.Session.Token, nil, &b))

	var moved model.Booking
	require.Equal(t, http.StatusOK, call(t, a, http.MethodPost, "/v1/admin/bookings/"+b.BookingID+"/next", admin.Session.Token, nil, &moved))
	assert.Equal(t, model.BookingConfirmed, moved.Status)
	require.Equal(t, http.StatusOK, call(t, a, http.MethodPost, "/v1/admin/bookings/"+b.BookingID+"/next", admin.Session.Token, nil, &moved))
	assert.Equal(t, model.BookingCancelled, moved.Status)
	assert.Equal(t, http.StatusConflict, call(t, a, http.MethodPost, "/v1/admin/bookings/"+b.BookingID+"/next", admin.Session.Token, nil, nil))

	var logs []storage.AccessLogEntry
	require.Equal(t, http.StatusOK, call(t, a, http.MethodGet, "/v1/admin/access-logs", admin.Session.Token, nil, &logs))
	require.NotEmpty(t, logs)
	assert.Equal(t, "CONNECT", logs[0].Query)
	actors := map[string]bool{}
	for _, l := range logs {
		actors[l.User] = true
	}
	assert.True(t, actors[student.User.ID], "student requests are attributed")

	var persisted []storage.AccessLogEntry
	require.Equal(t, http.StatusOK, call(t, a, http.MethodGet, "/v1/admin/access-logs?source=persisted", admin.Session.Token, nil, &persisted))
	assert.NotEmpty(t, persisted)
	require.Equal(t, http.StatusNoContent, call(t, a, http.MethodDelete, "/v1/admin/access-logs", admin.Session.Token, nil, nil))

	var roster []map[string]any
	require.Equal(t, http.StatusOK, call(t, a, http.MethodGet, "/v1/admin/students", admin.Session.Token, nil, &roster))
	require.Len(t, roster, 1)
	assert.Equal(t, "dave@example.com", roster[0]["email"])
	assert.NotContains(t, roster[0], "passwordHash")

	var n model.Notification
	require.Equal(t, http.StatusCreated, call(t, a, http.MethodPost, "/v1/admin/notifications", admin.Session.Token,
		map[string]string{"recipientId": student.User.ID, "message": "Welcome week starts Monday"}, &n))
	assert.Equal(t, model.NotificationSystem, n.Type)
}

func TestLogoutRevokesToken(t *testing.T) {
	a := newApp(t)
	tok := register(t, a, "erin@example.com").Session.Token

	var refreshed map[string]any
	require.Equal(t, http.StatusOK, call(t, a, http.MethodPost, "/v1/auth/refresh", "", map[string]string{"token": tok}, &refreshed))
	fresh, _ := refreshed["token"].(string)
	require.NotEmpty(t, fresh)
	assert.Equal(t, http.StatusUnauthorized, call(t, a, http.MethodGet, "/v1/me", tok, nil, nil), "refreshed token is revoked")

	require.Equal(t, http.StatusNoContent, call(t, a, http.MethodPost, "/v1/auth/logout", fresh, nil, nil))
	assert.Equal(t, http.StatusUnauthorized, call(t, a, http.MethodGet, "/v1/me", fresh, nil, nil))
}

func TestPasswordEndpoints(t *testing.T) {
	a := newApp(t)
	tok := register(t, a, "frank@example.com").Session.Token

	assert.Equal(t, http.StatusForbidden, call(t, a, http.MethodPut, "/v1/me/password", tok,
		map[string]string{"oldPassword": "nope", "newPassword": "another1"}, nil))
	require.Equal(t, http.StatusNoContent, call(t, a, http.MethodPut, "/v1/me/password", tok,
		map[string]string{"oldPassword": "secret1", "newPassword": "another1"}, nil))
	login(t, a, "frank@example.com", "another1")

	assert.Equal(t, http.StatusAccepted, call(t, a, http.MethodPost, "/v1/auth/reset-password", "",
		map[string]string{"email": "nobody@example.com"}, nil))
	assert.Equal(t, http.StatusAccepted, call(t, a, http.MethodPost, "/v1/auth/reset-password", "",
		map[string]string{"email": "frank@example.com"}, nil))
}
