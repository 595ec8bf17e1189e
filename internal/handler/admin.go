package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/student-services-portal/internal/controller"
	"github.com/iliyamo/student-services-portal/internal/model"
	"github.com/iliyamo/student-services-portal/internal/repository"
	"github.com/iliyamo/student-services-portal/internal/service"
	"github.com/iliyamo/student-services-portal/internal/storage"
)

// AuditLog is the access log surface of the storage proxy.
type AuditLog interface {
	AccessLogs() []storage.AccessLogEntry
	PersistedLogs(ctx context.Context) ([]storage.AccessLogEntry, error)
	ClearLogs(ctx context.Context) error
}

// AdminHandler serves the ADMIN-only endpoints: audit log review, manual
// booking state changes and direct notifications.
type AdminHandler struct {
	Audit      AuditLog
	Booking    *service.BookingService
	Controller *controller.Controller
	Users      *repository.UserRepo
}

func NewAdminHandler(a AuditLog, b *service.BookingService, ctl *controller.Controller, users *repository.UserRepo) *AdminHandler {
	if a == nil || b == nil || ctl == nil || users == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	return &AdminHandler{Audit: a, Booking: b, Controller: ctl, Users: users}
}

type studentRow struct {
	StudentID        string    `json:"studentId"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	RegistrationDate time.Time `json:"registrationDate"`
}

type adminNotifyReq struct {
	RecipientID string                 `json:"recipientId"`
	Message     string                 `json:"message"`
	Type        model.NotificationType `json:"type"`
}

// GET /v1/admin/access-logs[?source=persisted]
func (h *AdminHandler) AccessLogs(c echo.Context) error {
	if c.QueryParam("source") != "persisted" {
		return c.JSON(http.StatusOK, h.Audit.AccessLogs())
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	logs, err := h.Audit.PersistedLogs(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, logs)
}

// DELETE /v1/admin/access-logs
func (h *AdminHandler) ClearAccessLogs(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Audit.ClearLogs(ctx); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GET /v1/admin/students
func (h *AdminHandler) Students(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Users.Students(ctx)
	if err != nil {
		return fail(c, err)
	}
	out := make([]studentRow, 0, len(list))
	for _, st := range list {
		out = append(out, studentRow{StudentID: st.StudentID, Name: st.Name, Email: st.Email, RegistrationDate: st.RegistrationDate})
	}
	return c.JSON(http.StatusOK, out)
}

// GET /v1/admin/students/:id/bookings
func (h *AdminHandler) StudentBookings(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Booking.ListForStudent(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// POST /v1/admin/bookings/:id/next
func (h *AdminHandler) AdvanceBooking(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Booking.Advance(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// POST /v1/admin/bookings/:id/prev
func (h *AdminHandler) RevertBooking(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Booking.Revert(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// POST /v1/admin/notifications
func (h *AdminHandler) Notify(c echo.Context) error {
	var req adminNotifyReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "message required"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	n, err := h.Controller.SendStudentNotification(ctx, req.RecipientID, req.Message, req.Type)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, n)
}
