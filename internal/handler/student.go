package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/student-services-portal/internal/controller"
	"github.com/iliyamo/student-services-portal/internal/middleware"
	"github.com/iliyamo/student-services-portal/internal/model"
	"github.com/iliyamo/student-services-portal/internal/service"
)

// StudentHandler serves the authenticated student surface.  Booking
// requests go through the controller; reads call the services directly
// after a permission check.
type StudentHandler struct {
	Controller    *controller.Controller
	Booking       *service.BookingService
	Payment       *service.PaymentService
	Notification  *service.NotificationService
	Authorization *service.AuthorizationService
}

func NewStudentHandler(ctl *controller.Controller, b *service.BookingService, p *service.PaymentService, n *service.NotificationService, az *service.AuthorizationService) *StudentHandler {
	if ctl == nil || b == nil || p == nil || n == nil || az == nil {
		panic("nil dependency passed to NewStudentHandler")
	}
	return &StudentHandler{Controller: ctl, Booking: b, Payment: p, Notification: n, Authorization: az}
}

type mealOrderReq struct {
	MealID   string `json:"mealId"`
	MealType string `json:"mealType"`
}

// POST /v1/accommodations/:id/book
func (h *StudentHandler) BookAccommodation(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Controller.HandleAccommodationRequest(ctx, middleware.UserID(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// POST /v1/transport/:id/book
func (h *StudentHandler) BookTransport(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Controller.HandleTransportRequest(ctx, middleware.UserID(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// POST /v1/meals/order with either {"mealId"} or {"mealType"}.
func (h *StudentHandler) OrderMeal(c echo.Context) error {
	var req mealOrderReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	req.MealID = strings.TrimSpace(req.MealID)
	if req.MealID == "" && strings.TrimSpace(req.MealType) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "mealId or mealType required"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	var (
		b   model.Booking
		err error
	)
	if req.MealID != "" {
		b, err = h.Controller.HandleMealOrder(ctx, middleware.UserID(c), req.MealID)
	} else {
		b, err = h.Controller.HandleMealRequest(ctx, middleware.UserID(c), req.MealType)
	}
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// POST /v1/clubs/:id/join
func (h *StudentHandler) JoinClub(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Controller.HandleClubRequest(ctx, middleware.UserID(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// DELETE /v1/clubs/:id/membership
func (h *StudentHandler) LeaveClub(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Controller.HandleClubLeave(ctx, middleware.UserID(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// GET /v1/bookings
func (h *StudentHandler) ListBookings(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.require(c, "profile", "view"); err != nil {
		return fail(c, err)
	}
	list, err := h.Booking.ListForStudent(ctx, middleware.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// GET /v1/bookings/:id answers 404 for other students' bookings.
func (h *StudentHandler) GetBooking(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Booking.Get(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	if b.StudentID != middleware.UserID(c) && middleware.Role(c) != string(model.RoleAdmin) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Booking not found"})
	}
	return c.JSON(http.StatusOK, b)
}

// POST /v1/bookings/:id/cancel
func (h *StudentHandler) CancelBooking(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Controller.HandleCancellation(ctx, middleware.UserID(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// GET /v1/payments
func (h *StudentHandler) ListPayments(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.require(c, "profile", "view"); err != nil {
		return fail(c, err)
	}
	list, err := h.Payment.History(ctx, middleware.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// GET /v1/notifications
func (h *StudentHandler) ListNotifications(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.require(c, "notifications", "view"); err != nil {
		return fail(c, err)
	}
	list, err := h.Notification.ViewNotifications(ctx, middleware.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// GET /v1/notifications/unread-count
func (h *StudentHandler) UnreadCount(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.require(c, "notifications", "view"); err != nil {
		return fail(c, err)
	}
	n, err := h.Notification.UnreadCount(ctx, middleware.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"unread": n})
}

// POST /v1/notifications/:id/read
func (h *StudentHandler) MarkRead(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.require(c, "notifications", "view"); err != nil {
		return fail(c, err)
	}
	if err := h.Notification.MarkAsRead(ctx, middleware.UserID(c), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// POST /v1/notifications/read-all
func (h *StudentHandler) MarkAllRead(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.require(c, "notifications", "view"); err != nil {
		return fail(c, err)
	}
	n, err := h.Notification.MarkAllAsRead(ctx, middleware.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"marked": n})
}

func (h *StudentHandler) require(c echo.Context, resource, action string) error {
	ok, err := h.Authorization.CheckPermission(c.Request().Context(), middleware.UserID(c), resource, action)
	if err != nil {
		return err
	}
	if !ok {
		return service.NewError(service.ErrUnauthorized, "Unauthorized: Cannot %s %s", action, resource)
	}
	return nil
}
