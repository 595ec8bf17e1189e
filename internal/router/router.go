package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/student-services-portal/internal/handler"    // endpoint implementations
	"github.com/iliyamo/student-services-portal/internal/middleware" // session, role and rate-limit middleware
	"github.com/iliyamo/student-services-portal/internal/model"      // role names
)

// Handlers bundles everything RegisterAll wires.
type Handlers struct {
	Auth      *handler.AuthHandler
	Catalog   *handler.CatalogHandler
	Student   *handler.StudentHandler
	Admin     *handler.AdminHandler
	Session   echo.MiddlewareFunc // SessionAuth
	RateLimit echo.MiddlewareFunc // guards the credential endpoints; may be nil
}

// RegisterAll mounts every route.
func RegisterAll(e *echo.Echo, h Handlers) {
	RegisterRoutes(e)
	RegisterAuth(e, h)
	RegisterPublic(e, h.Catalog)
	RegisterStudent(e, h)
	RegisterAdmin(e, h)
}

// RegisterRoutes registers routes that do not require authentication and are
// not part of the versioned API.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers /v1/auth.  Credential endpoints are rate limited;
// logout, profile and password change need a session.
func RegisterAuth(e *echo.Echo, h Handlers) {
	g := e.Group("/v1/auth")
	var limited []echo.MiddlewareFunc
	if h.RateLimit != nil {
		limited = append(limited, h.RateLimit)
	}
	g.POST("/register", h.Auth.Register, limited...)
	g.POST("/login", h.Auth.Login, limited...)
	g.POST("/reset-password", h.Auth.ResetPassword, limited...)
	g.POST("/refresh", h.Auth.Refresh)

	auth := e.Group("/v1", h.Session)
	auth.POST("/auth/logout", h.Auth.Logout)
	auth.GET("/me", h.Auth.Me)
	auth.PUT("/me/password", h.Auth.ChangePassword)
}

// RegisterPublic registers the catalog browse endpoints.  Guests may call
// them.
func RegisterPublic(e *echo.Echo, p *handler.CatalogHandler) {
	e.GET("/v1/accommodations", p.ListAccommodations)
	e.GET("/v1/transport", p.ListTransport)
	e.GET("/v1/meals", p.ListMeals)
	e.GET("/v1/meals/combo/:type", p.MealCombo)
	e.GET("/v1/clubs", p.ListClubs)
}

// RegisterStudent registers booking, payment and notification endpoints.
// Fine-grained permission checks happen in the controller, so admins may
// call these too.
func RegisterStudent(e *echo.Echo, h Handlers) {
	s := h.Student
	g := e.Group("/v1", h.Session, middleware.RequireRole(model.RoleStudent, model.RoleAdmin))

	g.POST("/accommodations/:id/book", s.BookAccommodation)
	g.POST("/transport/:id/book", s.BookTransport)
	g.POST("/meals/order", s.OrderMeal)
	g.POST("/clubs/:id/join", s.JoinClub)
	g.DELETE("/clubs/:id/membership", s.LeaveClub)

	g.GET("/bookings", s.ListBookings)
	g.GET("/bookings/:id", s.GetBooking)
	g.POST("/bookings/:id/cancel", s.CancelBooking)

	g.GET("/payments", s.ListPayments)

	g.GET("/notifications", s.ListNotifications)
	g.GET("/notifications/unread-count", s.UnreadCount)
	g.POST("/notifications/read-all", s.MarkAllRead)
	g.POST("/notifications/:id/read", s.MarkRead)
}

// RegisterAdmin registers the /v1/admin group.
func RegisterAdmin(e *echo.Echo, h Handlers) {
	a := h.Admin
	g := e.Group("/v1/admin", h.Session, middleware.RequireRole(model.RoleAdmin))

	g.GET("/access-logs", a.AccessLogs)
	g.DELETE("/access-logs", a.ClearAccessLogs)
	g.GET("/students", a.Students)
	g.GET("/students/:id/bookings", a.StudentBookings)
	g.POST("/bookings/:id/next", a.AdvanceBooking)
	g.POST("/bookings/:id/prev", a.RevertBooking)
	g.POST("/notifications", a.Notify)
}
