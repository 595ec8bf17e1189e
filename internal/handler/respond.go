package handler

import (
    "context"  // request-scoped timeouts
    "errors"   // error kind matching
    "net/http" // status codes
    "time"     // timeout length

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/student-services-portal/internal/service"
    "github.com/iliyamo/student-services-portal/internal/storage"
)

// requestTimeout bounds every storage round trip made by a handler.
const requestTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// statusOf maps a service error kind to its HTTP status.
func statusOf(err error) int {
    switch {
    case errors.Is(err, service.ErrUnauthenticated):
        return http.StatusUnauthorized
    case errors.Is(err, service.ErrUnauthorized), errors.Is(err, storage.ErrAccessDenied):
        return http.StatusForbidden
    case errors.Is(err, service.ErrNotFound):
        return http.StatusNotFound
    case errors.Is(err, service.ErrInvalidInput):
        return http.StatusBadRequest
    case errors.Is(err, service.ErrConflict):
        return http.StatusConflict
    case errors.Is(err, service.ErrPaymentDeclined):
        return http.StatusPaymentRequired
    }
    return http.StatusInternalServerError
}

// fail writes err as {"error": msg}.  Unclassified errors are logged and
// hidden behind a generic message.
func fail(c echo.Context, err error) error {
    status := statusOf(err)
    if status == http.StatusInternalServerError {
        c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
        return c.JSON(status, echo.Map{"error": "internal error"})
    }
    msg := err.Error()
    var se *service.Error
    if errors.As(err, &se) {
        msg = se.Msg
    }
    return c.JSON(status, echo.Map{"error": msg})
}

func badBody(c echo.Context) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
}
