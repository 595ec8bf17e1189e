package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "context"  // Identify takes the request context
    "errors"   // match the unauthenticated sentinel
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/iliyamo/student-services-portal/internal/service" // unauthenticated sentinel
    "github.com/iliyamo/student-services-portal/internal/storage" // actor propagation for the access log
    "github.com/iliyamo/student-services-portal/internal/utils"   // session claims
)

// Identifier resolves a raw session token to its claims.  It is satisfied
// by the authentication service, which also checks revocation.
type Identifier interface {
    Identify(ctx context.Context, token string) (*utils.SessionClaims, error)
}

// SessionAuth returns an Echo middleware that validates a Bearer session
// token and injects the caller's id, role and raw token into the request
// context.  The caller id also travels on the request's context.Context so
// that storage access is attributed to them.
func SessionAuth(id Identifier) echo.MiddlewareFunc {
    if id == nil {
        panic("nil identifier passed to SessionAuth")
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

            claims, err := id.Identify(c.Request().Context(), raw)
            if errors.Is(err, service.ErrUnauthenticated) {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
            }
            if err != nil {
                c.Logger().Errorf("identify session: %v", err)
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session lookup failed"})
            }

            c.Set(ctxUserID, claims.UserID)
            c.Set(ctxRole, claims.Role)
            c.Set(ctxToken, raw)
            ctx := storage.WithActor(c.Request().Context(), claims.UserID)
            c.SetRequest(c.Request().WithContext(ctx))
            return next(c)
        }
    }
}
