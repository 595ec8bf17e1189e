package middleware

// identity.go holds the context keys SessionAuth fills in and the getters
// handlers use to read them back.

import "github.com/labstack/echo/v4"

const (
    ctxUserID = "user_id"
    ctxRole   = "role"
    ctxToken  = "session_token"
)

// UserID returns the authenticated caller's id, or "" on public routes.
func UserID(c echo.Context) string { return str(c, ctxUserID) }

// Role returns the authenticated caller's role claim.
func Role(c echo.Context) string { return str(c, ctxRole) }

// Token returns the raw bearer token of the current request.
func Token(c echo.Context) string { return str(c, ctxToken) }

func str(c echo.Context, key string) string {
    if s, ok := c.Get(key).(string); ok {
        return s
    }
    return ""
}
