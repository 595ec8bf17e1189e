package handler

import (
    "net/http" // HTTP status codes and primitives
    "strings"  // token trimming
    "time"     // profile timestamps

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/student-services-portal/internal/middleware" // session getters
    "github.com/iliyamo/student-services-portal/internal/model"      // roles
    "github.com/iliyamo/student-services-portal/internal/service"    // authentication rules
)

// AuthHandler exposes registration, login and session endpoints.
type AuthHandler struct {
	Auth *service.AuthenticationService
}

func NewAuthHandler(a *service.AuthenticationService) *AuthHandler {
	if a == nil {
		panic("nil authentication service passed to NewAuthHandler")
	}
	return &AuthHandler{Auth: a}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	Token string `json:"token"`
}
type passwordReq struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}
type resetReq struct {
	Email string `json:"email"`
}

type userPart struct {
	ID          string     `json:"userId"`
	Email       string     `json:"email"`
	Role        model.Role `json:"role"`
	CreatedDate time.Time  `json:"createdDate"`
}
type authResp struct {
	User    userPart          `json:"user"`
	Session service.AuthToken `json:"session"`
}

func toUserPart(u model.User) userPart {
	return userPart{ID: u.UserID, Email: u.Email, Role: u.Role, CreatedDate: u.CreatedDate}
}

// Register creates a STUDENT account and logs it in.  Admins are
// provisioned from configuration, never through this endpoint.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	_, err := h.Auth.Register(ctx, service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     model.RoleStudent,
	})
	if err != nil {
		return fail(c, err)
	}
	u, tok, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, authResp{User: toUserPart(u), Session: tok})
}

// Login verifies credentials and returns a session token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, tok, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, authResp{User: toUserPart(u), Session: tok})
}

// Refresh swaps a recently expired (or still valid) token for a new one.
// It is public because an expired token cannot pass SessionAuth.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if req.Token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	tok, err := h.Auth.Refresh(ctx, strings.TrimSpace(req.Token))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, tok)
}

// Logout revokes the bearer token of the current request.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Auth.Logout(ctx, middleware.Token(c)); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Auth.GetUser(ctx, middleware.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toUserPart(u))
}

// ChangePassword replaces the caller's password.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req passwordReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Auth.ChangePassword(ctx, middleware.UserID(c), req.OldPassword, req.NewPassword); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ResetPassword answers 202 whether or not the address is registered.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Auth.ResetPassword(ctx, req.Email); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusAccepted, echo.Map{"message": "If the account exists, a reset notice has been sent"})
}
