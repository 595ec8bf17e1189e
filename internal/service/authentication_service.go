package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/student-services-portal/internal/model"
	"github.com/iliyamo/student-services-portal/internal/repository"
	"github.com/iliyamo/student-services-portal/internal/utils"
)

// ErrUnauthenticated is returned for bad credentials and bad or
// revoked session tokens.  Handlers answer 401.
var ErrUnauthenticated = errors.New("unauthenticated")

// RefreshWindow is how long after expiry a token may still be
// exchanged for a fresh one.
const RefreshWindow = 30 * 24 * time.Hour

// RegisterInput is the payload of Register.
type RegisterInput struct {
	Name     string     `json:"name" validate:"required,min=2,max=100"`
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required,min=6,max=72"`
	Role     model.Role `json:"role" validate:"omitempty,oneof=STUDENT ADMIN"`
}

// AuthToken is the session handed to a client after login.
// ExpiresAt is in Unix milliseconds.
type AuthToken struct {
	Token     string     `json:"token"`
	UserID    string     `json:"userId"`
	Email     string     `json:"email"`
	Role      model.Role `json:"role"`
	ExpiresAt int64      `json:"expiresAt"`
}

// AuthConfig holds the session settings.
type AuthConfig struct {
	Secret     string
	TTL        time.Duration
	BcryptCost int
}

// AuthenticationService registers users and issues, checks and
// revokes session tokens.
type AuthenticationService struct {
	users    *repository.UserRepo
	tokens   *repository.TokenRepo
	notifier *NotificationService
	cfg      AuthConfig
	validate *validator.Validate
	log      *logrus.Logger
	now      func() time.Time
}

func NewAuthenticationService(users *repository.UserRepo, tokens *repository.TokenRepo, notifier *NotificationService, cfg AuthConfig, log *logrus.Logger) *AuthenticationService {
	if users == nil || tokens == nil || notifier == nil {
		panic("nil dependency passed to NewAuthenticationService")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	return &AuthenticationService{
		users:    users,
		tokens:   tokens,
		notifier: notifier,
		cfg:      cfg,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      orDiscard(log),
		now:      time.Now,
	}
}

// Register creates a user and its role copy.  Role defaults to
// STUDENT.
func (s *AuthenticationService) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	in.Email = utils.NormalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if in.Role == "" {
		in.Role = model.RoleStudent
	}
	if err := s.validate.Struct(in); err != nil {
		return model.User{}, validationError(err)
	}
	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return model.User{}, err
	}
	u := model.User{
		UserID:       utils.NewID(strings.ToLower(string(in.Role))),
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		CreatedDate:  s.now().UTC(),
	}
	u, err = s.users.Create(ctx, u, in.Name)
	if errors.Is(err, repository.ErrEmailExists) {
		return model.User{}, NewError(ErrConflict, "User with this email already exists")
	}
	if err != nil {
		return model.User{}, err
	}
	s.log.WithFields(logrus.Fields{"user_id": u.UserID, "role": u.Role}).Info("user registered")
	return u, nil
}

// Authenticate checks credentials and issues a session token.
func (s *AuthenticationService) Authenticate(ctx context.Context, email, password string) (AuthToken, error) {
	u, ok, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return AuthToken{}, err
	}
	if !ok || !utils.VerifyPassword(u.PasswordHash, password) {
		return AuthToken{}, NewError(ErrUnauthenticated, "Invalid email or password")
	}
	return s.issue(u)
}

// Login authenticates and also returns the user.
func (s *AuthenticationService) Login(ctx context.Context, email, password string) (model.User, AuthToken, error) {
	tok, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return model.User{}, AuthToken{}, err
	}
	u, _, err := s.users.GetByID(ctx, tok.UserID)
	if err != nil {
		return model.User{}, AuthToken{}, err
	}
	s.log.WithField("user_id", u.UserID).Info("user logged in")
	return u, tok, nil
}

func (s *AuthenticationService) issue(u model.User) (AuthToken, error) {
	st, err := utils.NewSessionToken(s.cfg.Secret, u.UserID, u.Email, string(u.Role), s.cfg.TTL)
	if err != nil {
		return AuthToken{}, fmt.Errorf("issue token: %w", err)
	}
	return AuthToken{
		Token:     st.Token,
		UserID:    u.UserID,
		Email:     u.Email,
		Role:      u.Role,
		ExpiresAt: st.ExpiresAt.UnixMilli(),
	}, nil
}

// ValidateToken reports whether token is unexpired, correctly signed
// and not revoked.
func (s *AuthenticationService) ValidateToken(ctx context.Context, token string) bool {
	_, err := s.Identify(ctx, token)
	return err == nil
}

// Identify returns the caller behind a valid token.
func (s *AuthenticationService) Identify(ctx context.Context, token string) (*utils.SessionClaims, error) {
	claims, err := utils.ParseSessionToken(s.cfg.Secret, token)
	if err != nil {
		return nil, NewError(ErrUnauthenticated, "Invalid or expired token")
	}
	revoked, err := s.tokens.IsRevoked(ctx, utils.HashToken(token))
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, NewError(ErrUnauthenticated, "Token has been revoked")
	}
	if _, ok, err := s.users.GetByID(ctx, claims.UserID); err != nil {
		return nil, err
	} else if !ok {
		return nil, NewError(ErrUnauthenticated, "User not found")
	}
	return claims, nil
}

// Logout revokes token.
func (s *AuthenticationService) Logout(ctx context.Context, token string) error {
	claims, err := s.Identify(ctx, token)
	if err != nil {
		return err
	}
	exp := s.now().Add(s.cfg.TTL)
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	if err := s.tokens.Revoke(ctx, claims.UserID, utils.HashToken(token), exp); err != nil {
		return err
	}
	s.log.WithField("user_id", claims.UserID).Info("user logged out")
	return nil
}

// Refresh exchanges a token that is valid or expired for less than
// RefreshWindow for a fresh one, revoking the old token.
func (s *AuthenticationService) Refresh(ctx context.Context, token string) (AuthToken, error) {
	claims, err := utils.ParseSessionTokenIgnoringExpiry(s.cfg.Secret, token)
	if err != nil {
		return AuthToken{}, NewError(ErrUnauthenticated, "Invalid token")
	}
	if claims.ExpiresAt != nil && s.now().Sub(claims.ExpiresAt.Time) > RefreshWindow {
		return AuthToken{}, NewError(ErrUnauthenticated, "Token too old to refresh")
	}
	hash := utils.HashToken(token)
	if revoked, err := s.tokens.IsRevoked(ctx, hash); err != nil {
		return AuthToken{}, err
	} else if revoked {
		return AuthToken{}, NewError(ErrUnauthenticated, "Token has been revoked")
	}
	u, ok, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return AuthToken{}, err
	}
	if !ok {
		return AuthToken{}, NewError(ErrUnauthenticated, "User not found")
	}
	exp := s.now()
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	if err := s.tokens.Revoke(ctx, u.UserID, hash, exp.Add(RefreshWindow)); err != nil {
		return AuthToken{}, err
	}
	return s.issue(u)
}

// ChangePassword replaces the password after checking the old one.
func (s *AuthenticationService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	u, ok, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return NewError(ErrNotFound, "User not found")
	}
	if !utils.VerifyPassword(u.PasswordHash, oldPassword) {
		return NewError(ErrUnauthorized, "Incorrect old password")
	}
	if err := s.validate.Var(newPassword, "required,min=6,max=72"); err != nil {
		return NewError(ErrInvalidInput, "New password must be 6 to 72 characters")
	}
	hash, err := utils.HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordHash(ctx, u, hash); err != nil {
		return err
	}
	s.log.WithField("user_id", userID).Info("password changed")
	return nil
}

// ResetPassword sends a reset notice by EMAIL when the address is
// known.  Unknown addresses are not reported to the caller.
func (s *AuthenticationService) ResetPassword(ctx context.Context, email string) error {
	u, ok, err := s.users.GetByEmail(ctx, email)
	if err != nil || !ok {
		return err
	}
	_, err = s.notifier.SendNotification(ctx, u.UserID,
		"A password reset was requested for your account.", model.NotificationEmail)
	if err != nil {
		return err
	}
	s.log.WithField("user_id", u.UserID).Info("password reset requested")
	return nil
}

// GetUser loads a user for profile display.
func (s *AuthenticationService) GetUser(ctx context.Context, userID string) (model.User, error) {
	u, ok, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.User{}, err
	}
	if !ok {
		return model.User{}, NewError(ErrNotFound, "User not found")
	}
	return u, nil
}

func validationError(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return NewError(ErrInvalidInput, "Invalid input")
	}
	fe := ve[0]
	switch fe.Tag() {
	case "required":
		return NewError(ErrInvalidInput, "%s is required", strings.ToLower(fe.Field()))
	case "email":
		return NewError(ErrInvalidInput, "email is not a valid address")
	case "min", "max":
		return NewError(ErrInvalidInput, "%s must be between allowed lengths (%s %s)", strings.ToLower(fe.Field()), fe.Tag(), fe.Param())
	case "oneof":
		return NewError(ErrInvalidInput, "%s must be one of %s", strings.ToLower(fe.Field()), fe.Param())
	}
	return NewError(ErrInvalidInput, "%s is invalid", strings.ToLower(fe.Field()))
}
