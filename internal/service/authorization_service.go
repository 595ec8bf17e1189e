package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/student-services-portal/internal/model"
	"github.com/iliyamo/student-services-portal/internal/repository"
)

// Wildcard grants every resource:action pair.
const Wildcard = "*:*"

// RolePermissions is the static permission table.
var RolePermissions = map[model.Role][]string{
	model.RoleStudent: {
		"accommodation:book",
		"accommodation:cancel",
		"transport:book",
		"transport:cancel",
		"meal:order",
		"meal:cancel",
		"club:join",
		"club:leave",
		"profile:view",
		"profile:edit",
		"notifications:view",
	},
	model.RoleAdmin: {Wildcard},
}

// Grants are exact matches or the full wildcard.  "club:*" style
// partial wildcards are not part of the table and do not match.
const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && ((p.obj == "*" && p.act == "*") || (r.obj == p.obj && r.act == p.act))
`

// AuthorizationService answers permission checks for stored users.
type AuthorizationService struct {
	users    *repository.UserRepo
	enforcer *casbin.Enforcer
	log      *logrus.Logger
}

// NewAuthorizationService loads RolePermissions into a casbin
// enforcer.
func NewAuthorizationService(users *repository.UserRepo, log *logrus.Logger) (*AuthorizationService, error) {
	if users == nil {
		panic("nil user repo passed to NewAuthorizationService")
	}
	m, err := casbinmodel.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("casbin model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("casbin enforcer: %w", err)
	}
	var rules [][]string
	for role, perms := range RolePermissions {
		for _, p := range perms {
			obj, act, ok := strings.Cut(p, ":")
			if !ok {
				return nil, fmt.Errorf("malformed permission %q", p)
			}
			rules = append(rules, []string{string(role), obj, act})
		}
	}
	if _, err := e.AddPolicies(rules); err != nil {
		return nil, fmt.Errorf("casbin policies: %w", err)
	}
	return &AuthorizationService{users: users, enforcer: e, log: orDiscard(log)}, nil
}

// CheckPermission reports whether userID may perform action on
// resource.  An unknown user is denied.
func (s *AuthorizationService) CheckPermission(ctx context.Context, userID, resource, action string) (bool, error) {
	u, ok, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	l := s.log.WithFields(logrus.Fields{"user_id": userID, "permission": resource + ":" + action})
	if !ok {
		l.Info("permission denied: user not found")
		return false, nil
	}
	allowed, err := s.enforcer.Enforce(string(u.Role), resource, action)
	if err != nil {
		return false, err
	}
	l.WithField("granted", allowed).Debug("permission checked")
	return allowed, nil
}

// HasRole reports whether userID carries role.
func (s *AuthorizationService) HasRole(ctx context.Context, userID string, role model.Role) (bool, error) {
	u, ok, err := s.users.GetByID(ctx, userID)
	if err != nil || !ok {
		return false, err
	}
	return u.Role == role, nil
}

// Permissions returns the permission strings of role.
func Permissions(role model.Role) []string {
	out := make([]string, len(RolePermissions[role]))
	copy(out, RolePermissions[role])
	return out
}
