// Package security resolves who a caller is and what they may do.
package security

import (
	"context"
	"fmt"

	"github.com/daun-gatal/chouse-ui-sub004/internal/domain"
)

var _ domain.PermissionChecker = (*PermissionService)(nil)

// PermissionService answers permission questions from the role store. The
// principal's administrator flag short-circuits every lookup.
type PermissionService struct {
	users domain.UserRepository
	roles domain.RoleRepository
}

// NewPermissionService creates a PermissionService.
func NewPermissionService(users domain.UserRepository, roles domain.RoleRepository) *PermissionService {
	return &PermissionService{users: users, roles: roles}
}

// CheckPermission reports whether userID holds perm.
func (s *PermissionService) CheckPermission(ctx context.Context, userID string, perm domain.Permission) (bool, error) {
	if userID == "" {
		return false, nil
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("load user %s: %w", userID, err)
	}
	if u.IsAdmin {
		return true, nil
	}
	ok, err := s.roles.UserHasPermission(ctx, userID, perm)
	if err != nil {
		return false, fmt.Errorf("check permission %s for %s: %w", perm, userID, err)
	}
	return ok, nil
}

// LoadCaller resolves the principal's full permission set once for the
// request. Every later decision reads from the returned Caller.
func (s *PermissionService) LoadCaller(ctx context.Context, p domain.ContextPrincipal) (domain.Caller, error) {
	if p.ID == "" {
		return domain.Caller{}, domain.ErrAuthenticationRequired()
	}
	if p.IsAdmin {
		return domain.Caller{Principal: p, Permissions: domain.NewPermissionSet(true)}, nil
	}
	perms, err := s.roles.PermissionsForUser(ctx, p.ID)
	if err != nil {
		return domain.Caller{}, fmt.Errorf("load permissions for %s: %w", p.ID, err)
	}
	return domain.Caller{Principal: p, Permissions: domain.NewPermissionSet(false, perms...)}, nil
}

// CallerFromContext loads the Caller for the principal carried by ctx.
func CallerFromContext(ctx context.Context, checker domain.PermissionChecker) (domain.Caller, error) {
	p, ok := domain.PrincipalFromContext(ctx)
	if !ok {
		return domain.Caller{}, domain.ErrAuthenticationRequired()
	}
	return checker.LoadCaller(ctx, p)
}
