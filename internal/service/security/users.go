package security

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/daun-gatal/chouse-ui-sub004/internal/domain"
)

// UserService manages users, roles, and role bindings. It backs the
// operator CLI and startup role synchronisation.
type UserService struct {
	users    domain.UserRepository
	roles    domain.RoleRepository
	validate *validator.Validate
	logger   *slog.Logger
}

// NewUserService creates a UserService.
func NewUserService(users domain.UserRepository, roles domain.RoleRepository, logger *slog.Logger) *UserService {
	return &UserService{users: users, roles: roles, validate: validator.New(), logger: logger}
}

// CreateUser validates and stores a new user.
func (s *UserService) CreateUser(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, domain.ErrValidation("invalid user: %v", err)
	}
	u, err := s.users.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create user %q: %w", req.Username, err)
	}
	s.logger.Info("user created", "user_id", u.ID, "username", u.Username, "admin", u.IsAdmin)
	return u, nil
}

// GrantRole binds roleName to the user with the given username.
func (s *UserService) GrantRole(ctx context.Context, username, roleName string) error {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("look up user %q: %w", username, err)
	}
	if err := s.roles.AssignToUser(ctx, u.ID, roleName); err != nil {
		return fmt.Errorf("assign role %q to %q: %w", roleName, username, err)
	}
	s.logger.Info("role granted", "user_id", u.ID, "role", roleName)
	return nil
}

// SyncRoles upserts every role definition.
func (s *UserService) SyncRoles(ctx context.Context, roles []domain.Role) error {
	for _, r := range roles {
		if err := s.roles.Upsert(ctx, r); err != nil {
			return fmt.Errorf("sync role %q: %w", r.Name, err)
		}
	}
	s.logger.Info("roles synchronised", "count", len(roles))
	return nil
}

// Lookup returns the user with the given username.
func (s *UserService) Lookup(ctx context.Context, username string) (*domain.User, error) {
	return s.users.GetByUsername(ctx, username)
}
