package domain

import "context"

// AuditRepository is the append-only audit store.
type AuditRepository interface {
	Append(ctx context.Context, e *AuditEvent) error
	Query(ctx context.Context, filter AuditFilter) ([]AuditEvent, error)
}

// UserRepository provides operations for application users.
type UserRepository interface {
	Create(ctx context.Context, req CreateUserRequest) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context) ([]User, error)
}

// RoleRepository provides role definitions and user-role bindings.
type RoleRepository interface {
	Upsert(ctx context.Context, role Role) error
	AssignToUser(ctx context.Context, userID, roleName string) error
	PermissionsForUser(ctx context.Context, userID string) ([]Permission, error)
	UserHasPermission(ctx context.Context, userID string, perm Permission) (bool, error)
}

// ConnectionRepository is the connection registry and credential vault.
type ConnectionRepository interface {
	Create(ctx context.Context, c *ConnectionProfile) (*ConnectionProfile, error)
	// ListAccessible returns profiles the user owns or was granted.
	ListAccessible(ctx context.Context, userID string) ([]ConnectionProfile, error)
	// ListAll returns every profile. Administrator path only.
	ListAll(ctx context.Context) ([]ConnectionProfile, error)
	// GetWithSecret returns one profile with its password decrypted.
	GetWithSecret(ctx context.Context, id string) (*ConnectionProfile, error)
	// CanAccess reports whether the user owns or was granted the profile.
	CanAccess(ctx context.Context, userID, connectionID string) (bool, error)
}
