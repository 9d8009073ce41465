package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/daun-gatal/chouse-ui-sub004/internal/domain"
)

// RoleRepo stores roles, their permissions, and user bindings.
type RoleRepo struct {
	db pools
}

// NewRoleRepo creates a RoleRepo. readDB may be nil.
func NewRoleRepo(writeDB, readDB *sql.DB) *RoleRepo {
	return &RoleRepo{db: newPools(writeDB, readDB)}
}

// Upsert creates or replaces a role and its permission list atomically.
func (r *RoleRepo) Upsert(ctx context.Context, role domain.Role) error {
	for _, p := range role.Permissions {
		if !domain.IsKnownPermission(p) {
			return domain.ErrValidation("role %q: unknown permission %q", role.Name, p)
		}
	}

	tx, err := r.db.w.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO roles (name, description) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET description = excluded.description`,
		role.Name, role.Description); err != nil {
		return mapDBError(err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM role_permissions WHERE role_name = ?`, role.Name); err != nil {
		return err
	}
	for _, p := range role.Permissions {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO role_permissions (role_name, permission) VALUES (?, ?)`,
			role.Name, string(p)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// AssignToUser binds a role to a user. Re-assigning is a no-op.
func (r *RoleRepo) AssignToUser(ctx context.Context, userID, roleName string) error {
	_, err := r.db.w.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_roles (user_id, role_name) VALUES (?, ?)`, userID, roleName)
	return mapDBError(err)
}

// PermissionsForUser returns the distinct permissions granted through all
// of the user's roles.
func (r *RoleRepo) PermissionsForUser(ctx context.Context, userID string) ([]domain.Permission, error) {
	rows, err := r.db.r.QueryContext(ctx,
		`SELECT DISTINCT rp.permission
		   FROM user_roles ur
		   JOIN role_permissions rp ON rp.role_name = ur.role_name
		  WHERE ur.user_id = ?
		  ORDER BY rp.permission`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var perms []domain.Permission
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		perms = append(perms, domain.Permission(p))
	}
	return perms, rows.Err()
}

// UserHasPermission reports whether any of the user's roles grants perm.
func (r *RoleRepo) UserHasPermission(ctx context.Context, userID string, perm domain.Permission) (bool, error) {
	var n int
	err := r.db.r.QueryRowContext(ctx,
		`SELECT COUNT(*)
		   FROM user_roles ur
		   JOIN role_permissions rp ON rp.role_name = ur.role_name
		  WHERE ur.user_id = ? AND rp.permission = ?`, userID, string(perm)).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
