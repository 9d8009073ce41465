package app

import (
	"context"
	"fmt"

	"github.com/daun-gatal/chouse-ui-sub004/internal/config"
	"github.com/daun-gatal/chouse-ui-sub004/internal/service/security"
)

// syncRoles upserts the role definitions from path, or the built-in roles
// when path is empty. Idempotent; bindings to removed roles are kept.
func syncRoles(ctx context.Context, users *security.UserService, path string) error {
	roles, err := config.LoadRoles(path)
	if err != nil {
		return fmt.Errorf("load roles: %w", err)
	}
	if err := users.SyncRoles(ctx, roles); err != nil {
		return err
	}
	return nil
}
