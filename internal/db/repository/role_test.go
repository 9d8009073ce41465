package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daun-gatal/chouse-ui-sub004/internal/domain"
)

func TestRoleRepo_PermissionsThroughRoles(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	u := createUser(t, r.users, "alice")

	require.NoError(t, r.roles.Upsert(ctx, domain.Role{
		Name:        "operator",
		Permissions: []domain.Permission{domain.PermLiveQueriesView, domain.PermLiveQueriesKill},
	}))
	require.NoError(t, r.roles.Upsert(ctx, domain.Role{
		Name:        "analyst",
		Permissions: []domain.Permission{domain.PermLiveQueriesView, domain.PermQueryExecute},
	}))
	require.NoError(t, r.roles.AssignToUser(ctx, u.ID, "operator"))
	require.NoError(t, r.roles.AssignToUser(ctx, u.ID, "analyst"))
	require.NoError(t, r.roles.AssignToUser(ctx, u.ID, "analyst"))

	perms, err := r.roles.PermissionsForUser(ctx, u.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.Permission{
		domain.PermLiveQueriesKill, domain.PermLiveQueriesView, domain.PermQueryExecute,
	}, perms)

	ok, err := r.roles.UserHasPermission(ctx, u.ID, domain.PermLiveQueriesKill)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.roles.UserHasPermission(ctx, u.ID, domain.PermLiveQueriesKillAll)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRoleRepo_UpsertReplacesPermissions(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	u := createUser(t, r.users, "alice")

	require.NoError(t, r.roles.Upsert(ctx, domain.Role{
		Name: "viewer", Permissions: []domain.Permission{domain.PermLiveQueriesViewAll},
	}))
	require.NoError(t, r.roles.AssignToUser(ctx, u.ID, "viewer"))
	require.NoError(t, r.roles.Upsert(ctx, domain.Role{
		Name: "viewer", Permissions: []domain.Permission{domain.PermLiveQueriesView},
	}))

	perms, err := r.roles.PermissionsForUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.Permission{domain.PermLiveQueriesView}, perms)
}

func TestRoleRepo_RejectsUnknownPermission(t *testing.T) {
	r := setupRepos(t)

	err := r.roles.Upsert(context.Background(), domain.Role{
		Name: "bad", Permissions: []domain.Permission{"tables:drop"},
	})
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestRoleRepo_AssignUnknownRole(t *testing.T) {
	r := setupRepos(t)
	u := createUser(t, r.users, "alice")

	err := r.roles.AssignToUser(context.Background(), u.ID, "ghost")
	require.Error(t, err)
}
