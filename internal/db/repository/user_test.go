package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daun-gatal/chouse-ui-sub004/internal/domain"
)

func TestUserRepo_CreateAndGet(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()

	u := createUser(t, r.users, "alice")
	assert.NotEmpty(t, u.ID)
	assert.False(t, u.IsAdmin)

	found, err := r.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", found.Username)
	assert.Equal(t, "alice display", found.DisplayName)
	assert.Equal(t, "alice@example.com", found.Email)
	assert.Equal(t, u.CreatedAt.UnixNano(), found.CreatedAt.UnixNano())

	found, err = r.users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)
}

func TestUserRepo_NotFound(t *testing.T) {
	r := setupRepos(t)

	_, err := r.users.GetByID(context.Background(), "missing")
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestUserRepo_DuplicateUsername(t *testing.T) {
	r := setupRepos(t)
	createUser(t, r.users, "alice")

	_, err := r.users.Create(context.Background(), domain.CreateUserRequest{Username: "alice"})
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestUserRepo_List(t *testing.T) {
	r := setupRepos(t)
	createUser(t, r.users, "bob")
	createUser(t, r.users, "alice")

	users, err := r.users.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "bob", users[1].Username)
}
