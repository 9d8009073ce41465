package repository

import (
	"context"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	internaldb "github.com/daun-gatal/chouse-ui-sub004/internal/db"
	"github.com/daun-gatal/chouse-ui-sub004/internal/db/crypto"
	"github.com/daun-gatal/chouse-ui-sub004/internal/domain"
)

const testEncryptionKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

type testRepos struct {
	users *UserRepo
	roles *RoleRepo
	conns *ConnectionRepo
	audit *AuditRepo
}

func setupRepos(t *testing.T) testRepos {
	t.Helper()
	writeDB, readDB := internaldb.OpenTestSQLite(t)
	enc, err := crypto.NewEncryptor(testEncryptionKey)
	require.NoError(t, err)
	return testRepos{
		users: NewUserRepo(writeDB, readDB),
		roles: NewRoleRepo(writeDB, readDB),
		conns: NewConnectionRepo(writeDB, readDB, enc),
		audit: NewAuditRepo(writeDB, readDB),
	}
}

func createUser(t *testing.T, repo *UserRepo, username string) *domain.User {
	t.Helper()
	u, err := repo.Create(context.Background(), domain.CreateUserRequest{
		Username:    username,
		Email:       username + "@example.com",
		DisplayName: username + " display",
	})
	require.NoError(t, err)
	return u
}
