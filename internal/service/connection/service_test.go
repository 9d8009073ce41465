package connection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daun-gatal/chouse-ui-sub004/internal/domain"
	"github.com/daun-gatal/chouse-ui-sub004/internal/testutil"
)

func TestService_List(t *testing.T) {
	repo := &mockConnectionRepo{
		ListAccessibleFn: func(_ context.Context, userID string) ([]domain.ConnectionProfile, error) {
			return []domain.ConnectionProfile{profile("mine", true, true)}, nil
		},
		ListAllFn: func(context.Context) ([]domain.ConnectionProfile, error) {
			return []domain.ConnectionProfile{profile("mine", true, true), profile("theirs", false, true)}, nil
		},
	}
	svc := NewService(repo, &mockEngineFactory{}, newTestPool(), &mockAuditRepo{}, testLogger())

	views, err := svc.List(context.Background(), testutil.Caller("u1"))
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "mine", views[0].ID)
	assert.NotNil(t, views[0].Grantees)

	views, err = svc.List(context.Background(), testutil.Caller("ops", domain.PermConnectionsAdmin))
	require.NoError(t, err)
	assert.Len(t, views, 2)
}

func TestService_Create(t *testing.T) {
	valid := domain.CreateConnectionRequest{
		Name: "prod", Host: "ch.internal", Port: 9000, Username: "reader", Password: "pw",
	}

	t.Run("requires_admin_permission", func(t *testing.T) {
		svc := NewService(&mockConnectionRepo{}, &mockEngineFactory{}, newTestPool(), &mockAuditRepo{}, testLogger())

		_, err := svc.Create(context.Background(), testutil.Caller("u1"), valid)
		var denied *domain.AccessDeniedError
		require.ErrorAs(t, err, &denied)
	})

	t.Run("validates", func(t *testing.T) {
		svc := NewService(&mockConnectionRepo{}, &mockEngineFactory{}, newTestPool(), &mockAuditRepo{}, testLogger())
		bad := valid
		bad.Port = 70000

		_, err := svc.Create(context.Background(), testutil.Caller("ops", domain.PermConnectionsAdmin), bad)
		var validation *domain.ValidationError
		require.ErrorAs(t, err, &validation)
	})

	t.Run("stores_and_audits", func(t *testing.T) {
		audit := &mockAuditRepo{}
		repo := &mockConnectionRepo{
			CreateFn: func(_ context.Context, c *domain.ConnectionProfile) (*domain.ConnectionProfile, error) {
				assert.Equal(t, "ops", c.OwnerID)
				assert.True(t, c.IsActive)
				out := c.Redacted()
				out.ID = "new-conn"
				return &out, nil
			},
		}
		svc := NewService(repo, &mockEngineFactory{}, newTestPool(), audit, testLogger())

		v, err := svc.Create(context.Background(), testutil.Caller("ops", domain.PermConnectionsAdmin), valid)
		require.NoError(t, err)
		assert.Equal(t, "new-conn", v.ID)
		require.NotNil(t, audit.LastEntry())
		assert.Equal(t, domain.AuditActionConnCreate, audit.LastEntry().Action)
	})
}

func TestService_ConnectAndDisconnect(t *testing.T) {
	client := &mockEngineClient{}
	repo := secretRepo(profile("c1", true, true))
	repo.CanAccessFn = func(_ context.Context, userID, connID string) (bool, error) {
		return userID == "u1" && connID == "c1", nil
	}
	factory := &mockEngineFactory{
		OpenFn: func(context.Context, domain.ConnectionProfile) (domain.EngineClient, error) { return client, nil },
	}
	audit := &mockAuditRepo{}
	pool := newTestPool()
	svc := NewService(repo, factory, pool, audit, testLogger())
	ctx := context.Background()

	info, err := svc.Connect(ctx, testutil.Caller("u1"), "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", info.ConnectionID)
	assert.Equal(t, 1, pool.Len())
	assert.True(t, audit.HasAction(domain.AuditActionSessionConnect))

	err = svc.Disconnect(ctx, testutil.Caller("u2"), info.SessionID)
	var mismatch *domain.SessionOwnershipMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 1, pool.Len())

	require.NoError(t, svc.Disconnect(ctx, testutil.Caller("u1"), info.SessionID))
	assert.Equal(t, 0, pool.Len())
	assert.Equal(t, 1, client.CloseCalls())
	assert.True(t, audit.HasAction(domain.AuditActionSessionClose))

	err = svc.Disconnect(ctx, testutil.Caller("u1"), info.SessionID)
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestService_ConnectFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("no_access", func(t *testing.T) {
		repo := &mockConnectionRepo{
			CanAccessFn: func(context.Context, string, string) (bool, error) { return false, nil },
		}
		svc := NewService(repo, &mockEngineFactory{}, newTestPool(), &mockAuditRepo{}, testLogger())

		_, err := svc.Connect(ctx, testutil.Caller("u1"), "c1")
		var notFound *domain.NotFoundError
		require.ErrorAs(t, err, &notFound)
	})

	t.Run("inactive", func(t *testing.T) {
		repo := secretRepo(profile("c1", false, false))
		repo.CanAccessFn = func(context.Context, string, string) (bool, error) { return true, nil }
		svc := NewService(repo, &mockEngineFactory{}, newTestPool(), &mockAuditRepo{}, testLogger())

		_, err := svc.Connect(ctx, testutil.Caller("u1"), "c1")
		var conflict *domain.ConflictError
		require.ErrorAs(t, err, &conflict)
	})

	t.Run("unreachable_is_audited", func(t *testing.T) {
		repo := secretRepo(profile("c1", false, true))
		factory := &mockEngineFactory{
			OpenFn: func(context.Context, domain.ConnectionProfile) (domain.EngineClient, error) { return nil, errTest },
		}
		audit := &mockAuditRepo{}
		pool := newTestPool()
		svc := NewService(repo, factory, pool, audit, testLogger())

		_, err := svc.Connect(ctx, testutil.Caller("ops", domain.PermConnectionsAdmin), "c1")
		var unreachable *domain.ConnectionUnreachableError
		require.ErrorAs(t, err, &unreachable)
		assert.Equal(t, 0, pool.Len())
		require.NotNil(t, audit.LastEntry())
		assert.Equal(t, domain.AuditStatusFailure, audit.LastEntry().Status)
	})
}
