package connection

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/daun-gatal/chouse-ui-sub004/internal/domain"
	"github.com/daun-gatal/chouse-ui-sub004/internal/testutil"
)

var errTest = errors.New("test error")

type mockConnectionRepo = testutil.MockConnectionRepo
type mockEngineFactory = testutil.MockEngineFactory
type mockEngineClient = testutil.MockEngineClient
type mockAuditRepo = testutil.MockAuditRepo

func testLogger() *slog.Logger { return slog.Default() }

func newTestPool() *SessionPool {
	return NewSessionPool(16, time.Hour, testLogger())
}

func profile(id string, isDefault, active bool) domain.ConnectionProfile {
	return domain.ConnectionProfile{ID: id, Name: id, Host: "ch", Port: 9000, IsDefault: isDefault, IsActive: active}
}

// secretRepo serves GetWithSecret from the given profiles with a password set.
func secretRepo(profiles ...domain.ConnectionProfile) *mockConnectionRepo {
	byID := map[string]domain.ConnectionProfile{}
	for _, p := range profiles {
		byID[p.ID] = p
	}
	return &mockConnectionRepo{
		GetWithSecretFn: func(_ context.Context, id string) (*domain.ConnectionProfile, error) {
			p, ok := byID[id]
			if !ok {
				return nil, domain.ErrNotFound("connection %s not found", id)
			}
			p.Password = "pw-" + id
			return &p, nil
		},
	}
}
