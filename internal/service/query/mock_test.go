package query

import (
	"context"
	"log/slog"
	"time"

	"github.com/daun-gatal/chouse-ui-sub004/internal/domain"
	"github.com/daun-gatal/chouse-ui-sub004/internal/engine"
	"github.com/daun-gatal/chouse-ui-sub004/internal/testutil"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(client domain.EngineClient, audit domain.AuditRepository, users domain.UserDirectory) *Service {
	svc := NewService(testutil.ResolverFor(client), audit, users, slog.Default())
	svc.now = func() time.Time { return t0 }
	return svc
}

// liveRow builds a process row tagged with owner; an empty owner leaves the
// row without an identity comment.
func liveRow(queryID, owner string) domain.QueryRecord {
	return domain.QueryRecord{
		QueryID:        queryID,
		EngineUser:     "default",
		Query:          "SELECT sleep(10) /* " + queryID + " */",
		ElapsedSeconds: 4.2,
		LogComment:     engine.EncodeIdentity(owner),
	}
}

func listing(rows ...domain.QueryRecord) func(context.Context) ([]domain.QueryRecord, error) {
	return func(context.Context) ([]domain.QueryRecord, error) {
		out := make([]domain.QueryRecord, len(rows))
		copy(out, rows)
		return out, nil
	}
}

func execEvent(actor string, executedAt time.Time, sqlPrefix string) domain.AuditEvent {
	return domain.AuditEvent{
		ID:      actor + "-" + executedAt.Format(time.RFC3339Nano),
		ActorID: actor,
		Action:  domain.AuditActionQueryExecute,
		Status:  domain.AuditStatusSuccess,
		Details: map[string]any{
			domain.DetailExecutedAt:   executedAt.Format(time.RFC3339Nano),
			domain.DetailConnectionID: "conn-1",
			domain.DetailSQLPrefix:    sqlPrefix,
		},
		CreatedAt: executedAt.Add(2 * time.Second),
	}
}

func directory() *testutil.MockUserRepo {
	return testutil.UserDirectory(
		domain.User{ID: "U1", Username: "u1", DisplayName: "User One", Email: "u1@example.com"},
		domain.User{ID: "U2", Username: "u2", DisplayName: "User Two"},
		domain.User{ID: "U3", Username: "u3"},
		domain.User{ID: "U5", Username: "u5", DisplayName: "User Five"},
	)
}
