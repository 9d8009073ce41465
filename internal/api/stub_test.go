package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/daun-gatal/chouse-ui-sub004/internal/domain"
	"github.com/daun-gatal/chouse-ui-sub004/internal/testutil"
)

type stubQueries struct {
	executeFn func(ctx context.Context, caller domain.Caller, req domain.ExecuteQueryRequest, resolve domain.ResolveRequest) (*domain.ExecuteQueryResult, error)
	liveFn    func(ctx context.Context, caller domain.Caller, resolve domain.ResolveRequest) (*domain.LiveQueryList, error)
	killFn    func(ctx context.Context, caller domain.Caller, queryID string, resolve domain.ResolveRequest) (*domain.KillResult, error)
	historyFn func(ctx context.Context, caller domain.Caller, limit int, resolve domain.ResolveRequest) ([]domain.QueryRecordView, error)
}

func (s *stubQueries) Execute(ctx context.Context, caller domain.Caller, req domain.ExecuteQueryRequest, resolve domain.ResolveRequest) (*domain.ExecuteQueryResult, error) {
	if s.executeFn == nil {
		panic("unexpected call to Execute")
	}
	return s.executeFn(ctx, caller, req, resolve)
}

func (s *stubQueries) ListLive(ctx context.Context, caller domain.Caller, resolve domain.ResolveRequest) (*domain.LiveQueryList, error) {
	if s.liveFn == nil {
		panic("unexpected call to ListLive")
	}
	return s.liveFn(ctx, caller, resolve)
}

func (s *stubQueries) Kill(ctx context.Context, caller domain.Caller, queryID string, resolve domain.ResolveRequest) (*domain.KillResult, error) {
	if s.killFn == nil {
		panic("unexpected call to Kill")
	}
	return s.killFn(ctx, caller, queryID, resolve)
}

func (s *stubQueries) ListHistory(ctx context.Context, caller domain.Caller, limit int, resolve domain.ResolveRequest) ([]domain.QueryRecordView, error) {
	if s.historyFn == nil {
		panic("unexpected call to ListHistory")
	}
	return s.historyFn(ctx, caller, limit, resolve)
}

type stubConnections struct {
	listFn       func(ctx context.Context, caller domain.Caller) ([]domain.ConnectionView, error)
	createFn     func(ctx context.Context, caller domain.Caller, req domain.CreateConnectionRequest) (*domain.ConnectionView, error)
	connectFn    func(ctx context.Context, caller domain.Caller, connectionID string) (*domain.SessionInfo, error)
	disconnectFn func(ctx context.Context, caller domain.Caller, sessionID string) error
}

func (s *stubConnections) List(ctx context.Context, caller domain.Caller) ([]domain.ConnectionView, error) {
	if s.listFn == nil {
		panic("unexpected call to List")
	}
	return s.listFn(ctx, caller)
}

func (s *stubConnections) Create(ctx context.Context, caller domain.Caller, req domain.CreateConnectionRequest) (*domain.ConnectionView, error) {
	if s.createFn == nil {
		panic("unexpected call to Create")
	}
	return s.createFn(ctx, caller, req)
}

func (s *stubConnections) Connect(ctx context.Context, caller domain.Caller, connectionID string) (*domain.SessionInfo, error) {
	if s.connectFn == nil {
		panic("unexpected call to Connect")
	}
	return s.connectFn(ctx, caller, connectionID)
}

func (s *stubConnections) Disconnect(ctx context.Context, caller domain.Caller, sessionID string) error {
	if s.disconnectFn == nil {
		panic("unexpected call to Disconnect")
	}
	return s.disconnectFn(ctx, caller, sessionID)
}

type stubAudit struct {
	listFn func(ctx context.Context, caller domain.Caller, filter domain.AuditFilter) ([]domain.AuditEventView, error)
}

func (s *stubAudit) List(ctx context.Context, caller domain.Caller, filter domain.AuditFilter) ([]domain.AuditEventView, error) {
	if s.listFn == nil {
		panic("unexpected call to audit List")
	}
	return s.listFn(ctx, caller, filter)
}

var (
	_ QueryService      = (*stubQueries)(nil)
	_ ConnectionService = (*stubConnections)(nil)
	_ AuditService      = (*stubAudit)(nil)
)

// testUserHeader names the principal injected by testRouter. Requests
// without it reach the handlers unauthenticated.
const testUserHeader = "X-Test-User"

// testRouter mounts the handler routes behind a middleware that injects
// the principal named by testUserHeader, granting perms to everyone.
func testRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if id := req.Header.Get(testUserHeader); id != "" {
				p := domain.ContextPrincipal{ID: id, Username: id}
				req = req.WithContext(domain.WithPrincipal(req.Context(), p))
			}
			next.ServeHTTP(w, req)
		})
	})
	h.Routes(r)
	return r
}

func newTestHandler(q *stubQueries, c *stubConnections, a *stubAudit, perms ...domain.Permission) *Handler {
	if q == nil {
		q = &stubQueries{}
	}
	if c == nil {
		c = &stubConnections{}
	}
	if a == nil {
		a = &stubAudit{}
	}
	return NewHandler(q, c, a, testutil.StaticPermissions(perms...))
}

func do(t *testing.T, h http.Handler, method, path, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if user != "" {
		req.Header.Set(testUserHeader, user)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
