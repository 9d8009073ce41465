package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daun-gatal/chouse-ui-sub004/internal/config"
	"github.com/daun-gatal/chouse-ui-sub004/internal/db"
	"github.com/daun-gatal/chouse-ui-sub004/internal/domain"
	"github.com/daun-gatal/chouse-ui-sub004/internal/engine"
	"github.com/daun-gatal/chouse-ui-sub004/internal/middleware"
	"github.com/daun-gatal/chouse-ui-sub004/internal/testutil"
)

const testSecret = "app-test-secret"

func testConfig() *config.Config {
	return &config.Config{
		EncryptionKey:      strings.Repeat("ab", 32),
		CORSAllowedOrigins: []string{"*"},
		Auth:               config.AuthConfig{JWTSecret: testSecret},
		Session:            config.SessionConfig{TTL: time.Minute, Max: 8},
	}
}

type fixture struct {
	app     *App
	handler http.Handler
	factory *testutil.MockEngineFactory
	admin   *domain.User
	analyst *domain.User
}

func newFixture(t *testing.T, client *testutil.MockEngineClient) *fixture {
	t.Helper()
	ctx := t.Context()
	writeDB, readDB := db.OpenTestSQLite(t)
	factory := &testutil.MockEngineFactory{
		OpenFn: func(context.Context, domain.ConnectionProfile) (domain.EngineClient, error) {
			return client, nil
		},
	}

	a, err := New(ctx, Deps{Cfg: testConfig(), WriteDB: writeDB, ReadDB: readDB, Factory: factory})
	require.NoError(t, err)
	t.Cleanup(a.Close)

	admin, err := a.Services.Users.CreateUser(ctx, domain.CreateUserRequest{Username: "root", IsAdmin: true})
	require.NoError(t, err)
	analyst, err := a.Services.Users.CreateUser(ctx, domain.CreateUserRequest{Username: "ann", DisplayName: "Ann Analyst"})
	require.NoError(t, err)
	require.NoError(t, a.Services.Users.GrantRole(ctx, "ann", "analyst"))

	adminCaller, err := a.Services.Permissions.LoadCaller(ctx, domain.ContextPrincipal{ID: admin.ID, Username: admin.Username, IsAdmin: true})
	require.NoError(t, err)
	_, err = a.Services.Connection.Create(ctx, adminCaller, domain.CreateConnectionRequest{
		Name: "primary", Host: "clickhouse.internal", Port: 9000, Username: "default",
		Password: "s3cret", IsDefault: true, Grantees: []string{analyst.ID},
	})
	require.NoError(t, err)

	h, err := a.Handler(ctx)
	require.NoError(t, err)
	return &fixture{app: a, handler: h, factory: factory, admin: admin, analyst: analyst}
}

func (f *fixture) do(t *testing.T, method, path string, user *domain.User, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if user != nil {
		tok, err := middleware.IssueHS256Token(testSecret, middleware.TokenRequest{UserID: user.ID, TTL: time.Hour}, time.Now())
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestNew_SyncsDefaultRoles(t *testing.T) {
	f := newFixture(t, &testutil.MockEngineClient{})
	caller, err := f.app.Services.Permissions.LoadCaller(t.Context(),
		domain.ContextPrincipal{ID: f.analyst.ID, Username: f.analyst.Username})
	require.NoError(t, err)

	assert.True(t, caller.Permissions.Has(domain.PermLiveQueriesView))
	assert.True(t, caller.Permissions.Has(domain.PermQueryExecute))
	assert.False(t, caller.Permissions.Has(domain.PermLiveQueriesViewAll))
}

func TestNew_RejectsBadRolesFile(t *testing.T) {
	writeDB, readDB := db.OpenTestSQLite(t)
	cfg := testConfig()
	cfg.RolesFile = "/nonexistent/roles.yaml"

	_, err := New(t.Context(), Deps{Cfg: cfg, WriteDB: writeDB, ReadDB: readDB, Factory: &testutil.MockEngineFactory{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load roles")
}

func TestNew_RejectsBadEncryptionKey(t *testing.T) {
	writeDB, readDB := db.OpenTestSQLite(t)
	cfg := testConfig()
	cfg.EncryptionKey = "short"

	_, err := New(t.Context(), Deps{Cfg: cfg, WriteDB: writeDB, ReadDB: readDB})
	require.Error(t, err)
}

func TestLiveListingEndToEnd(t *testing.T) {
	client := &testutil.MockEngineClient{
		ListProcessesFn: func(context.Context) ([]domain.QueryRecord, error) {
			return nil, nil
		},
	}
	f := newFixture(t, client)
	client.ListProcessesFn = func(context.Context) ([]domain.QueryRecord, error) {
		return []domain.QueryRecord{
			{QueryID: "q-ann", Query: "SELECT 1", LogComment: engine.EncodeIdentity(f.analyst.ID), StartedAt: time.Now()},
			{QueryID: "q-root", Query: "SELECT 2", LogComment: engine.EncodeIdentity(f.admin.ID), StartedAt: time.Now()},
		}, nil
	}

	rec := f.do(t, http.MethodGet, "/v1/queries/live", f.analyst, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var list domain.LiveQueryList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "q-ann", list.Queries[0].QueryID)
	require.NotNil(t, list.Queries[0].OwnerDisplayName)
	assert.Equal(t, "Ann Analyst", *list.Queries[0].OwnerDisplayName)

	rec = f.do(t, http.MethodGet, "/v1/queries/live", f.admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 2, list.Total)

	require.NotEmpty(t, f.factory.Opened)
	assert.Equal(t, "s3cret", f.factory.Opened[0].Password)
}

func TestExecuteIsAuditedEndToEnd(t *testing.T) {
	var stamped *domain.AppIdentity
	client := &testutil.MockEngineClient{
		ExecuteFn: func(_ context.Context, req domain.EngineRequest) (*domain.EngineResult, error) {
			stamped = req.Identity
			return &domain.EngineResult{QueryID: req.QueryID, Columns: []domain.EngineColumn{{Name: "x", Type: "UInt8"}}, Rows: [][]any{{1}}}, nil
		},
	}
	f := newFixture(t, client)

	rec := f.do(t, http.MethodPost, "/v1/query", f.analyst, `{"sql":"SELECT 1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, stamped)
	assert.Equal(t, f.analyst.ID, stamped.UserID)

	rec = f.do(t, http.MethodGet, "/v1/audit?action="+domain.AuditActionQueryExecute, f.admin, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		Events []domain.AuditEventView `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Events, 1)
	assert.Equal(t, f.analyst.ID, body.Events[0].ActorID)
	assert.Equal(t, "SELECT 1", body.Events[0].Details[domain.DetailSQLPrefix])

	rec = f.do(t, http.MethodGet, "/v1/audit", f.analyst, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandler_HealthzPingsMetadataStore(t *testing.T) {
	f := newFixture(t, &testutil.MockEngineClient{})
	rec := f.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
