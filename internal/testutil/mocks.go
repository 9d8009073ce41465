// Package testutil provides shared mock implementations of domain interfaces
// for use in tests across the codebase. This follows the Go convention of a
// shared test utility package (like net/http/httptest).
package testutil

import (
	"context"
	"sync"

	"github.com/daun-gatal/chouse-ui-sub004/internal/domain"
)

// === Audit Repository Mock ===

// MockAuditRepo implements domain.AuditRepository for testing.
type MockAuditRepo struct {
	AppendFn func(ctx context.Context, e *domain.AuditEvent) error
	QueryFn  func(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEvent, error)
	Entries  []*domain.AuditEvent // collected entries for assertions
}

// Append implements the interface method for testing.
func (m *MockAuditRepo) Append(ctx context.Context, e *domain.AuditEvent) error {
	if m.AppendFn != nil {
		if err := m.AppendFn(ctx, e); err != nil {
			return err
		}
	}
	m.Entries = append(m.Entries, e)
	return nil
}

// Query implements the interface method for testing.
func (m *MockAuditRepo) Query(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEvent, error) {
	if m.QueryFn != nil {
		return m.QueryFn(ctx, filter)
	}
	panic("unexpected call to MockAuditRepo.Query")
}

// LastEntry returns the last collected audit entry, or nil if none.
func (m *MockAuditRepo) LastEntry() *domain.AuditEvent {
	if len(m.Entries) == 0 {
		return nil
	}
	return m.Entries[len(m.Entries)-1]
}

// HasAction returns true if any collected entry has the given action.
func (m *MockAuditRepo) HasAction(action string) bool {
	for _, e := range m.Entries {
		if e.Action == action {
			return true
		}
	}
	return false
}

var _ domain.AuditRepository = (*MockAuditRepo)(nil)

// === User Repository Mock ===

// MockUserRepo implements domain.UserRepository for testing.
type MockUserRepo struct {
	CreateFn        func(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error)
	GetByIDFn       func(ctx context.Context, id string) (*domain.User, error)
	GetByUsernameFn func(ctx context.Context, username string) (*domain.User, error)
	ListFn          func(ctx context.Context) ([]domain.User, error)
}

// Create implements the interface method for testing.
func (m *MockUserRepo) Create(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, req)
	}
	panic("unexpected call to MockUserRepo.Create")
}

// GetByID implements the interface method for testing.
func (m *MockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	panic("unexpected call to MockUserRepo.GetByID")
}

// GetByUsername implements the interface method for testing.
func (m *MockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.GetByUsernameFn != nil {
		return m.GetByUsernameFn(ctx, username)
	}
	panic("unexpected call to MockUserRepo.GetByUsername")
}

// List implements the interface method for testing.
func (m *MockUserRepo) List(ctx context.Context) ([]domain.User, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}
	panic("unexpected call to MockUserRepo.List")
}

var _ domain.UserRepository = (*MockUserRepo)(nil)

// UserDirectory returns a MockUserRepo whose GetByID serves users from a
// fixed map and reports NotFound for everything else.
func UserDirectory(users ...domain.User) *MockUserRepo {
	byID := make(map[string]domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return &MockUserRepo{
		GetByIDFn: func(_ context.Context, id string) (*domain.User, error) {
			u, ok := byID[id]
			if !ok {
				return nil, domain.ErrNotFound("user %s not found", id)
			}
			return &u, nil
		},
	}
}

// === Role Repository Mock ===

// MockRoleRepo implements domain.RoleRepository for testing.
type MockRoleRepo struct {
	UpsertFn             func(ctx context.Context, role domain.Role) error
	AssignToUserFn       func(ctx context.Context, userID, roleName string) error
	PermissionsForUserFn func(ctx context.Context, userID string) ([]domain.Permission, error)
	UserHasPermissionFn  func(ctx context.Context, userID string, perm domain.Permission) (bool, error)
}

// Upsert implements the interface method for testing.
func (m *MockRoleRepo) Upsert(ctx context.Context, role domain.Role) error {
	if m.UpsertFn != nil {
		return m.UpsertFn(ctx, role)
	}
	panic("unexpected call to MockRoleRepo.Upsert")
}

// AssignToUser implements the interface method for testing.
func (m *MockRoleRepo) AssignToUser(ctx context.Context, userID, roleName string) error {
	if m.AssignToUserFn != nil {
		return m.AssignToUserFn(ctx, userID, roleName)
	}
	panic("unexpected call to MockRoleRepo.AssignToUser")
}

// PermissionsForUser implements the interface method for testing.
func (m *MockRoleRepo) PermissionsForUser(ctx context.Context, userID string) ([]domain.Permission, error) {
	if m.PermissionsForUserFn != nil {
		return m.PermissionsForUserFn(ctx, userID)
	}
	panic("unexpected call to MockRoleRepo.PermissionsForUser")
}

// UserHasPermission implements the interface method for testing.
func (m *MockRoleRepo) UserHasPermission(ctx context.Context, userID string, perm domain.Permission) (bool, error) {
	if m.UserHasPermissionFn != nil {
		return m.UserHasPermissionFn(ctx, userID, perm)
	}
	panic("unexpected call to MockRoleRepo.UserHasPermission")
}

var _ domain.RoleRepository = (*MockRoleRepo)(nil)

// === Connection Repository Mock ===

// MockConnectionRepo implements domain.ConnectionRepository for testing.
type MockConnectionRepo struct {
	CreateFn         func(ctx context.Context, c *domain.ConnectionProfile) (*domain.ConnectionProfile, error)
	ListAccessibleFn func(ctx context.Context, userID string) ([]domain.ConnectionProfile, error)
	ListAllFn        func(ctx context.Context) ([]domain.ConnectionProfile, error)
	GetWithSecretFn  func(ctx context.Context, id string) (*domain.ConnectionProfile, error)
	CanAccessFn      func(ctx context.Context, userID, connectionID string) (bool, error)
}

// Create implements the interface method for testing.
func (m *MockConnectionRepo) Create(ctx context.Context, c *domain.ConnectionProfile) (*domain.ConnectionProfile, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, c)
	}
	panic("unexpected call to MockConnectionRepo.Create")
}

// ListAccessible implements the interface method for testing.
func (m *MockConnectionRepo) ListAccessible(ctx context.Context, userID string) ([]domain.ConnectionProfile, error) {
	if m.ListAccessibleFn != nil {
		return m.ListAccessibleFn(ctx, userID)
	}
	panic("unexpected call to MockConnectionRepo.ListAccessible")
}

// ListAll implements the interface method for testing.
func (m *MockConnectionRepo) ListAll(ctx context.Context) ([]domain.ConnectionProfile, error) {
	if m.ListAllFn != nil {
		return m.ListAllFn(ctx)
	}
	panic("unexpected call to MockConnectionRepo.ListAll")
}

// GetWithSecret implements the interface method for testing.
func (m *MockConnectionRepo) GetWithSecret(ctx context.Context, id string) (*domain.ConnectionProfile, error) {
	if m.GetWithSecretFn != nil {
		return m.GetWithSecretFn(ctx, id)
	}
	panic("unexpected call to MockConnectionRepo.GetWithSecret")
}

// CanAccess implements the interface method for testing.
func (m *MockConnectionRepo) CanAccess(ctx context.Context, userID, connectionID string) (bool, error) {
	if m.CanAccessFn != nil {
		return m.CanAccessFn(ctx, userID, connectionID)
	}
	panic("unexpected call to MockConnectionRepo.CanAccess")
}

var _ domain.ConnectionRepository = (*MockConnectionRepo)(nil)

// === Engine Client Mock ===

// MockEngineClient implements domain.EngineClient for testing.
type MockEngineClient struct {
	ExecuteFn       func(ctx context.Context, req domain.EngineRequest) (*domain.EngineResult, error)
	ListProcessesFn func(ctx context.Context) ([]domain.QueryRecord, error)
	QueryLogFn      func(ctx context.Context, filter domain.QueryLogFilter) ([]domain.QueryRecord, error)
	KillQueryFn     func(ctx context.Context, queryID string) (bool, error)
	PingFn          func(ctx context.Context) error

	mu         sync.Mutex
	killCalls  []string
	closeCalls int
}

// Execute implements the interface method for testing.
func (m *MockEngineClient) Execute(ctx context.Context, req domain.EngineRequest) (*domain.EngineResult, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, req)
	}
	panic("unexpected call to MockEngineClient.Execute")
}

// ListProcesses implements the interface method for testing.
func (m *MockEngineClient) ListProcesses(ctx context.Context) ([]domain.QueryRecord, error) {
	if m.ListProcessesFn != nil {
		return m.ListProcessesFn(ctx)
	}
	panic("unexpected call to MockEngineClient.ListProcesses")
}

// QueryLog implements the interface method for testing.
func (m *MockEngineClient) QueryLog(ctx context.Context, filter domain.QueryLogFilter) ([]domain.QueryRecord, error) {
	if m.QueryLogFn != nil {
		return m.QueryLogFn(ctx, filter)
	}
	panic("unexpected call to MockEngineClient.QueryLog")
}

// KillQuery implements the interface method for testing. Calls are recorded.
func (m *MockEngineClient) KillQuery(ctx context.Context, queryID string) (bool, error) {
	m.mu.Lock()
	m.killCalls = append(m.killCalls, queryID)
	m.mu.Unlock()
	if m.KillQueryFn != nil {
		return m.KillQueryFn(ctx, queryID)
	}
	panic("unexpected call to MockEngineClient.KillQuery")
}

// Ping implements the interface method for testing. A nil PingFn succeeds.
func (m *MockEngineClient) Ping(ctx context.Context) error {
	if m.PingFn != nil {
		return m.PingFn(ctx)
	}
	return nil
}

// Close implements the interface method for testing. Calls are counted.
func (m *MockEngineClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeCalls++
	return nil
}

// KillCalls returns the query ids passed to KillQuery.
func (m *MockEngineClient) KillCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.killCalls...)
}

// CloseCalls returns how many times Close was called.
func (m *MockEngineClient) CloseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCalls
}

var _ domain.EngineClient = (*MockEngineClient)(nil)

// === Engine Factory Mock ===

// MockEngineFactory implements domain.EngineFactory for testing.
type MockEngineFactory struct {
	OpenFn func(ctx context.Context, profile domain.ConnectionProfile) (domain.EngineClient, error)
	Opened []domain.ConnectionProfile
}

// Open implements the interface method for testing.
func (m *MockEngineFactory) Open(ctx context.Context, profile domain.ConnectionProfile) (domain.EngineClient, error) {
	m.Opened = append(m.Opened, profile)
	if m.OpenFn != nil {
		return m.OpenFn(ctx, profile)
	}
	panic("unexpected call to MockEngineFactory.Open")
}

var _ domain.EngineFactory = (*MockEngineFactory)(nil)

// === Connection Resolver Mock ===

// MockResolver implements domain.ConnectionResolver for testing.
type MockResolver struct {
	ResolveFn func(ctx context.Context, caller domain.Caller, req domain.ResolveRequest) (*domain.ResolvedClient, error)
}

// Resolve implements the interface method for testing.
func (m *MockResolver) Resolve(ctx context.Context, caller domain.Caller, req domain.ResolveRequest) (*domain.ResolvedClient, error) {
	if m.ResolveFn != nil {
		return m.ResolveFn(ctx, caller, req)
	}
	panic("unexpected call to MockResolver.Resolve")
}

var _ domain.ConnectionResolver = (*MockResolver)(nil)

// ResolverFor returns a MockResolver that always hands out client on
// connection "conn-1".
func ResolverFor(client domain.EngineClient) *MockResolver {
	return &MockResolver{
		ResolveFn: func(context.Context, domain.Caller, domain.ResolveRequest) (*domain.ResolvedClient, error) {
			return domain.NewResolvedClient(client, "conn-1", "", nil), nil
		},
	}
}

// === Permission Checker Mock ===

// MockPermissionChecker implements domain.PermissionChecker for testing.
type MockPermissionChecker struct {
	CheckPermissionFn func(ctx context.Context, userID string, perm domain.Permission) (bool, error)
	LoadCallerFn      func(ctx context.Context, p domain.ContextPrincipal) (domain.Caller, error)
}

// CheckPermission implements the interface method for testing.
func (m *MockPermissionChecker) CheckPermission(ctx context.Context, userID string, perm domain.Permission) (bool, error) {
	if m.CheckPermissionFn != nil {
		return m.CheckPermissionFn(ctx, userID, perm)
	}
	panic("unexpected call to MockPermissionChecker.CheckPermission")
}

// LoadCaller implements the interface method for testing.
func (m *MockPermissionChecker) LoadCaller(ctx context.Context, p domain.ContextPrincipal) (domain.Caller, error) {
	if m.LoadCallerFn != nil {
		return m.LoadCallerFn(ctx, p)
	}
	panic("unexpected call to MockPermissionChecker.LoadCaller")
}

var _ domain.PermissionChecker = (*MockPermissionChecker)(nil)

// StaticPermissions returns a MockPermissionChecker granting perms to every
// principal it loads.
func StaticPermissions(perms ...domain.Permission) *MockPermissionChecker {
	return &MockPermissionChecker{
		LoadCallerFn: func(_ context.Context, p domain.ContextPrincipal) (domain.Caller, error) {
			return domain.Caller{Principal: p, Permissions: domain.NewPermissionSet(p.IsAdmin, perms...)}, nil
		},
	}
}

// Caller builds a Caller for tests.
func Caller(id string, perms ...domain.Permission) domain.Caller {
	return domain.Caller{
		Principal:   domain.ContextPrincipal{ID: id, Username: id},
		Permissions: domain.NewPermissionSet(false, perms...),
	}
}

// AdminCaller builds an administrator Caller for tests.
func AdminCaller(id string) domain.Caller {
	return domain.Caller{
		Principal:   domain.ContextPrincipal{ID: id, Username: id, IsAdmin: true},
		Permissions: domain.NewPermissionSet(true),
	}
}
