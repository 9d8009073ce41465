package domain

import "context"

// EngineClient is a connection to one analytics engine instance.
// Implemented by engine.Client.
type EngineClient interface {
	// Execute runs a statement and materialises its result. The request's
	// Identity is stamped onto the statement, not sent separately.
	Execute(ctx context.Context, req EngineRequest) (*EngineResult, error)
	// ListProcesses returns the live process view, excluding the listing
	// itself and in-flight termination commands, longest-running first.
	ListProcesses(ctx context.Context) ([]QueryRecord, error)
	// QueryLog returns completed and failed executions, newest first.
	QueryLog(ctx context.Context, filter QueryLogFilter) ([]QueryRecord, error)
	// KillQuery terminates a running query. found is false when no running
	// query matched, i.e. it already completed.
	KillQuery(ctx context.Context, queryID string) (found bool, err error)
	Ping(ctx context.Context) error
	Close() error
}

// EngineFactory constructs engine clients from decrypted connection profiles.
// Implemented by engine.Factory.
type EngineFactory interface {
	Open(ctx context.Context, profile ConnectionProfile) (EngineClient, error)
}

// ConnectionResolver picks the engine client a request should use.
// Implemented by connection.Resolver.
type ConnectionResolver interface {
	Resolve(ctx context.Context, caller Caller, req ResolveRequest) (*ResolvedClient, error)
}

// PermissionChecker answers permission questions about users.
// Implemented by security.PermissionService.
type PermissionChecker interface {
	CheckPermission(ctx context.Context, userID string, perm Permission) (bool, error)
	LoadCaller(ctx context.Context, p ContextPrincipal) (Caller, error)
}

// UserDirectory resolves user ids to display attributes.
// Implemented by repository.UserRepo.
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (*User, error)
}
