// Package connection chooses, opens, and pools engine connections.
package connection

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/daun-gatal/chouse-ui-sub004/internal/domain"
)

var _ domain.ConnectionResolver = (*Resolver)(nil)

// Resolver picks the engine client a request runs against.
//
// Resolution order, first match wins:
//  1. A session id naming a live session owned by the caller. A session
//     owned by someone else is an error, never a fallback.
//  2. The caller's accessible connections, or the whole registry for
//     holders of connections:admin.
//  3. Within those, the default-and-active profile, else any active one.
//  4. A fresh client from the decrypted profile, closed on Release.
type Resolver struct {
	conns    domain.ConnectionRepository
	factory  domain.EngineFactory
	sessions *SessionPool
	logger   *slog.Logger
}

// NewResolver creates a Resolver.
func NewResolver(conns domain.ConnectionRepository, factory domain.EngineFactory, sessions *SessionPool, logger *slog.Logger) *Resolver {
	return &Resolver{
		conns:    conns,
		factory:  factory,
		sessions: sessions,
		logger:   logger.With("component", "connection_resolver"),
	}
}

// Resolve returns the client for one request.
func (r *Resolver) Resolve(ctx context.Context, caller domain.Caller, req domain.ResolveRequest) (*domain.ResolvedClient, error) {
	if caller.UserID() == "" {
		return nil, domain.ErrAuthenticationRequired()
	}

	if req.SessionID != "" {
		if s, release, ok := r.sessions.Acquire(req.SessionID); ok {
			if s.OwnerUserID != caller.UserID() {
				release()
				return nil, &domain.SessionOwnershipMismatchError{SessionID: req.SessionID}
			}
			return domain.NewResolvedClient(s.Client, s.ConnectionID, s.ID, release), nil
		}
		r.logger.Debug("session not live, using default connection",
			"session_id", req.SessionID, "user_id", caller.UserID())
	}

	candidates, err := r.candidates(ctx, caller)
	if err != nil {
		return nil, err
	}
	chosen, ok := pickConnection(candidates)
	if !ok {
		return nil, domain.ErrNoConnectionAvailable("no active connection available for user %s", caller.UserID())
	}

	profile, err := r.conns.GetWithSecret(ctx, chosen.ID)
	if err != nil {
		return nil, fmt.Errorf("load connection %s: %w", chosen.ID, err)
	}
	client, err := r.factory.Open(ctx, *profile)
	profile.Password = ""
	if err != nil {
		r.logger.Warn("connection unreachable", "connection_id", chosen.ID, "error", err)
		return nil, &domain.ConnectionUnreachableError{ConnectionID: chosen.ID, Err: err}
	}

	connID := chosen.ID
	return domain.NewResolvedClient(client, connID, "", func() {
		if err := client.Close(); err != nil {
			r.logger.Warn("close per-request client", "connection_id", connID, "error", err)
		}
	}), nil
}

func (r *Resolver) candidates(ctx context.Context, caller domain.Caller) ([]domain.ConnectionProfile, error) {
	if caller.Permissions.Has(domain.PermConnectionsAdmin) {
		all, err := r.conns.ListAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("list connections: %w", err)
		}
		return all, nil
	}
	mine, err := r.conns.ListAccessible(ctx, caller.UserID())
	if err != nil {
		return nil, fmt.Errorf("list accessible connections: %w", err)
	}
	return mine, nil
}

// pickConnection prefers the default-and-active profile, else the first
// active one.
func pickConnection(candidates []domain.ConnectionProfile) (domain.ConnectionProfile, bool) {
	for _, c := range candidates {
		if c.IsDefault && c.IsActive {
			return c, true
		}
	}
	for _, c := range candidates {
		if c.IsActive {
			return c, true
		}
	}
	return domain.ConnectionProfile{}, false
}
