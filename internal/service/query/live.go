package query

import (
	"context"
	"errors"
	"time"

	"github.com/daun-gatal/chouse-ui-sub004/internal/domain"
	"github.com/daun-gatal/chouse-ui-sub004/internal/metrics"
)

// ListLive returns the running queries the caller may see. Restricted
// callers see only rows whose embedded identity is their own; rows with no
// identity are never shown to them. Total counts rows after scoping.
func (s *Service) ListLive(ctx context.Context, caller domain.Caller, resolve domain.ResolveRequest) (*domain.LiveQueryList, error) {
	if caller.UserID() == "" {
		return nil, domain.ErrAuthenticationRequired()
	}
	if !caller.Permissions.HasAny(domain.PermLiveQueriesView, domain.PermLiveQueriesViewAll, domain.PermLiveQueriesKillAll) {
		return nil, domain.ErrAccessDenied("permission %s required", domain.PermLiveQueriesView)
	}

	rc, err := s.resolver.Resolve(ctx, caller, resolve)
	if err != nil {
		return nil, err
	}
	defer rc.Release()

	procs, err := s.listProcesses(ctx, rc.Client)
	if err != nil {
		return nil, err
	}
	attachEmbeddedIdentity(procs, s.logger)

	visible := procs[:0]
	for _, p := range procs {
		if domain.LiveVisibility.Visible(caller, p.OwnerID()) {
			visible = append(visible, p)
		}
	}
	metrics.QueryListings.WithLabelValues("live", scopeLabel(domain.LiveVisibility, caller)).Inc()

	users := resolveUsers(ctx, s.users, visible, s.logger)
	views := make([]domain.QueryRecordView, len(visible))
	for i, p := range visible {
		views[i] = toView(p, users)
		canKill := mayKill(caller, p.OwnerID())
		views[i].CanKill = &canKill
	}
	return &domain.LiveQueryList{Queries: views, Total: len(views)}, nil
}

func (s *Service) listProcesses(ctx context.Context, client domain.EngineClient) ([]domain.QueryRecord, error) {
	start := time.Now()
	procs, err := client.ListProcesses(ctx)
	metrics.ObserveEngineCall("list_processes", start)
	if err != nil {
		return nil, asEngineUnavailable("list_processes", err)
	}
	return procs, nil
}

// mayKill reports whether the caller may terminate a query owned by owner.
func mayKill(caller domain.Caller, owner string) bool {
	if !caller.Permissions.HasAny(domain.PermLiveQueriesKill, domain.PermLiveQueriesKillAll) {
		return false
	}
	return domain.KillAuthority.Visible(caller, owner)
}

func scopeLabel(policy domain.VisibilityPolicy, caller domain.Caller) string {
	if policy.Unrestricted(caller) {
		return metrics.ScopeAll
	}
	return metrics.ScopeOwn
}

func asEngineUnavailable(op string, err error) error {
	var unavailable *domain.EngineUnavailableError
	if errors.As(err, &unavailable) {
		return err
	}
	return domain.ErrEngineUnavailable(op, err)
}
