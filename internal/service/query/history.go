package query

import (
	"context"
	"time"

	"github.com/daun-gatal/chouse-ui-sub004/internal/domain"
	"github.com/daun-gatal/chouse-ui-sub004/internal/metrics"
)

// ListHistory returns finished executions from the engine log, newest
// first, each attributed to an owner where possible. Embedded identity is
// authoritative; rows without one are correlated against the audit trail.
// Restricted callers see only rows attributed to themselves. If the audit
// trail cannot be read, privileged callers get unattributed rows and
// restricted callers get nothing.
func (s *Service) ListHistory(ctx context.Context, caller domain.Caller, limit int, resolve domain.ResolveRequest) ([]domain.QueryRecordView, error) {
	if caller.UserID() == "" {
		return nil, domain.ErrAuthenticationRequired()
	}
	if !caller.Permissions.HasAny(domain.PermHistoryView, domain.PermHistoryViewAll) {
		return nil, domain.ErrAccessDenied("permission %s required", domain.PermHistoryView)
	}

	rc, err := s.resolver.Resolve(ctx, caller, resolve)
	if err != nil {
		return nil, err
	}
	defer rc.Release()

	start := time.Now()
	rows, err := rc.Client.QueryLog(ctx, domain.QueryLogFilter{Limit: limit})
	metrics.ObserveEngineCall("query_log", start)
	if err != nil {
		return nil, asEngineUnavailable("query_log", err)
	}
	attachEmbeddedIdentity(rows, s.logger)

	unrestricted := domain.HistoryVisibility.Unrestricted(caller)
	if needsCorrelation(rows) {
		idx, err := s.auditIndex(ctx, rows, rc.ConnectionID)
		if err != nil {
			s.logger.Warn("audit trail unavailable for history correlation",
				"user_id", caller.UserID(), "error", err)
			if !unrestricted {
				metrics.QueryListings.WithLabelValues("history", metrics.ScopeOwn).Inc()
				return []domain.QueryRecordView{}, nil
			}
		}
		attribute(rows, idx)
	} else {
		attribute(rows, nil)
	}

	visible := rows[:0]
	for _, r := range rows {
		if domain.HistoryVisibility.Visible(caller, r.OwnerID()) {
			visible = append(visible, r)
		}
	}
	metrics.QueryListings.WithLabelValues("history", scopeLabel(domain.HistoryVisibility, caller)).Inc()

	users := resolveUsers(ctx, s.users, visible, s.logger)
	views := make([]domain.QueryRecordView, len(visible))
	for i, r := range visible {
		views[i] = toView(r, users)
	}
	return views, nil
}

func needsCorrelation(rows []domain.QueryRecord) bool {
	for _, r := range rows {
		if r.Identity == nil {
			return true
		}
	}
	return false
}

// auditIndex reads query.execute events for every actor over the span of
// the rows, widened by the lookback. Filtering by the caller here would let
// the caller's events win buckets that belong to someone else.
func (s *Service) auditIndex(ctx context.Context, rows []domain.QueryRecord, connectionID string) (*AuditIndex, error) {
	var oldest, newest time.Time
	for _, r := range rows {
		if r.StartedAt.IsZero() {
			continue
		}
		if oldest.IsZero() || r.StartedAt.Before(oldest) {
			oldest = r.StartedAt
		}
		if newest.IsZero() || r.StartedAt.After(newest) {
			newest = r.StartedAt
		}
	}
	if oldest.IsZero() {
		oldest, newest = s.now(), s.now()
	}
	since := oldest.Add(-s.auditLookback)
	until := newest.Add(s.auditLookback)
	action := domain.AuditActionQueryExecute

	events, err := s.audit.Query(ctx, domain.AuditFilter{
		Action: &action,
		Since:  &since,
		Until:  &until,
		Limit:  domain.MaxAuditLimit,
	})
	if err != nil {
		return nil, err
	}
	return BuildAuditIndex(events, connectionID), nil
}

// attribute fills in owners from idx and counts attribution sources. A nil
// idx correlates nothing.
func attribute(rows []domain.QueryRecord, idx *AuditIndex) {
	for i := range rows {
		id, src := idx.Correlate(rows[i])
		rows[i].Identity = id
		switch src {
		case Embedded:
			metrics.Attributions.WithLabelValues(metrics.SourceEmbedded).Inc()
		case Correlated:
			metrics.Attributions.WithLabelValues(metrics.SourceCorrelated).Inc()
		default:
			metrics.Attributions.WithLabelValues(metrics.SourceUnattributed).Inc()
		}
	}
}
