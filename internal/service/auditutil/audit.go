// Package auditutil writes audit events on behalf of services whose primary
// result must not depend on the audit store.
package auditutil

import (
	"context"
	"log/slog"
	"time"

	"github.com/daun-gatal/chouse-ui-sub004/internal/domain"
	"github.com/daun-gatal/chouse-ui-sub004/internal/metrics"
)

const writeTimeout = 5 * time.Second

// Record appends e and reports whether it was persisted. A failed write is
// logged and counted; it is never returned to the caller. The write is
// detached from ctx cancellation so a departed client still leaves a trail.
func Record(ctx context.Context, repo domain.AuditRepository, logger *slog.Logger, e *domain.AuditEvent) bool {
	if repo == nil {
		return false
	}
	if logger == nil {
		logger = slog.Default()
	}

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	if err := repo.Append(wctx, e); err != nil {
		metrics.AuditWriteFailures.WithLabelValues(e.Action).Inc()
		logger.Warn("audit write failed",
			"action", e.Action, "actor_id", e.ActorID, "status", e.Status, "error", err)
		return false
	}
	return true
}

// Event builds an AuditEvent for actor with the given details.
func Event(actorID, action, status string, details map[string]any) *domain.AuditEvent {
	return &domain.AuditEvent{
		ActorID: actorID,
		Action:  action,
		Status:  status,
		Details: details,
	}
}
