// Package governance implements the audit trail listing.
package governance

import (
	"context"
	"log/slog"

	"github.com/daun-gatal/chouse-ui-sub004/internal/domain"
)

// AuditService provides audit trail reads.
type AuditService struct {
	repo   domain.AuditRepository
	logger *slog.Logger
}

// NewAuditService creates a new AuditService.
func NewAuditService(repo domain.AuditRepository, logger *slog.Logger) *AuditService {
	return &AuditService{repo: repo, logger: logger.With("component", "audit_service")}
}

// List returns audit events matching filter, newest first. Requires
// audit:view.
func (s *AuditService) List(ctx context.Context, caller domain.Caller, filter domain.AuditFilter) ([]domain.AuditEventView, error) {
	if caller.UserID() == "" {
		return nil, domain.ErrAuthenticationRequired()
	}
	if !caller.Permissions.Has(domain.PermAuditView) {
		return nil, domain.ErrAccessDenied("permission %s required", domain.PermAuditView)
	}
	if filter.Since != nil && filter.Until != nil && filter.Until.Before(*filter.Since) {
		return nil, domain.ErrValidation("until must not be before since")
	}

	events, err := s.repo.Query(ctx, filter)
	if err != nil {
		return nil, err
	}
	views := make([]domain.AuditEventView, len(events))
	for i, e := range events {
		views[i] = e.View()
	}
	s.logger.Debug("audit listed", "user_id", caller.UserID(), "count", len(views))
	return views, nil
}
