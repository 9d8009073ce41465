package connection

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/daun-gatal/chouse-ui-sub004/internal/domain"
	"github.com/daun-gatal/chouse-ui-sub004/internal/service/auditutil"
)

// Service manages the connection registry and explicit sessions.
type Service struct {
	conns    domain.ConnectionRepository
	factory  domain.EngineFactory
	sessions *SessionPool
	audit    domain.AuditRepository
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService creates a connection Service.
func NewService(
	conns domain.ConnectionRepository,
	factory domain.EngineFactory,
	sessions *SessionPool,
	audit domain.AuditRepository,
	logger *slog.Logger,
) *Service {
	return &Service{
		conns:    conns,
		factory:  factory,
		sessions: sessions,
		audit:    audit,
		validate: validator.New(),
		logger:   logger.With("component", "connection_service"),
	}
}

// List returns the connections visible to the caller: all of them for
// connections:admin, otherwise owned and granted ones.
func (s *Service) List(ctx context.Context, caller domain.Caller) ([]domain.ConnectionView, error) {
	var (
		profiles []domain.ConnectionProfile
		err      error
	)
	if caller.Permissions.Has(domain.PermConnectionsAdmin) {
		profiles, err = s.conns.ListAll(ctx)
	} else {
		profiles, err = s.conns.ListAccessible(ctx, caller.UserID())
	}
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}

	views := make([]domain.ConnectionView, len(profiles))
	for i, p := range profiles {
		views[i] = p.View()
	}
	return views, nil
}

// Create registers a connection owned by the caller.
func (s *Service) Create(ctx context.Context, caller domain.Caller, req domain.CreateConnectionRequest) (*domain.ConnectionView, error) {
	if !caller.Permissions.Has(domain.PermConnectionsAdmin) {
		return nil, domain.ErrAccessDenied("permission %s required", domain.PermConnectionsAdmin)
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, domain.ErrValidation("invalid connection: %v", err)
	}

	created, err := s.conns.Create(ctx, &domain.ConnectionProfile{
		Name:      req.Name,
		Host:      req.Host,
		Port:      req.Port,
		Database:  req.Database,
		Username:  req.Username,
		Password:  req.Password,
		Secure:    req.Secure,
		OwnerID:   caller.UserID(),
		Grantees:  req.Grantees,
		IsDefault: req.IsDefault,
		IsActive:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("create connection %q: %w", req.Name, err)
	}

	s.record(ctx, caller, domain.AuditActionConnCreate, domain.AuditStatusSuccess,
		map[string]any{domain.DetailConnectionID: created.ID})

	v := created.View()
	return &v, nil
}

// Connect opens a pooled session on connectionID for the caller.
func (s *Service) Connect(ctx context.Context, caller domain.Caller, connectionID string) (*domain.SessionInfo, error) {
	if !caller.Permissions.Has(domain.PermConnectionsAdmin) {
		ok, err := s.conns.CanAccess(ctx, caller.UserID(), connectionID)
		if err != nil {
			return nil, fmt.Errorf("check connection access: %w", err)
		}
		if !ok {
			return nil, domain.ErrNotFound("connection %s not found", connectionID)
		}
	}

	profile, err := s.conns.GetWithSecret(ctx, connectionID)
	if err != nil {
		return nil, fmt.Errorf("load connection %s: %w", connectionID, err)
	}
	if !profile.IsActive {
		return nil, domain.ErrConflict("connection %s is not active", connectionID)
	}

	client, err := s.factory.Open(ctx, *profile)
	profile.Password = ""
	if err != nil {
		s.record(ctx, caller, domain.AuditActionSessionConnect, domain.AuditStatusFailure, map[string]any{
			domain.DetailConnectionID: connectionID,
			domain.DetailError:        err.Error(),
		})
		return nil, &domain.ConnectionUnreachableError{ConnectionID: connectionID, Err: err}
	}

	sess := s.sessions.Open(caller.UserID(), connectionID, client)
	s.record(ctx, caller, domain.AuditActionSessionConnect, domain.AuditStatusSuccess, map[string]any{
		domain.DetailConnectionID: connectionID,
		domain.DetailSessionID:    sess.ID,
	})
	s.logger.Info("session opened", "session_id", sess.ID, "connection_id", connectionID, "user_id", caller.UserID())

	return &domain.SessionInfo{
		SessionID:    sess.ID,
		ConnectionID: sess.ConnectionID,
		CreatedAt:    sess.CreatedAt,
		ExpiresAt:    sess.ExpiresAt,
	}, nil
}

// Disconnect destroys one of the caller's sessions.
func (s *Service) Disconnect(ctx context.Context, caller domain.Caller, sessionID string) error {
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.ErrNotFound("session %s not found", sessionID)
	}
	if sess.OwnerUserID != caller.UserID() {
		return &domain.SessionOwnershipMismatchError{SessionID: sessionID}
	}
	s.sessions.Remove(sessionID)
	s.record(ctx, caller, domain.AuditActionSessionClose, domain.AuditStatusSuccess, map[string]any{
		domain.DetailConnectionID: sess.ConnectionID,
		domain.DetailSessionID:    sessionID,
	})
	return nil
}

func (s *Service) record(ctx context.Context, caller domain.Caller, action, status string, details map[string]any) {
	auditutil.Record(ctx, s.audit, s.logger, auditutil.Event(caller.UserID(), action, status, details))
}
