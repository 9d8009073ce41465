// Package api provides the HTTP surface of the query administration service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/daun-gatal/chouse-ui-sub004/internal/domain"
	"github.com/daun-gatal/chouse-ui-sub004/internal/service/security"
)

// SessionHeader selects an explicitly opened engine session.
const SessionHeader = "X-Session-ID"

const maxBodyBytes = 2 << 20

// QueryService is implemented by query.Service.
type QueryService interface {
	Execute(ctx context.Context, caller domain.Caller, req domain.ExecuteQueryRequest, resolve domain.ResolveRequest) (*domain.ExecuteQueryResult, error)
	ListLive(ctx context.Context, caller domain.Caller, resolve domain.ResolveRequest) (*domain.LiveQueryList, error)
	Kill(ctx context.Context, caller domain.Caller, queryID string, resolve domain.ResolveRequest) (*domain.KillResult, error)
	ListHistory(ctx context.Context, caller domain.Caller, limit int, resolve domain.ResolveRequest) ([]domain.QueryRecordView, error)
}

// ConnectionService is implemented by connection.Service.
type ConnectionService interface {
	List(ctx context.Context, caller domain.Caller) ([]domain.ConnectionView, error)
	Create(ctx context.Context, caller domain.Caller, req domain.CreateConnectionRequest) (*domain.ConnectionView, error)
	Connect(ctx context.Context, caller domain.Caller, connectionID string) (*domain.SessionInfo, error)
	Disconnect(ctx context.Context, caller domain.Caller, sessionID string) error
}

// AuditService is implemented by governance.AuditService.
type AuditService interface {
	List(ctx context.Context, caller domain.Caller, filter domain.AuditFilter) ([]domain.AuditEventView, error)
}

// Handler serves the /v1 routes.
type Handler struct {
	queries     QueryService
	connections ConnectionService
	audit       AuditService
	permissions domain.PermissionChecker
	validate    *validator.Validate
}

// NewHandler creates a Handler.
func NewHandler(queries QueryService, connections ConnectionService, audit AuditService, permissions domain.PermissionChecker) *Handler {
	return &Handler{
		queries:     queries,
		connections: connections,
		audit:       audit,
		permissions: permissions,
		validate:    validator.New(),
	}
}

// caller loads the authorization context for the authenticated principal.
func (h *Handler) caller(r *http.Request) (domain.Caller, error) {
	return security.CallerFromContext(r.Context(), h.permissions)
}

func resolveRequest(r *http.Request) domain.ResolveRequest {
	return domain.ResolveRequest{SessionID: r.Header.Get(SessionHeader)}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a single JSON object into dst and validates it.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.ErrValidation("request body is required")
		}
		return domain.ErrValidation("invalid request body: %v", err)
	}
	if dec.More() {
		return domain.ErrValidation("request body must contain a single JSON object")
	}
	if err := h.validate.Struct(dst); err != nil {
		return domain.ErrValidation("%s", validationMessage(err))
	}
	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	f := verrs[0]
	return fmt.Sprintf("field %s failed %s validation", f.Field(), f.Tag())
}
