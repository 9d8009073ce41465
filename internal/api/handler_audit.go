package api

import (
	"net/http"
	"time"

	"github.com/daun-gatal/chouse-ui-sub004/internal/domain"
)

type auditList struct {
	Events []domain.AuditEventView `json:"events"`
	Total  int                     `json:"total"`
}

// ListAuditEvents implements GET /v1/audit.
func (h *Handler) ListAuditEvents(w http.ResponseWriter, r *http.Request) {
	caller, err := h.caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter, err := auditFilterFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	events, err := h.audit.List(r.Context(), caller, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if events == nil {
		events = []domain.AuditEventView{}
	}
	writeJSON(w, http.StatusOK, auditList{Events: events, Total: len(events)})
}

func auditFilterFromQuery(r *http.Request) (domain.AuditFilter, error) {
	q := r.URL.Query()
	var f domain.AuditFilter
	if v := q.Get("action"); v != "" {
		f.Action = &v
	}
	if v := q.Get("user_id"); v != "" {
		f.UserID = &v
	}
	var err error
	if f.Since, err = timeParam(r, "since"); err != nil {
		return f, err
	}
	if f.Until, err = timeParam(r, "until"); err != nil {
		return f, err
	}
	if f.Limit, err = intParam(r, "limit"); err != nil {
		return f, err
	}
	return f, nil
}

func timeParam(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, domain.ErrValidation("%s must be an RFC 3339 timestamp", name)
	}
	return &t, nil
}
