package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/daun-gatal/chouse-ui-sub004/internal/domain"
)

type connectionList struct {
	Connections []domain.ConnectionView `json:"connections"`
}

// ListConnections implements GET /v1/connections.
func (h *Handler) ListConnections(w http.ResponseWriter, r *http.Request) {
	caller, err := h.caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	conns, err := h.connections.List(r.Context(), caller)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if conns == nil {
		conns = []domain.ConnectionView{}
	}
	writeJSON(w, http.StatusOK, connectionList{Connections: conns})
}

// CreateConnection implements POST /v1/connections.
func (h *Handler) CreateConnection(w http.ResponseWriter, r *http.Request) {
	caller, err := h.caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req domain.CreateConnectionRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	view, err := h.connections.Create(r.Context(), caller, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// Connect implements POST /v1/connections/{connectionID}/sessions.
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	caller, err := h.caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	info, err := h.connections.Connect(r.Context(), caller, chi.URLParam(r, "connectionID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

// Disconnect implements DELETE /v1/sessions/{sessionID}.
func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	caller, err := h.caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.connections.Disconnect(r.Context(), caller, chi.URLParam(r, "sessionID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
