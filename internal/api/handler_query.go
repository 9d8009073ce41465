package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/daun-gatal/chouse-ui-sub004/internal/domain"
)

// ExecuteQuery implements POST /v1/query.
func (h *Handler) ExecuteQuery(w http.ResponseWriter, r *http.Request) {
	caller, err := h.caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req domain.ExecuteQueryRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	result, err := h.queries.Execute(r.Context(), caller, req, resolveRequest(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListLiveQueries implements GET /v1/queries/live.
func (h *Handler) ListLiveQueries(w http.ResponseWriter, r *http.Request) {
	caller, err := h.caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := h.queries.ListLive(r.Context(), caller, resolveRequest(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// KillQuery implements POST /v1/queries/live/{queryID}/kill.
func (h *Handler) KillQuery(w http.ResponseWriter, r *http.Request) {
	caller, err := h.caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	result, err := h.queries.Kill(r.Context(), caller, chi.URLParam(r, "queryID"), resolveRequest(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListQueryHistory implements GET /v1/queries/history.
func (h *Handler) ListQueryHistory(w http.ResponseWriter, r *http.Request) {
	caller, err := h.caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := intParam(r, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rows, err := h.queries.ListHistory(r.Context(), caller, limit, resolveRequest(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rows == nil {
		rows = []domain.QueryRecordView{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// intParam parses an optional non-negative integer query parameter; absent
// means zero.
func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, domain.ErrValidation("%s must be a non-negative integer", name)
	}
	return n, nil
}
