package api

import (
	"errors"
	"net/http"

	"github.com/daun-gatal/chouse-ui-sub004/internal/domain"
	"github.com/daun-gatal/chouse-ui-sub004/internal/middleware"
)

// httpStatusFromDomainError maps domain errors to HTTP status codes.
func httpStatusFromDomainError(err error) int {
	var notFound *domain.NotFoundError
	var authRequired *domain.AuthenticationRequiredError
	var accessDenied *domain.AccessDeniedError
	var mismatch *domain.SessionOwnershipMismatchError
	var validation *domain.ValidationError
	var queryFailed *domain.QueryFailedError
	var conflict *domain.ConflictError
	var noConn *domain.NoConnectionAvailableError
	var unreachable *domain.ConnectionUnreachableError
	var unavailable *domain.EngineUnavailableError

	switch {
	case errors.As(err, &authRequired):
		return http.StatusUnauthorized
	case errors.As(err, &accessDenied), errors.As(err, &mismatch):
		return http.StatusForbidden
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation), errors.As(err, &queryFailed):
		return http.StatusBadRequest
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &unreachable):
		return http.StatusBadGateway
	case errors.As(err, &noConn), errors.As(err, &unavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// writeError maps err to a status and writes it. Server-side failures are
// logged and their details withheld from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatusFromDomainError(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		middleware.LoggerFromContext(r.Context()).Error("request failed", "error", err)
		msg = "internal error"
	} else if status >= 500 {
		middleware.LoggerFromContext(r.Context()).Warn("engine unavailable", "status", status, "error", err)
	}
	writeJSON(w, status, ErrorBody{Code: status, Message: msg})
}
