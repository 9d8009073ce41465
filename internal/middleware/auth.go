package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/daun-gatal/chouse-ui-sub004/internal/domain"
	"github.com/daun-gatal/chouse-ui-sub004/internal/metrics"
)

// UserLookup resolves token subjects to application users.
// Implemented by repository.UserRepo.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// Authenticator turns a bearer token into a ContextPrincipal. Tokens must
// name a user already known to the metadata store; no users are created on
// the fly.
type Authenticator struct {
	validator JWTValidator
	users     UserLookup
	logger    *slog.Logger
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(validator JWTValidator, users UserLookup, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{validator: validator, users: users, logger: logger.With("component", "auth")}
}

// Middleware returns the HTTP middleware. Requests without a valid bearer
// token for a known user are rejected with 401.
func (a *Authenticator) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			tokenStr, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || strings.TrimSpace(tokenStr) == "" {
				metrics.AuthFailures.WithLabelValues("missing").Inc()
				writeUnauthorized(w, "unauthorized: provide a valid Bearer token")
				return
			}

			claims, err := a.validator.Validate(r.Context(), strings.TrimSpace(tokenStr))
			if err != nil {
				metrics.AuthFailures.WithLabelValues("invalid").Inc()
				a.logger.Debug("token rejected", "error", err)
				writeUnauthorized(w, "unauthorized: invalid token")
				return
			}

			user, err := a.resolveUser(r.Context(), claims)
			if err != nil {
				var notFound *domain.NotFoundError
				if errors.As(err, &notFound) {
					metrics.AuthFailures.WithLabelValues("unknown_user").Inc()
					writeUnauthorized(w, "unauthorized: unknown user")
					return
				}
				a.logger.Error("user lookup failed", "subject", claims.Subject, "error", err)
				writeJSONError(w, http.StatusInternalServerError, "internal error")
				return
			}

			ctx := domain.WithPrincipal(r.Context(), domain.ContextPrincipal{
				ID:       user.ID,
				Username: user.Username,
				IsAdmin:  user.IsAdmin,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// resolveUser matches the subject against user ids first, then the
// preferred username (or the subject itself) against usernames.
func (a *Authenticator) resolveUser(ctx context.Context, claims *JWTClaims) (*domain.User, error) {
	if claims.Subject == "" && claims.Username == "" {
		return nil, domain.ErrNotFound("token names no subject")
	}
	if claims.Subject != "" {
		u, err := a.users.GetByID(ctx, claims.Subject)
		if err == nil {
			return u, nil
		}
		var notFound *domain.NotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	name := claims.Username
	if name == "" {
		name = claims.Subject
	}
	return a.users.GetByUsername(ctx, name)
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="chouse"`)
	writeJSONError(w, http.StatusUnauthorized, msg)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"code":    status,
		"message": msg,
	})
}
