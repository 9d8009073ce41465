// Package query executes statements on behalf of application users and
// answers who ran what on the engine: the live set, the historical log, and
// termination of running queries.
package query

import (
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/daun-gatal/chouse-ui-sub004/internal/domain"
)

// DefaultAuditLookback is how far before the oldest historical row audit
// events are read for correlation. It must exceed CorrelationWindow plus
// the lag between execution and the audit write.
const DefaultAuditLookback = 5 * time.Minute

const killTimeout = 30 * time.Second

// Service implements query execution, live listing, termination, and
// historical listing. It keeps no state across requests.
type Service struct {
	resolver domain.ConnectionResolver
	audit    domain.AuditRepository
	users    domain.UserDirectory
	validate *validator.Validate
	logger   *slog.Logger

	auditLookback time.Duration
	now           func() time.Time
}

// NewService creates a query Service.
func NewService(
	resolver domain.ConnectionResolver,
	audit domain.AuditRepository,
	users domain.UserDirectory,
	logger *slog.Logger,
) *Service {
	return &Service{
		resolver:      resolver,
		audit:         audit,
		users:         users,
		validate:      validator.New(),
		logger:        logger.With("component", "query_service"),
		auditLookback: DefaultAuditLookback,
		now:           time.Now,
	}
}

// SetAuditLookback overrides DefaultAuditLookback.
func (s *Service) SetAuditLookback(d time.Duration) {
	if d > 0 {
		s.auditLookback = d
	}
}
