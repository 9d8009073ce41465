package domain

import "time"

// Audit actions.
const (
	AuditActionQueryExecute   = "query.execute"
	AuditActionLiveQueryKill  = "live_query.kill"
	AuditActionSessionConnect = "session.connect"
	AuditActionSessionClose   = "session.disconnect"
	AuditActionConnCreate     = "connection.create"
)

// Audit outcome statuses.
const (
	AuditStatusSuccess = "SUCCESS"
	AuditStatusFailure = "FAILURE"
	AuditStatusDenied  = "DENIED"
)

// Keys used inside AuditEvent.Details.
const (
	DetailExecutedAt     = "executed_at"
	DetailConnectionID   = "connection_id"
	DetailSQLPrefix      = "sql_prefix"
	DetailQueryID        = "query_id"
	DetailOwnerID        = "owner_id"
	DetailElapsedSeconds = "elapsed_seconds"
	DetailOutcome        = "outcome"
	DetailError          = "error"
	DetailSessionID      = "session_id"
	DetailFormat         = "format"
)

// SQLPrefixLength is the number of runes of SQL text retained in audit
// details.
const SQLPrefixLength = 200

// AuditEvent is one append-only record in the application's audit trail.
// Once written it is never modified.
type AuditEvent struct {
	ID        string
	ActorID   string
	Action    string
	Status    string
	Details   map[string]any
	CreatedAt time.Time
}

// EffectiveTimestamp returns the moment the audited action actually
// happened. An execution timestamp captured in the details wins over the
// write time, which lags execution.
func (e AuditEvent) EffectiveTimestamp() time.Time {
	if e.Details != nil {
		switch v := e.Details[DetailExecutedAt].(type) {
		case string:
			if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
				return t
			}
		case time.Time:
			return v
		case float64:
			return time.UnixMilli(int64(v))
		case int64:
			return time.UnixMilli(v)
		}
	}
	return e.CreatedAt
}

// DetailString returns a string detail or "" when absent.
func (e AuditEvent) DetailString(key string) string {
	if e.Details == nil {
		return ""
	}
	s, _ := e.Details[key].(string)
	return s
}

// AuditFilter selects audit events.
type AuditFilter struct {
	Action *string
	UserID *string
	Since  *time.Time
	Until  *time.Time
	Limit  int
}

// DefaultAuditLimit and MaxAuditLimit bound audit reads.
const (
	DefaultAuditLimit = 100
	MaxAuditLimit     = 10000
)

// EffectiveLimit clamps Limit to [1, MaxAuditLimit].
func (f AuditFilter) EffectiveLimit() int {
	if f.Limit <= 0 {
		return DefaultAuditLimit
	}
	if f.Limit > MaxAuditLimit {
		return MaxAuditLimit
	}
	return f.Limit
}

// TruncateSQL returns at most SQLPrefixLength runes of sql.
func TruncateSQL(sql string) string {
	r := []rune(sql)
	if len(r) <= SQLPrefixLength {
		return sql
	}
	return string(r[:SQLPrefixLength])
}

// AuditEventView is the caller-facing projection of an AuditEvent.
type AuditEventView struct {
	ID        string         `json:"id"`
	ActorID   string         `json:"actor_id"`
	Action    string         `json:"action"`
	Status    string         `json:"status"`
	Details   map[string]any `json:"details"`
	CreatedAt time.Time      `json:"created_at"`
}

// View projects the event for API responses.
func (e AuditEvent) View() AuditEventView {
	details := e.Details
	if details == nil {
		details = map[string]any{}
	}
	return AuditEventView{
		ID:        e.ID,
		ActorID:   e.ActorID,
		Action:    e.Action,
		Status:    e.Status,
		Details:   details,
		CreatedAt: e.CreatedAt,
	}
}
