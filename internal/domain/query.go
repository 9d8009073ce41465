package domain

import "time"

// AppIdentity is the application user a query is attributed to. Only UserID
// travels with the query; the other fields are filled in later from the
// user directory and may stay empty.
type AppIdentity struct {
	UserID      string
	Username    string
	DisplayName string
	Email       string
}

// QueryRecord is one row of the engine's live process view or historical
// query log.
type QueryRecord struct {
	QueryID        string
	EngineUser     string
	Query          string
	ElapsedSeconds float64
	ReadRows       uint64
	ReadBytes      uint64
	MemoryUsage    int64
	ClientName     string
	ClientAddress  string
	// LogComment is the raw identity-bearing comment exactly as the engine
	// echoed it back.
	LogComment string
	StartedAt  time.Time
	// Status and Exception are only populated for historical rows.
	Status    string
	Exception string
	// Identity is the embedded identity parsed from LogComment, or the
	// correlator's attribution for historical rows. Nil means unknown.
	Identity *AppIdentity
}

// OwnerID returns the resolved owner's user id or "" when unknown.
func (r QueryRecord) OwnerID() string {
	if r.Identity == nil {
		return ""
	}
	return r.Identity.UserID
}

// QueryRecordView is the caller-facing projection of a QueryRecord.
type QueryRecordView struct {
	QueryID          string    `json:"query_id"`
	Query            string    `json:"query"`
	EngineUser       string    `json:"engine_user"`
	ElapsedSeconds   float64   `json:"elapsed_seconds"`
	ReadRows         uint64    `json:"read_rows"`
	ReadBytes        uint64    `json:"read_bytes"`
	MemoryUsage      int64     `json:"memory_usage"`
	ClientName       string    `json:"client_name,omitempty"`
	ClientAddress    string    `json:"client_address,omitempty"`
	StartedAt        time.Time `json:"started_at"`
	Status           string    `json:"status,omitempty"`
	Exception        string    `json:"exception,omitempty"`
	OwnerID          *string   `json:"owner_id"`
	OwnerDisplayName *string   `json:"owner_display_name"`
	OwnerUsername    *string   `json:"owner_username,omitempty"`
	OwnerEmail       *string   `json:"owner_email,omitempty"`
	CanKill          *bool     `json:"can_kill,omitempty"`
}

// LiveQueryList is the response of a live set listing. Total counts rows
// after visibility scoping.
type LiveQueryList struct {
	Queries []QueryRecordView `json:"queries"`
	Total   int               `json:"total"`
}

// KillOutcome classifies a termination attempt.
type KillOutcome string

// Kill outcomes.
const (
	KillOutcomeKilled           KillOutcome = "killed"
	KillOutcomeAlreadyCompleted KillOutcome = "already_completed"
	KillOutcomeDenied           KillOutcome = "denied"
	KillOutcomeFailed           KillOutcome = "failed"
)

// KillResult is the response of a termination request.
type KillResult struct {
	Message string      `json:"message"`
	QueryID string      `json:"query_id"`
	Outcome KillOutcome `json:"outcome"`
}

// QueryLogFilter selects historical rows from the engine log.
type QueryLogFilter struct {
	Limit int
	// Since bounds how far back the log is scanned. Zero means no bound.
	Since time.Time
}

// Default and maximum history page sizes.
const (
	DefaultHistoryLimit = 100
	MaxHistoryLimit     = 1000
)

// EffectiveLimit clamps Limit to [1, MaxHistoryLimit].
func (f QueryLogFilter) EffectiveLimit() int {
	if f.Limit <= 0 {
		return DefaultHistoryLimit
	}
	if f.Limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return f.Limit
}

// Result formats supported by query execution.
const (
	FormatJSONCompact = "JSONCompact"
	FormatJSON        = "JSON"
)

// EngineRequest is one outbound statement. Identity, when set, is stamped
// onto the statement so the engine echoes it back in its own views.
type EngineRequest struct {
	SQL      string
	Args     []any
	QueryID  string
	Identity *AppIdentity
}

// EngineColumn describes one result column.
type EngineColumn struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// EngineResult holds a fully materialised result set.
type EngineResult struct {
	QueryID   string
	Columns   []EngineColumn
	Rows      [][]any
	ElapsedMs int64
}

// ExecuteQueryRequest is the caller-facing query execution request.
type ExecuteQueryRequest struct {
	SQL    string `json:"sql" validate:"required,max=1048576"`
	Format string `json:"format" validate:"omitempty,oneof=JSON JSONCompact"`
}

// ExecuteQueryResult is the caller-facing query execution response.
type ExecuteQueryResult struct {
	Columns []EngineColumn `json:"columns"`
	Rows    any            `json:"rows"`
	Meta    ExecuteMeta    `json:"meta"`
}

// ExecuteMeta carries execution statistics.
type ExecuteMeta struct {
	QueryID      string `json:"query_id"`
	RowCount     int    `json:"row_count"`
	ElapsedMs    int64  `json:"elapsed_ms"`
	ConnectionID string `json:"connection_id"`
}
