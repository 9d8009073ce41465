package domain

import "time"

// ConnectionProfile is a stored engine connection. Password is only
// populated by GetWithSecret and must not outlive the request that asked
// for it.
type ConnectionProfile struct {
	ID        string
	Name      string
	Host      string
	Port      int
	Database  string
	Username  string
	Password  string
	Secure    bool
	OwnerID   string
	Grantees  []string
	IsDefault bool
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Redacted returns a copy without the plaintext secret.
func (c ConnectionProfile) Redacted() ConnectionProfile {
	c.Password = ""
	return c
}

// CreateConnectionRequest holds parameters for registering a connection.
type CreateConnectionRequest struct {
	Name      string   `json:"name" validate:"required,max=128"`
	Host      string   `json:"host" validate:"required,hostname_rfc1123|ip"`
	Port      int      `json:"port" validate:"required,min=1,max=65535"`
	Database  string   `json:"database" validate:"max=128"`
	Username  string   `json:"username" validate:"required,max=128"`
	Password  string   `json:"password" validate:"max=1024"`
	Secure    bool     `json:"secure"`
	IsDefault bool     `json:"is_default"`
	Grantees  []string `json:"grantees" validate:"dive,required"`
}

// ActiveSession is an explicitly opened, pooled engine client owned by one
// user. Sessions expire and are closed when evicted.
type ActiveSession struct {
	ID           string
	OwnerUserID  string
	ConnectionID string
	Client       EngineClient
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// ResolveRequest identifies which engine client a request should use.
type ResolveRequest struct {
	SessionID string
}

// ResolvedClient is the engine client chosen for one request. Release must
// be called when the request is done: it closes per-request clients and is
// a no-op for pooled session clients.
type ResolvedClient struct {
	Client       EngineClient
	ConnectionID string
	SessionID    string
	release      func()
}

// NewResolvedClient builds a ResolvedClient; release may be nil.
func NewResolvedClient(client EngineClient, connectionID, sessionID string, release func()) *ResolvedClient {
	return &ResolvedClient{Client: client, ConnectionID: connectionID, SessionID: sessionID, release: release}
}

// Pooled reports whether the client belongs to an explicit session.
func (r *ResolvedClient) Pooled() bool { return r.SessionID != "" }

// Release frees per-request resources.
func (r *ResolvedClient) Release() {
	if r != nil && r.release != nil {
		r.release()
		r.release = nil
	}
}

// SessionInfo is the caller-facing description of an ActiveSession.
type SessionInfo struct {
	SessionID    string    `json:"session_id"`
	ConnectionID string    `json:"connection_id"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// ConnectionView is the caller-facing projection of a ConnectionProfile.
// Secrets never appear in it.
type ConnectionView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Host      string    `json:"host"`
	Port      int       `json:"port"`
	Database  string    `json:"database"`
	Username  string    `json:"username"`
	Secure    bool      `json:"secure"`
	OwnerID   string    `json:"owner_id"`
	Grantees  []string  `json:"grantees"`
	IsDefault bool      `json:"is_default"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// View projects the profile for API responses.
func (c ConnectionProfile) View() ConnectionView {
	grantees := c.Grantees
	if grantees == nil {
		grantees = []string{}
	}
	return ConnectionView{
		ID:        c.ID,
		Name:      c.Name,
		Host:      c.Host,
		Port:      c.Port,
		Database:  c.Database,
		Username:  c.Username,
		Secure:    c.Secure,
		OwnerID:   c.OwnerID,
		Grantees:  grantees,
		IsDefault: c.IsDefault,
		IsActive:  c.IsActive,
		CreatedAt: c.CreatedAt,
	}
}
