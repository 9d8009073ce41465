package domain

// Permission names a capability granted to users through roles.
type Permission string

// Permission catalogue.
const (
	PermLiveQueriesView    Permission = "live_queries:view"
	PermLiveQueriesViewAll Permission = "live_queries:view_all"
	PermLiveQueriesKill    Permission = "live_queries:kill"
	PermLiveQueriesKillAll Permission = "live_queries:kill_all"
	PermHistoryView        Permission = "query_history:view"
	PermHistoryViewAll     Permission = "query_history:view_all"
	PermQueryExecute       Permission = "query:execute"
	PermConnectionsAdmin   Permission = "connections:admin"
	PermAuditView          Permission = "audit:view"
)

// AllPermissions lists every known permission.
var AllPermissions = []Permission{
	PermLiveQueriesView,
	PermLiveQueriesViewAll,
	PermLiveQueriesKill,
	PermLiveQueriesKillAll,
	PermHistoryView,
	PermHistoryViewAll,
	PermQueryExecute,
	PermConnectionsAdmin,
	PermAuditView,
}

// IsKnownPermission reports whether p is part of the catalogue.
func IsKnownPermission(p Permission) bool {
	for _, known := range AllPermissions {
		if known == p {
			return true
		}
	}
	return false
}

// PermissionSet is the resolved set of permissions held by one caller for
// the duration of one request.
type PermissionSet struct {
	admin bool
	perms map[Permission]struct{}
}

// NewPermissionSet builds a set from explicit permissions. Administrators
// hold every permission regardless of the list.
func NewPermissionSet(admin bool, perms ...Permission) PermissionSet {
	m := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		m[p] = struct{}{}
	}
	return PermissionSet{admin: admin, perms: m}
}

// Has reports whether the set grants p.
func (s PermissionSet) Has(p Permission) bool {
	if s.admin {
		return true
	}
	_, ok := s.perms[p]
	return ok
}

// HasAny reports whether the set grants at least one of ps.
func (s PermissionSet) HasAny(ps ...Permission) bool {
	for _, p := range ps {
		if s.Has(p) {
			return true
		}
	}
	return false
}

// Caller is the per-request authorization context: who is asking and what
// they may do.
type Caller struct {
	Principal   ContextPrincipal
	Permissions PermissionSet
}

// UserID returns the caller's application user id.
func (c Caller) UserID() string { return c.Principal.ID }

// VisibilityPolicy decides which query records a caller may see or act on.
// Holders of any Privileged permission see everything; everyone else sees
// only records whose resolved owner is themselves. An empty owner is never
// visible to a restricted caller.
type VisibilityPolicy struct {
	Privileged []Permission
}

// Unrestricted reports whether the caller bypasses ownership scoping.
func (v VisibilityPolicy) Unrestricted(c Caller) bool {
	return c.Permissions.HasAny(v.Privileged...)
}

// Visible reports whether a record owned by ownerID may be shown to c.
func (v VisibilityPolicy) Visible(c Caller, ownerID string) bool {
	if v.Unrestricted(c) {
		return true
	}
	return ownerID != "" && ownerID == c.UserID()
}

// Policies shared by the live set reader, the termination path, and the
// historical correlator.
var (
	LiveVisibility    = VisibilityPolicy{Privileged: []Permission{PermLiveQueriesViewAll, PermLiveQueriesKillAll}}
	KillAuthority     = VisibilityPolicy{Privileged: []Permission{PermLiveQueriesKillAll}}
	HistoryVisibility = VisibilityPolicy{Privileged: []Permission{PermHistoryViewAll}}
)
