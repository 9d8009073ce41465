package query

import "github.com/daun-gatal/chouse-ui-sub004/internal/domain"

func toView(r domain.QueryRecord, users map[string]*domain.User) domain.QueryRecordView {
	v := domain.QueryRecordView{
		QueryID:        r.QueryID,
		Query:          r.Query,
		EngineUser:     r.EngineUser,
		ElapsedSeconds: r.ElapsedSeconds,
		ReadRows:       r.ReadRows,
		ReadBytes:      r.ReadBytes,
		MemoryUsage:    r.MemoryUsage,
		ClientName:     r.ClientName,
		ClientAddress:  r.ClientAddress,
		StartedAt:      r.StartedAt,
		Status:         r.Status,
		Exception:      r.Exception,
	}
	owner := r.OwnerID()
	if owner == "" {
		return v
	}
	v.OwnerID = &owner
	if u, ok := users[owner]; ok {
		name := u.DisplayName
		if name == "" {
			name = u.Username
		}
		v.OwnerDisplayName = &name
		username := u.Username
		v.OwnerUsername = &username
		if u.Email != "" {
			email := u.Email
			v.OwnerEmail = &email
		}
	}
	return v
}
