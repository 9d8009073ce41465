package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/daun-gatal/chouse-ui-sub004/internal/domain"
)

type roleFile struct {
	Roles []roleEntry `yaml:"roles"`
}

type roleEntry struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Permissions []string `yaml:"permissions"`
}

// DefaultRoles is used when no role file is configured.
func DefaultRoles() []domain.Role {
	return []domain.Role{
		{
			Name:        "analyst",
			Description: "Runs queries and manages their own live and historical queries",
			Permissions: []domain.Permission{
				domain.PermQueryExecute,
				domain.PermLiveQueriesView,
				domain.PermLiveQueriesKill,
				domain.PermHistoryView,
			},
		},
		{
			Name:        "operator",
			Description: "Sees and terminates every user's queries",
			Permissions: []domain.Permission{
				domain.PermQueryExecute,
				domain.PermLiveQueriesView,
				domain.PermLiveQueriesViewAll,
				domain.PermLiveQueriesKill,
				domain.PermLiveQueriesKillAll,
				domain.PermHistoryView,
				domain.PermHistoryViewAll,
			},
		},
		{
			Name:        "auditor",
			Description: "Reads the audit trail and all query history",
			Permissions: []domain.Permission{
				domain.PermAuditView,
				domain.PermHistoryView,
				domain.PermHistoryViewAll,
			},
		},
	}
}

// LoadRoles reads role definitions from a YAML file. An empty path yields
// DefaultRoles.
func LoadRoles(path string) ([]domain.Role, error) {
	if path == "" {
		return DefaultRoles(), nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // path is operator-controlled
	if err != nil {
		return nil, fmt.Errorf("read roles file: %w", err)
	}
	roles, err := ParseRoles(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return roles, nil
}

// ParseRoles decodes and validates YAML role definitions. Unknown fields,
// duplicate names, and unknown permissions are rejected.
func ParseRoles(data []byte) ([]domain.Role, error) {
	var f roleFile
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode roles: %w", err)
	}
	if len(f.Roles) == 0 {
		return nil, fmt.Errorf("no roles defined")
	}

	seen := make(map[string]struct{}, len(f.Roles))
	roles := make([]domain.Role, 0, len(f.Roles))
	for i, e := range f.Roles {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return nil, fmt.Errorf("role %d: name is required", i)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("role %q defined twice", name)
		}
		seen[name] = struct{}{}

		perms := make([]domain.Permission, 0, len(e.Permissions))
		for _, p := range e.Permissions {
			perm := domain.Permission(strings.TrimSpace(p))
			if !domain.IsKnownPermission(perm) {
				return nil, fmt.Errorf("role %q: unknown permission %q", name, p)
			}
			perms = append(perms, perm)
		}
		roles = append(roles, domain.Role{Name: name, Description: e.Description, Permissions: perms})
	}
	return roles, nil
}
