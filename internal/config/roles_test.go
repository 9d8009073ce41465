package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daun-gatal/chouse-ui-sub004/internal/domain"
)

func TestParseRoles(t *testing.T) {
	roles, err := ParseRoles([]byte(`
roles:
  - name: support
    description: Help desk
    permissions:
      - live_queries:view_all
      - live_queries:kill
  - name: reader
    permissions: [query_history:view]
`))
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, "support", roles[0].Name)
	assert.Equal(t, "Help desk", roles[0].Description)
	assert.Equal(t, []domain.Permission{domain.PermLiveQueriesViewAll, domain.PermLiveQueriesKill}, roles[0].Permissions)
	assert.Equal(t, []domain.Permission{domain.PermHistoryView}, roles[1].Permissions)
}

func TestParseRoles_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		yaml   string
		errMsg string
	}{
		{"empty", "roles: []", "no roles"},
		{"missing_name", "roles:\n  - permissions: [audit:view]", "name is required"},
		{"duplicate", "roles:\n  - name: a\n  - name: a", "defined twice"},
		{"unknown_permission", "roles:\n  - name: a\n    permissions: [tables:drop]", "unknown permission"},
		{"unknown_field", "roles:\n  - name: a\n    perms: [audit:view]", "decode roles"},
		{"not_yaml", "roles: [", "decode roles"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseRoles([]byte(tc.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestLoadRoles(t *testing.T) {
	t.Run("empty_path_uses_defaults", func(t *testing.T) {
		roles, err := LoadRoles("")
		require.NoError(t, err)
		assert.Equal(t, DefaultRoles(), roles)
	})

	t.Run("reads_file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "roles.yaml")
		require.NoError(t, os.WriteFile(path, []byte("roles:\n  - name: a\n    permissions: [audit:view]\n"), 0o600))
		roles, err := LoadRoles(path)
		require.NoError(t, err)
		require.Len(t, roles, 1)
		assert.Equal(t, "a", roles[0].Name)
	})

	t.Run("missing_file", func(t *testing.T) {
		_, err := LoadRoles(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})
}

func TestDefaultRoles_UseKnownPermissions(t *testing.T) {
	for _, r := range DefaultRoles() {
		for _, p := range r.Permissions {
			assert.True(t, domain.IsKnownPermission(p), "%s: %s", r.Name, p)
		}
	}
}
