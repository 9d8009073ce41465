package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeIdentity(t *testing.T) {
	assert.Equal(t, `{"app_user_id":"u-1"}`, EncodeIdentity("u-1"))
	assert.Empty(t, EncodeIdentity(""))
}

func TestIdentity_RoundTrip(t *testing.T) {
	for _, id := range []string{"u-1", "0192f7c4-7a7e-7b1a-9f00-1c2d3e4f5a6b", `quote"and\slash`} {
		got, err := ParseIdentity(EncodeIdentity(id))
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, id, got.UserID)
	}
}

func TestParseIdentity(t *testing.T) {
	tests := []struct {
		name      string
		comment   string
		wantID    string
		wantError bool
	}{
		{"absent", "", "", false},
		{"whitespace", "   ", "", false},
		{"valid", `{"app_user_id":"u-7"}`, "u-7", false},
		{"extra_fields", `{"app_user_id":"u-7","source":"ui"}`, "u-7", false},
		{"not_json", "hand written comment", "", true},
		{"empty_id", `{"app_user_id":""}`, "", true},
		{"missing_id", `{"user":"u-7"}`, "", true},
		{"wrong_type", `{"app_user_id":42}`, "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseIdentity(tc.comment)
			if tc.wantError {
				require.ErrorIs(t, err, ErrMalformedIdentity)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			if tc.wantID == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tc.wantID, got.UserID)
		})
	}
}

func TestNewIntrospectionID(t *testing.T) {
	a, b := newIntrospectionID(), newIntrospectionID()
	assert.True(t, strings.HasPrefix(a, introspectionPrefix))
	assert.NotEqual(t, a, b)
}

func TestOverridesIdentity(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want bool
	}{
		{"plain_select", "SELECT 1", false},
		{"other_settings", "SELECT 1 SETTINGS max_threads = 2", false},
		{"reads_log_comment_column", "SELECT log_comment FROM system.query_log WHERE log_comment = 'x'", false},
		{"reads_settings_map", "SELECT Settings['log_comment'] FROM system.processes", false},
		{"settings_clause", `SELECT 1 SETTINGS log_comment='{"app_user_id":"U2"}'`, true},
		{"lower_case", `select 1 settings log_comment = 'x'`, true},
		{"after_other_setting", "SELECT 1 SETTINGS max_threads=1,log_comment='x'", true},
		{"quoted_name", "SELECT 1 SETTINGS `log_comment` = 'x'", true},
		{"inline_comment", "SELECT 1 SETTINGS log_comment/* hi */='x'", true},
		{"multiline", "SELECT 1\nSETTINGS\n  LOG_COMMENT\n  = 'x'", true},
		{"set_statement", "SET log_comment = 'x'", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, OverridesIdentity(tc.sql))
		})
	}
}
