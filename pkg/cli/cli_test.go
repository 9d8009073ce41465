package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daun-gatal/chouse-ui-sub004/internal/middleware"
)

const cliSecret = "cli-test-secret"

// setupEnv points the CLI at a fresh metadata store and isolates it from
// any .env in the working directory.
func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("META_DB_PATH", filepath.Join(t.TempDir(), "meta.sqlite"))
	t.Setenv("JWT_SECRET", cliSecret)
	t.Setenv("LOG_LEVEL", "error")
	for _, k := range []string{"AUTH_ISSUER_URL", "AUTH_AUDIENCE", "ROLES_FILE", "ENV", "CHOUSE_OUTPUT", "ENCRYPTION_KEY"} {
		t.Setenv(k, "")
	}
}

// runCLI executes the root command with args and returns stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--env-file", ""}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion_JSON(t *testing.T) {
	out, err := runCLI(t, "-o", "json", "version")
	require.NoError(t, err)

	var v map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "dev", v["version"])
}

func TestInvalidOutputFormat(t *testing.T) {
	_, err := runCLI(t, "-o", "yaml", "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestMigrate(t *testing.T) {
	setupEnv(t)
	out, err := runCLI(t, "-o", "json", "migrate")
	require.NoError(t, err)

	var v struct {
		Version int64 `json:"version"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Positive(t, v.Version)
}

func TestUserCreateGrantAndToken(t *testing.T) {
	setupEnv(t)

	out, err := runCLI(t, "-o", "json", "user", "create",
		"--username", "ann", "--email", "ann@example.com", "--display-name", "Ann Analyst")
	require.NoError(t, err)
	var u userOutput
	require.NoError(t, json.Unmarshal([]byte(out), &u))
	require.NotEmpty(t, u.ID)
	assert.Equal(t, "ann", u.Username)
	assert.False(t, u.IsAdmin)

	out, err = runCLI(t, "user", "grant-role", "--user", "ann", "--role", "analyst")
	require.NoError(t, err)
	assert.Contains(t, out, "granted role analyst to ann")

	out, err = runCLI(t, "token", "issue", "--user", "ann", "--ttl", "10m")
	require.NoError(t, err)

	v, err := middleware.NewHS256Validator(cliSecret, "")
	require.NoError(t, err)
	claims, err := v.Validate(t.Context(), strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.Subject)
	assert.Equal(t, "ann", claims.Username)
}

func TestUserCreate_TableOutput(t *testing.T) {
	setupEnv(t)
	out, err := runCLI(t, "user", "create", "--username", "root", "--admin")
	require.NoError(t, err)
	assert.Contains(t, out, "USERNAME")
	assert.Contains(t, out, "root")
	assert.Contains(t, out, "true")
}

func TestUserCreate_Duplicate(t *testing.T) {
	setupEnv(t)
	_, err := runCLI(t, "user", "create", "--username", "ann")
	require.NoError(t, err)
	_, err = runCLI(t, "user", "create", "--username", "ann")
	require.Error(t, err)
}

func TestUserCreate_RequiresUsername(t *testing.T) {
	setupEnv(t)
	_, err := runCLI(t, "user", "create")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "username")
}

func TestGrantRole_UnknownUser(t *testing.T) {
	setupEnv(t)
	_, err := runCLI(t, "user", "grant-role", "--user", "ghost", "--role", "analyst")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestTokenIssue_UnknownUser(t *testing.T) {
	setupEnv(t)
	_, err := runCLI(t, "token", "issue", "--user", "ghost")
	require.Error(t, err)
}

func TestTokenIssue_RefusedWithOIDC(t *testing.T) {
	setupEnv(t)
	_, err := runCLI(t, "user", "create", "--username", "ann")
	require.NoError(t, err)

	t.Setenv("AUTH_ISSUER_URL", "https://idp.example.com")
	t.Setenv("AUTH_AUDIENCE", "chouse")
	_, err = runCLI(t, "token", "issue", "--user", "ann")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OIDC")
}
