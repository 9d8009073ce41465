// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	insecureEncryptionKey = "0000000000000000000000000000000000000000000000000000000000000000"
	devJWTSecret          = "dev-secret-change-in-production"
)

// AuthConfig holds bearer token validation settings.
type AuthConfig struct {
	IssuerURL string // OIDC issuer URL; enables discovery-based validation
	Audience  string // required aud claim
	JWTSecret string // HS256 shared secret for local/dev tokens
}

// OIDCEnabled returns true when an external identity provider is configured.
func (a *AuthConfig) OIDCEnabled() bool {
	return a.IssuerURL != ""
}

// Validate checks that the auth configuration is internally consistent.
func (a *AuthConfig) Validate() error {
	if a.IssuerURL == "" && a.JWTSecret == "" {
		return fmt.Errorf("one of AUTH_ISSUER_URL or JWT_SECRET must be set")
	}
	if a.IssuerURL != "" && a.Audience == "" {
		return fmt.Errorf("AUTH_AUDIENCE is required when AUTH_ISSUER_URL is set")
	}
	return nil
}

// SessionConfig bounds the pool of explicitly opened engine sessions.
type SessionConfig struct {
	TTL time.Duration // idle lifetime of a session (default 30m)
	Max int           // pool capacity; least recently used sessions are closed first (default 256)
}

// EngineConfig tunes engine clients.
type EngineConfig struct {
	DialTimeout      time.Duration // connect and ping timeout (default 10s)
	MaxExecutionTime time.Duration // per-statement server-side limit; 0 leaves the server default
	MaxOpenConns     int           // per-client pool size (default 4)
}

// Config holds the service configuration.
type Config struct {
	MetaDBPath        string // path to SQLite metadata file
	MetaDBReadConns   int    // read pool size (default 4)
	ListenAddr        string // HTTP listen address (default ":8080")
	TLSCertFile       string // TLS certificate file path (optional)
	TLSKeyFile        string // TLS private key file path (optional)
	AllowInsecureHTTP bool   // allow non-TLS listener in production (for trusted TLS termination)
	EncryptionKey     string // 64-char hex string (32-byte AES key) for encrypting stored credentials
	LogLevel          string // log level: debug, info, warn, error (default "info")
	Env               string // environment: "development" (default) or "production"
	RolesFile         string // YAML role definitions synchronised at startup (optional)

	// HistoryAuditLookback widens the audit read around historical rows
	// when attributing them (default 5m).
	HistoryAuditLookback time.Duration

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 100)
	RateLimitBurst int     // burst capacity (default 200)

	// CORS
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])

	Auth    AuthConfig
	Session SessionConfig
	Engine  EngineConfig

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// NewLogger builds the process logger: JSON in production, text otherwise.
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if c.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		MetaDBPath:    os.Getenv("META_DB_PATH"),
		ListenAddr:    os.Getenv("LISTEN_ADDR"),
		TLSCertFile:   os.Getenv("TLS_CERT_FILE"),
		TLSKeyFile:    os.Getenv("TLS_KEY_FILE"),
		EncryptionKey: os.Getenv("ENCRYPTION_KEY"),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		Env:           os.Getenv("ENV"),
		RolesFile:     os.Getenv("ROLES_FILE"),
		Auth: AuthConfig{
			IssuerURL: os.Getenv("AUTH_ISSUER_URL"),
			Audience:  os.Getenv("AUTH_AUDIENCE"),
			JWTSecret: os.Getenv("JWT_SECRET"),
		},
	}

	var err error
	if cfg.RateLimitRPS, err = floatEnv("RATE_LIMIT_RPS", 100); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = intEnv("RATE_LIMIT_BURST", 200); err != nil {
		return nil, err
	}
	if cfg.MetaDBReadConns, err = intEnv("META_DB_READ_CONNS", 4); err != nil {
		return nil, err
	}
	if cfg.Session.TTL, err = durationEnv("SESSION_TTL", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Session.Max, err = intEnv("SESSION_MAX", 256); err != nil {
		return nil, err
	}
	if cfg.Engine.DialTimeout, err = durationEnv("ENGINE_DIAL_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.Engine.MaxExecutionTime, err = durationEnv("ENGINE_MAX_EXECUTION_TIME", 0); err != nil {
		return nil, err
	}
	if cfg.Engine.MaxOpenConns, err = intEnv("ENGINE_MAX_OPEN_CONNS", 4); err != nil {
		return nil, err
	}
	if cfg.HistoryAuditLookback, err = durationEnv("HISTORY_AUDIT_LOOKBACK", 5*time.Minute); err != nil {
		return nil, err
	}

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORSAllowedOrigins = splitList(v)
	}
	if strings.EqualFold(os.Getenv("ALLOW_INSECURE_HTTP"), "true") {
		cfg.AllowInsecureHTTP = true
	}

	// Defaults
	if cfg.MetaDBPath == "" {
		cfg.MetaDBPath = "chouse_meta.sqlite"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}
	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		return nil, fmt.Errorf("both TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}
	if cfg.Session.Max <= 0 {
		return nil, fmt.Errorf("SESSION_MAX must be positive, got %d", cfg.Session.Max)
	}
	if cfg.Session.TTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive, got %s", cfg.Session.TTL)
	}

	if cfg.EncryptionKey == "" {
		cfg.EncryptionKey = insecureEncryptionKey
		cfg.Warnings = append(cfg.Warnings, "ENCRYPTION_KEY not set, using insecure default. Set ENCRYPTION_KEY in production!")
	}
	if err := validateEncryptionKey(cfg.EncryptionKey); err != nil {
		return nil, err
	}
	if !cfg.Auth.OIDCEnabled() {
		cfg.Warnings = append(cfg.Warnings, "OIDC is not configured, accepting HS256 tokens only. Set AUTH_ISSUER_URL in production")
		if cfg.Auth.JWTSecret == "" {
			cfg.Auth.JWTSecret = devJWTSecret
			cfg.Warnings = append(cfg.Warnings, "JWT_SECRET not set, using insecure development secret")
		}
	}
	if err := cfg.Auth.Validate(); err != nil {
		return nil, err
	}

	// Production mode: insecure defaults are fatal errors.
	if cfg.IsProduction() {
		if !cfg.Auth.OIDCEnabled() {
			return nil, fmt.Errorf("OIDC must be configured in production (set AUTH_ISSUER_URL)")
		}
		if cfg.Auth.JWTSecret == devJWTSecret {
			return nil, fmt.Errorf("the development JWT secret is not allowed in production")
		}
		if cfg.EncryptionKey == insecureEncryptionKey {
			return nil, fmt.Errorf("ENCRYPTION_KEY must be set in production (ENV=production)")
		}
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
		if cfg.TLSCertFile == "" && !cfg.AllowInsecureHTTP {
			return nil, fmt.Errorf("TLS_CERT_FILE/TLS_KEY_FILE must be set in production unless ALLOW_INSECURE_HTTP=true")
		}
	}

	return cfg, nil
}

func validateEncryptionKey(key string) error {
	b, err := hex.DecodeString(key)
	if err != nil || len(b) != 32 {
		return fmt.Errorf("ENCRYPTION_KEY must be 64 hex characters (32 bytes)")
	}
	return nil
}

func intEnv(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}

func floatEnv(key string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("%s: invalid positive number %q", key, v)
	}
	return f, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = stripQuotes(value)
		// Only set if not already in the environment (env vars take precedence)
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
