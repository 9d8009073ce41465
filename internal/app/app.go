// Package app wires repositories, services, and the HTTP router from
// configuration.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/daun-gatal/chouse-ui-sub004/internal/api"
	"github.com/daun-gatal/chouse-ui-sub004/internal/config"
	"github.com/daun-gatal/chouse-ui-sub004/internal/db/crypto"
	"github.com/daun-gatal/chouse-ui-sub004/internal/db/repository"
	"github.com/daun-gatal/chouse-ui-sub004/internal/domain"
	"github.com/daun-gatal/chouse-ui-sub004/internal/engine"
	"github.com/daun-gatal/chouse-ui-sub004/internal/middleware"
	"github.com/daun-gatal/chouse-ui-sub004/internal/service/connection"
	"github.com/daun-gatal/chouse-ui-sub004/internal/service/governance"
	"github.com/daun-gatal/chouse-ui-sub004/internal/service/query"
	"github.com/daun-gatal/chouse-ui-sub004/internal/service/security"
)

// Deps holds what the caller must provide: configuration, the metadata
// store pools, and the logger.
type Deps struct {
	Cfg     *config.Config
	WriteDB *sql.DB
	ReadDB  *sql.DB
	Logger  *slog.Logger
	// Factory overrides the ClickHouse client factory. Tests use it.
	Factory domain.EngineFactory
}

// Services groups the services the router and CLI need.
type Services struct {
	Query       *query.Service
	Connection  *connection.Service
	Audit       *governance.AuditService
	Users       *security.UserService
	Permissions *security.PermissionService
}

// App is the fully wired application.
type App struct {
	Services Services
	Sessions *connection.SessionPool
	UserRepo *repository.UserRepo

	cfg    *config.Config
	readDB *sql.DB
	logger *slog.Logger
}

// New wires every repository and service and synchronises role
// definitions into the metadata store.
func New(ctx context.Context, deps Deps) (*App, error) {
	cfg := deps.Cfg
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	encryptor, err := crypto.NewEncryptor(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key: %w", err)
	}

	// === Repositories ===
	userRepo := repository.NewUserRepo(deps.WriteDB, deps.ReadDB)
	roleRepo := repository.NewRoleRepo(deps.WriteDB, deps.ReadDB)
	connRepo := repository.NewConnectionRepo(deps.WriteDB, deps.ReadDB, encryptor)
	auditRepo := repository.NewAuditRepo(deps.WriteDB, deps.ReadDB)

	// === Engine access ===
	factory := deps.Factory
	if factory == nil {
		factory = engine.NewFactory(engine.FactoryConfig{
			DialTimeout:      cfg.Engine.DialTimeout,
			MaxExecutionTime: cfg.Engine.MaxExecutionTime,
			MaxOpenConns:     cfg.Engine.MaxOpenConns,
		}, logger.With("component", "engine"))
	}
	sessions := connection.NewSessionPool(cfg.Session.Max, cfg.Session.TTL, logger)
	resolver := connection.NewResolver(connRepo, factory, sessions, logger)

	// === Services ===
	usersSvc := security.NewUserService(userRepo, roleRepo, logger.With("component", "user_service"))
	if err := syncRoles(ctx, usersSvc, cfg.RolesFile); err != nil {
		sessions.Close()
		return nil, err
	}

	querySvc := query.NewService(resolver, auditRepo, userRepo, logger)
	querySvc.SetAuditLookback(cfg.HistoryAuditLookback)

	return &App{
		Services: Services{
			Query:       querySvc,
			Connection:  connection.NewService(connRepo, factory, sessions, auditRepo, logger),
			Audit:       governance.NewAuditService(auditRepo, logger),
			Users:       usersSvc,
			Permissions: security.NewPermissionService(userRepo, roleRepo),
		},
		Sessions: sessions,
		UserRepo: userRepo,
		cfg:      cfg,
		readDB:   deps.ReadDB,
		logger:   logger,
	}, nil
}

// Handler builds the HTTP router. ctx bounds background work such as the
// rate limiter's sweeper and OIDC discovery.
func (a *App) Handler(ctx context.Context) (http.Handler, error) {
	validator, err := newTokenValidator(ctx, a.cfg.Auth)
	if err != nil {
		return nil, err
	}
	h := api.NewHandler(a.Services.Query, a.Services.Connection, a.Services.Audit, a.Services.Permissions)
	return api.NewRouter(ctx, h, api.RouterConfig{
		Logger:        a.logger,
		Authenticator: middleware.NewAuthenticator(validator, a.UserRepo, a.logger.With("component", "auth")),
		RateLimit: middleware.RateLimitConfig{
			RequestsPerSecond: a.cfg.RateLimitRPS,
			Burst:             a.cfg.RateLimitBurst,
		},
		AllowedOrigins: a.cfg.CORSAllowedOrigins,
		Ready:          a.readDB.PingContext,
	}), nil
}

// Close releases every pooled engine session.
func (a *App) Close() {
	a.Sessions.Close()
}

func newTokenValidator(ctx context.Context, auth config.AuthConfig) (middleware.JWTValidator, error) {
	if auth.OIDCEnabled() {
		v, err := middleware.NewOIDCValidator(ctx, auth.IssuerURL, auth.Audience)
		if err != nil {
			return nil, fmt.Errorf("oidc validator: %w", err)
		}
		return v, nil
	}
	v, err := middleware.NewHS256Validator(auth.JWTSecret, auth.Audience)
	if err != nil {
		return nil, fmt.Errorf("jwt validator: %w", err)
	}
	return v, nil
}
