package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/daun-gatal/chouse-ui-sub004/internal/config"
	"github.com/daun-gatal/chouse-ui-sub004/internal/db"
	"github.com/daun-gatal/chouse-ui-sub004/internal/db/repository"
	"github.com/daun-gatal/chouse-ui-sub004/internal/service/security"
)

// store is an opened, migrated metadata store with the user service on top.
type store struct {
	cfg     *config.Config
	writeDB *sql.DB
	readDB  *sql.DB
	users   *security.UserService
}

// openStore loads configuration, opens and migrates the metadata store,
// and synchronises role definitions so role grants can reference them.
func openStore(ctx context.Context) (*store, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger := cfg.NewLogger()

	writeDB, readDB, err := db.OpenSQLitePair(cfg.MetaDBPath, cfg.MetaDBReadConns)
	if err != nil {
		return nil, fmt.Errorf("open metadata store: %w", err)
	}
	s := &store{cfg: cfg, writeDB: writeDB, readDB: readDB}

	if err := db.RunMigrations(writeDB); err != nil {
		s.Close()
		return nil, fmt.Errorf("migrate metadata store: %w", err)
	}

	s.users = security.NewUserService(
		repository.NewUserRepo(writeDB, readDB),
		repository.NewRoleRepo(writeDB, readDB),
		logger.With("component", "cli"),
	)
	roles, err := config.LoadRoles(cfg.RolesFile)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("load roles: %w", err)
	}
	if err := s.users.SyncRoles(ctx, roles); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Close closes both pools.
func (s *store) Close() {
	if err := s.readDB.Close(); err != nil {
		slog.Warn("close read pool", "error", err)
	}
	if err := s.writeDB.Close(); err != nil {
		slog.Warn("close write pool", "error", err)
	}
}
