package engine

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/daun-gatal/chouse-ui-sub004/internal/domain"
)

var _ domain.EngineFactory = (*Factory)(nil)

// FactoryConfig tunes the clients a Factory builds.
type FactoryConfig struct {
	DialTimeout      time.Duration
	MaxExecutionTime time.Duration
	MaxOpenConns     int
}

// Factory opens ClickHouse clients from decrypted connection profiles.
type Factory struct {
	cfg    FactoryConfig
	logger *slog.Logger
}

// NewFactory creates a Factory. Zero config values get defaults.
func NewFactory(cfg FactoryConfig, logger *slog.Logger) *Factory {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = 4
	}
	return &Factory{cfg: cfg, logger: logger}
}

// Open builds a client for profile and pings it. The returned client owns a
// connection pool; callers must Close it.
func (f *Factory) Open(ctx context.Context, profile domain.ConnectionProfile) (domain.EngineClient, error) {
	conn, err := clickhouse.Open(f.options(profile))
	if err != nil {
		return nil, fmt.Errorf("open clickhouse %s: %w", profile.ID, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, f.cfg.DialTimeout)
	defer cancel()
	if err := conn.Ping(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping clickhouse %s: %w", profile.ID, err)
	}

	return NewClient(conn, profile.ID, f.logger), nil
}

func (f *Factory) options(p domain.ConnectionProfile) *clickhouse.Options {
	opts := &clickhouse.Options{
		Addr: []string{net.JoinHostPort(p.Host, strconv.Itoa(p.Port))},
		Auth: clickhouse.Auth{
			Database: p.Database,
			Username: p.Username,
			Password: p.Password,
		},
		DialTimeout: f.cfg.DialTimeout,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		MaxOpenConns:     f.cfg.MaxOpenConns,
		MaxIdleConns:     f.cfg.MaxOpenConns,
		ConnMaxLifetime:  time.Hour,
		ConnOpenStrategy: clickhouse.ConnOpenInOrder,
	}
	if f.cfg.MaxExecutionTime > 0 {
		opts.Settings = clickhouse.Settings{
			"max_execution_time": int(f.cfg.MaxExecutionTime.Seconds()),
		}
	}
	if p.Secure {
		opts.TLS = &tls.Config{
			MinVersion: tls.VersionTLS12,
			ServerName: p.Host,
		}
	}
	return opts
}
