package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/daun-gatal/chouse-ui-sub004/internal/config"
	"github.com/daun-gatal/chouse-ui-sub004/internal/db"
)

const shutdownTimeout = 10 * time.Second

// Serve opens and migrates the metadata store, wires the application, and
// serves HTTP until ctx is cancelled, then drains in-flight requests.
func Serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	writeDB, readDB, err := db.OpenSQLitePair(cfg.MetaDBPath, cfg.MetaDBReadConns)
	if err != nil {
		return fmt.Errorf("open metadata store: %w", err)
	}
	defer func() { _ = writeDB.Close() }()
	defer func() { _ = readDB.Close() }()

	if err := db.RunMigrations(writeDB); err != nil {
		return fmt.Errorf("migrate metadata store: %w", err)
	}

	a, err := New(ctx, Deps{Cfg: cfg, WriteDB: writeDB, ReadDB: readDB, Logger: logger})
	if err != nil {
		return err
	}
	defer a.Close()

	handler, err := a.Handler(ctx)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	tls := cfg.TLSCertFile != "" && cfg.TLSKeyFile != ""
	logger.Info("listening", "addr", cfg.ListenAddr, "tls", tls, "env", cfg.Env)
	if tls {
		err = srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
	} else {
		err = srv.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
