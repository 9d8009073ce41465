package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/daun-gatal/chouse-ui-sub004/internal/db/crypto"
	"github.com/daun-gatal/chouse-ui-sub004/internal/domain"
)

// ConnectionRepo is the connection registry. Passwords are sealed with the
// Encryptor, bound to the connection id, and only opened by GetWithSecret.
type ConnectionRepo struct {
	db  pools
	enc *crypto.Encryptor
}

// NewConnectionRepo creates a ConnectionRepo. readDB may be nil.
func NewConnectionRepo(writeDB, readDB *sql.DB, enc *crypto.Encryptor) *ConnectionRepo {
	return &ConnectionRepo{db: newPools(writeDB, readDB), enc: enc}
}

const connectionColumns = `c.id, c.name, c.host, c.port, c.database, c.username, c.secure,
	c.owner_id, c.is_default, c.is_active, c.created_at, c.updated_at`

// Create registers a connection. When IsDefault is set, the owner's other
// connections lose their default flag.
func (r *ConnectionRepo) Create(ctx context.Context, c *domain.ConnectionProfile) (*domain.ConnectionProfile, error) {
	out := *c
	if out.ID == "" {
		out.ID = domain.NewID()
	}
	now := time.Now().UTC()
	out.CreatedAt, out.UpdatedAt = now, now

	sealed, err := r.enc.Seal(out.ID, out.Password)
	if err != nil {
		return nil, fmt.Errorf("seal connection secret: %w", err)
	}

	tx, err := r.db.w.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if out.IsDefault {
		if _, err := tx.ExecContext(ctx,
			`UPDATE connections SET is_default = 0, updated_at = ? WHERE owner_id = ? AND is_default = 1`,
			formatTime(now), out.OwnerID); err != nil {
			return nil, err
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO connections (id, name, host, port, database, username, password_enc, secure,
			owner_id, is_default, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		out.ID, out.Name, out.Host, out.Port, out.Database, out.Username, sealed,
		boolToInt(out.Secure), out.OwnerID, boolToInt(out.IsDefault), boolToInt(out.IsActive),
		formatTime(out.CreatedAt), formatTime(out.UpdatedAt))
	if err != nil {
		return nil, mapDBError(err)
	}

	for _, uid := range out.Grantees {
		if uid == out.OwnerID {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO connection_grants (connection_id, user_id) VALUES (?, ?)`,
			out.ID, uid); err != nil {
			return nil, mapDBError(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	red := out.Redacted()
	return &red, nil
}

// ListAccessible returns the profiles the user owns or was granted,
// default first, then oldest first.
func (r *ConnectionRepo) ListAccessible(ctx context.Context, userID string) ([]domain.ConnectionProfile, error) {
	return r.list(ctx,
		`SELECT `+connectionColumns+` FROM connections c
		  WHERE c.owner_id = ?
		     OR EXISTS (SELECT 1 FROM connection_grants g WHERE g.connection_id = c.id AND g.user_id = ?)
		  ORDER BY c.is_default DESC, c.created_at, c.id`, userID, userID)
}

// ListAll returns every registered profile.
func (r *ConnectionRepo) ListAll(ctx context.Context) ([]domain.ConnectionProfile, error) {
	return r.list(ctx,
		`SELECT `+connectionColumns+` FROM connections c ORDER BY c.is_default DESC, c.created_at, c.id`)
}

// GetWithSecret returns one profile with its password opened.
func (r *ConnectionRepo) GetWithSecret(ctx context.Context, id string) (*domain.ConnectionProfile, error) {
	var sealed string
	row := r.db.r.QueryRowContext(ctx,
		`SELECT `+connectionColumns+`, c.password_enc FROM connections c WHERE c.id = ?`, id)
	p, err := scanConnection(row, &sealed)
	if err != nil {
		return nil, mapDBError(err)
	}
	p.Password, err = r.enc.Open(p.ID, sealed)
	if err != nil {
		return nil, fmt.Errorf("open secret for connection %s: %w", p.ID, err)
	}
	if p.Grantees, err = r.grantees(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

// CanAccess reports whether the user owns or was granted the profile.
func (r *ConnectionRepo) CanAccess(ctx context.Context, userID, connectionID string) (bool, error) {
	var n int
	err := r.db.r.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM connections c
		  WHERE c.id = ?
		    AND (c.owner_id = ?
		         OR EXISTS (SELECT 1 FROM connection_grants g WHERE g.connection_id = c.id AND g.user_id = ?))`,
		connectionID, userID, userID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *ConnectionRepo) list(ctx context.Context, query string, args ...any) ([]domain.ConnectionProfile, error) {
	rows, err := r.db.r.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.ConnectionProfile
	for rows.Next() {
		p, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if out[i].Grantees, err = r.grantees(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *ConnectionRepo) grantees(ctx context.Context, connectionID string) ([]string, error) {
	rows, err := r.db.r.QueryContext(ctx,
		`SELECT user_id FROM connection_grants WHERE connection_id = ? ORDER BY user_id`, connectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// scanConnection scans connectionColumns followed by any extra destinations.
func scanConnection(s rowScanner, extra ...any) (*domain.ConnectionProfile, error) {
	var p domain.ConnectionProfile
	var secure, isDefault, active int64
	var created, updated string
	dest := []any{&p.ID, &p.Name, &p.Host, &p.Port, &p.Database, &p.Username, &secure,
		&p.OwnerID, &isDefault, &active, &created, &updated}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	p.Secure, p.IsDefault, p.IsActive = secure != 0, isDefault != 0, active != 0

	var err error
	if p.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &p, nil
}
