package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/daun-gatal/chouse-ui-sub004/internal/domain"
)

// AuditRepo is the append-only audit trail. The schema rejects updates and
// deletes on audit_events.
type AuditRepo struct {
	db pools
}

// NewAuditRepo creates an AuditRepo. readDB may be nil.
func NewAuditRepo(writeDB, readDB *sql.DB) *AuditRepo {
	return &AuditRepo{db: newPools(writeDB, readDB)}
}

// Append writes one event. ID and CreatedAt are filled in when zero.
func (r *AuditRepo) Append(ctx context.Context, e *domain.AuditEvent) error {
	if e.ID == "" {
		e.ID = domain.NewID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	details := []byte("{}")
	if len(e.Details) > 0 {
		var err error
		if details, err = json.Marshal(e.Details); err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}
	}
	_, err := r.db.w.ExecContext(ctx,
		`INSERT INTO audit_events (id, actor_id, action, status, details, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.ActorID, e.Action, e.Status, string(details), formatTime(e.CreatedAt))
	return mapDBError(err)
}

// Query returns events matching filter, newest first.
func (r *AuditRepo) Query(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEvent, error) {
	var (
		where []string
		args  []any
	)
	if filter.Action != nil {
		where = append(where, "action = ?")
		args = append(args, *filter.Action)
	}
	if filter.UserID != nil {
		where = append(where, "actor_id = ?")
		args = append(args, *filter.UserID)
	}
	if filter.Since != nil {
		where = append(where, "created_at >= ?")
		args = append(args, formatTime(*filter.Since))
	}
	if filter.Until != nil {
		where = append(where, "created_at <= ?")
		args = append(args, formatTime(*filter.Until))
	}

	q := `SELECT id, actor_id, action, status, details, created_at FROM audit_events`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, filter.EffectiveLimit())

	rows, err := r.db.r.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var events []domain.AuditEvent
	for rows.Next() {
		var (
			e       domain.AuditEvent
			details string
			created string
		)
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.Status, &details, &created); err != nil {
			return nil, err
		}
		if details != "" && details != "{}" {
			if err := json.Unmarshal([]byte(details), &e.Details); err != nil {
				return nil, fmt.Errorf("decode details of audit event %s: %w", e.ID, err)
			}
		}
		if e.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
