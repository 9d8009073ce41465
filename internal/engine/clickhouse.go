// Package engine talks to ClickHouse: statement execution with identity
// stamping, the live process view, the query log, and query termination.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/daun-gatal/chouse-ui-sub004/internal/domain"
)

var _ domain.EngineClient = (*Client)(nil)

// Client is one ClickHouse connection pool bound to a connection profile.
type Client struct {
	conn         driver.Conn
	connectionID string
	logger       *slog.Logger
	now          func() time.Time
}

// NewClient wraps an open driver connection.
func NewClient(conn driver.Conn, connectionID string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		conn:         conn,
		connectionID: connectionID,
		logger:       logger.With("component", "engine", "connection_id", connectionID),
		now:          time.Now,
	}
}

// Execute runs req.SQL and materialises every row. Column values keep the
// Go types the driver reports for each column.
func (c *Client) Execute(ctx context.Context, req domain.EngineRequest) (*domain.EngineResult, error) {
	queryID := req.QueryID
	if queryID == "" {
		queryID = domain.NewID()
	}

	start := c.now()
	rows, err := c.conn.Query(stampContext(ctx, queryID, req.Identity, nil), req.SQL, req.Args...)
	if err != nil {
		return nil, classifyExecError(queryID, err)
	}
	defer rows.Close() //nolint:errcheck

	types := rows.ColumnTypes()
	cols := make([]domain.EngineColumn, len(types))
	for i, ct := range types {
		cols[i] = domain.EngineColumn{Name: ct.Name(), Type: ct.DatabaseTypeName()}
	}

	var out [][]any
	for rows.Next() {
		dest := make([]any, len(types))
		for i, ct := range types {
			dest[i] = reflect.New(ct.ScanType()).Interface()
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, classifyExecError(queryID, err)
		}
		row := make([]any, len(dest))
		for i, d := range dest {
			row[i] = reflect.ValueOf(d).Elem().Interface()
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyExecError(queryID, err)
	}

	return &domain.EngineResult{
		QueryID:   queryID,
		Columns:   cols,
		Rows:      out,
		ElapsedMs: c.now().Sub(start).Milliseconds(),
	}, nil
}

// ListProcesses reads system.processes. Identity is left unparsed: each
// record carries the raw LogComment.
func (c *Client) ListProcesses(ctx context.Context) ([]domain.QueryRecord, error) {
	selfID := newIntrospectionID()
	rows, err := c.conn.Query(stampContext(ctx, selfID, nil, nil), listProcessesSQL, selfID)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	now := c.now()
	var out []domain.QueryRecord
	for rows.Next() {
		rec, err := scanProcess(rows, now)
		if err != nil {
			return nil, fmt.Errorf("scan process row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	return out, nil
}

// QueryLog reads finished and failed executions from system.query_log,
// newest first.
func (c *Client) QueryLog(ctx context.Context, filter domain.QueryLogFilter) ([]domain.QueryRecord, error) {
	since := filter.Since
	if since.IsZero() {
		since = time.Unix(0, 0).UTC()
	}

	selfID := newIntrospectionID()
	rows, err := c.conn.Query(stampContext(ctx, selfID, nil, nil), queryLogSQL,
		since.UTC(), introspectionPrefix, filter.EffectiveLimit())
	if err != nil {
		return nil, fmt.Errorf("read query log: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.QueryRecord
	for rows.Next() {
		rec, err := scanLogRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan query log row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read query log: %w", err)
	}
	return out, nil
}

// KillQuery issues KILL QUERY for queryID. found is false when nothing was
// running under that id.
func (c *Client) KillQuery(ctx context.Context, queryID string) (bool, error) {
	rows, err := c.conn.Query(stampContext(ctx, newIntrospectionID(), nil, nil), killQuerySQL, queryID)
	if err != nil {
		return false, fmt.Errorf("kill query %s: %w", queryID, err)
	}
	defer rows.Close() //nolint:errcheck

	matched := 0
	for rows.Next() {
		matched++
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("kill query %s: %w", queryID, err)
	}
	c.logger.Debug("kill issued", "query_id", queryID, "matched", matched)
	return matched > 0, nil
}

// Ping checks the server is reachable with the profile's credentials.
func (c *Client) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	return c.conn.Close()
}

// classifyExecError separates statements the server rejected from
// transport failures.
func classifyExecError(queryID string, err error) error {
	var ex *clickhouse.Exception
	if errors.As(err, &ex) {
		return &domain.QueryFailedError{Code: ex.Code, Message: ex.Message}
	}
	return domain.ErrEngineUnavailable("execute", fmt.Errorf("query %s: %w", queryID, err))
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProcess(s scanner, now time.Time) (domain.QueryRecord, error) {
	var r domain.QueryRecord
	err := s.Scan(&r.QueryID, &r.EngineUser, &r.Query, &r.ElapsedSeconds,
		&r.ReadRows, &r.ReadBytes, &r.MemoryUsage, &r.ClientName, &r.ClientAddress, &r.LogComment)
	if err != nil {
		return domain.QueryRecord{}, err
	}
	r.StartedAt = now.Add(-time.Duration(r.ElapsedSeconds * float64(time.Second))).UTC()
	return r, nil
}

func scanLogRow(s scanner) (domain.QueryRecord, error) {
	var r domain.QueryRecord
	err := s.Scan(&r.QueryID, &r.EngineUser, &r.Query, &r.ElapsedSeconds,
		&r.ReadRows, &r.ReadBytes, &r.MemoryUsage, &r.ClientName, &r.ClientAddress, &r.LogComment,
		&r.StartedAt, &r.Status, &r.Exception)
	if err != nil {
		return domain.QueryRecord{}, err
	}
	r.StartedAt = r.StartedAt.UTC()
	return r, nil
}
