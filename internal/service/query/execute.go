package query

import (
	"context"
	"strings"
	"time"

	"github.com/daun-gatal/chouse-ui-sub004/internal/domain"
	"github.com/daun-gatal/chouse-ui-sub004/internal/engine"
	"github.com/daun-gatal/chouse-ui-sub004/internal/metrics"
	"github.com/daun-gatal/chouse-ui-sub004/internal/service/auditutil"
)

// Execute runs req.SQL as the caller. The caller's id rides on the statement
// as its identity comment, and one query.execute audit event records when
// and where it ran so history rows can be attributed later.
func (s *Service) Execute(ctx context.Context, caller domain.Caller, req domain.ExecuteQueryRequest, resolve domain.ResolveRequest) (*domain.ExecuteQueryResult, error) {
	if caller.UserID() == "" {
		return nil, domain.ErrAuthenticationRequired()
	}
	if !caller.Permissions.Has(domain.PermQueryExecute) {
		return nil, domain.ErrAccessDenied("permission %s required", domain.PermQueryExecute)
	}
	req.SQL = strings.TrimSpace(req.SQL)
	if err := s.validate.Struct(req); err != nil {
		return nil, domain.ErrValidation("invalid query request: %v", err)
	}
	if engine.OverridesIdentity(req.SQL) {
		return nil, domain.ErrValidation("query may not set %s", engine.LogCommentSetting)
	}
	if req.Format == "" {
		req.Format = domain.FormatJSONCompact
	}

	rc, err := s.resolver.Resolve(ctx, caller, resolve)
	if err != nil {
		return nil, err
	}
	defer rc.Release()

	queryID := domain.NewID()
	executedAt := s.now().UTC()
	start := time.Now()
	res, err := rc.Client.Execute(ctx, domain.EngineRequest{
		SQL:      req.SQL,
		QueryID:  queryID,
		Identity: &domain.AppIdentity{UserID: caller.UserID()},
	})
	metrics.ObserveEngineCall("execute", start)

	details := map[string]any{
		domain.DetailExecutedAt:   executedAt.Format(time.RFC3339Nano),
		domain.DetailConnectionID: rc.ConnectionID,
		domain.DetailSQLPrefix:    domain.TruncateSQL(req.SQL),
		domain.DetailFormat:       req.Format,
		domain.DetailQueryID:      queryID,
	}
	if err != nil {
		details[domain.DetailError] = err.Error()
		auditutil.Record(ctx, s.audit, s.logger, auditutil.Event(caller.UserID(),
			domain.AuditActionQueryExecute, domain.AuditStatusFailure, details))
		return nil, err
	}
	auditutil.Record(ctx, s.audit, s.logger, auditutil.Event(caller.UserID(),
		domain.AuditActionQueryExecute, domain.AuditStatusSuccess, details))

	return &domain.ExecuteQueryResult{
		Columns: res.Columns,
		Rows:    shapeRows(req.Format, res.Columns, res.Rows),
		Meta: domain.ExecuteMeta{
			QueryID:      res.QueryID,
			RowCount:     len(res.Rows),
			ElapsedMs:    res.ElapsedMs,
			ConnectionID: rc.ConnectionID,
		},
	}, nil
}

// shapeRows renders rows as positional arrays (JSONCompact) or as objects
// keyed by column name (JSON).
func shapeRows(format string, cols []domain.EngineColumn, rows [][]any) any {
	if format != domain.FormatJSON {
		if rows == nil {
			return [][]any{}
		}
		return rows
	}
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		obj := make(map[string]any, len(cols))
		for j, c := range cols {
			if j < len(row) {
				obj[c.Name] = row[j]
			}
		}
		out[i] = obj
	}
	return out
}
