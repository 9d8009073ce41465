package query

import (
	"context"
	"time"

	"github.com/daun-gatal/chouse-ui-sub004/internal/domain"
	"github.com/daun-gatal/chouse-ui-sub004/internal/metrics"
	"github.com/daun-gatal/chouse-ui-sub004/internal/service/auditutil"
)

// Kill result messages.
const (
	MsgKilled           = "Query killed successfully"
	MsgAlreadyCompleted = "Query already completed"
)

// killAttempt accumulates what is known about one termination request and
// writes its single audit event.
type killAttempt struct {
	s       *Service
	caller  domain.Caller
	details map[string]any
}

func (a *killAttempt) finish(ctx context.Context, outcome domain.KillOutcome, status string, cause error) {
	a.details[domain.DetailOutcome] = string(outcome)
	if cause != nil {
		a.details[domain.DetailError] = cause.Error()
	}
	metrics.KillAttempts.WithLabelValues(string(outcome)).Inc()
	auditutil.Record(ctx, a.s.audit, a.s.logger, auditutil.Event(a.caller.UserID(),
		domain.AuditActionLiveQueryKill, status, a.details))
}

// Kill terminates a running query. Callers without live_queries:kill_all
// may only kill queries whose embedded identity is their own; a target that
// cannot be found or has no identity is refused. A target that finished in
// the meantime is a success. Every attempt by an authenticated caller
// leaves exactly one audit event.
func (s *Service) Kill(ctx context.Context, caller domain.Caller, queryID string, resolve domain.ResolveRequest) (*domain.KillResult, error) {
	if caller.UserID() == "" {
		return nil, domain.ErrAuthenticationRequired()
	}

	a := &killAttempt{s: s, caller: caller, details: map[string]any{
		domain.DetailQueryID: queryID,
	}}

	if queryID == "" {
		err := domain.ErrValidation("query id is required")
		a.finish(ctx, domain.KillOutcomeFailed, domain.AuditStatusFailure, err)
		return nil, err
	}
	if !caller.Permissions.HasAny(domain.PermLiveQueriesKill, domain.PermLiveQueriesKillAll) {
		err := domain.ErrAccessDenied("permission %s required", domain.PermLiveQueriesKill)
		a.finish(ctx, domain.KillOutcomeDenied, domain.AuditStatusDenied, err)
		return nil, err
	}

	rc, err := s.resolver.Resolve(ctx, caller, resolve)
	if err != nil {
		a.finish(ctx, domain.KillOutcomeFailed, domain.AuditStatusFailure, err)
		return nil, err
	}
	defer rc.Release()
	a.details[domain.DetailConnectionID] = rc.ConnectionID

	target := s.lookupTarget(ctx, rc.Client, queryID)
	owner := ""
	if target != nil {
		owner = target.OwnerID()
		a.details[domain.DetailElapsedSeconds] = target.ElapsedSeconds
		if owner != "" {
			a.details[domain.DetailOwnerID] = owner
		}
	}

	if !domain.KillAuthority.Visible(caller, owner) {
		var err error
		if target == nil {
			err = domain.ErrAccessDenied("query %s is not running or its owner cannot be verified", queryID)
		} else {
			err = domain.ErrAccessDenied("query %s belongs to another user", queryID)
		}
		a.finish(ctx, domain.KillOutcomeDenied, domain.AuditStatusDenied, err)
		return nil, err
	}

	// Once issued the command runs to completion even if the caller leaves.
	killCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), killTimeout)
	defer cancel()
	start := time.Now()
	found, err := rc.Client.KillQuery(killCtx, queryID)
	metrics.ObserveEngineCall("kill", start)
	if err != nil {
		err = asEngineUnavailable("kill", err)
		a.finish(ctx, domain.KillOutcomeFailed, domain.AuditStatusFailure, err)
		s.logger.Warn("kill failed", "query_id", queryID, "user_id", caller.UserID(), "error", err)
		return nil, err
	}

	res := &domain.KillResult{QueryID: queryID}
	if found {
		res.Message, res.Outcome = MsgKilled, domain.KillOutcomeKilled
	} else {
		res.Message, res.Outcome = MsgAlreadyCompleted, domain.KillOutcomeAlreadyCompleted
	}
	a.finish(ctx, res.Outcome, domain.AuditStatusSuccess, nil)
	s.logger.Info("kill issued", "query_id", queryID, "user_id", caller.UserID(),
		"owner_id", owner, "outcome", res.Outcome)
	return res, nil
}

// lookupTarget finds queryID in the live set. Failure to list is not fatal:
// the target is treated as not found.
func (s *Service) lookupTarget(ctx context.Context, client domain.EngineClient, queryID string) *domain.QueryRecord {
	procs, err := s.listProcesses(ctx, client)
	if err != nil {
		s.logger.Warn("kill target lookup failed", "query_id", queryID, "error", err)
		return nil
	}
	for i := range procs {
		if procs[i].QueryID != queryID {
			continue
		}
		rec := procs[i : i+1]
		attachEmbeddedIdentity(rec, s.logger)
		return &rec[0]
	}
	return nil
}
