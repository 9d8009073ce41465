package query

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/daun-gatal/chouse-ui-sub004/internal/domain"
)

const nameLookupConcurrency = 8

// resolveUsers looks up each distinct owner once, concurrently. A failed
// lookup is logged and leaves that id out of the result.
func resolveUsers(ctx context.Context, dir domain.UserDirectory, recs []domain.QueryRecord, logger *slog.Logger) map[string]*domain.User {
	seen := map[string]struct{}{}
	var ids []string
	for _, r := range recs {
		id := r.OwnerID()
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 || dir == nil {
		return map[string]*domain.User{}
	}

	found := make([]*domain.User, len(ids))
	var g errgroup.Group
	g.SetLimit(nameLookupConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			u, err := dir.GetByID(ctx, id)
			if err != nil {
				logger.Warn("owner lookup failed", "user_id", id, "error", err)
				return nil
			}
			found[i] = u
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]*domain.User, len(ids))
	for i, id := range ids {
		if found[i] != nil {
			out[id] = found[i]
		}
	}
	return out
}
