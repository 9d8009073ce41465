package query

import (
	"log/slog"

	"github.com/daun-gatal/chouse-ui-sub004/internal/domain"
	"github.com/daun-gatal/chouse-ui-sub004/internal/engine"
	"github.com/daun-gatal/chouse-ui-sub004/internal/metrics"
)

// attachEmbeddedIdentity parses each record's identity comment in place. A
// malformed comment leaves that one record unattributed.
func attachEmbeddedIdentity(recs []domain.QueryRecord, logger *slog.Logger) {
	for i := range recs {
		id, err := engine.ParseIdentity(recs[i].LogComment)
		if err != nil {
			metrics.MalformedIdentities.Inc()
			logger.Warn("unparseable identity comment", "query_id", recs[i].QueryID, "error", err)
			continue
		}
		recs[i].Identity = id
	}
}
