package query

import (
	"strings"
	"time"

	"github.com/daun-gatal/chouse-ui-sub004/internal/domain"
)

// Correlation geometry. An audit event is registered in every bucket within
// CorrelationWindow of its effective timestamp, and a log row probes its
// own bucket first and then widens one bucket at a time in both directions.
const (
	BucketWidth       = 5 * time.Second
	CorrelationWindow = 60 * time.Second
)

// AttributionSource says how a record's owner was established.
type AttributionSource int

// Attribution sources. Unattributed means correlation was inconclusive.
const (
	Unattributed AttributionSource = iota
	Embedded
	Correlated
)

// Candidate is one audit event reduced to what correlation needs.
type Candidate struct {
	UserID       string
	ConnectionID string
	SQLPrefix    string
}

// AuditIndex maps bucket keys to the candidates registered in them.
// Candidates keep the order of the events the index was built from.
type AuditIndex struct {
	buckets map[int64][]Candidate
}

func bucketKey(t time.Time) int64 {
	sec := t.Unix()
	w := int64(BucketWidth / time.Second)
	k := sec / w
	if sec < 0 && sec%w != 0 {
		k--
	}
	return k
}

// BuildAuditIndex indexes query.execute events with known actors. When
// connectionID is set, events recorded against a different connection are
// left out; events that carry no connection id are kept.
func BuildAuditIndex(events []domain.AuditEvent, connectionID string) *AuditIndex {
	idx := &AuditIndex{buckets: map[int64][]Candidate{}}
	steps := int(CorrelationWindow / BucketWidth)

	for _, e := range events {
		if e.ActorID == "" || e.Action != domain.AuditActionQueryExecute || e.Status == domain.AuditStatusDenied {
			continue
		}
		c := Candidate{
			UserID:       e.ActorID,
			ConnectionID: e.DetailString(domain.DetailConnectionID),
			SQLPrefix:    e.DetailString(domain.DetailSQLPrefix),
		}
		if connectionID != "" && c.ConnectionID != "" && c.ConnectionID != connectionID {
			continue
		}

		ts := e.EffectiveTimestamp()
		for i := -steps; i <= steps; i++ {
			k := bucketKey(ts.Add(time.Duration(i) * BucketWidth))
			idx.buckets[k] = append(idx.buckets[k], c)
		}
	}
	return idx
}

// Len returns the number of non-empty buckets.
func (idx *AuditIndex) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.buckets)
}

// Correlate returns the owner of row and how it was established. A row's
// embedded identity always wins. Otherwise the nearest non-empty bucket
// around the row's start time is chosen, preferring its exact bucket and
// then earlier before later at each distance. Within the bucket, the first
// candidate whose SQL prefix occurs in the row's SQL wins, else the first
// candidate. It performs no I/O.
func (idx *AuditIndex) Correlate(row domain.QueryRecord) (*domain.AppIdentity, AttributionSource) {
	if row.Identity != nil && row.Identity.UserID != "" {
		return row.Identity, Embedded
	}
	if idx.Len() == 0 || row.StartedAt.IsZero() {
		return nil, Unattributed
	}

	home := bucketKey(row.StartedAt)
	if c, ok := idx.pick(home, row.Query); ok {
		return &domain.AppIdentity{UserID: c.UserID}, Correlated
	}
	steps := int64(CorrelationWindow / BucketWidth)
	for d := int64(1); d <= steps; d++ {
		if c, ok := idx.pick(home-d, row.Query); ok {
			return &domain.AppIdentity{UserID: c.UserID}, Correlated
		}
		if c, ok := idx.pick(home+d, row.Query); ok {
			return &domain.AppIdentity{UserID: c.UserID}, Correlated
		}
	}
	return nil, Unattributed
}

func (idx *AuditIndex) pick(key int64, sql string) (Candidate, bool) {
	bucket := idx.buckets[key]
	if len(bucket) == 0 {
		return Candidate{}, false
	}
	for _, c := range bucket {
		if c.SQLPrefix != "" && strings.Contains(sql, c.SQLPrefix) {
			return c, true
		}
	}
	return bucket[0], true
}
