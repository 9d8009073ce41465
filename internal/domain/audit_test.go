package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAuditEvent_EffectiveTimestamp(t *testing.T) {
	written := time.Date(2026, 3, 1, 12, 0, 10, 0, time.UTC)
	executed := time.Date(2026, 3, 1, 12, 0, 2, 500_000_000, time.UTC)

	t.Run("prefers_executed_at_string", func(t *testing.T) {
		e := AuditEvent{CreatedAt: written, Details: map[string]any{
			DetailExecutedAt: executed.Format(time.RFC3339Nano),
		}}
		assert.True(t, executed.Equal(e.EffectiveTimestamp()))
	})

	t.Run("accepts_unix_millis", func(t *testing.T) {
		e := AuditEvent{CreatedAt: written, Details: map[string]any{
			DetailExecutedAt: float64(executed.UnixMilli()),
		}}
		assert.Equal(t, executed.UnixMilli(), e.EffectiveTimestamp().UnixMilli())
	})

	t.Run("falls_back_to_write_time", func(t *testing.T) {
		e := AuditEvent{CreatedAt: written, Details: map[string]any{
			DetailExecutedAt: "not a timestamp",
		}}
		assert.True(t, written.Equal(e.EffectiveTimestamp()))
	})

	t.Run("nil_details", func(t *testing.T) {
		e := AuditEvent{CreatedAt: written}
		assert.True(t, written.Equal(e.EffectiveTimestamp()))
	})
}

func TestTruncateSQL(t *testing.T) {
	short := "SELECT 1"
	assert.Equal(t, short, TruncateSQL(short))

	long := strings.Repeat("é", SQLPrefixLength+10)
	got := TruncateSQL(long)
	assert.Equal(t, SQLPrefixLength, len([]rune(got)))
	assert.True(t, strings.HasPrefix(long, got))
}

func TestAuditFilter_EffectiveLimit(t *testing.T) {
	assert.Equal(t, DefaultAuditLimit, AuditFilter{}.EffectiveLimit())
	assert.Equal(t, 7, AuditFilter{Limit: 7}.EffectiveLimit())
	assert.Equal(t, MaxAuditLimit, AuditFilter{Limit: MaxAuditLimit + 1}.EffectiveLimit())
}
