package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKillAttempts_Increment(t *testing.T) {
	before := testutil.ToFloat64(KillAttempts.WithLabelValues("killed"))
	KillAttempts.WithLabelValues("killed").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(KillAttempts.WithLabelValues("killed")))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	ObserveEngineCall("list_processes", time.Now())
	ActiveSessions.Set(2)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "chouse_active_sessions 2")
	assert.Contains(t, rec.Body.String(), `chouse_engine_call_duration_seconds_count{op="list_processes"}`)
}
