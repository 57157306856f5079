package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectors(t *testing.T) {
	Init()
	Init()

	before := testutil.ToFloat64(signalsTotal.WithLabelValues("BUY"))
	IncSignal("BUY")
	assert.Equal(t, before+1, testutil.ToFloat64(signalsTotal.WithLabelValues("BUY")))

	SetHeartbeat(42, true)
	assert.Equal(t, float64(42), testutil.ToFloat64(heartbeatAge))
	assert.Equal(t, float64(1), testutil.ToFloat64(stalled))

	AddNewItems("feed", 0)
	AddNewItems("feed", 2)
	assert.Equal(t, float64(2), testutil.ToFloat64(newItemsTotal.WithLabelValues("feed")))
}

func TestHandler(t *testing.T) {
	ObserveCycle(true, 1.5)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "monitor_cycles_total")
}
