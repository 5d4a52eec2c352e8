package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/pseudomuto/squeaky/pkg/metrics"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	c := metrics.New("")

	c.ObservePrepare("app", nil, 10*time.Millisecond)
	c.ObservePrepare("app", errors.New("boom"), time.Millisecond)
	c.ObserveTable("users", "created")
	c.ObserveStep("users", "up")
	c.ObserveStep("users", "up")
	c.ObserveStatement("insert", nil)

	require.InDelta(t, 1, testutil.ToFloat64(c.Prepares.WithLabelValues("app", "success")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(c.Prepares.WithLabelValues("app", "failure")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(c.TableMigrations.WithLabelValues("users", "created")), 0)
	require.InDelta(t, 2, testutil.ToFloat64(c.MigrationSteps.WithLabelValues("users", "up")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(c.Statements.WithLabelValues("insert", "success")), 0)
	require.Equal(t, 1, testutil.CollectAndCount(c.PrepareDuration))
}

func TestCollector_Nil(t *testing.T) {
	var c *metrics.Collector

	require.NotPanics(t, func() {
		c.ObservePrepare("app", nil, time.Second)
		c.ObserveTable("users", "created")
		c.ObserveStep("users", "up")
		c.ObserveStatement("query", nil)
	})
}

func TestCollector_Handler(t *testing.T) {
	c := metrics.New("test")
	c.ObserveStep("users", "down")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `test_migration_steps_total{direction="down",table="users"} 1`)
}
