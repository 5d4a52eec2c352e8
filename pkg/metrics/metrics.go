package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "squeaky"

// Collector wraps the Prometheus metrics recorded by database handles and the
// migration engine. It keeps its own registry so several collectors can coexist
// in one process (and in tests).
//
// All Observe methods are safe to call on a nil *Collector, which records nothing.
type Collector struct {
	registry *prometheus.Registry

	Prepares        *prometheus.CounterVec
	PrepareDuration *prometheus.HistogramVec
	TableMigrations *prometheus.CounterVec
	MigrationSteps  *prometheus.CounterVec
	Statements      *prometheus.CounterVec
}

// New creates a Collector whose metrics are prefixed with namespace. An empty
// namespace selects DefaultNamespace.
func New(namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	c := &Collector{
		registry: prometheus.NewRegistry(),
		Prepares: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prepares_total",
			Help:      "Total number of database prepare runs",
		}, []string{"database", "status"}),
		PrepareDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prepare_duration_seconds",
			Help:      "Duration of database prepare runs in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database"}),
		TableMigrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "table_migrations_total",
			Help:      "Total number of table reconciliations by outcome",
		}, []string{"table", "status"}),
		MigrationSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "migration_steps_total",
			Help:      "Total number of single-version migration steps applied",
		}, []string{"table", "direction"}),
		Statements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "statements_total",
			Help:      "Total number of statements executed through database handles",
		}, []string{"operation", "status"}),
	}

	c.registry.MustRegister(
		c.Prepares,
		c.PrepareDuration,
		c.TableMigrations,
		c.MigrationSteps,
		c.Statements,
	)

	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the collector's metrics in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObservePrepare records one prepare run of database.
func (c *Collector) ObservePrepare(database string, err error, d time.Duration) {
	if c == nil {
		return
	}

	c.Prepares.WithLabelValues(database, status(err)).Inc()
	c.PrepareDuration.WithLabelValues(database).Observe(d.Seconds())
}

// ObserveTable records the outcome of reconciling one table.
func (c *Collector) ObserveTable(table, outcome string) {
	if c == nil {
		return
	}

	c.TableMigrations.WithLabelValues(table, outcome).Inc()
}

// ObserveStep records one migration step of table in direction ("up" or "down").
func (c *Collector) ObserveStep(table, direction string) {
	if c == nil {
		return
	}

	c.MigrationSteps.WithLabelValues(table, direction).Inc()
}

// ObserveStatement records one application statement executed as operation.
func (c *Collector) ObserveStatement(operation string, err error) {
	if c == nil {
		return
	}

	c.Statements.WithLabelValues(operation, status(err)).Inc()
}

func status(err error) string {
	if err != nil {
		return "failure"
	}

	return "success"
}
