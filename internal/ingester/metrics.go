package ingester

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const MetricsPrefix = "airbend_ingester_"

type SiteOutcome string

const (
	SiteOutcomeSucceeded SiteOutcome = "succeeded"
	SiteOutcomeFailed    SiteOutcome = "failed"
)

type DBOperation string

const (
	DBOperationCreate DBOperation = "create"
	DBOperationInsert DBOperation = "insert"
)

type Metrics struct {
	sites        *prometheus.CounterVec
	rowsInserted *prometheus.CounterVec
	dbErrors     *prometheus.CounterVec
	lastRun      prometheus.Gauge
}

var (
	defaultMetricsOnce sync.Once
	defaultMetrics     *Metrics
)

func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		defaultMetrics = NewMetrics(MetricsPrefix, prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

func NewMetrics(prefix string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		sites: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "sites",
			Help: "Number of sites processed grouped by outcome",
		}, []string{"outcome"}),
		rowsInserted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "rows_inserted",
			Help: "Number of rows inserted grouped by table",
		}, []string{"table"}),
		dbErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "db_errors",
			Help: "Number of database errors grouped by database operation",
		}, []string{"operation"}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "last_scrape_time_seconds",
			Help: "Scrape time of the most recent run as a unix timestamp",
		}),
	}
}

func (m *Metrics) RecordSite(outcome SiteOutcome) {
	m.sites.With(map[string]string{"outcome": string(outcome)}).Inc()
}

func (m *Metrics) RecordRowsInserted(table string, n int) {
	m.rowsInserted.With(map[string]string{"table": table}).Add(float64(n))
}

func (m *Metrics) RecordDBError(operation DBOperation) {
	m.dbErrors.With(map[string]string{"operation": string(operation)}).Inc()
}
