// Package ingester runs one ingestion pass: it fetches the site catalogue, stores it, then fetches and stores the
// readings of every site concurrently, reporting each site that was written in full.
package ingester

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"k8s.io/utils/clock"

	"github.com/airbend/airbend-ingest/internal/common/airbendcontext"
	"github.com/airbend/airbend-ingest/internal/common/logging"
	"github.com/airbend/airbend-ingest/internal/laqn"
	"github.com/airbend/airbend-ingest/internal/schema"
	"github.com/airbend/airbend-ingest/internal/storage"
)

// Source provides the site catalogue and the readings of a single site.
type Source interface {
	FetchSites(ctx context.Context) ([]laqn.Site, error)
	FetchReadings(ctx context.Context, siteCode string, start, end time.Time) ([]laqn.Reading, error)
}

// SiteResult is emitted once for every site whose readings were all inserted, including sites with no readings.
type SiteResult struct {
	SiteCode string
	NRecords int
}

// SiteFailure records why a site was skipped.
type SiteFailure struct {
	SiteCode string
	Err      error
}

// RunSummary describes a completed run.
type RunSummary struct {
	RunID          string
	ScrapeTime     time.Time
	SitesTotal     int
	SitesSucceeded int
	RowsInserted   int
	Failures       []SiteFailure
	Duration       time.Duration
}

func (s RunSummary) SitesFailed() int {
	return len(s.Failures)
}

// Err combines every site failure, or returns nil if all sites succeeded.
func (s RunSummary) Err() error {
	var result *multierror.Error
	for _, f := range s.Failures {
		result = multierror.Append(result, f.Err)
	}
	return result.ErrorOrNil()
}

type Ingester struct {
	source     Source
	executor   storage.Executor
	startDate  time.Time
	endDate    time.Time
	maxRows    int
	clock      clock.PassiveClock
	metrics    *Metrics
	newRunID   func() string
	summaryMtx sync.Mutex
}

type Option func(*Ingester)

func WithClock(clk clock.PassiveClock) Option {
	return func(i *Ingester) { i.clock = clk }
}

func WithMetrics(m *Metrics) Option {
	return func(i *Ingester) { i.metrics = m }
}

func New(source Source, executor storage.Executor, config Configuration, opts ...Option) *Ingester {
	i := &Ingester{
		source:    source,
		executor:  executor,
		startDate: config.StartDate,
		endDate:   config.EndDate,
		maxRows:   config.MaxRowsPerStatement,
		clock:     clock.RealClock{},
		newRunID:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.metrics == nil {
		i.metrics = DefaultMetrics()
	}
	return i
}

// CreateTables creates every table a run writes to. It is safe to call on every run.
func (i *Ingester) CreateTables(ctx context.Context) error {
	for _, table := range Tables {
		if err := i.executor.Exec(ctx, table.CreateTableStatement(i.executor.Dialect())); err != nil {
			i.metrics.RecordDBError(DBOperationCreate)
			return errors.WithMessagef(err, "creating table %s", table.Name())
		}
	}
	return nil
}

// Run performs one ingestion pass. Failing to create the tables, fetch the catalogue or store it aborts the run and
// is returned as an error. Any failure for an individual site only skips that site; such failures are recorded in
// the summary. A SiteResult is sent on results for each site that succeeded; results may be nil and is never closed
// by Run. Run returns once every site has been dealt with.
func (i *Ingester) Run(ctx context.Context, results chan<- SiteResult) (RunSummary, error) {
	start := i.clock.Now()
	summary := RunSummary{
		RunID:      i.newRunID(),
		ScrapeTime: start.UTC().Truncate(time.Second),
	}
	actx := airbendcontext.WithLogField(airbendcontext.FromContext(ctx), "run", summary.RunID)

	if err := i.CreateTables(actx); err != nil {
		return summary, err
	}

	sites, err := i.source.FetchSites(actx)
	if err != nil {
		return summary, err
	}
	sites = i.validSites(actx, sites)
	summary.SitesTotal = len(sites)
	actx.Log.Infof("Fetched %d sites", len(sites))

	if err := i.persistCatalogue(actx, sites, summary.ScrapeTime); err != nil {
		return summary, err
	}
	i.metrics.lastRun.Set(float64(summary.ScrapeTime.Unix()))

	g, gctx := airbendcontext.ErrGroup(actx)
	for _, site := range sites {
		siteCode := site.SiteCode
		g.Go(func() error {
			sctx := airbendcontext.WithLogField(gctx, "site", siteCode)
			n, err := i.processSite(sctx, siteCode, summary.ScrapeTime)
			i.record(sctx, &summary, siteCode, n, err)
			if err == nil && results != nil {
				select {
				case results <- SiteResult{SiteCode: siteCode, NRecords: n}:
				case <-sctx.Done():
				}
			}
			// never fail the group, which would cancel the other sites
			return nil
		})
	}
	_ = g.Wait()

	summary.Duration = i.clock.Since(start)
	actx.Log.
		WithField("succeeded", summary.SitesSucceeded).
		WithField("failed", summary.SitesFailed()).
		WithField("rows", summary.RowsInserted).
		Infof("Run completed in %s", summary.Duration.Round(time.Millisecond))

	if err := ctx.Err(); err != nil {
		return summary, errors.WithMessage(err, "run interrupted")
	}
	return summary, nil
}

// validSites drops catalogue entries without a site code, which cannot be fetched or stored.
func (i *Ingester) validSites(ctx *airbendcontext.Context, sites []laqn.Site) []laqn.Site {
	valid := make([]laqn.Site, 0, len(sites))
	for _, site := range sites {
		if site.SiteCode == "" {
			ctx.Log.WithField("siteName", site.SiteName).Warn("Ignoring site without a site code")
			continue
		}
		valid = append(valid, site)
	}
	return valid
}

func (i *Ingester) persistCatalogue(ctx *airbendcontext.Context, sites []laqn.Site, scrapeTime time.Time) error {
	rows := make([]SiteMeta, len(sites))
	for j, site := range sites {
		rows[j] = NewSiteMeta(site, scrapeTime)
	}
	if err := insert(ctx, i, MetadataTable, rows); err != nil {
		return errors.WithMessage(err, "storing site catalogue")
	}
	return nil
}

func (i *Ingester) processSite(ctx *airbendcontext.Context, siteCode string, scrapeTime time.Time) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic while processing site %s: %v", siteCode, r)
		}
	}()

	readings, err := i.source.FetchReadings(ctx, siteCode, i.startDate, i.endDate)
	if err != nil {
		return 0, err
	}
	rows := make([]SensorReading, len(readings))
	for j, reading := range readings {
		rows[j] = NewSensorReading(siteCode, reading, scrapeTime)
	}
	if err := insert(ctx, i, ReadingsTable, rows); err != nil {
		return 0, errors.WithMessagef(err, "storing readings for site %s", siteCode)
	}
	return len(rows), nil
}

// insert writes records to table. Nothing is sent for an empty batch.
func insert[R schema.Record](ctx context.Context, i *Ingester, table *schema.Table, records []R) error {
	statements, err := schema.InsertStatements(table, records, schema.InsertOptions{
		Dialect:             i.executor.Dialect(),
		MaxRowsPerStatement: i.maxRows,
	})
	if err != nil {
		return err
	}
	for _, statement := range statements {
		if err := i.executor.Exec(ctx, statement); err != nil {
			i.metrics.RecordDBError(DBOperationInsert)
			return err
		}
	}
	if len(records) > 0 {
		i.metrics.RecordRowsInserted(table.Name(), len(records))
	}
	return nil
}

func (i *Ingester) record(ctx *airbendcontext.Context, summary *RunSummary, siteCode string, n int, err error) {
	if err != nil {
		i.metrics.RecordSite(SiteOutcomeFailed)
		logging.WithStacktrace(ctx.Log, err).Warn("Skipping site")
	} else {
		i.metrics.RecordSite(SiteOutcomeSucceeded)
		ctx.Log.Debugf("Inserted %d readings", n)
	}

	i.summaryMtx.Lock()
	defer i.summaryMtx.Unlock()
	if err != nil {
		summary.Failures = append(summary.Failures, SiteFailure{SiteCode: siteCode, Err: err})
		return
	}
	summary.SitesSucceeded++
	summary.RowsInserted += n
}
