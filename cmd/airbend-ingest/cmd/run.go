package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"k8s.io/utils/clock"

	"github.com/airbend/airbend-ingest/internal/common/app"
	"github.com/airbend/airbend-ingest/internal/common/config"
	"github.com/airbend/airbend-ingest/internal/common/logging"
	"github.com/airbend/airbend-ingest/internal/common/util"
	"github.com/airbend/airbend-ingest/internal/ingester"
	"github.com/airbend/airbend-ingest/internal/laqn"
	"github.com/airbend/airbend-ingest/internal/storage"
	"github.com/airbend/airbend-ingest/internal/transport"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch the LAQN site catalogue and readings for a date range and store them",
		Long: `Fetches the LAQN site catalogue and stores it, then fetches the readings of every site between
--start-date and --end-date concurrently and stores them. A site that cannot be fetched or stored is skipped
and logged; the run still succeeds.`,
		Args: cobra.NoArgs,
		RunE: runIngest,
	}
	addRunFlags(cmd)
	return cmd
}

func runIngest(cmd *cobra.Command, _ []string) error {
	conf, err := loadConfiguration(cmd)
	if err != nil {
		return err
	}
	logging.MustConfigureLogging(conf.LoggingConfig())
	if err := conf.Validate(); err != nil {
		config.LogValidationErrors(err)
		return err
	}

	ctx := app.CreateContextWithShutdown()
	shutdownMetricServer := app.ServeMetrics(conf.MetricsPort)
	defer shutdownMetricServer()

	executor, err := storage.Open(ctx, conf.ConnectionString)
	if err != nil {
		return err
	}
	defer util.CloseResource("storage", executor)

	source := laqn.NewClient(transport.NewClient(conf.TransportConfig()), conf.LAQNConfig())
	ing := ingester.New(source, executor, conf)

	ctx.Log.Infof("Fetching LAQN readings from %s to %s",
		conf.StartDate.Format(laqn.DateFormat), conf.EndDate.Format(laqn.DateFormat))

	results := make(chan ingester.SiteResult, conf.ResultBufferSize)
	reporter := newProgressReporter(ctx.Log, clock.RealClock{})
	reported := make(chan struct{})
	go func() {
		defer close(reported)
		reporter.Consume(results)
	}()

	summary, err := ing.Run(ctx, results)
	close(results)
	<-reported
	if err != nil {
		return err
	}

	if failed := summary.Err(); failed != nil {
		ctx.Log.WithField("failed", summary.SitesFailed()).Warnf("Some sites were skipped: %s", failed)
	}
	ctx.Log.Infof("Stored %d readings from %d of %d sites in %s",
		summary.RowsInserted, summary.SitesSucceeded, summary.SitesTotal, summary.Duration.Round(time.Second))
	return nil
}
