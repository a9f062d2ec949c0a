package cmd

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/airbend/airbend-ingest/internal/ingester"
)

// progressReporter logs a line for every completed site.
type progressReporter struct {
	log   *logrus.Entry
	clock clock.PassiveClock
	start time.Time
	sites int
}

func newProgressReporter(log *logrus.Entry, clk clock.PassiveClock) *progressReporter {
	return &progressReporter{
		log:   log,
		clock: clk,
		start: clk.Now(),
	}
}

// Consume reports every result until results is closed.
func (p *progressReporter) Consume(results <-chan ingester.SiteResult) {
	for result := range results {
		p.report(result)
	}
}

func (p *progressReporter) report(result ingester.SiteResult) {
	p.sites++
	p.log.Infof("Inserted %d LAQN sites in %s", p.sites, formatElapsed(p.clock.Since(p.start)))
	p.log.Infof("Inserted %d records for site: %s", result.NRecords, result.SiteCode)
}

// formatElapsed renders d as mm:ss. Minutes are not capped at 59.
func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%02d:%02d", int(d/time.Minute), int(d%time.Minute/time.Second))
}
