package main

import (
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/airbend/airbend-ingest/cmd/airbend-ingest/cmd"
	"github.com/airbend/airbend-ingest/internal/common/logging"
)

func main() {
	logging.MustConfigureLogging(logging.Config{Level: "info", Format: logging.FormatText})
	if err := cmd.RootCmd().Execute(); err != nil {
		logging.WithStacktrace(log.NewEntry(log.StandardLogger()), err).Error("airbend-ingest failed")
		os.Exit(1)
	}
}
