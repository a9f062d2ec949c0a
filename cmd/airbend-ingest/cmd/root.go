package cmd

import (
	"github.com/spf13/cobra"

	// storage backends register themselves by DSN scheme
	_ "github.com/airbend/airbend-ingest/internal/storage/clickhouse"
	_ "github.com/airbend/airbend-ingest/internal/storage/databend"
	_ "github.com/airbend/airbend-ingest/internal/storage/duckdb"
	_ "github.com/airbend/airbend-ingest/internal/storage/postgres"
	_ "github.com/airbend/airbend-ingest/internal/storage/sqlite"
)

const configFlag = "config"

// RootCmd is the root Cobra command that gets called from the main func. Without a sub-command it runs an
// ingestion pass, the same as the run sub-command.
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "airbend-ingest",
		Short: "airbend-ingest loads London Air Quality Network readings into an analytical store.",
		Args:  cobra.NoArgs,
		RunE:  runIngest,

		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().String(configFlag, "", "Path to a YAML configuration file")
	addRunFlags(cmd)

	cmd.AddCommand(
		runCmd(),
		createTablesCmd(),
	)
	return cmd
}
