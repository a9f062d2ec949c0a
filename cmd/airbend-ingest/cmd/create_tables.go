package cmd

import (
	"github.com/spf13/cobra"

	"github.com/airbend/airbend-ingest/internal/common/app"
	"github.com/airbend/airbend-ingest/internal/common/config"
	"github.com/airbend/airbend-ingest/internal/common/logging"
	"github.com/airbend/airbend-ingest/internal/common/util"
	"github.com/airbend/airbend-ingest/internal/ingester"
	"github.com/airbend/airbend-ingest/internal/storage"
)

func createTablesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-tables",
		Short: "Create the raw tables if they do not exist",
		Args:  cobra.NoArgs,
		RunE:  createTables,
	}
	addStorageFlags(cmd.Flags(), ingester.DefaultConfiguration())
	return cmd
}

func createTables(cmd *cobra.Command, _ []string) error {
	conf, err := loadConfiguration(cmd)
	if err != nil {
		return err
	}
	logging.MustConfigureLogging(conf.LoggingConfig())
	if err := conf.ValidateStorage(); err != nil {
		config.LogValidationErrors(err)
		return err
	}

	ctx := app.CreateContextWithShutdown()
	executor, err := storage.Open(ctx, conf.ConnectionString)
	if err != nil {
		return err
	}
	defer util.CloseResource("storage", executor)

	if err := ingester.New(nil, executor, conf).CreateTables(ctx); err != nil {
		return err
	}
	for _, table := range ingester.Tables {
		ctx.Log.Infof("Table %s is ready", table.Name())
	}
	return nil
}
