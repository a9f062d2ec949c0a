package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airbend/airbend-ingest/internal/ingester"
)

// parsed returns the run sub-command with args parsed, as cobra does before calling RunE.
func parsed(t *testing.T, name string, args ...string) *cobra.Command {
	root := RootCmd()
	cmd, _, err := root.Find([]string{name})
	require.NoError(t, err)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestLoadConfiguration_Defaults(t *testing.T) {
	conf, err := loadConfiguration(parsed(t, "run"))
	require.NoError(t, err)

	expected := ingester.DefaultConfiguration()
	assert.Equal(t, expected, conf)
}

func TestLoadConfiguration_Flags(t *testing.T) {
	conf, err := loadConfiguration(parsed(t, "run",
		"--start-date", "2024-09-01",
		"--end-date", "2024-09-02",
		"--max-concurrent-connections", "3",
		"--max-retries", "2",
		"--rate-limit-cooldown", "1s",
		"--max-requests-per-second", "2.5",
		"--metrics-port", "9001",
		"--connection-string", "sqlite://ingest.db",
	))
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), conf.StartDate)
	assert.Equal(t, time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC), conf.EndDate)
	assert.Equal(t, 3, conf.MaxConcurrentConnections)
	assert.Equal(t, uint(2), conf.MaxRetries)
	assert.Equal(t, time.Second, conf.RateLimitCooldown)
	assert.Equal(t, 2.5, conf.MaxRequestsPerSecond)
	assert.Equal(t, uint16(9001), conf.MetricsPort)
	assert.Equal(t, "sqlite://ingest.db", conf.ConnectionString)
	assert.NoError(t, conf.Validate())
}

func TestLoadConfiguration_EnvironmentAndFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "airbend.yaml")
	require.NoError(t, os.WriteFile(file, []byte("startDate: \"2024-01-01\"\nendDate: \"2024-01-31\"\nmaxRedirects: 3\n"), 0o600))
	t.Setenv("AIRBEND_END_DATE", "2024-02-29")

	conf, err := loadConfiguration(parsed(t, "run", "--config", file, "--max-redirects", "4"))
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), conf.StartDate)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), conf.EndDate)
	assert.Equal(t, 4, conf.MaxRedirects)
}

func TestLoadConfiguration_BadDate(t *testing.T) {
	_, err := loadConfiguration(parsed(t, "run", "--start-date", "01/09/2024"))
	assert.Error(t, err)
}

func TestCreateTables(t *testing.T) {
	root := RootCmd()
	root.SetArgs([]string{"create-tables", "--connection-string", "sqlite://" + filepath.Join(t.TempDir(), "ingest.db"), "--log-level", "error"})
	assert.NoError(t, root.Execute())
}

func TestRun_RequiresDates(t *testing.T) {
	root := RootCmd()
	root.SetArgs([]string{"run", "--connection-string", "sqlite://", "--log-level", "error"})
	assert.Error(t, root.Execute())
}
