package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	StartDate      time.Time
	MaxConnections int
	Cooldown       time.Duration
	Name           string
}

func newFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("start-date", "", "")
	flags.Int("max-connections", 5, "")
	flags.Duration("cooldown", 5*time.Second, "")
	flags.String("name", "default", "")
	return flags
}

var keys = map[string]string{
	"start-date":      "startDate",
	"max-connections": "maxConnections",
}

func TestLoadConfig_FlagDefaults(t *testing.T) {
	v := viper.New()
	flags := newFlags()
	require.NoError(t, BindFlags(v, flags, keys))

	var config testConfig
	require.NoError(t, LoadConfig(v, &config, ""))

	assert.Equal(t, testConfig{MaxConnections: 5, Cooldown: 5 * time.Second, Name: "default"}, config)
}

func TestLoadConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("maxConnections: 7\ncooldown: 1s\nname: file\n"), 0o600))
	t.Setenv("AIRBEND_COOLDOWN", "2s")
	t.Setenv("AIRBEND_START_DATE", "2024-09-01")

	v := viper.New()
	flags := newFlags()
	require.NoError(t, BindFlags(v, flags, keys))
	require.NoError(t, flags.Parse([]string{"--name", "flag"}))

	var config testConfig
	require.NoError(t, LoadConfig(v, &config, file))

	assert.Equal(t, time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), config.StartDate)
	assert.Equal(t, 7, config.MaxConnections)
	assert.Equal(t, 2*time.Second, config.Cooldown)
	assert.Equal(t, "flag", config.Name)
}

func TestLoadConfig_BadDate(t *testing.T) {
	v := viper.New()
	flags := newFlags()
	require.NoError(t, BindFlags(v, flags, keys))
	require.NoError(t, flags.Parse([]string{"--start-date", "01/09/2024"}))

	var config testConfig
	assert.Error(t, LoadConfig(v, &config, ""))
}

func TestLoadConfig_MissingFile(t *testing.T) {
	var config testConfig
	assert.Error(t, LoadConfig(viper.New(), &config, filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestEnvVar(t *testing.T) {
	assert.Equal(t, "AIRBEND_MAX_CONCURRENT_CONNECTIONS", EnvVar("max-concurrent-connections"))
}
