package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/airbend/airbend-ingest/internal/common/config"
	"github.com/airbend/airbend-ingest/internal/ingester"
)

const (
	startDateFlag                = "start-date"
	endDateFlag                  = "end-date"
	maxConcurrentConnectionsFlag = "max-concurrent-connections"
	connectionStringFlag         = "connection-string"
	maxRequestsPerSecondFlag     = "max-requests-per-second"
	maxRetriesFlag               = "max-retries"
	retryBaseDelayFlag           = "retry-base-delay"
	retryMaxDelayFlag            = "retry-max-delay"
	retryMaxJitterFlag           = "retry-max-jitter"
	rateLimitCooldownFlag        = "rate-limit-cooldown"
	maxRateLimitRetriesFlag      = "max-rate-limit-retries"
	maxRedirectsFlag             = "max-redirects"
	requestTimeoutFlag           = "request-timeout"
	maxRowsPerStatementFlag      = "max-rows-per-statement"
	resultBufferSizeFlag         = "result-buffer-size"
	metricsPortFlag              = "metrics-port"
	logLevelFlag                 = "log-level"
	logFormatFlag                = "log-format"
	sitesURLFlag                 = "sites-url"
	readingsURLFlag              = "readings-url"
)

// configKeys maps flag names to ingester.Configuration fields.
var configKeys = map[string]string{
	startDateFlag:                "startDate",
	endDateFlag:                  "endDate",
	maxConcurrentConnectionsFlag: "maxConcurrentConnections",
	connectionStringFlag:         "connectionString",
	maxRequestsPerSecondFlag:     "maxRequestsPerSecond",
	maxRetriesFlag:               "maxRetries",
	retryBaseDelayFlag:           "retryBaseDelay",
	retryMaxDelayFlag:            "retryMaxDelay",
	retryMaxJitterFlag:           "retryMaxJitter",
	rateLimitCooldownFlag:        "rateLimitCooldown",
	maxRateLimitRetriesFlag:      "maxRateLimitRetries",
	maxRedirectsFlag:             "maxRedirects",
	requestTimeoutFlag:           "requestTimeout",
	maxRowsPerStatementFlag:      "maxRowsPerStatement",
	resultBufferSizeFlag:         "resultBufferSize",
	metricsPortFlag:              "metricsPort",
	logLevelFlag:                 "logLevel",
	logFormatFlag:                "logFormat",
	sitesURLFlag:                 "sitesURL",
	readingsURLFlag:              "readingsURL",
}

func addStorageFlags(flags *pflag.FlagSet, defaults ingester.Configuration) {
	flags.String(connectionStringFlag, defaults.ConnectionString, "DSN of the target store; the scheme selects the backend")
	flags.String(logLevelFlag, defaults.LogLevel, "Log level")
	flags.String(logFormatFlag, defaults.LogFormat, "Log format, one of text, json or plain")
}

func addRunFlags(cmd *cobra.Command) {
	defaults := ingester.DefaultConfiguration()
	flags := cmd.Flags()
	flags.String(startDateFlag, "", "First day of readings to fetch (yyyy-mm-dd)")
	flags.String(endDateFlag, "", "Last day of readings to fetch (yyyy-mm-dd)")
	flags.Int(maxConcurrentConnectionsFlag, defaults.MaxConcurrentConnections, "Maximum number of requests to the LAQN API in flight at once")
	flags.Float64(maxRequestsPerSecondFlag, defaults.MaxRequestsPerSecond, "Maximum request rate to the LAQN API; 0 means unlimited")
	flags.Uint(maxRetriesFlag, defaults.MaxRetries, "Retries after a connection error or 5xx response")
	flags.Duration(retryBaseDelayFlag, defaults.RetryBaseDelay, "Delay before the first retry; doubled on each subsequent retry")
	flags.Duration(retryMaxDelayFlag, defaults.RetryMaxDelay, "Upper bound on the delay between retries")
	flags.Duration(retryMaxJitterFlag, defaults.RetryMaxJitter, "Maximum random jitter added to each retry delay")
	flags.Duration(rateLimitCooldownFlag, defaults.RateLimitCooldown, "Wait after a 429 response before trying again")
	flags.Uint(maxRateLimitRetriesFlag, defaults.MaxRateLimitRetries, "Retries after a 429 response")
	flags.Int(maxRedirectsFlag, defaults.MaxRedirects, "Maximum number of redirects followed per request")
	flags.Duration(requestTimeoutFlag, defaults.RequestTimeout, "Timeout for a single LAQN request once it holds a connection slot, including retries; 0 means none")
	flags.Int(maxRowsPerStatementFlag, defaults.MaxRowsPerStatement, "Rows per INSERT statement; 0 means one statement per site")
	flags.Int(resultBufferSizeFlag, defaults.ResultBufferSize, "Capacity of the site completion channel")
	flags.Uint16(metricsPortFlag, defaults.MetricsPort, "Port to serve prometheus metrics on; 0 disables the metrics server")
	flags.String(sitesURLFlag, defaults.SitesURL, "URL of the LAQN site catalogue")
	flags.String(readingsURLFlag, defaults.ReadingsURL, "Template of the LAQN readings URL taking the site code, start and end date")
	addStorageFlags(flags, defaults)
}

// loadConfiguration merges flags, environment variables and the config file, if any, over the defaults.
func loadConfiguration(cmd *cobra.Command) (ingester.Configuration, error) {
	conf := ingester.DefaultConfiguration()
	v := viper.New()
	if err := config.BindFlags(v, cmd.Flags(), configKeys); err != nil {
		return conf, err
	}
	configFile, err := cmd.Flags().GetString(configFlag)
	if err != nil {
		return conf, err
	}
	if err := config.LoadConfig(v, &conf, configFile); err != nil {
		return conf, err
	}
	return conf, nil
}
