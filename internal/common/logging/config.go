package logging

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	FormatText  = "text"
	FormatJson  = "json"
	FormatPlain = "plain"
)

var validLogFormats = map[string]bool{
	FormatText:  true,
	FormatJson:  true,
	FormatPlain: true,
}

// Config defines logging configuration for the ingester.
type Config struct {
	// Log level, e.g. INFO, ERROR etc
	Level string `mapstructure:"level"`
	// Logging format, one of text, json or plain. Empty means text.
	Format string `mapstructure:"format"`
	// If true a prometheus counter of log lines per level is registered
	CountLines bool `mapstructure:"countLines"`
}

func validate(c Config) error {
	if _, err := parseLogLevel(c.Level); err != nil {
		return err
	}
	return validateLogFormat(c.Format)
}

func validateLogFormat(f string) error {
	if f == "" {
		return nil
	}
	if _, ok := validLogFormats[strings.ToLower(f)]; !ok {
		formats := make([]string, 0, len(validLogFormats))
		for k := range validLogFormats {
			formats = append(formats, k)
		}
		sort.Strings(formats)
		return errors.Errorf("unknown log format: %s.  Valid formats are %s", f, formats)
	}
	return nil
}

func parseLogLevel(level string) (logrus.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel, nil
	case "info", "":
		return logrus.InfoLevel, nil
	case "warn", "warning":
		return logrus.WarnLevel, nil
	case "error":
		return logrus.ErrorLevel, nil
	case "panic":
		return logrus.PanicLevel, nil
	case "fatal":
		return logrus.FatalLevel, nil
	default:
		return logrus.InfoLevel, errors.Errorf("unknown level: %s", level)
	}
}
