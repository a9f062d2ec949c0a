package logging

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/weaveworks/promrus"
)

const RFC3339Milli = "2006-01-02T15:04:05.000Z07:00"

// ConfigureLogging sets up the standard logrus logger suitable for a command line application.
// It must be called once at startup before any goroutines that log are started.
func ConfigureLogging(config Config) error {
	return configure(logrus.StandardLogger(), os.Stdout, config)
}

// MustConfigureLogging is like ConfigureLogging but falls back to sensible defaults, logging the error, if the supplied
// config is invalid.
func MustConfigureLogging(config Config) {
	if err := ConfigureLogging(config); err != nil {
		_ = ConfigureLogging(Config{Level: "info", Format: FormatText})
		logrus.WithError(err).Warn("Invalid logging configuration; falling back to defaults")
	}
}

func configure(logger *logrus.Logger, out io.Writer, config Config) error {
	if err := validate(config); err != nil {
		return err
	}
	level, _ := parseLogLevel(config.Level)
	logger.SetLevel(level)
	logger.SetOutput(out)
	logger.SetFormatter(formatterFor(config.Format))
	logger.ReplaceHooks(make(logrus.LevelHooks))
	if config.CountLines {
		hook, err := promrus.NewPrometheusHook()
		if err != nil {
			return errors.WithMessage(err, "registering log line counter")
		}
		logger.AddHook(hook)
	}
	return nil
}

func formatterFor(format string) logrus.Formatter {
	switch strings.ToLower(format) {
	case FormatJson:
		return &logrus.JSONFormatter{TimestampFormat: RFC3339Milli}
	case FormatPlain:
		return &CommandLineFormatter{}
	default:
		return &logrus.TextFormatter{ForceColors: true, FullTimestamp: true, TimestampFormat: RFC3339Milli}
	}
}
