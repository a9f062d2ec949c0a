// Package config loads command configuration from flags, environment variables and an optional YAML file.
// Precedence, highest first: flags that were set explicitly, environment variables, the config file, flag defaults.
package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to the upper-snake-case flag name to form the environment variable, e.g. the flag
// start-date is read from AIRBEND_START_DATE.
const EnvPrefix = "AIRBEND"

// BindFlags binds every flag in flags to a viper key. keys maps flag names to configuration keys, which must match
// the mapstructure names of the configuration struct; flags without an entry are bound under their own name.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	var bindErr error
	flags.VisitAll(func(flag *pflag.Flag) {
		if bindErr != nil {
			return
		}
		key, ok := keys[flag.Name]
		if !ok {
			key = flag.Name
		}
		if err := v.BindPFlag(key, flag); err != nil {
			bindErr = errors.WithMessagef(err, "binding flag %s", flag.Name)
			return
		}
		if err := v.BindEnv(key, EnvVar(flag.Name)); err != nil {
			bindErr = errors.WithMessagef(err, "binding environment for flag %s", flag.Name)
		}
	})
	return bindErr
}

// EnvVar returns the environment variable read for a flag.
func EnvVar(flagName string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}

// LoadConfig reads configFile, if given, and decodes everything viper knows into config.
func LoadConfig(v *viper.Viper, config interface{}, configFile string) error {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "reading config file %s", configFile)
		}
	}
	if err := v.Unmarshal(config, CustomHooks...); err != nil {
		return errors.Wrap(err, "decoding configuration")
	}
	return nil
}
