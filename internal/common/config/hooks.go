package config

import (
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// DateLayout is the layout of calendar dates accepted in configuration, flags and environment variables.
const DateLayout = "2006-01-02"

// CustomHooks replace viper's default decode hooks, so the defaults are repeated here.
var CustomHooks = []viper.DecoderConfigOption{
	viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		DateDecodeHook(),
	)),
}

// DateDecodeHook decodes yyyy-mm-dd strings into time.Time values at midnight UTC.
func DateDecodeHook() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(time.Time{}) {
			return data, nil
		}
		s := data.(string)
		if s == "" {
			return time.Time{}, nil
		}
		date, err := time.ParseInLocation(DateLayout, s, time.UTC)
		if err != nil {
			return nil, errors.Wrapf(err, "%q is not a date in the form yyyy-mm-dd", s)
		}
		return date, nil
	}
}
