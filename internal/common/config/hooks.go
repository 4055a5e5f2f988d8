package config

import (
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

var CustomHooks = []viper.DecoderConfigOption{
	viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		StringToTimeHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		TrimmedStringHookFunc(),
	)),
}

// StringToTimeHookFunc parses RFC3339 timestamps and plain dates (2006-01-02, interpreted as UTC midnight).
// Empty strings decode to the zero time.
func StringToTimeHookFunc() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(time.Time{}) {
			return data, nil
		}
		s := strings.TrimSpace(data.(string))
		if s == "" {
			return time.Time{}, nil
		}
		if ts, err := time.Parse("2006-01-02", s); err == nil {
			return ts.UTC(), nil
		}
		return time.Parse(time.RFC3339, s)
	}
}

// TrimmedStringHookFunc strips surrounding whitespace from string values, which commonly sneaks in through env vars.
func TrimmedStringHookFunc() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if f.Kind() != reflect.String || t.Kind() != reflect.String {
			return data, nil
		}
		return strings.TrimSpace(data.(string)), nil
	}
}
