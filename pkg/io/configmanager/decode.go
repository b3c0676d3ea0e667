package configmanager

import (
	"fmt"
	"reflect"
	"time"

	"github.com/coderev/coderev-infra/pkg/utils/envvar"
	mapstructure "github.com/go-viper/mapstructure/v2"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// metav1DurationHook decodes "90s"-style strings into metav1.Duration fields.
func metav1DurationHook() mapstructure.DecodeHookFuncType {
	target := reflect.TypeFor[metav1.Duration]()

	return func(_ reflect.Type, to reflect.Type, data any) (any, error) {
		if to != target {
			return data, nil
		}

		switch value := data.(type) {
		case string:
			duration, err := time.ParseDuration(value)
			if err != nil {
				return nil, fmt.Errorf("parse duration %q: %w", value, err)
			}

			return metav1.Duration{Duration: duration}, nil
		case time.Duration:
			return metav1.Duration{Duration: value}, nil
		default:
			return data, nil
		}
	}
}

// expandEnvHook expands ${NAME} and ${NAME:-fallback} in every string read from the file.
func expandEnvHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, _ reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String {
			return data, nil
		}

		value, ok := data.(string)
		if !ok {
			return data, nil
		}

		return envvar.Expand(value), nil
	}
}

func decoderConfig(dc *mapstructure.DecoderConfig) {
	dc.TagName = "json"
	dc.Squash = true
	dc.ZeroFields = true
	dc.WeaklyTypedInput = true
	dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
		expandEnvHook(),
		metav1DurationHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}
