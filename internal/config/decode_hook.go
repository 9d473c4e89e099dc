// Copyright 2024 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// hookFunc decodes string values from a YAML/flag source into the custom
// value types used by Config, by way of their encoding.TextUnmarshaler
// implementations.
func hookFunc() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if from.Kind() != reflect.String {
			return data, nil
		}

		switch to {
		case reflect.TypeOf(LogSeverity("")):
			var l LogSeverity
			if err := l.UnmarshalText([]byte(data.(string))); err != nil {
				return nil, err
			}
			return l, nil
		case reflect.TypeOf(ResolvedPath("")):
			var p ResolvedPath
			if err := p.UnmarshalText([]byte(data.(string))); err != nil {
				return nil, err
			}
			return p, nil
		default:
			return data, nil
		}
	}
}

// DecodeHook returns the composed mapstructure decode hook used when
// unmarshalling viper's configuration tree into a Config value.
func DecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		hookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// ParseLogSeverity validates a raw flag string into a LogSeverity, returning
// an error with the offending value named for CLI diagnostics.
func ParseLogSeverity(s string) (LogSeverity, error) {
	var l LogSeverity
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return "", fmt.Errorf("--log-severity: %w", err)
	}
	return l, nil
}
