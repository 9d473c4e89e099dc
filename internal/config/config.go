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
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the fully resolved configuration for a servefs process, shared
// by the file/dir CLI, the FUSE mount and the HTTP server.
type Config struct {
	Database DatabaseConfig `yaml:"database"`

	Logging LoggingConfig `yaml:"logging"`

	Metrics MetricsConfig `yaml:"metrics"`

	Fuse FuseConfig `yaml:"fuse"`

	Http HttpConfig `yaml:"http"`
}

// DatabaseConfig names the SQLite store backing the virtual file system.
type DatabaseConfig struct {
	// Path to the SQLite database file. Created if it does not yet exist.
	Path ResolvedPath `yaml:"path"`

	// TablePrefix is prepended to the dirs/files/file_types table names,
	// allowing several independent trees to share one database file.
	TablePrefix string `yaml:"table-prefix" mapstructure:"table-prefix"`
}

type LoggingConfig struct {
	Severity LogSeverity `yaml:"severity"`

	// Format is either "text" or "json".
	Format string `yaml:"format"`

	// FilePath, if set, directs log output to a rotated file instead of
	// stderr.
	FilePath ResolvedPath `yaml:"file-path" mapstructure:"file-path"`

	LogRotate LogRotateConfig `yaml:"log-rotate"`
}

type LogRotateConfig struct {
	MaxFileSizeMB   int  `yaml:"max-file-size-mb"`
	BackupFileCount int  `yaml:"backup-file-count"`
	Compress        bool `yaml:"compress"`
}

func DefaultLogRotateConfig() LogRotateConfig {
	return LogRotateConfig{
		MaxFileSizeMB:   512,
		BackupFileCount: 10,
		Compress:        false,
	}
}

type MetricsConfig struct {
	// Enabled turns on the OpenTelemetry/Prometheus instrumentation. When
	// false every recorded op falls through to a no-op handle.
	Enabled bool `yaml:"enabled"`

	// PrometheusPort exposes a /metrics scrape endpoint when non-zero.
	PrometheusPort int `yaml:"prometheus-port" mapstructure:"prometheus-port"`
}

// FuseConfig configures the `servefs mount` FUSE front-end.
type FuseConfig struct {
	ReadOnly bool `yaml:"read-only"`

	// Foreground keeps the mount process attached to the terminal instead
	// of daemonizing.
	Foreground bool `yaml:"foreground"`

	Debug bool `yaml:"debug"`
}

// HttpConfig configures the `servefs serve` HTTP front-end.
type HttpConfig struct {
	Address string `yaml:"address"`

	// Template, if set, overrides the built-in directory listing template.
	Template ResolvedPath `yaml:"template"`
}

func BindFlags(flagSet *pflag.FlagSet) error {
	var err error

	flagSet.StringP("db", "", "", "Path to the servefs SQLite database.")
	if err = viper.BindPFlag("database.path", flagSet.Lookup("db")); err != nil {
		return err
	}

	flagSet.StringP("prefix", "", "servefs_", "Prefix for the dirs/files/file_types tables.")
	if err = viper.BindPFlag("database.table-prefix", flagSet.Lookup("prefix")); err != nil {
		return err
	}

	flagSet.StringP("log-severity", "", "INFO", "Logging severity for --log-file output (stderr logging stays at INFO): TRACE, DEBUG, INFO, WARNING, ERROR, OFF.")
	if err = viper.BindPFlag("logging.severity", flagSet.Lookup("log-severity")); err != nil {
		return err
	}

	flagSet.StringP("log-format", "", "text", "Logging format: text or json.")
	if err = viper.BindPFlag("logging.format", flagSet.Lookup("log-format")); err != nil {
		return err
	}

	flagSet.StringP("log-file", "", "", "Write logs to this file instead of stderr.")
	if err = viper.BindPFlag("logging.file-path", flagSet.Lookup("log-file")); err != nil {
		return err
	}

	flagSet.BoolP("metrics", "", false, "Enable OpenTelemetry/Prometheus instrumentation.")
	if err = viper.BindPFlag("metrics.enabled", flagSet.Lookup("metrics")); err != nil {
		return err
	}

	flagSet.IntP("metrics-port", "", 0, "Port to serve Prometheus metrics on, 0 to disable.")
	if err = viper.BindPFlag("metrics.prometheus-port", flagSet.Lookup("metrics-port")); err != nil {
		return err
	}

	flagSet.StringP("template", "", "", "HTML template file overriding the built-in directory index.")
	if err = viper.BindPFlag("http.template", flagSet.Lookup("template")); err != nil {
		return err
	}

	return nil
}
