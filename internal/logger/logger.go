// Copyright 2023 Google Inc. All Rights Reserved.
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

// Package logger provides the leveled, structured logger used throughout
// servefs: the VFS core, the producer evaluator, the FUSE adapter, the HTTP
// server and the CLI all log through here rather than through fmt or the
// stdlib log package directly.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/ellabellla/servefs/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Custom slog levels, finer-grained than the stdlib's four, mirroring the
// TRACE/DEBUG/INFO/WARNING/ERROR/OFF severities servefs is configured with.
const (
	LevelTrace = slog.Level(-8)
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
	LevelOff   = slog.Level(12)
)

var severityToLevel = map[config.LogSeverity]slog.Level{
	config.TRACE:   LevelTrace,
	config.DEBUG:   LevelDebug,
	config.INFO:    LevelInfo,
	config.WARNING: LevelWarn,
	config.ERROR:   LevelError,
	config.OFF:     LevelOff,
}

var levelNames = map[slog.Leveler]string{
	LevelTrace: "TRACE",
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARNING",
	LevelError: "ERROR",
}

type loggerFactory struct {
	file            *os.File
	sysWriter       io.Writer
	format          string
	level           config.LogSeverity
	logRotateConfig config.LogRotateConfig
}

var defaultLoggerFactory = &loggerFactory{
	sysWriter:       os.Stderr,
	format:          "text",
	level:           config.INFO,
	logRotateConfig: config.DefaultLogRotateConfig(),
}

var defaultLogger = slog.New(defaultLoggerFactory.createJsonOrTextHandler(os.Stderr, toLevelVar(config.INFO), ""))

func toLevelVar(severity config.LogSeverity) *slog.LevelVar {
	v := new(slog.LevelVar)
	v.Set(severityToLevel[severity])
	return v
}

// createJsonOrTextHandler builds a slog.Handler in the factory's configured
// format, writing to w and honoring the supplied level. prefix is written
// ahead of every message, used by tests to disambiguate log streams.
func (f *loggerFactory) createJsonOrTextHandler(w io.Writer, level *slog.LevelVar, prefix string) slog.Handler {
	isJSON := f.format == "json"
	replace := func(groups []string, a slog.Attr) slog.Attr {
		if a.Key == slog.LevelKey {
			lvl, _ := a.Value.Any().(slog.Level)
			name, ok := levelNames[lvl]
			if !ok {
				name = lvl.String()
			}
			a.Key = "severity"
			a.Value = slog.StringValue(name)
		}
		if a.Key == slog.MessageKey {
			a.Key = "message"
			a.Value = slog.StringValue(prefix + a.Value.String())
		}
		if isJSON && a.Key == slog.TimeKey {
			t := a.Value.Time()
			a.Key = "timestamp"
			a.Value = slog.GroupValue(
				slog.Int64("seconds", t.Unix()),
				slog.Int64("nanos", int64(t.Nanosecond())),
			)
		}
		return a
	}

	opts := &slog.HandlerOptions{Level: level, ReplaceAttr: replace}
	if isJSON {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func setLoggingLevel(severity config.LogSeverity, level *slog.LevelVar) {
	lvl, ok := severityToLevel[severity]
	if !ok {
		lvl = LevelInfo
	}
	level.Set(lvl)
}

// SetLogFormat switches the default logger between "text" and "json".
func SetLogFormat(format string) {
	defaultLoggerFactory.format = format
	w := defaultLoggerFactory.sysWriter
	if defaultLoggerFactory.file != nil {
		w = defaultLoggerFactory.file
	}
	defaultLogger = slog.New(defaultLoggerFactory.createJsonOrTextHandler(w, toLevelVar(defaultLoggerFactory.level), ""))
}

// InitLogFile redirects the default logger to a rotated log file described
// by cfg, replacing stderr output.
func InitLogFile(cfg config.LoggingConfig) error {
	if cfg.FilePath == "" {
		return nil
	}

	rotate := cfg.LogRotate
	if rotate.MaxFileSizeMB == 0 && rotate.BackupFileCount == 0 {
		rotate = config.DefaultLogRotateConfig()
	}

	writer := &lumberjack.Logger{
		Filename:   string(cfg.FilePath),
		MaxSize:    rotate.MaxFileSizeMB,
		MaxBackups: rotate.BackupFileCount,
		Compress:   rotate.Compress,
	}

	f, err := os.OpenFile(string(cfg.FilePath), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}

	severity := cfg.Severity
	if severity == "" {
		severity = config.INFO
	}

	defaultLoggerFactory = &loggerFactory{
		file:            f,
		format:          cfg.Format,
		level:           severity,
		logRotateConfig: rotate,
	}
	if defaultLoggerFactory.format == "" {
		defaultLoggerFactory.format = "text"
	}

	defaultLogger = slog.New(defaultLoggerFactory.createJsonOrTextHandler(writer, toLevelVar(severity), ""))
	return nil
}

func Tracef(format string, v ...interface{}) {
	defaultLogger.Log(context.Background(), LevelTrace, fmt.Sprintf(format, v...))
}

func Debugf(format string, v ...interface{}) {
	defaultLogger.Debug(fmt.Sprintf(format, v...))
}

func Infof(format string, v ...interface{}) {
	defaultLogger.Info(fmt.Sprintf(format, v...))
}

func Warnf(format string, v ...interface{}) {
	defaultLogger.Warn(fmt.Sprintf(format, v...))
}

func Errorf(format string, v ...interface{}) {
	defaultLogger.Error(fmt.Sprintf(format, v...))
}

// Duration logs how long an operation took at DEBUG severity; callers defer
// it immediately after starting the operation they want timed.
func Duration(op string, start time.Time) {
	Debugf("%s took %s", op, time.Since(start))
}
