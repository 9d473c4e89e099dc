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

package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ellabellla/servefs/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type LoggerTest struct {
	suite.Suite
}

func TestLoggerSuite(t *testing.T) {
	suite.Run(t, new(LoggerTest))
}

func redirectLogsToBuffer(buf *bytes.Buffer, severity config.LogSeverity, format string) {
	defaultLoggerFactory = &loggerFactory{
		sysWriter:       buf,
		format:          format,
		level:           severity,
		logRotateConfig: config.DefaultLogRotateConfig(),
	}
	defaultLogger = slog.New(defaultLoggerFactory.createJsonOrTextHandler(buf, toLevelVar(severity), "test: "))
}

func runAllSeverities() []func() {
	return []func(){
		func() { Tracef("trace message") },
		func() { Debugf("debug message") },
		func() { Infof("info message") },
		func() { Warnf("warn message") },
		func() { Errorf("error message") },
	}
}

func (t *LoggerTest) TestSeverityFiltering() {
	cases := []struct {
		level       config.LogSeverity
		wantEmitted []bool // trace, debug, info, warn, error
	}{
		{config.OFF, []bool{false, false, false, false, false}},
		{config.ERROR, []bool{false, false, false, false, true}},
		{config.WARNING, []bool{false, false, false, true, true}},
		{config.INFO, []bool{false, false, true, true, true}},
		{config.DEBUG, []bool{false, true, true, true, true}},
		{config.TRACE, []bool{true, true, true, true, true}},
	}

	for _, c := range cases {
		var buf bytes.Buffer
		redirectLogsToBuffer(&buf, c.level, "text")

		for i, fn := range runAllSeverities() {
			buf.Reset()
			fn()
			if c.wantEmitted[i] {
				t.NotEmpty(buf.String(), "severity %s, case %d should have emitted", c.level, i)
			} else {
				t.Empty(buf.String(), "severity %s, case %d should not have emitted", c.level, i)
			}
		}
	}
}

func (t *LoggerTest) TestTextFormatIncludesSeverityAndMessage() {
	var buf bytes.Buffer
	redirectLogsToBuffer(&buf, config.INFO, "text")

	Infof("hello %s", "world")

	out := buf.String()
	t.Contains(out, "severity=INFO")
	t.Contains(out, "test: hello world")
}

func (t *LoggerTest) TestJSONFormatIncludesStructuredTimestamp() {
	var buf bytes.Buffer
	redirectLogsToBuffer(&buf, config.INFO, "json")

	Infof("hello")

	out := buf.String()
	t.True(strings.HasPrefix(out, "{"))
	t.Contains(out, `"severity":"INFO"`)
	t.Contains(out, `"message":"test: hello"`)
	t.Contains(out, `"timestamp":{`)
}

func (t *LoggerTest) TestSetLogFormat() {
	defaultLoggerFactory = &loggerFactory{
		sysWriter:       os.Stderr,
		format:          "text",
		level:           config.INFO,
		logRotateConfig: config.DefaultLogRotateConfig(),
	}

	var buf bytes.Buffer
	defaultLoggerFactory.sysWriter = &buf
	SetLogFormat("json")

	assert.Equal(t.T(), "json", defaultLoggerFactory.format)
	Infof("hi")
	assert.Contains(t.T(), buf.String(), `"severity":"INFO"`)
}

func (t *LoggerTest) TestInitLogFileCreatesRotatedFile() {
	dir := t.T().TempDir()
	path := filepath.Join(dir, "servefs.log")

	err := InitLogFile(config.LoggingConfig{
		FilePath: config.ResolvedPath(path),
		Severity: config.DEBUG,
		Format:   "text",
	})

	assert.NoError(t.T(), err)
	Infof("wrote to file")

	contents, readErr := os.ReadFile(path)
	assert.NoError(t.T(), readErr)
	assert.Contains(t.T(), string(contents), "wrote to file")
}

func (t *LoggerTest) TestInitLogFileNoopWhenPathEmpty() {
	err := InitLogFile(config.LoggingConfig{})
	assert.NoError(t.T(), err)
}
