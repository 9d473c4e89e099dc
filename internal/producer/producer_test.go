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

package producer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ellabellla/servefs/internal/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateText(t *testing.T) {
	b, err := Evaluate(context.Background(), vfs.KindText, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
}

func TestEvaluateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "host.bin")
	require.NoError(t, os.WriteFile(path, []byte{0x00, 0x01, 0xff}, 0644))

	b, err := Evaluate(context.Background(), vfs.KindFile, path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x01, 0xff}, b)
}

func TestEvaluateFileMissing(t *testing.T) {
	_, err := Evaluate(context.Background(), vfs.KindFile, "/does/not/exist")
	assert.ErrorIs(t, err, ErrProducerFailed)
}

func TestEvaluateAllAtOnceExec(t *testing.T) {
	b, err := EvaluateAllAtOnce(context.Background(), "echo hello")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(b))
}

func TestEvaluateAllAtOnceExecTimeout(t *testing.T) {
	start := time.Now()
	_, err := EvaluateAllAtOnce(context.Background(), "sleep 5; echo late")
	assert.ErrorIs(t, err, ErrProducerFailed)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestEvaluateStreamingExec(t *testing.T) {
	b, err := EvaluateStreaming(context.Background(), vfs.KindExec, "echo hello")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(b))
}

func TestEvaluateStreamingExecTimeoutReturnsPartial(t *testing.T) {
	start := time.Now()
	b, err := EvaluateStreaming(context.Background(), vfs.KindExec, "echo first; sleep 5; echo late")
	require.NoError(t, err)
	assert.Contains(t, string(b), "first")
	assert.NotContains(t, string(b), "late")
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestEvaluateStreamingNonExecDelegates(t *testing.T) {
	b, err := EvaluateStreaming(context.Background(), vfs.KindText, "hi")
	require.NoError(t, err)
	assert.Equal(t, "hi", string(b))
}
