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

package vfs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFileLifecycleScenario mirrors spec.md §8 scenario 1.
func TestFileLifecycleScenario(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	f, err := OpenFile(s, "/file")
	require.NoError(t, err)
	require.NoError(t, f.Mk(ctx, "data", KindText))

	exists, err := f.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	data, kind, err := f.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "data", data)
	assert.Equal(t, KindText, kind)

	require.NoError(t, f.Rename(ctx, "file_2"))
	assert.Equal(t, "/file_2", f.Path())

	data, kind, err = f.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "data", data)
	assert.Equal(t, KindText, kind)

	require.NoError(t, f.Del(ctx))
	exists, err = f.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFileMkDuplicateFails(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	f1, err := OpenFile(s, "/dup")
	require.NoError(t, err)
	require.NoError(t, f1.Mk(ctx, "a", KindText))

	f2, err := OpenFile(s, "/dup")
	require.NoError(t, err)
	err = f2.Mk(ctx, "b", KindText)
	assert.Error(t, err)
}

func TestFileMkIntoMissingDirFails(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	f, err := OpenFile(s, "/nope/file")
	require.NoError(t, err)
	err = f.Mk(ctx, "a", KindText)
	assert.Error(t, err)
}

func TestFileDelOfMissingIsNoop(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	f, err := OpenFile(s, "/ghost")
	require.NoError(t, err)
	assert.NoError(t, f.Del(ctx))
}

func TestFileWriteChangesKind(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	f, err := OpenFile(s, "/f")
	require.NoError(t, err)
	require.NoError(t, f.Mk(ctx, "data", KindText))
	require.NoError(t, f.Write(ctx, "echo hi", KindExec))

	data, kind, err := f.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "echo hi", data)
	assert.Equal(t, KindExec, kind)
}

func TestFileMv(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	d, err := OpenDirectory(s, "/sub")
	require.NoError(t, err)
	require.NoError(t, d.Mk(ctx))

	f, err := OpenFile(s, "/f")
	require.NoError(t, err)
	require.NoError(t, f.Mk(ctx, "x", KindText))

	require.NoError(t, f.Mv(ctx, "/sub"))
	assert.Equal(t, "/sub/f", f.Path())

	exists, err := f.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestGetFileByID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	f, err := OpenFile(s, "/by-id")
	require.NoError(t, err)
	require.NoError(t, f.Mk(ctx, "x", KindText))

	id, err := f.ID(ctx)
	require.NoError(t, err)

	f2, err := GetFileByID(ctx, s, id)
	require.NoError(t, err)
	assert.Equal(t, "/by-id", f2.Path())
}
