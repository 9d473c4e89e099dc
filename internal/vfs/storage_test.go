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

func TestOpenSeedsRootAndKinds(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	root, err := OpenDirectory(s, "/")
	require.NoError(t, err)
	exists, err := root.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	var count int
	err = s.db.QueryRowContext(ctx, `SELECT count(*) FROM servefs_file_types`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestOpenIsIdempotent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir() + "/fs.db"

	s1, err := Open(ctx, dir, "servefs_", true)
	require.NoError(t, err)
	f, err := OpenFile(s1, "/a")
	require.NoError(t, err)
	require.NoError(t, f.Mk(ctx, "hi", KindText))
	require.NoError(t, s1.Close())

	s2, err := Open(ctx, dir, "servefs_", true)
	require.NoError(t, err)
	defer s2.Close()

	f2, err := OpenFile(s2, "/a")
	require.NoError(t, err)
	exists, err := f2.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists, "reopening an existing database must not wipe existing rows")
}

func TestTablePrefixIsolatesTrees(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir() + "/fs.db"

	a, err := Open(ctx, dir, "a_", true)
	require.NoError(t, err)
	defer a.Close()
	b, err := Open(ctx, dir, "b_", true)
	require.NoError(t, err)
	defer b.Close()

	fa, err := OpenFile(a, "/only-in-a")
	require.NoError(t, err)
	require.NoError(t, fa.Mk(ctx, "x", KindText))

	fb, err := OpenFile(b, "/only-in-a")
	require.NoError(t, err)
	exists, err := fb.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists, "different table prefixes must address disjoint trees")
}
