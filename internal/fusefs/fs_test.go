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

package fusefs

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellabellla/servefs/internal/metrics"
	"github.com/ellabellla/servefs/internal/vfs"
)

func newTestFS(t *testing.T) (*FileSystem, *vfs.Store) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fs.db")
	store, err := vfs.Open(context.Background(), path, "servefs_", true)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return New(store, metrics.NewNoop()), store
}

func mustMkDir(t *testing.T, s *vfs.Store, p string) {
	t.Helper()
	d, err := vfs.OpenDirectory(s, p)
	require.NoError(t, err)
	require.NoError(t, d.Mk(context.Background()))
}

func mustMkFile(t *testing.T, s *vfs.Store, p, data string, kind vfs.Kind) {
	t.Helper()
	f, err := vfs.OpenFile(s, p)
	require.NoError(t, err)
	require.NoError(t, f.Mk(context.Background(), data, kind))
}

func TestLookUpInodeFindsFileAndDirectory(t *testing.T) {
	fs, store := newTestFS(t)
	ctx := context.Background()

	mustMkDir(t, store, "/sub/")
	mustMkFile(t, store, "/hello", "world", vfs.KindText)

	rootID, err := vfs.RootID(ctx, store)
	require.NoError(t, err)
	root := dirInode(rootID)

	var op fuseops.LookUpInodeOp
	op.Parent = root
	op.Name = "hello"
	require.NoError(t, fs.LookUpInode(ctx, &op))
	assert.True(t, isFileInode(op.Entry.Child))
	assert.EqualValues(t, 5, op.Entry.Attributes.Size)

	op = fuseops.LookUpInodeOp{Parent: root, Name: "sub"}
	require.NoError(t, fs.LookUpInode(ctx, &op))
	assert.False(t, isFileInode(op.Entry.Child))
}

func TestLookUpInodeMissingNameIsENOENT(t *testing.T) {
	fs, store := newTestFS(t)
	ctx := context.Background()
	rootID, err := vfs.RootID(ctx, store)
	require.NoError(t, err)

	op := fuseops.LookUpInodeOp{Parent: dirInode(rootID), Name: "ghost"}
	err = fs.LookUpInode(ctx, &op)
	assert.Equal(t, fuse.ENOENT, err)
}

// TestReadDirListsImmediateChildrenOnly guards the deliberate deviation
// from the recursive Directory.Dirs query: a grandchild directory must not
// appear in its grandparent's listing.
func TestReadDirListsImmediateChildrenOnly(t *testing.T) {
	fs, store := newTestFS(t)
	ctx := context.Background()

	mustMkDir(t, store, "/a/")
	mustMkDir(t, store, "/a/b/")
	mustMkDir(t, store, "/a/b/c/")
	mustMkFile(t, store, "/a/f", "x", vfs.KindText)

	d, err := vfs.OpenDirectory(store, "/a/")
	require.NoError(t, err)
	id, err := d.ID(ctx)
	require.NoError(t, err)

	openOp := fuseops.OpenDirOp{Inode: dirInode(id)}
	require.NoError(t, fs.OpenDir(ctx, &openOp))

	entries, ok := fs.dirHandles.read(openOp.Handle)
	require.True(t, ok)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	require.GreaterOrEqual(t, len(names), 2)
	assert.Equal(t, []string{".", ".."}, names[:2], "synthesized entries must precede the real children")
	assert.ElementsMatch(t, []string{"b", "f"}, names[2:], "grandchild 'c' must not appear")

	for _, e := range entries[:2] {
		assert.Equal(t, dirInode(id), e.Inode, "'.' and '..' report the directory's own inode")
	}
}

func TestOpenFileMaterializesTextBody(t *testing.T) {
	fs, store := newTestFS(t)
	ctx := context.Background()

	mustMkFile(t, store, "/f", "body", vfs.KindText)
	f, err := vfs.OpenFile(store, "/f")
	require.NoError(t, err)
	id, err := f.ID(ctx)
	require.NoError(t, err)

	openOp := fuseops.OpenFileOp{Inode: fileInode(id)}
	require.NoError(t, fs.OpenFile(ctx, &openOp))

	body, ok := fs.fileHandles.read(openOp.Handle)
	require.True(t, ok)
	assert.Equal(t, []byte("body"), body)

	readOp := fuseops.ReadFileOp{Handle: openOp.Handle, Dst: make([]byte, 16)}
	require.NoError(t, fs.ReadFile(ctx, &readOp))
	assert.Equal(t, "body", string(readOp.Dst[:readOp.BytesRead]))

	require.NoError(t, fs.ReleaseFileHandle(ctx, &fuseops.ReleaseFileHandleOp{Handle: openOp.Handle}))
	_, ok = fs.fileHandles.read(openOp.Handle)
	assert.False(t, ok)
}
