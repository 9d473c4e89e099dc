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

// Package fusefs bridges the VFS core to a mountable, read-only POSIX
// filesystem via jacobsa/fuse: inode numbering over the directory/file id
// split, attribute synthesis, and the per-open file-handle cache that
// materializes producer output once per open.
package fusefs

import (
	"context"
	"errors"

	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/fuse/fuseutil"
	"github.com/jacobsa/timeutil"

	"github.com/ellabellla/servefs/internal/logger"
	"github.com/ellabellla/servefs/internal/metrics"
	"github.com/ellabellla/servefs/internal/producer"
	"github.com/ellabellla/servefs/internal/vfs"
)

// fuseDirent is a not-yet-offset-assigned directory entry; ReadDir assigns
// offsets at list time, matching the kernel's "offset of entry i is i+1"
// protocol described in spec.md §4.5.
type fuseDirent struct {
	Inode fuseops.InodeID
	Name  string
	Type  fuseutil.DirentType
}

// FileSystem implements fuseutil.FileSystem over a VFS store. Unimplemented
// methods (everything that would mutate the tree) fall through to
// NotImplementedFileSystem's ENOSYS, matching the read-only mount spec.md
// §4.5 calls for.
type FileSystem struct {
	fuseutil.NotImplementedFileSystem

	store   *vfs.Store
	metrics metrics.MetricHandle
	clock   timeutil.Clock

	dirHandles  *dirHandleCache
	fileHandles *fileHandleCache
}

var _ fuseutil.FileSystem = (*FileSystem)(nil)

// New builds a FileSystem backed by store. m may be metrics.NewNoop() when
// metrics collection is disabled.
func New(store *vfs.Store, m metrics.MetricHandle) *FileSystem {
	return &FileSystem{
		store:       store,
		metrics:     m,
		clock:       timeutil.RealClock(),
		dirHandles:  newDirHandleCache(),
		fileHandles: newFileHandleCache(),
	}
}

func (fs *FileSystem) StatFS(ctx context.Context, op *fuseops.StatFSOp) error {
	return nil
}

// LookUpInode resolves (parent directory inode, name) to a child inode,
// checking the file table before the directory table, so a name that exists
// both as a file and as a sub-directory resolves to the file.
func (fs *FileSystem) LookUpInode(ctx context.Context, op *fuseops.LookUpInodeOp) error {
	defer metrics.Timed(fs.metrics, ctx, "fuse.lookup", nil)()

	if isFileInode(op.Parent) {
		return fuse.ENOENT
	}
	parent, err := vfs.GetDirectoryByID(ctx, fs.store, dirRowID(op.Parent))
	if err != nil {
		return mapErr(err)
	}

	childPath := parent.Path() + op.Name

	f, err := vfs.OpenFile(fs.store, childPath)
	if err == nil {
		if exists, existsErr := f.Exists(ctx); existsErr == nil && exists {
			id, idErr := f.ID(ctx)
			if idErr != nil {
				return mapErr(idErr)
			}
			data, kind, readErr := f.Read(ctx)
			if readErr != nil {
				return mapErr(readErr)
			}
			op.Entry.Child = fileInode(id)
			op.Entry.Attributes = fileAttributes(kind, data)
			op.Entry.AttributesExpiration = fs.clock.Now().Add(attrTTL)
			op.Entry.EntryExpiration = op.Entry.AttributesExpiration
			return nil
		}
	}

	d, err := vfs.OpenDirectory(fs.store, childPath)
	if err != nil {
		return mapErr(err)
	}
	exists, err := d.Exists(ctx)
	if err != nil {
		return mapErr(err)
	}
	if !exists {
		return fuse.ENOENT
	}
	id, err := d.ID(ctx)
	if err != nil {
		return mapErr(err)
	}
	op.Entry.Child = dirInode(id)
	op.Entry.Attributes = dirAttributes()
	op.Entry.AttributesExpiration = fs.clock.Now().Add(attrTTL)
	op.Entry.EntryExpiration = op.Entry.AttributesExpiration
	return nil
}

func (fs *FileSystem) GetInodeAttributes(ctx context.Context, op *fuseops.GetInodeAttributesOp) error {
	defer metrics.Timed(fs.metrics, ctx, "fuse.getattr", nil)()

	if isFileInode(op.Inode) {
		f, err := vfs.GetFileByID(ctx, fs.store, fileRowID(op.Inode))
		if err != nil {
			return mapErr(err)
		}
		data, kind, err := f.Read(ctx)
		if err != nil {
			return mapErr(err)
		}
		op.Attributes = fileAttributes(kind, data)
	} else {
		if _, err := vfs.GetDirectoryByID(ctx, fs.store, dirRowID(op.Inode)); err != nil {
			return mapErr(err)
		}
		op.Attributes = dirAttributes()
	}
	op.AttributesExpiration = fs.clock.Now().Add(attrTTL)
	return nil
}

func (fs *FileSystem) ForgetInode(ctx context.Context, op *fuseops.ForgetInodeOp) error {
	return nil
}

func (fs *FileSystem) OpenDir(ctx context.Context, op *fuseops.OpenDirOp) error {
	d, err := vfs.GetDirectoryByID(ctx, fs.store, dirRowID(op.Inode))
	if err != nil {
		return mapErr(err)
	}

	files, dirs, err := d.Contents(ctx)
	if err != nil {
		return mapErr(err)
	}

	// The synthesized "." and ".." entries precede the real children, per
	// spec.md §4.5; both report the directory's own inode, matching the
	// original readdir's convention.
	entries := make([]fuseDirent, 0, 2+len(files)+len(dirs))
	entries = append(entries,
		fuseDirent{Inode: op.Inode, Name: ".", Type: fuseutil.DT_Directory},
		fuseDirent{Inode: op.Inode, Name: "..", Type: fuseutil.DT_Directory},
	)
	for _, f := range files {
		entries = append(entries, fuseDirent{Inode: fileInode(f.ID), Name: f.Name, Type: fuseutil.DT_File})
	}
	// Dirs() is recursive (matches any descendant depth); spec.md §4.5
	// requires readdir to list immediate children only, so entries whose
	// parent isn't exactly d are filtered out here.
	for _, sub := range dirs {
		if vfs.ParentPath(sub.Path) != d.Path() {
			continue
		}
		entries = append(entries, fuseDirent{Inode: dirInode(sub.ID), Name: vfs.Basename(sub.Path), Type: fuseutil.DT_Directory})
	}

	op.Handle = fs.dirHandles.open(entries)
	return nil
}

func (fs *FileSystem) ReadDir(ctx context.Context, op *fuseops.ReadDirOp) error {
	entries, ok := fs.dirHandles.read(op.Handle)
	if !ok {
		return fuse.EIO
	}

	if int(op.Offset) > len(entries) {
		return nil
	}
	entries = entries[op.Offset:]

	for i, e := range entries {
		n := fuseutil.WriteDirent(op.Dst[op.BytesRead:], fuseutil.Dirent{
			Offset: op.Offset + fuseops.DirOffset(i) + 1,
			Inode:  e.Inode,
			Name:   e.Name,
			Type:   e.Type,
		})
		if n == 0 {
			break
		}
		op.BytesRead += n
	}
	return nil
}

func (fs *FileSystem) ReleaseDirHandle(ctx context.Context, op *fuseops.ReleaseDirHandleOp) error {
	fs.dirHandles.release(op.Handle)
	return nil
}

// OpenFile materializes the file's producer output once, per spec.md
// §4.5's file-handle cache, using the streaming evaluator so a slow exec
// producer yields the output it wrote within the budget rather than none.
func (fs *FileSystem) OpenFile(ctx context.Context, op *fuseops.OpenFileOp) error {
	f, err := vfs.GetFileByID(ctx, fs.store, fileRowID(op.Inode))
	if err != nil {
		return mapErr(err)
	}
	data, kind, err := f.Read(ctx)
	if err != nil {
		return mapErr(err)
	}

	body, err := producer.EvaluateStreaming(ctx, kind, data)
	if err != nil {
		logger.Debugf("fuse open %s: producer failed: %v", f.Path(), err)
		body = nil
	}

	op.Handle = fs.fileHandles.open(body)
	return nil
}

func (fs *FileSystem) ReadFile(ctx context.Context, op *fuseops.ReadFileOp) error {
	body, ok := fs.fileHandles.read(op.Handle)
	if !ok {
		return fuse.EIO
	}
	if op.Offset > int64(len(body)) {
		op.BytesRead = 0
		return nil
	}
	op.BytesRead = copy(op.Dst, body[op.Offset:])
	return nil
}

func (fs *FileSystem) ReleaseFileHandle(ctx context.Context, op *fuseops.ReleaseFileHandleOp) error {
	fs.fileHandles.release(op.Handle)
	return nil
}

// mapErr collapses every VFS error to ENOENT, per spec.md §7: "the FUSE
// adapter maps everything to ENOENT."
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var verr *vfs.Error
	if errors.As(err, &verr) {
		return fuse.ENOENT
	}
	return fuse.ENOENT
}
