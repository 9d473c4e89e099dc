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
	"math"
	"os"
	"time"

	"github.com/jacobsa/fuse/fuseops"

	"github.com/ellabellla/servefs/internal/vfs"
)

// epoch is the fixed Atime/Mtime/Ctime reported for inodes with no backing
// host file (directories, and the text/exec file kinds), per spec.md §4.5.
// Only kind=file, which stats a real host path, reports a live timestamp.
var epoch = time.Unix(0, 0)

// split is the inode partition point: inodes below it address directories
// by their storage id, inodes at or above it address files by
// file.id + split. This lets the adapter classify an inode with a single
// comparison, no lookup required.
const split = math.MaxUint64 / 2

// attrTTL is how long the kernel may cache a synthesized attribute before
// re-asking, per spec.md §4.5.
const attrTTL = 1 * time.Second

var (
	callerUID = uint32(os.Getuid())
	callerGID = uint32(os.Getgid())
)

// isFileInode reports whether id falls in the file half of the inode space.
func isFileInode(id fuseops.InodeID) bool {
	return uint64(id) >= split
}

// dirInode renders a directory row id as its inode number.
func dirInode(id int64) fuseops.InodeID {
	return fuseops.InodeID(id)
}

// fileInode renders a file row id as its inode number.
func fileInode(id int64) fuseops.InodeID {
	return fuseops.InodeID(uint64(id) + split)
}

// fileRowID recovers a file row id from a file-half inode number.
func fileRowID(id fuseops.InodeID) int64 {
	return int64(uint64(id) - split)
}

// dirRowID recovers a directory row id from a directory-half inode number.
func dirRowID(id fuseops.InodeID) int64 {
	return int64(id)
}

// dirAttributes synthesizes the attributes of a directory inode. Directories
// have no backing host file, so their timestamps are the fixed epoch rather
// than wall-clock time.
func dirAttributes() fuseops.InodeAttributes {
	return fuseops.InodeAttributes{
		Nlink: 2,
		Mode:  os.ModeDir | 0755,
		Atime: epoch,
		Mtime: epoch,
		Ctime: epoch,
		Uid:   callerUID,
		Gid:   callerGID,
	}
}

// fileAttributes synthesizes the attributes of a file inode of the given
// kind and stored data, per spec.md §4.5's per-kind rules. A kind=file
// producer stats the host path directly and reports its real timestamps;
// the other two kinds have no backing host inode and report the fixed
// epoch instead.
func fileAttributes(kind vfs.Kind, data string) fuseops.InodeAttributes {
	attr := fuseops.InodeAttributes{
		Nlink: 1,
		Uid:   callerUID,
		Gid:   callerGID,
		Atime: epoch,
		Mtime: epoch,
		Ctime: epoch,
	}

	switch kind {
	case vfs.KindFile:
		if fi, err := os.Stat(data); err == nil {
			attr.Size = uint64(fi.Size())
			attr.Mode = fi.Mode()
			attr.Atime = fi.ModTime()
			attr.Mtime = fi.ModTime()
			attr.Ctime = fi.ModTime()
			return attr
		}
		attr.Mode = 0644
		return attr
	case vfs.KindExec:
		attr.Mode = 0644
		attr.Size = 1
		return attr
	default: // vfs.KindText
		attr.Mode = 0644
		attr.Size = uint64(len(data))
		return attr
	}
}
