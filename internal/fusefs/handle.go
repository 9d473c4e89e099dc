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
	"encoding/binary"
	"sync"

	"github.com/google/uuid"
	"github.com/jacobsa/fuse/fuseops"
)

// fileHandleCache is the per-mount "fh -> materialized bytes" map described
// in spec.md §4.5: open materializes a producer's output once under a
// fresh random handle, read slices it, release drops the entry. It is its
// own writer-serializing lock rather than relying on FUSE's per-request
// dispatch, since spec.md §5 requires multi-worker safety.
type fileHandleCache struct {
	mu      sync.Mutex
	entries map[fuseops.HandleID][]byte
}

func newFileHandleCache() *fileHandleCache {
	return &fileHandleCache{entries: make(map[fuseops.HandleID][]byte)}
}

// open allocates a fresh random handle, retrying on collision, and stores
// data under it.
func (c *fileHandleCache) open(data []byte) fuseops.HandleID {
	c.mu.Lock()
	defer c.mu.Unlock()

	h := c.allocateLocked()
	c.entries[h] = data
	return h
}

func (c *fileHandleCache) read(h fuseops.HandleID) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.entries[h]
	return b, ok
}

func (c *fileHandleCache) release(h fuseops.HandleID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, h)
}

func (c *fileHandleCache) allocateLocked() fuseops.HandleID {
	for {
		h := randomHandleID()
		if _, taken := c.entries[h]; !taken {
			return h
		}
	}
}

// dirHandleCache is the directory-open analogue: each opendir materializes
// the immediate-children dirent list once, under a fresh random handle.
type dirHandleCache struct {
	mu      sync.Mutex
	entries map[fuseops.HandleID][]fuseDirent
}

func newDirHandleCache() *dirHandleCache {
	return &dirHandleCache{entries: make(map[fuseops.HandleID][]fuseDirent)}
}

func (c *dirHandleCache) open(entries []fuseDirent) fuseops.HandleID {
	c.mu.Lock()
	defer c.mu.Unlock()

	for {
		h := randomHandleID()
		if _, taken := c.entries[h]; !taken {
			c.entries[h] = entries
			return h
		}
	}
}

func (c *dirHandleCache) read(h fuseops.HandleID) ([]fuseDirent, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[h]
	return e, ok
}

func (c *dirHandleCache) release(h fuseops.HandleID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, h)
}

// randomHandleID draws 8 bytes from a fresh UUIDv4 rather than a plain
// counter, per spec.md §4.5's "fresh random 64-bit handle".
func randomHandleID() fuseops.HandleID {
	u := uuid.New()
	return fuseops.HandleID(binary.BigEndian.Uint64(u[:8]))
}
