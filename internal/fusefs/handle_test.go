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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileHandleCacheOpenReadRelease(t *testing.T) {
	c := newFileHandleCache()

	h := c.open([]byte("hello"))
	b, ok := c.read(h)
	assert.True(t, ok)
	assert.Equal(t, []byte("hello"), b)

	c.release(h)
	_, ok = c.read(h)
	assert.False(t, ok)
}

func TestFileHandleCacheDistinctHandlesDoNotCollide(t *testing.T) {
	c := newFileHandleCache()

	h1 := c.open([]byte("a"))
	h2 := c.open([]byte("b"))
	assert.NotEqual(t, h1, h2)

	b1, _ := c.read(h1)
	b2, _ := c.read(h2)
	assert.Equal(t, []byte("a"), b1)
	assert.Equal(t, []byte("b"), b2)
}

func TestDirHandleCacheOpenReadRelease(t *testing.T) {
	c := newDirHandleCache()

	entries := []fuseDirent{{Name: "a"}, {Name: "b"}}
	h := c.open(entries)

	got, ok := c.read(h)
	assert.True(t, ok)
	assert.Equal(t, entries, got)

	c.release(h)
	_, ok = c.read(h)
	assert.False(t, ok)
}
