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
	"errors"
	"fmt"
)

// ErrorKind classifies a VFS error so callers can branch with errors.Is
// without string-matching messages.
type ErrorKind int

const (
	// PathIsNotAFile means the path resolved to something that cannot be
	// interpreted as a file (it resolves to the root, which has no basename).
	PathIsNotAFile ErrorKind = iota
	// PathIsNotADir means the path cannot be interpreted as a directory.
	PathIsNotADir
	// DoesNotExist means path resolution found neither a file nor a
	// directory row.
	DoesNotExist
	// InvalidKind means an on-disk or user-supplied kind string did not
	// match the closed set {text, file, exec}.
	InvalidKind
	// Storage means an underlying database error, propagated opaquely.
	Storage
)

func (k ErrorKind) String() string {
	switch k {
	case PathIsNotAFile:
		return "path is not a file"
	case PathIsNotADir:
		return "path is not a directory"
	case DoesNotExist:
		return "does not exist"
	case InvalidKind:
		return "invalid kind"
	case Storage:
		return "storage error"
	default:
		return "unknown error"
	}
}

// Error is the sentinel-wrapping error type every VFS core operation
// returns. Op and Path identify what was being attempted; Kind classifies
// the failure for errors.Is; Err, if set, wraps the underlying cause (e.g.
// a *sql error for Storage errors).
type Error struct {
	Op   string
	Path string
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a *Error with the same Kind, letting callers
// write errors.Is(err, &vfs.Error{Kind: vfs.DoesNotExist}).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// wrapStorage wraps a driver/SQL error as a Storage-kind Error.
func wrapStorage(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Path: path, Kind: Storage, Err: err}
}
