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

// Kind selects how a file's data column is interpreted at read time.
type Kind string

const (
	// KindText means data is the file body verbatim.
	KindText Kind = "text"

	// KindFile means data is an absolute host path; the body is that
	// host file's bytes, read fresh on every read.
	KindFile Kind = "file"

	// KindExec means data is a shell command line; the body is the
	// command's standard output, subject to a wall-clock timeout.
	KindExec Kind = "exec"
)

// kinds is the closed enumeration seeded into the file_types table.
var kinds = []Kind{KindText, KindFile, KindExec}

// ParseKind validates a raw kind string against the closed enumeration.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	for _, valid := range kinds {
		if k == valid {
			return k, nil
		}
	}
	return "", &Error{Op: "parse_kind", Path: s, Kind: InvalidKind}
}
