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

// Path algebra: every user-supplied path string passes through here before
// it reaches a VFS core operation. The standard library's path.Clean
// assumes a real filesystem root and does not clamp ".." the way a virtual
// tree rooted at "/" with no parent outside it needs to, so the clamping
// walk below is hand-rolled rather than built on path.Clean directly (see
// DESIGN.md).
package vfs

import "strings"

// splitClean walks p's "/"-separated components, dropping "." and empty
// components and popping on "..", clamping at the root instead of
// escaping it. The result never contains "." or "..".
func splitClean(p string) []string {
	var stack []string
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, seg)
		}
	}
	return stack
}

// joinDir renders a cleaned segment slice as an absolute directory path,
// always ending in "/".
func joinDir(segments []string) string {
	if len(segments) == 0 {
		return "/"
	}
	return "/" + strings.Join(segments, "/") + "/"
}

// normalizeDir virtual-absolutizes p against "/" and returns the resulting
// directory path, always ending in "/".
func normalizeDir(p string) (string, error) {
	return joinDir(splitClean(p)), nil
}

// normalizeFile virtual-absolutizes p and splits it into its parent
// directory and basename. Root has no basename, so a path that resolves to
// root fails with PathIsNotAFile.
func normalizeFile(p string) (directory string, name string, err error) {
	segments := splitClean(p)
	if len(segments) == 0 {
		return "", "", &Error{Op: "normalize_file", Path: p, Kind: PathIsNotAFile}
	}
	name = segments[len(segments)-1]
	directory = joinDir(segments[:len(segments)-1])
	return directory, name, nil
}

// ParentPath returns the directory that directly contains dirPath, used by
// the FUSE adapter and the HTTP index to keep only a directory's immediate
// children, without an explicit parent-id edge. Root's parent is root.
func ParentPath(dirPath string) string {
	segments := splitClean(dirPath)
	if len(segments) == 0 {
		return "/"
	}
	return joinDir(segments[:len(segments)-1])
}

// Basename returns the last path component of dirPath, used by the FUSE
// adapter to label a descendant directory entry. Root has no basename and
// returns "".
func Basename(dirPath string) string {
	segments := splitClean(dirPath)
	if len(segments) == 0 {
		return ""
	}
	return segments[len(segments)-1]
}

// dirRename computes the sibling path produced by renaming the last
// component of currentPath to newBasename: drop the last component, append
// newBasename, re-normalize. It performs no I/O.
func dirRename(currentPath string, newBasename string) (string, error) {
	segments := splitClean(currentPath)
	if len(segments) > 0 {
		segments = segments[:len(segments)-1]
	}
	segments = append(segments, splitClean(newBasename)...)
	return joinDir(segments), nil
}
