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
	"database/sql"
	"fmt"
)

// File is a handle to a (directory, name) row. It carries no data of its
// own beyond its location; reading its body is the producer evaluator's
// job (internal/producer), given the (kind, data) tuple Read returns.
type File struct {
	store     *Store
	directory string
	name      string
}

// OpenFile normalizes p and returns a handle to the file it names. It does
// not touch the database — call Exists or Mk to find out whether the row
// is actually there.
func OpenFile(s *Store, p string) (*File, error) {
	dir, name, err := normalizeFile(p)
	if err != nil {
		return nil, err
	}
	return &File{store: s, directory: dir, name: name}, nil
}

// Path returns the file's normalized absolute path.
func (f *File) Path() string { return f.directory + f.name }

// Directory returns the file's parent directory path.
func (f *File) Directory() string { return f.directory }

// Name returns the file's basename.
func (f *File) Name() string { return f.name }

// Exists reports whether a row matches (directory, name).
func (f *File) Exists(ctx context.Context) (bool, error) {
	var count int
	err := f.store.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT count(*) FROM %s WHERE directory = ? AND name = ?`, f.store.filesTable()),
		f.directory, f.name).Scan(&count)
	if err != nil {
		return false, wrapStorage("file_exists", f.Path(), err)
	}
	return count > 0, nil
}

// ID returns the row's integer primary key, used by the FUSE adapter as
// (id + inode split) for this file's inode number.
func (f *File) ID(ctx context.Context) (int64, error) {
	var id int64
	err := f.store.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT id FROM %s WHERE directory = ? AND name = ?`, f.store.filesTable()),
		f.directory, f.name).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, &Error{Op: "file_id", Path: f.Path(), Kind: DoesNotExist}
	}
	if err != nil {
		return 0, wrapStorage("file_id", f.Path(), err)
	}
	return id, nil
}

// Mk inserts the row. Fails on a unique-(name, directory) violation and on
// a missing parent directory (enforced by the directory foreign key).
func (f *File) Mk(ctx context.Context, data string, kind Kind) error {
	_, err := f.store.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (name, kind, data, directory) VALUES (?, ?, ?, ?)`, f.store.filesTable()),
		f.name, string(kind), data, f.directory)
	if err != nil {
		return wrapStorage("file_mk", f.Path(), err)
	}
	return nil
}

// Del deletes the row matching (directory, name). A missing row is a
// successful no-op.
func (f *File) Del(ctx context.Context) error {
	_, err := f.store.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE directory = ? AND name = ?`, f.store.filesTable()),
		f.directory, f.name)
	if err != nil {
		return wrapStorage("file_del", f.Path(), err)
	}
	return nil
}

// Rename updates the row's name. On success the handle's own name field is
// updated to match, so Path() reflects the rename immediately.
func (f *File) Rename(ctx context.Context, newName string) error {
	res, err := f.store.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET name = ? WHERE directory = ? AND name = ?`, f.store.filesTable()),
		newName, f.directory, f.name)
	if err != nil {
		return wrapStorage("file_rename", f.Path(), err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &Error{Op: "file_rename", Path: f.Path(), Kind: DoesNotExist}
	}
	f.name = newName
	return nil
}

// Mv updates the row's directory. newDir must exist; enforced by the
// directory foreign key. On success the handle's directory field updates
// to match.
func (f *File) Mv(ctx context.Context, newDir string) error {
	dir, err := normalizeDir(newDir)
	if err != nil {
		return err
	}

	res, err := f.store.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET directory = ? WHERE directory = ? AND name = ?`, f.store.filesTable()),
		dir, f.directory, f.name)
	if err != nil {
		return wrapStorage("file_mv", f.Path(), err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &Error{Op: "file_mv", Path: f.Path(), Kind: DoesNotExist}
	}
	f.directory = dir
	return nil
}

// Read fetches (data, kind). Fails with DoesNotExist if the row is absent.
func (f *File) Read(ctx context.Context) (data string, kind Kind, err error) {
	var k string
	err = f.store.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT data, kind FROM %s WHERE directory = ? AND name = ?`, f.store.filesTable()),
		f.directory, f.name).Scan(&data, &k)
	if err == sql.ErrNoRows {
		return "", "", &Error{Op: "file_read", Path: f.Path(), Kind: DoesNotExist}
	}
	if err != nil {
		return "", "", wrapStorage("file_read", f.Path(), err)
	}
	return data, Kind(k), nil
}

// Write updates data and kind atomically on the matching row. Changing
// kind is a supported part of write, not an error (open question 2).
func (f *File) Write(ctx context.Context, data string, kind Kind) error {
	res, err := f.store.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET data = ?, kind = ? WHERE directory = ? AND name = ?`, f.store.filesTable()),
		data, string(kind), f.directory, f.name)
	if err != nil {
		return wrapStorage("file_write", f.Path(), err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &Error{Op: "file_write", Path: f.Path(), Kind: DoesNotExist}
	}
	return nil
}

// GetFileByID resolves a file row by its integer id, used by the FUSE
// adapter to turn an inode back into a handle.
func GetFileByID(ctx context.Context, s *Store, id int64) (*File, error) {
	var directory, name string
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT directory, name FROM %s WHERE id = ?`, s.filesTable()),
		id).Scan(&directory, &name)
	if err == sql.ErrNoRows {
		return nil, &Error{Op: "get_file_by_id", Path: fmt.Sprintf("#%d", id), Kind: DoesNotExist}
	}
	if err != nil {
		return nil, wrapStorage("get_file_by_id", fmt.Sprintf("#%d", id), err)
	}
	return &File{store: s, directory: directory, name: name}, nil
}
