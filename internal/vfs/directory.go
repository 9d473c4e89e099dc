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

// Directory is a handle to a directory row, identified by its absolute
// path. Directories have no explicit parent link; hierarchy is encoded
// entirely by path prefix.
type Directory struct {
	store *Store
	path  string
}

// FileEntry is one row returned by Directory.Files.
type FileEntry struct {
	ID        int64
	Directory string
	Name      string
	Kind      Kind
}

// DirEntry is one row returned by Directory.Dirs.
type DirEntry struct {
	ID   int64
	Path string
}

// OpenDirectory normalizes p and returns a handle to the directory it
// names. It does not touch the database.
func OpenDirectory(s *Store, p string) (*Directory, error) {
	norm, err := normalizeDir(p)
	if err != nil {
		return nil, err
	}
	return &Directory{store: s, path: norm}, nil
}

// Path returns the directory's normalized absolute path, always ending in
// "/".
func (d *Directory) Path() string { return d.path }

// Exists reports whether the directory path row exists.
func (d *Directory) Exists(ctx context.Context) (bool, error) {
	var count int
	err := d.store.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT count(*) FROM %s WHERE directory = ?`, d.store.dirsTable()),
		d.path).Scan(&count)
	if err != nil {
		return false, wrapStorage("dir_exists", d.path, err)
	}
	return count > 0, nil
}

// ID returns the row's integer primary key, used by the FUSE adapter
// directly as this directory's inode number.
func (d *Directory) ID(ctx context.Context) (int64, error) {
	var id int64
	err := d.store.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT id FROM %s WHERE directory = ?`, d.store.dirsTable()),
		d.path).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, &Error{Op: "dir_id", Path: d.path, Kind: DoesNotExist}
	}
	if err != nil {
		return 0, wrapStorage("dir_id", d.path, err)
	}
	return id, nil
}

// Mk inserts the directory row. Fails on a primary-key (unique path)
// violation.
func (d *Directory) Mk(ctx context.Context) error {
	_, err := d.store.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (directory) VALUES (?)`, d.store.dirsTable()),
		d.path)
	if err != nil {
		return wrapStorage("dir_mk", d.path, err)
	}
	return nil
}

// Del deletes the row matching directory=d.path. Files directly inside
// cascade away via the files.directory foreign key; sub-directories do
// not (open question 1 — see SPEC_FULL.md §9).
func (d *Directory) Del(ctx context.Context) error {
	_, err := d.store.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE directory = ?`, d.store.dirsTable()),
		d.path)
	if err != nil {
		return wrapStorage("dir_del", d.path, err)
	}
	return nil
}

// Rename is pure path algebra: it returns the sibling path produced by
// renaming this directory's last path component to newBasename. It
// performs no database write — callers that want the rename persisted
// call Mv with the result.
func (d *Directory) Rename(newBasename string) (string, error) {
	return dirRename(d.path, newBasename)
}

// Mv atomically rewrites the directory column of this directory and every
// descendant (sub-directories and files) to replace the d.path prefix
// with newDir's. It relies on the files.directory foreign key's ON UPDATE
// CASCADE to carry the rewrite to contained files within the same
// statement's transaction. On success d's own path field is updated.
func (d *Directory) Mv(ctx context.Context, newDir string) error {
	dest, err := normalizeDir(newDir)
	if err != nil {
		return err
	}

	res, err := d.store.db.ExecContext(ctx,
		fmt.Sprintf(
			`UPDATE %s SET directory = ? || substr(directory, ?) WHERE directory LIKE ? || '%%'`,
			d.store.dirsTable()),
		dest, len(d.path)+1, d.path)
	if err != nil {
		return wrapStorage("dir_mv", d.path, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &Error{Op: "dir_mv", Path: d.path, Kind: DoesNotExist}
	}
	d.path = dest
	return nil
}

// Files returns every file row with directory exactly equal to d.path.
func (d *Directory) Files(ctx context.Context) ([]FileEntry, error) {
	rows, err := d.store.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, directory, name, kind FROM %s WHERE directory = ?`, d.store.filesTable()),
		d.path)
	if err != nil {
		return nil, wrapStorage("dir_files", d.path, err)
	}
	defer rows.Close()

	var out []FileEntry
	for rows.Next() {
		var e FileEntry
		var kind string
		if err := rows.Scan(&e.ID, &e.Directory, &e.Name, &kind); err != nil {
			return nil, wrapStorage("dir_files", d.path, err)
		}
		e.Kind = Kind(kind)
		out = append(out, e)
	}
	return out, wrapStorage("dir_files", d.path, rows.Err())
}

// Dirs returns every directory row whose path is a strict descendant of
// d.path, at any depth. Matches servefs-lib's LIKE "path%/" query exactly;
// note this is recursive, not limited to immediate children — the FUSE
// adapter's readdir filters this down to one level itself (see
// internal/fusefs).
func (d *Directory) Dirs(ctx context.Context) ([]DirEntry, error) {
	rows, err := d.store.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, directory FROM %s WHERE directory LIKE ? || '%%/'`, d.store.dirsTable()),
		d.path)
	if err != nil {
		return nil, wrapStorage("dir_dirs", d.path, err)
	}
	defer rows.Close()

	var out []DirEntry
	for rows.Next() {
		var e DirEntry
		if err := rows.Scan(&e.ID, &e.Path); err != nil {
			return nil, wrapStorage("dir_dirs", d.path, err)
		}
		out = append(out, e)
	}
	return out, wrapStorage("dir_dirs", d.path, rows.Err())
}

// Contents returns (Files(d), Dirs(d)).
func (d *Directory) Contents(ctx context.Context) ([]FileEntry, []DirEntry, error) {
	files, err := d.Files(ctx)
	if err != nil {
		return nil, nil, err
	}
	dirs, err := d.Dirs(ctx)
	if err != nil {
		return nil, nil, err
	}
	return files, dirs, nil
}

// Recurse returns every file row and directory row (excluding d itself)
// whose directory has d.path as a prefix, at any depth.
func (d *Directory) Recurse(ctx context.Context) ([]FileEntry, []DirEntry, error) {
	fileRows, err := d.store.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, directory, name, kind FROM %s WHERE directory LIKE ? || '%%'`, d.store.filesTable()),
		d.path)
	if err != nil {
		return nil, nil, wrapStorage("dir_recurse", d.path, err)
	}
	defer fileRows.Close()

	var files []FileEntry
	for fileRows.Next() {
		var e FileEntry
		var kind string
		if err := fileRows.Scan(&e.ID, &e.Directory, &e.Name, &kind); err != nil {
			return nil, nil, wrapStorage("dir_recurse", d.path, err)
		}
		e.Kind = Kind(kind)
		files = append(files, e)
	}
	if err := fileRows.Err(); err != nil {
		return nil, nil, wrapStorage("dir_recurse", d.path, err)
	}

	dirRows, err := d.store.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, directory FROM %s WHERE directory LIKE ? || '%%' AND directory != ?`, d.store.dirsTable()),
		d.path, d.path)
	if err != nil {
		return nil, nil, wrapStorage("dir_recurse", d.path, err)
	}
	defer dirRows.Close()

	var dirs []DirEntry
	for dirRows.Next() {
		var e DirEntry
		if err := dirRows.Scan(&e.ID, &e.Path); err != nil {
			return nil, nil, wrapStorage("dir_recurse", d.path, err)
		}
		dirs = append(dirs, e)
	}
	return files, dirs, wrapStorage("dir_recurse", d.path, dirRows.Err())
}

// GetDirectoryByID resolves a directory row by its integer id, used by the
// FUSE adapter to turn an inode below the split back into a handle.
func GetDirectoryByID(ctx context.Context, s *Store, id int64) (*Directory, error) {
	var path string
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT directory FROM %s WHERE id = ?`, s.dirsTable()),
		id).Scan(&path)
	if err == sql.ErrNoRows {
		return nil, &Error{Op: "get_dir_by_id", Path: fmt.Sprintf("#%d", id), Kind: DoesNotExist}
	}
	if err != nil {
		return nil, wrapStorage("get_dir_by_id", fmt.Sprintf("#%d", id), err)
	}
	return &Directory{store: s, path: path}, nil
}

// RootID returns the id of the root directory row, used as the FUSE
// filesystem's root inode.
func RootID(ctx context.Context, s *Store) (int64, error) {
	d, err := OpenDirectory(s, "/")
	if err != nil {
		return 0, err
	}
	return d.ID(ctx)
}
