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

	_ "github.com/mattn/go-sqlite3"
)

// Store owns the pooled connection to the SQLite-backed tree and the
// prefix applied to its three tables. It must be passed explicitly to
// whatever owns it (a CLI invocation, the FUSE mount, the HTTP server) and
// never captured in a package-level global, so that each front-end can
// hold its own pool against its own database.
type Store struct {
	db     *sql.DB
	prefix string
}

func (s *Store) filesTable() string     { return s.prefix + "files" }
func (s *Store) dirsTable() string      { return s.prefix + "dirs" }
func (s *Store) fileTypesTable() string { return s.prefix + "file_types" }

// Open connects to the SQLite database at path, creating it (and any
// missing tables) if createIfMissing is true, and returns a ready Store.
// The DSN carries go-sqlite3's WAL and foreign-key pragma query parameters
// in place of an explicit connect-options builder.
func Open(ctx context.Context, path string, tablePrefix string, createIfMissing bool) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, wrapStorage("open", path, err)
	}
	// SQLite serializes writers; a single connection avoids surprises from
	// per-connection pragmas applying inconsistently across the pool.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, wrapStorage("open", path, err)
	}

	s := &Store{db: db, prefix: tablePrefix}

	if createIfMissing {
		if err := s.createSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
	}

	return s, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) tableExists(ctx context.Context, tx *sql.Tx, name string) (bool, error) {
	var count int
	err := tx.QueryRowContext(ctx,
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&count)
	if err != nil {
		return false, wrapStorage("table_exists", name, err)
	}
	return count > 0, nil
}

// createSchema creates any of the three tables that don't yet exist, in
// dependency order (file_types, dirs, files), then seeds the file_types
// and root-directory rows. Both steps run inside their own transaction so
// a failure partway through leaves no half-created schema behind.
func (s *Store) createSchema(ctx context.Context) error {
	type tableDef struct {
		name string
		ddl  string
	}

	defs := []tableDef{
		{
			name: s.fileTypesTable(),
			ddl: fmt.Sprintf(
				`CREATE TABLE %s (name TEXT PRIMARY KEY)`, s.fileTypesTable()),
		},
		{
			name: s.dirsTable(),
			ddl: fmt.Sprintf(
				`CREATE TABLE %s (
					id INTEGER PRIMARY KEY,
					directory TEXT UNIQUE NOT NULL
						CHECK (directory != '' AND (directory = '/' OR directory LIKE '/%%/'))
				)`, s.dirsTable()),
		},
		{
			name: s.filesTable(),
			ddl: fmt.Sprintf(
				`CREATE TABLE %s (
					id INTEGER PRIMARY KEY,
					name TEXT NOT NULL,
					directory TEXT NOT NULL
						REFERENCES %s(directory) ON UPDATE CASCADE ON DELETE CASCADE,
					kind TEXT NOT NULL
						REFERENCES %s(name) ON UPDATE RESTRICT ON DELETE RESTRICT,
					data TEXT NOT NULL,
					UNIQUE (name, directory)
				)`, s.filesTable(), s.dirsTable(), s.fileTypesTable()),
		},
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapStorage("create_schema", "", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		return wrapStorage("create_schema", "", err)
	}

	for _, def := range defs {
		exists, err := s.tableExists(ctx, tx, def.name)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if _, err := tx.ExecContext(ctx, def.ddl); err != nil {
			return wrapStorage("create_schema", def.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return wrapStorage("create_schema", "", err)
	}

	return s.seed(ctx)
}

// seed inserts the three valid kinds and the root directory row, ignoring
// rows that already exist (createSchema calls this on every Open, so
// seeding is idempotent).
func (s *Store) seed(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapStorage("seed", "", err)
	}
	defer tx.Rollback()

	for _, k := range kinds {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`INSERT OR IGNORE INTO %s (name) VALUES (?)`, s.fileTypesTable()),
			string(k)); err != nil {
			return wrapStorage("seed", string(k), err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`INSERT OR IGNORE INTO %s (directory) VALUES ('/')`, s.dirsTable())); err != nil {
		return wrapStorage("seed", "/", err)
	}

	if err := tx.Commit(); err != nil {
		return wrapStorage("seed", "", err)
	}
	return nil
}
