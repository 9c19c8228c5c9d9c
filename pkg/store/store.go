// Copyright 2025 walteh LLC
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

// Package store persists local state in a single SQLite file: the stored
// credential and the transaction journal.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/contentsync/pkg/store/migrations"
	"github.com/walteh/contentsync/pkg/syncerr"
	"gitlab.com/tozd/go/errors"

	_ "modernc.org/sqlite"
)

// CredentialKey is the key the credential is stored under.
const CredentialKey = "contentsync.credential"

// Store is the SQLite-backed local store.
type Store struct {
	db   *sql.DB
	path string
}

// 🏭 Open opens (or creates) the store at path and migrates it.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, syncerr.Validation("open store", "empty store path")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Errorf("opening %s: %w", path, err)
	}
	// one writer at a time avoids SQLITE_BUSY between our own connections
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, errors.Errorf("enabling foreign keys: %w", err)
	}

	if err := migrations.Up(db); err != nil {
		db.Close()
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().Str("path", path).Msg("opened local store")
	return &Store{db: db, path: path}, nil
}

// Path returns the file the store was opened from.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the value stored under key. A missing key is a NotFoundError.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", syncerr.NotFound("store", "no value for %s", key)
		}
		return "", errors.Errorf("reading %s: %w", key, err)
	}
	return value, nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UnixNano())
	if err != nil {
		return errors.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return errors.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// 🔑 Credential returns the stored credential, or a NotFoundError.
func (s *Store) Credential(ctx context.Context) (string, error) {
	return s.Get(ctx, CredentialKey)
}

func (s *Store) SaveCredential(ctx context.Context, credential string) error {
	return s.Set(ctx, CredentialKey, credential)
}

func (s *Store) ClearCredential(ctx context.Context) error {
	return s.Delete(ctx, CredentialKey)
}
