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

// Package migrations holds the local store schema.
package migrations

import (
	"database/sql"
	"embed"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gitlab.com/tozd/go/errors"
)

//go:embed files/*.sql
var files embed.FS

// 🆙 Up applies every pending migration. An up-to-date schema is not an error.
// db stays open; the caller owns it.
func Up(db *sql.DB) error {
	m, err := newMigrate(db)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Errorf("migrating local store: %w", err)
	}
	return nil
}

// 🔍 Status fails unless the schema is at the latest version and clean.
func Status(db *sql.DB) error {
	m, err := newMigrate(db)
	if err != nil {
		return err
	}

	version, dirty, err := m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return errors.New("local store has no schema version")
		}
		return errors.Errorf("reading schema version: %w", err)
	}
	if dirty {
		return errors.Errorf("local store is dirty at version %d", version)
	}

	src, err := iofs.New(files, "files")
	if err != nil {
		return errors.Errorf("reading migrations: %w", err)
	}
	defer src.Close()

	latest, err := Latest(src)
	if err != nil {
		return err
	}
	if version != latest {
		return errors.Errorf("local store is at version %d, binary expects %d", version, latest)
	}
	return nil
}

// Latest returns the highest version src offers.
func Latest(src source.Driver) (uint, error) {
	version, err := src.First()
	if err != nil {
		return 0, errors.Errorf("reading first migration: %w", err)
	}
	for {
		next, err := src.Next(version)
		if err != nil {
			return version, nil
		}
		version = next
	}
}

func newMigrate(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(files, "files")
	if err != nil {
		return nil, errors.Errorf("creating migration source: %w", err)
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		src.Close()
		return nil, errors.Errorf("creating migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		src.Close()
		return nil, errors.Errorf("creating migrator: %w", err)
	}
	return m, nil
}
