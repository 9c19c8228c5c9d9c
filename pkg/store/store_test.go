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

package store_test

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/contentsync/pkg/remote"
	"github.com/walteh/contentsync/pkg/saga"
	"github.com/walteh/contentsync/pkg/store"
	"github.com/walteh/contentsync/pkg/store/migrations"
	"github.com/walteh/contentsync/pkg/syncerr"
	"github.com/walteh/contentsync/pkg/testutils"
	"gitlab.com/tozd/go/errors"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(testutils.Context(t), filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen(t *testing.T) {
	ctx := testutils.Context(t)
	path := filepath.Join(t.TempDir(), "state.db")

	first, err := store.Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, first.SaveCredential(ctx, "ghp_0123456789abcdefghijklmnop"))
	require.NoError(t, first.Close())

	again, err := store.Open(ctx, path)
	require.NoError(t, err, "reopening an up-to-date store")
	defer again.Close()

	cred, err := again.Credential(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ghp_0123456789abcdefghijklmnop", cred, "credential survives a restart")

	_, err = store.Open(ctx, "")
	assert.True(t, errors.Is(err, syncerr.ErrValidation))
}

func TestMigrations(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, err)
	defer db.Close()

	require.Error(t, migrations.Status(db), "fresh database has no version")
	require.NoError(t, migrations.Up(db))
	require.NoError(t, migrations.Up(db), "second run is a no-op")
	require.NoError(t, migrations.Status(db))

	for _, table := range []string{"kv", "transactions", "transaction_steps"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, "table %s exists", table)
	}
}

func TestCredential(t *testing.T) {
	ctx := testutils.Context(t)
	s := openStore(t)

	_, err := s.Credential(ctx)
	assert.True(t, errors.Is(err, syncerr.ErrNotFound))

	require.NoError(t, s.SaveCredential(ctx, "first_token_000000000000"))
	require.NoError(t, s.SaveCredential(ctx, "second_token_00000000000"))

	cred, err := s.Credential(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second_token_00000000000", cred)

	raw, err := s.Get(ctx, store.CredentialKey)
	require.NoError(t, err)
	assert.Equal(t, cred, raw, "stored under the well-known key")

	require.NoError(t, s.ClearCredential(ctx))
	require.NoError(t, s.ClearCredential(ctx), "clearing twice is fine")
	_, err = s.Credential(ctx)
	assert.True(t, errors.Is(err, syncerr.ErrNotFound))
}

func TestJournal(t *testing.T) {
	ctx := testutils.Context(t)
	j := openStore(t).Journal()

	tx := saga.NewTransaction("create_collection", "octo", "site", "Add collection Go", "Go",
		remote.FileUpload{Path: "src/data/collections/go.js", Content: []byte("export const go = [\n];\n")},
		remote.FileUpload{Path: "src/data/collections/index.js", Content: []byte("index"), ExpectedHash: "abc"},
	)
	tx.Status = saga.StatusRunning
	require.NoError(t, j.Create(ctx, tx))
	assert.True(t, errors.Is(j.Create(ctx, tx), syncerr.ErrValidation), "duplicate id")

	step := tx.Steps[0]
	step.Status = remote.StepCommitted
	step.Hash = "h1"
	step.CommitSHA = "c1"
	require.NoError(t, j.UpdateStep(ctx, tx.ID, step))

	failed := tx.Steps[1]
	failed.Status = remote.StepFailed
	failed.Error = "writing src/data/collections/index.js: conflict"
	require.NoError(t, j.UpdateStep(ctx, tx.ID, failed))
	require.NoError(t, j.SetStatus(ctx, tx.ID, saga.StatusPartial))

	got, err := j.Get(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, got.ID)
	assert.Equal(t, "Go", got.Payload)
	assert.Equal(t, saga.StatusPartial, got.Status)
	assert.Equal(t, tx.CreatedAt.UnixNano(), got.CreatedAt.UnixNano())
	require.Len(t, got.Steps, 2)
	assert.Equal(t, remote.StepCommitted, got.Steps[0].Status)
	assert.Equal(t, "c1", got.Steps[0].CommitSHA)
	assert.Equal(t, []byte("export const go = [\n];\n"), got.Steps[0].Content, "content is kept for resume")
	assert.Equal(t, remote.StepFailed, got.Steps[1].Status)
	assert.Equal(t, "abc", got.Steps[1].ExpectedHash)
	assert.Contains(t, got.Steps[1].Error, "conflict")
	assert.Equal(t, []string{"src/data/collections/go.js"}, got.Committed())

	t.Run("unknown_id", func(t *testing.T) {
		_, err := j.Get(ctx, uuid.New())
		assert.True(t, errors.Is(err, syncerr.ErrNotFound))
		assert.True(t, errors.Is(j.SetStatus(ctx, uuid.New(), saga.StatusFailed), syncerr.ErrNotFound))
		assert.True(t, errors.Is(j.UpdateStep(ctx, uuid.New(), step), syncerr.ErrNotFound))
	})

	t.Run("unknown_step", func(t *testing.T) {
		err := j.UpdateStep(ctx, tx.ID, saga.Step{Index: 9, Path: "x"})
		assert.True(t, errors.Is(err, syncerr.ErrValidation))
	})
}

func TestJournalListNewestFirst(t *testing.T) {
	ctx := testutils.Context(t)
	j := openStore(t).Journal()

	older := saga.NewTransaction("upload", "octo", "site", "one", "", remote.FileUpload{Path: "a.md"})
	older.CreatedAt = time.Now().Add(-time.Minute).UTC()
	newer := saga.NewTransaction("upload", "octo", "site", "two", "", remote.FileUpload{Path: "b.md"})

	require.NoError(t, j.Create(ctx, newer))
	require.NoError(t, j.Create(ctx, older))

	list, err := j.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "two", list[0].Message)
	assert.Equal(t, "one", list[1].Message)
	require.Len(t, list[1].Steps, 1)
	assert.Equal(t, "a.md", list[1].Steps[0].Path)
}

func TestJournalDrivesExecutor(t *testing.T) {
	ctx := testutils.Context(t)
	s := openStore(t)
	rem := testutils.NewMemoryRemote()
	rem.FailWrites("b.md", syncerr.New(syncerr.KindTransient, "write", "timeout"))

	tx := saga.NewTransaction("upload", "octo", "site", "docs", "",
		remote.FileUpload{Path: "a.md", Content: []byte("a")},
		remote.FileUpload{Path: "b.md", Content: []byte("b")},
	)
	exec := saga.NewExecutor(rem, s.Journal(), nil)
	_, err := exec.Run(ctx, tx)
	require.Error(t, err)

	rem.FailWrites("b.md", nil)
	_, err = exec.Resume(ctx, tx.ID, nil)
	require.NoError(t, err, "content journaled on disk is enough to resume")

	b, ok := rem.Content("octo", "site", "b.md")
	require.True(t, ok)
	assert.Equal(t, "b", b)

	got, err := s.Journal().Get(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, saga.StatusCommitted, got.Status)
}
