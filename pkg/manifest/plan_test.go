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

package manifest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/contentsync/pkg/manifest"
	"github.com/walteh/contentsync/pkg/remote"
	"github.com/walteh/contentsync/pkg/saga"
	"github.com/walteh/contentsync/pkg/syncerr"
	"github.com/walteh/contentsync/pkg/testutils"
	"gitlab.com/tozd/go/errors"
)

const indexPath = "src/data/collections/index.js"

func TestPlanAndRun(t *testing.T) {
	ctx := testutils.Context(t)
	rem := testutils.NewMemoryRemote()
	indexHash := rem.Seed("octo", "site", indexPath, []byte(existingIndex))

	planner := manifest.NewPlanner(manifest.DefaultLayout())
	tx, c, err := planner.Plan(ctx, rem, "octo", "site", "Rust Basics")
	require.NoError(t, err)

	assert.Equal(t, "rustBasics", c.Identifier)
	assert.Equal(t, "Add collection Rust Basics", tx.Message)
	require.Len(t, tx.Steps, 2)
	assert.Equal(t, "src/data/collections/rust-basics.js", tx.Steps[0].Path)
	assert.Empty(t, tx.Steps[0].ExpectedHash, "data file is created")
	assert.Equal(t, indexPath, tx.Steps[1].Path)
	assert.Equal(t, indexHash, tx.Steps[1].ExpectedHash, "index write is gated on the read hash")

	journal := saga.NewMemoryJournal()
	result, err := saga.NewExecutor(rem, journal, nil).Run(ctx, tx)
	require.NoError(t, err)
	assert.True(t, result.Complete())
	assert.Equal(t, []string{"src/data/collections/rust-basics.js", indexPath}, rem.Writes())

	data, ok := rem.Content("octo", "site", "src/data/collections/rust-basics.js")
	require.True(t, ok)
	assert.Equal(t, "export const rustBasics = [\n];\n", data)

	index, _ := rem.Content("octo", "site", indexPath)
	registered, err := manifest.Registered(index, c, manifest.DefaultLayout())
	require.NoError(t, err)
	assert.True(t, registered)

	stored, err := journal.Get(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, saga.StatusCommitted, stored.Status)
	for _, s := range stored.Steps {
		assert.Equal(t, remote.StepCommitted, s.Status)
		assert.NotEmpty(t, s.CommitSHA)
	}
}

func TestPlanRejectsExistingCollection(t *testing.T) {
	ctx := testutils.Context(t)
	rem := testutils.NewMemoryRemote()
	rem.Seed("octo", "site", "src/data/collections/rust-basics.js", []byte("export const rustBasics = [];"))

	_, _, err := manifest.NewPlanner(manifest.Layout{}).Plan(ctx, rem, "octo", "site", "Rust Basics")
	require.Error(t, err)
	assert.True(t, errors.Is(err, syncerr.ErrValidation))
	assert.Empty(t, rem.Writes())
}

func TestPlanWithoutIndex(t *testing.T) {
	ctx := testutils.Context(t)
	rem := testutils.NewMemoryRemote()

	tx, _, err := manifest.NewPlanner(manifest.Layout{}).Plan(ctx, rem, "octo", "site", "Go")
	require.NoError(t, err)
	assert.Empty(t, tx.Steps[1].ExpectedHash, "absent index is created")
	assert.Contains(t, string(tx.Steps[1].Content), "import { go } from './go';")
}

func TestPartialFailureAndResume(t *testing.T) {
	ctx := testutils.Context(t)
	rem := testutils.NewMemoryRemote()
	rem.Seed("octo", "site", indexPath, []byte(existingIndex))

	planner := manifest.NewPlanner(manifest.DefaultLayout())
	tx, c, err := planner.Plan(ctx, rem, "octo", "site", "Rust Basics")
	require.NoError(t, err)

	// someone else edits the index between plan and write
	moved := existingIndex + "\n// touched\n"
	rem.Seed("octo", "site", indexPath, []byte(moved))

	journal := saga.NewMemoryJournal()
	exec := saga.NewExecutor(rem, journal, nil)

	result, err := exec.Run(ctx, tx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, syncerr.ErrConflict))
	assert.True(t, syncerr.IsUserActionRequired(err))

	var be *remote.BatchError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, indexPath, be.Result.Failed)
	require.Len(t, result.Committed, 1)
	assert.Equal(t, c.DataPath, result.Committed[0].Path)

	stored, err := journal.Get(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, saga.StatusPartial, stored.Status)
	assert.Equal(t, remote.StepCommitted, stored.Steps[0].Status)
	assert.Equal(t, remote.StepFailed, stored.Steps[1].Status)
	assert.NotEmpty(t, stored.Steps[1].Error)

	t.Run("resume_finishes_against_fresh_state", func(t *testing.T) {
		result, err := exec.Resume(ctx, tx.ID, planner)
		require.NoError(t, err)
		require.Len(t, result.Committed, 1)
		assert.Equal(t, indexPath, result.Committed[0].Path)

		index, _ := rem.Content("octo", "site", indexPath)
		assert.Contains(t, index, "// touched", "concurrent edit is kept")
		registered, err := manifest.Registered(index, c, manifest.DefaultLayout())
		require.NoError(t, err)
		assert.True(t, registered)

		stored, err := journal.Get(ctx, tx.ID)
		require.NoError(t, err)
		assert.Equal(t, saga.StatusCommitted, stored.Status)
	})

	t.Run("resume_of_committed_is_a_no_op", func(t *testing.T) {
		writes := len(rem.Writes())
		result, err := exec.Resume(ctx, tx.ID, planner)
		require.NoError(t, err)
		assert.Empty(t, result.Committed)
		assert.Len(t, rem.Writes(), writes)
	})
}

func TestResumeWhenIndexAlreadyRegistered(t *testing.T) {
	ctx := testutils.Context(t)
	rem := testutils.NewMemoryRemote()
	rem.Seed("octo", "site", indexPath, []byte(existingIndex))

	planner := manifest.NewPlanner(manifest.DefaultLayout())
	tx, c, err := planner.Plan(ctx, rem, "octo", "site", "Rust Basics")
	require.NoError(t, err)

	rem.FailWrites(c.DataPath, syncerr.New(syncerr.KindTransient, "write", "502 Bad Gateway"))
	journal := saga.NewMemoryJournal()
	exec := saga.NewExecutor(rem, journal, nil)

	_, err = exec.Run(ctx, tx)
	require.Error(t, err)
	assert.True(t, syncerr.IsRetryable(err))

	stored, err := journal.Get(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, saga.StatusFailed, stored.Status, "nothing was committed")

	// an operator finishes the index by hand before resuming
	registered, err := manifest.Register(existingIndex, c, manifest.DefaultLayout())
	require.NoError(t, err)
	rem.Seed("octo", "site", indexPath, []byte(registered))
	rem.FailWrites(c.DataPath, nil)

	_, err = exec.Resume(ctx, tx.ID, planner)
	require.NoError(t, err)
	assert.Equal(t, []string{c.DataPath}, rem.Writes(), "only the data file is written")
}
