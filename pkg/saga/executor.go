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

package saga

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/walteh/contentsync/pkg/remote"
	"github.com/walteh/contentsync/pkg/syncerr"
	"gitlab.com/tozd/go/errors"
)

// Executor applies transactions through a FileStore and journals every step.
type Executor struct {
	store   remote.FileStore
	journal Journal
	observe remote.BatchObserver
}

// 🏭 NewExecutor creates an executor. observe, when set, is told about every
// step after it has been journaled.
func NewExecutor(store remote.FileStore, journal Journal, observe remote.BatchObserver) *Executor {
	return &Executor{store: store, journal: journal, observe: observe}
}

// 🚀 Run journals tx and applies its steps in order. A failure stops the
// run, leaves tx partial or failed in the journal and returns the
// *remote.BatchError from the upload.
func (e *Executor) Run(ctx context.Context, tx *Transaction) (*remote.BatchResult, error) {
	zerolog.Ctx(ctx).Info().Str("tx", tx.ID.String()).Str("kind", tx.Kind).Int("steps", len(tx.Steps)).Msg("starting transaction")

	tx.Status = StatusRunning
	if err := e.journal.Create(ctx, tx); err != nil {
		return nil, errors.Errorf("journaling transaction: %w", err)
	}
	return e.execute(ctx, tx)
}

// 🔁 Resume re-plans the unfinished steps of a journaled transaction with
// refresher and applies them. Committed steps are never rewritten.
func (e *Executor) Resume(ctx context.Context, id uuid.UUID, refresher Refresher) (*remote.BatchResult, error) {
	tx, err := e.journal.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx).With().Str("tx", id.String()).Logger()
	if tx.Status.Done() {
		logger.Info().Msg("transaction already committed")
		return &remote.BatchResult{Message: tx.Message}, nil
	}

	if refresher != nil {
		before := make(map[int]Step, len(tx.Steps))
		for _, s := range tx.Steps {
			before[s.Index] = s
		}
		if err := refresher.Refresh(ctx, e.store, tx); err != nil {
			return nil, errors.Errorf("refreshing transaction %s: %w", id, err)
		}
		for _, s := range tx.Steps {
			if before[s.Index].Status == remote.StepCommitted && s.Status != remote.StepCommitted {
				return nil, syncerr.New(syncerr.KindIntegrity, "resume", "refresher reopened committed step %s", s.Path)
			}
			if err := e.journal.UpdateStep(ctx, id, s); err != nil {
				return nil, errors.Errorf("journaling refreshed step: %w", err)
			}
		}
	}

	logger.Info().Int("remaining", len(tx.Remaining())).Msg("resuming transaction")
	if err := e.journal.SetStatus(ctx, id, StatusRunning); err != nil {
		return nil, err
	}
	tx.Status = StatusRunning
	return e.execute(ctx, tx)
}

func (e *Executor) execute(ctx context.Context, tx *Transaction) (*remote.BatchResult, error) {
	logger := zerolog.Ctx(ctx).With().Str("tx", tx.ID.String()).Logger()

	remaining := tx.Remaining()
	uploads := make([]remote.FileUpload, 0, len(remaining))
	for _, s := range remaining {
		uploads = append(uploads, remote.FileUpload{
			Path:         s.Path,
			Content:      s.Content,
			ExpectedHash: s.ExpectedHash,
			Overwrite:    s.Overwrite,
		})
	}

	var journalErr error
	observer := func(ctx context.Context, out remote.StepOutcome) {
		step := tx.step(out.Path)
		if step == nil {
			return
		}
		step.Status = out.Status
		step.Error = ""
		if out.Commit != nil {
			step.Hash = out.Commit.Hash
			step.CommitSHA = out.Commit.CommitSHA
		}
		if out.Err != nil {
			step.Error = out.Err.Error()
		}
		if err := e.journal.UpdateStep(ctx, tx.ID, *step); err != nil && journalErr == nil {
			journalErr = err
			logger.Error().Err(err).Str("path", out.Path).Msg("failed to journal step")
		}
		if e.observe != nil {
			e.observe(ctx, out)
		}
	}

	result, err := remote.UploadBatch(ctx, e.store, tx.Owner, tx.Repo, uploads, tx.Message, observer)

	switch {
	case err == nil:
		tx.Status = StatusCommitted
	case len(tx.Committed()) > 0:
		tx.Status = StatusPartial
	default:
		tx.Status = StatusFailed
	}
	if serr := e.journal.SetStatus(ctx, tx.ID, tx.Status); serr != nil && journalErr == nil {
		journalErr = serr
	}

	ev := logger.Info()
	if err != nil {
		ev = logger.Warn().Err(err)
	}
	ev.Str("status", string(tx.Status)).Strs("committed", tx.Committed()).Msg("transaction finished")

	if err != nil {
		return result, err
	}
	if journalErr != nil {
		return result, errors.Errorf("changes committed but journal is stale: %w", journalErr)
	}
	return result, nil
}
