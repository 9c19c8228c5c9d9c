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

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/walteh/contentsync/pkg/remote"
	"github.com/walteh/contentsync/pkg/saga"
	"github.com/walteh/contentsync/pkg/syncerr"
	"gitlab.com/tozd/go/errors"
)

// Journal is a saga.Journal kept in the store's transaction tables.
type Journal struct {
	db *sql.DB
}

var _ saga.Journal = (*Journal)(nil)

// Journal returns the transaction journal backed by s.
func (s *Store) Journal() *Journal {
	return &Journal{db: s.db}
}

func (j *Journal) Create(ctx context.Context, tx *saga.Transaction) error {
	dbtx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Errorf("beginning journal write: %w", err)
	}
	defer dbtx.Rollback()

	var exists int
	err = dbtx.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE id = ?`, tx.ID.String()).Scan(&exists)
	if err != nil {
		return errors.Errorf("checking transaction %s: %w", tx.ID, err)
	}
	if exists > 0 {
		return syncerr.Validation("journal", "transaction %s already exists", tx.ID)
	}

	_, err = dbtx.ExecContext(ctx, `
		INSERT INTO transactions (id, kind, owner, repo, message, payload, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID.String(), tx.Kind, tx.Owner, tx.Repo, tx.Message, tx.Payload, string(tx.Status),
		tx.CreatedAt.UnixNano(), tx.UpdatedAt.UnixNano())
	if err != nil {
		return errors.Errorf("inserting transaction %s: %w", tx.ID, err)
	}

	for _, s := range tx.Steps {
		_, err = dbtx.ExecContext(ctx, `
			INSERT INTO transaction_steps (tx_id, idx, path, content, expected_hash, overwrite, status, hash, commit_sha, error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			tx.ID.String(), s.Index, s.Path, s.Content, s.ExpectedHash, s.Overwrite, string(s.Status), s.Hash, s.CommitSHA, s.Error)
		if err != nil {
			return errors.Errorf("inserting step %d of %s: %w", s.Index, tx.ID, err)
		}
	}

	if err := dbtx.Commit(); err != nil {
		return errors.Errorf("committing transaction %s: %w", tx.ID, err)
	}
	return nil
}

func (j *Journal) UpdateStep(ctx context.Context, id uuid.UUID, step saga.Step) error {
	res, err := j.db.ExecContext(ctx, `
		UPDATE transaction_steps
		SET path = ?, content = ?, expected_hash = ?, overwrite = ?, status = ?, hash = ?, commit_sha = ?, error = ?
		WHERE tx_id = ? AND idx = ?`,
		step.Path, step.Content, step.ExpectedHash, step.Overwrite, string(step.Status), step.Hash, step.CommitSHA, step.Error,
		id.String(), step.Index)
	if err != nil {
		return errors.Errorf("updating step %d of %s: %w", step.Index, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := j.header(ctx, id); err != nil {
			return err
		}
		return syncerr.Validation("journal", "transaction %s has no step %d", id, step.Index)
	}
	return j.touch(ctx, id)
}

func (j *Journal) SetStatus(ctx context.Context, id uuid.UUID, status saga.Status) error {
	res, err := j.db.ExecContext(ctx, `UPDATE transactions SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC().UnixNano(), id.String())
	if err != nil {
		return errors.Errorf("updating status of %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return syncerr.NotFound("journal", "transaction %s", id)
	}
	return nil
}

func (j *Journal) Get(ctx context.Context, id uuid.UUID) (*saga.Transaction, error) {
	tx, err := j.header(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := j.loadSteps(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

func (j *Journal) List(ctx context.Context) ([]*saga.Transaction, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, kind, owner, repo, message, payload, status, created_at, updated_at
		FROM transactions ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, errors.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var out []*saga.Transaction
	for rows.Next() {
		tx, err := scanHeader(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Errorf("listing transactions: %w", err)
	}
	rows.Close()

	for _, tx := range out {
		if err := j.loadSteps(ctx, tx); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (j *Journal) touch(ctx context.Context, id uuid.UUID) error {
	_, err := j.db.ExecContext(ctx, `UPDATE transactions SET updated_at = ? WHERE id = ?`, time.Now().UTC().UnixNano(), id.String())
	if err != nil {
		return errors.Errorf("touching %s: %w", id, err)
	}
	return nil
}

func (j *Journal) header(ctx context.Context, id uuid.UUID) (*saga.Transaction, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT id, kind, owner, repo, message, payload, status, created_at, updated_at
		FROM transactions WHERE id = ?`, id.String())
	tx, err := scanHeader(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, syncerr.NotFound("journal", "transaction %s", id)
		}
		return nil, err
	}
	return tx, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanHeader(row scanner) (*saga.Transaction, error) {
	var (
		tx               saga.Transaction
		id, status       string
		created, updated int64
	)
	if err := row.Scan(&id, &tx.Kind, &tx.Owner, &tx.Repo, &tx.Message, &tx.Payload, &status, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Errorf("scanning transaction: %w", err)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, syncerr.New(syncerr.KindIntegrity, "journal", "bad transaction id %q: %v", id, err)
	}
	tx.ID = parsed
	tx.Status = saga.Status(status)
	tx.CreatedAt = time.Unix(0, created).UTC()
	tx.UpdatedAt = time.Unix(0, updated).UTC()
	return &tx, nil
}

func (j *Journal) loadSteps(ctx context.Context, tx *saga.Transaction) error {
	rows, err := j.db.QueryContext(ctx, `
		SELECT idx, path, content, expected_hash, overwrite, status, hash, commit_sha, error
		FROM transaction_steps WHERE tx_id = ? ORDER BY idx`, tx.ID.String())
	if err != nil {
		return errors.Errorf("loading steps of %s: %w", tx.ID, err)
	}
	defer rows.Close()

	tx.Steps = nil
	for rows.Next() {
		var (
			s      saga.Step
			status string
		)
		if err := rows.Scan(&s.Index, &s.Path, &s.Content, &s.ExpectedHash, &s.Overwrite, &status, &s.Hash, &s.CommitSHA, &s.Error); err != nil {
			return errors.Errorf("scanning step of %s: %w", tx.ID, err)
		}
		s.Status = remote.StepStatus(status)
		tx.Steps = append(tx.Steps, s)
	}
	if err := rows.Err(); err != nil {
		return errors.Errorf("loading steps of %s: %w", tx.ID, err)
	}
	return nil
}
