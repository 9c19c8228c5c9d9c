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

// Package saga journals multi-file changes that the remote can only commit
// one file at a time.
//
// A Transaction lists the planned file writes. The Executor records the
// outcome of each write as it happens, so a transaction that stops partway
// can be inspected and resumed instead of being silently half-applied.
package saga

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/walteh/contentsync/pkg/remote"
)

// Status is the state of a whole transaction.
type Status string

const (
	StatusPlanned   Status = "planned"
	StatusRunning   Status = "running"
	StatusCommitted Status = "committed"
	StatusPartial   Status = "partial"
	StatusFailed    Status = "failed"
)

// Done reports whether nothing is left to apply.
func (s Status) Done() bool {
	return s == StatusCommitted
}

// Step is one planned file write and its outcome.
type Step struct {
	Index        int               `json:"index"`
	Path         string            `json:"path"`
	Content      []byte            `json:"-"`
	ExpectedHash string            `json:"expected_hash,omitempty"`
	Overwrite    bool              `json:"overwrite,omitempty"`
	Status       remote.StepStatus `json:"status"`
	Hash         string            `json:"hash,omitempty"`
	CommitSHA    string            `json:"commit_sha,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// Transaction is a journaled batch of file writes sharing one commit message.
type Transaction struct {
	ID        uuid.UUID `json:"id"`
	Kind      string    `json:"kind"`
	Owner     string    `json:"owner"`
	Repo      string    `json:"repo"`
	Message   string    `json:"message"`
	Payload   string    `json:"payload,omitempty"`
	Status    Status    `json:"status"`
	Steps     []Step    `json:"steps"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// 🏭 NewTransaction plans the given writes with every step pending.
func NewTransaction(kind, owner, repo, message, payload string, uploads ...remote.FileUpload) *Transaction {
	now := time.Now().UTC()
	tx := &Transaction{
		ID:        uuid.New(),
		Kind:      kind,
		Owner:     owner,
		Repo:      repo,
		Message:   message,
		Payload:   payload,
		Status:    StatusPlanned,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i, u := range uploads {
		tx.Steps = append(tx.Steps, Step{
			Index:        i,
			Path:         u.Path,
			Content:      u.Content,
			ExpectedHash: u.ExpectedHash,
			Overwrite:    u.Overwrite,
			Status:       remote.StepPending,
		})
	}
	return tx
}

// Remaining returns the steps that are not committed, in order.
func (t *Transaction) Remaining() []Step {
	var out []Step
	for _, s := range t.Steps {
		if s.Status != remote.StepCommitted {
			out = append(out, s)
		}
	}
	return out
}

// Committed returns the paths already committed.
func (t *Transaction) Committed() []string {
	var out []string
	for _, s := range t.Steps {
		if s.Status == remote.StepCommitted {
			out = append(out, s.Path)
		}
	}
	return out
}

func (t *Transaction) step(path string) *Step {
	for i := range t.Steps {
		if t.Steps[i].Path == path {
			return &t.Steps[i]
		}
	}
	return nil
}

// Journal persists transactions and the outcome of their steps.
type Journal interface {
	Create(ctx context.Context, tx *Transaction) error
	UpdateStep(ctx context.Context, id uuid.UUID, step Step) error
	SetStatus(ctx context.Context, id uuid.UUID, status Status) error
	Get(ctx context.Context, id uuid.UUID) (*Transaction, error)
	// List returns transactions newest first.
	List(ctx context.Context) ([]*Transaction, error)
}

// Refresher re-plans the unfinished steps of a transaction against the
// current remote state. It may mark steps committed when the remote already
// holds their result.
type Refresher interface {
	Refresh(ctx context.Context, store remote.FileStore, tx *Transaction) error
}

// RefresherFunc adapts a function to Refresher.
type RefresherFunc func(ctx context.Context, store remote.FileStore, tx *Transaction) error

func (f RefresherFunc) Refresh(ctx context.Context, store remote.FileStore, tx *Transaction) error {
	return f(ctx, store, tx)
}
