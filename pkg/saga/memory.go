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
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/walteh/contentsync/pkg/syncerr"
)

// MemoryJournal keeps transactions in process memory.
type MemoryJournal struct {
	mu  sync.Mutex
	txs map[uuid.UUID]*Transaction
}

var _ Journal = (*MemoryJournal)(nil)

func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{txs: map[uuid.UUID]*Transaction{}}
}

func (j *MemoryJournal) Create(ctx context.Context, tx *Transaction) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, ok := j.txs[tx.ID]; ok {
		return syncerr.Validation("journal", "transaction %s already exists", tx.ID)
	}
	j.txs[tx.ID] = clone(tx)
	return nil
}

func (j *MemoryJournal) UpdateStep(ctx context.Context, id uuid.UUID, step Step) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	tx, ok := j.txs[id]
	if !ok {
		return syncerr.NotFound("journal", "transaction %s", id)
	}
	if step.Index < 0 || step.Index >= len(tx.Steps) {
		return syncerr.Validation("journal", "transaction %s has no step %d", id, step.Index)
	}
	tx.Steps[step.Index] = step
	tx.UpdatedAt = time.Now().UTC()
	return nil
}

func (j *MemoryJournal) SetStatus(ctx context.Context, id uuid.UUID, status Status) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	tx, ok := j.txs[id]
	if !ok {
		return syncerr.NotFound("journal", "transaction %s", id)
	}
	tx.Status = status
	tx.UpdatedAt = time.Now().UTC()
	return nil
}

func (j *MemoryJournal) Get(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	tx, ok := j.txs[id]
	if !ok {
		return nil, syncerr.NotFound("journal", "transaction %s", id)
	}
	return clone(tx), nil
}

func (j *MemoryJournal) List(ctx context.Context) ([]*Transaction, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]*Transaction, 0, len(j.txs))
	for _, tx := range j.txs {
		out = append(out, clone(tx))
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	return out, nil
}

func clone(tx *Transaction) *Transaction {
	c := *tx
	c.Steps = make([]Step, len(tx.Steps))
	copy(c.Steps, tx.Steps)
	return &c
}
