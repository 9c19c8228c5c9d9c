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

package operation

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/walteh/contentsync/pkg/manifest"
	"github.com/walteh/contentsync/pkg/remote"
	"github.com/walteh/contentsync/pkg/saga"
	"github.com/walteh/contentsync/pkg/session"
	"github.com/walteh/contentsync/pkg/syncerr"
)

// CollectionResult is what CreateCollection committed.
type CollectionResult struct {
	Collection  manifest.Collection
	Transaction uuid.UUID
	Batch       *remote.BatchResult
}

// 🗂️ CreateCollection derives the collection for name, writes its empty data
// module and registers it in the shared index under one commit message.
//
// The two writes are journaled. When the second fails the returned error
// is a *remote.BatchError naming the committed file, and the transaction id
// in the result can be passed to ResumeTransaction.
func (o *Operator) CreateCollection(ctx context.Context, s session.Session, name string) (*CollectionResult, error) {
	return guard(ctx, o, "create_collection", s.RepositoryKey(), func(ctx context.Context) (*CollectionResult, error) {
		if err := s.RequireRepository("create collection"); err != nil {
			return nil, err
		}
		c, err := manifest.Derive(name, o.planner.Layout)
		if err != nil {
			return nil, err
		}
		for _, p := range []string{c.DataPath, o.planner.Layout.ManifestPath} {
			if err := o.checkPath("create collection", p); err != nil {
				return nil, err
			}
		}

		client, err := o.client(ctx, s)
		if err != nil {
			return nil, err
		}
		tx, c, err := o.planner.Plan(ctx, client, s.Owner, s.Repo, name)
		if err != nil {
			return nil, err
		}

		out := &CollectionResult{Collection: c, Transaction: tx.ID}
		out.Batch, err = o.executor(client, s).Run(ctx, tx)
		return out, err
	})
}

// 🔁 ResumeTransaction finishes a partial or failed transaction of s's
// repository. Collection transactions are re-planned against the current
// index first; uploads re-read each file's hash before writing.
func (o *Operator) ResumeTransaction(ctx context.Context, s session.Session, id uuid.UUID) (*remote.BatchResult, error) {
	return guard(ctx, o, "resume_transaction", s.RepositoryKey(), func(ctx context.Context) (*remote.BatchResult, error) {
		if err := s.RequireRepository("resume transaction"); err != nil {
			return nil, err
		}
		tx, err := o.journal.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if tx.Owner != s.Owner || tx.Repo != s.Repo {
			return nil, syncerr.Validation("resume transaction", "transaction %s belongs to %s/%s", id, tx.Owner, tx.Repo)
		}

		var refresher saga.Refresher
		switch tx.Kind {
		case manifest.TransactionKind:
			refresher = o.planner
		case UploadKind:
		default:
			return nil, syncerr.Validation("resume transaction", "unknown transaction kind %q", tx.Kind)
		}

		client, err := o.client(ctx, s)
		if err != nil {
			return nil, err
		}
		zerolog.Ctx(ctx).Info().Str("tx", id.String()).Str("kind", tx.Kind).Str("status", string(tx.Status)).Msg("resuming")
		return o.executor(client, s).Resume(ctx, id, refresher)
	})
}

// Transactions lists journaled transactions, newest first. It makes no
// remote request.
func (o *Operator) Transactions(ctx context.Context) ([]*saga.Transaction, error) {
	txs, err := o.journal.List(ctx)
	if err != nil {
		return nil, syncerr.Normalize("transactions", err)
	}
	return txs, nil
}
