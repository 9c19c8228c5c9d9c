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

package manifest

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/walteh/contentsync/pkg/record"
	"github.com/walteh/contentsync/pkg/remote"
	"github.com/walteh/contentsync/pkg/saga"
	"github.com/walteh/contentsync/pkg/syncerr"
	"gitlab.com/tozd/go/errors"
)

// TransactionKind tags collection-creation transactions in the journal.
const TransactionKind = "create_collection"

// Planner turns a collection name into a two-step transaction: create the
// data module, then rewrite the index gated on the hash it was read at.
type Planner struct {
	Layout Layout
}

var _ saga.Refresher = (*Planner)(nil)

// NewPlanner returns a planner for layout, with defaults filled in.
func NewPlanner(layout Layout) *Planner {
	return &Planner{Layout: layout.WithDefaults()}
}

// CommitMessage is the message shared by every write of a collection creation.
func CommitMessage(name string) string {
	return "Add collection " + name
}

// 🗺️ Plan reads the current index and data path and builds the transaction.
// An existing data module is a ValidationError.
func (p *Planner) Plan(ctx context.Context, store remote.FileStore, owner, repo, name string) (*saga.Transaction, Collection, error) {
	c, err := Derive(name, p.Layout)
	if err != nil {
		return nil, Collection{}, err
	}

	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("slug", c.Slug).Str("identifier", c.Identifier).Str("data_path", c.DataPath).Msg("planning collection")

	if _, err := store.ReadFile(ctx, owner, repo, c.DataPath); err == nil {
		return nil, c, syncerr.Validation("plan", "collection file %s already exists", c.DataPath)
	} else if !errors.Is(err, syncerr.ErrNotFound) {
		return nil, c, errors.Errorf("checking %s: %w", c.DataPath, err)
	}

	indexText, indexHash, err := readOptional(ctx, store, owner, repo, p.Layout.ManifestPath)
	if err != nil {
		return nil, c, err
	}

	newIndex, err := Register(indexText, c, p.Layout)
	if err != nil {
		return nil, c, err
	}

	tx := saga.NewTransaction(TransactionKind, owner, repo, CommitMessage(c.Name), c.Name,
		remote.FileUpload{Path: c.DataPath, Content: []byte(DataFile(c))},
		remote.FileUpload{Path: p.Layout.ManifestPath, Content: []byte(newIndex), ExpectedHash: indexHash},
	)
	return tx, c, nil
}

// 🔄 Refresh re-reads the remote for every unfinished step. A data module
// that already exports the collection and an index that already registers
// it count as committed.
func (p *Planner) Refresh(ctx context.Context, store remote.FileStore, tx *saga.Transaction) error {
	if tx.Kind != TransactionKind {
		return syncerr.Validation("refresh", "cannot refresh %q transaction", tx.Kind)
	}
	c, err := Derive(tx.Payload, p.Layout)
	if err != nil {
		return err
	}

	for i := range tx.Steps {
		step := &tx.Steps[i]
		if step.Status == remote.StepCommitted {
			continue
		}

		text, hash, err := readOptional(ctx, store, tx.Owner, tx.Repo, step.Path)
		if err != nil {
			return err
		}

		switch step.Path {
		case c.DataPath:
			if hash == "" {
				step.Content = []byte(DataFile(c))
				step.ExpectedHash = ""
				break
			}
			if _, err := record.FindExport(text, c.Identifier, '['); err != nil {
				return syncerr.New(syncerr.KindConflict, "refresh", "%s exists but does not export %s", c.DataPath, c.Identifier)
			}
			markCommitted(step, hash)

		case p.Layout.ManifestPath:
			done, err := Registered(text, c, p.Layout)
			if err != nil {
				return err
			}
			if done {
				markCommitted(step, hash)
				break
			}
			updated, err := Register(text, c, p.Layout)
			if err != nil {
				return err
			}
			step.Content = []byte(updated)
			step.ExpectedHash = hash

		default:
			return syncerr.New(syncerr.KindIntegrity, "refresh", "unexpected step %s in collection transaction", step.Path)
		}

		zerolog.Ctx(ctx).Debug().Str("path", step.Path).Str("status", string(step.Status)).Msg("refreshed step")
	}
	return nil
}

func markCommitted(step *saga.Step, hash string) {
	step.Status = remote.StepCommitted
	step.Hash = hash
	step.Error = ""
}

// readOptional reads a file, treating absence as empty text with no hash.
func readOptional(ctx context.Context, store remote.FileStore, owner, repo, path string) (string, string, error) {
	f, err := store.ReadFile(ctx, owner, repo, path)
	if err != nil {
		if errors.Is(err, syncerr.ErrNotFound) {
			return "", "", nil
		}
		return "", "", errors.Errorf("reading %s: %w", path, err)
	}
	return string(f.Content), f.Hash, nil
}
