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
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/contentsync/pkg/record"
	"github.com/walteh/contentsync/pkg/remote"
	"github.com/walteh/contentsync/pkg/session"
	"github.com/walteh/contentsync/pkg/syncerr"
	"gitlab.com/tozd/go/errors"
)

// ListRecords decodes the records of the module at path. A mirrored copy is
// used when one has not expired.
func (o *Operator) ListRecords(ctx context.Context, s session.Session, path string) ([]record.Record, error) {
	return guard(ctx, o, "list_records", s.RepositoryKey(), func(ctx context.Context) ([]record.Record, error) {
		if err := s.RequireRepository("list records"); err != nil {
			return nil, err
		}
		if err := remote.ValidatePath(path); err != nil {
			return nil, err
		}

		if f, ok := o.mirror.Get(s.Owner, s.Repo, path); ok {
			zerolog.Ctx(ctx).Debug().Str("path", path).Str("hash", f.Hash).Msg("listing from mirror")
			return record.List(string(f.Content))
		}

		c, err := o.client(ctx, s)
		if err != nil {
			return nil, err
		}
		f, err := c.ReadFile(ctx, s.Owner, s.Repo, path)
		if err != nil {
			return nil, err
		}
		o.mirror.Put(*f)
		return record.List(string(f.Content))
	})
}

// 💾 SaveRecord inserts or replaces rec in the module at path. The module is
// read immediately before the write and the write is gated on that hash, so
// a concurrent edit surfaces as a ConflictError. An absent module is created.
//
// An empty message becomes "Add record <id>" or "Update record <id>".
func (o *Operator) SaveRecord(ctx context.Context, s session.Session, path string, rec record.Record, message string) (*remote.CommitResult, error) {
	return guard(ctx, o, "save_record", s.RepositoryKey(), func(ctx context.Context) (*remote.CommitResult, error) {
		const op = "save record"
		if err := o.checkRecordTarget(op, s, path); err != nil {
			return nil, err
		}
		if strings.TrimSpace(rec.ID) == "" {
			return nil, syncerr.Validation(op, "record id is empty")
		}

		c, err := o.client(ctx, s)
		if err != nil {
			return nil, err
		}
		text, hash, err := readModule(ctx, c, s, path)
		if err != nil {
			return nil, err
		}

		_, exists, err := record.Locate(text, rec.ID)
		if err != nil {
			return nil, err
		}
		patched, err := record.Patch(text, rec)
		if err != nil {
			return nil, err
		}

		if message == "" {
			message = "Add record " + rec.ID
			if exists {
				message = "Update record " + rec.ID
			}
		}
		return o.writeModule(ctx, c, s, path, patched, message, hash)
	})
}

// 🗑️ DeleteRecord removes the record with id from the module at path.
// An absent module or record is a NotFoundError.
func (o *Operator) DeleteRecord(ctx context.Context, s session.Session, path, id, message string) (*remote.CommitResult, error) {
	return guard(ctx, o, "delete_record", s.RepositoryKey(), func(ctx context.Context) (*remote.CommitResult, error) {
		const op = "delete record"
		if err := o.checkRecordTarget(op, s, path); err != nil {
			return nil, err
		}
		if strings.TrimSpace(id) == "" {
			return nil, syncerr.Validation(op, "record id is empty")
		}

		c, err := o.client(ctx, s)
		if err != nil {
			return nil, err
		}
		f, err := c.ReadFile(ctx, s.Owner, s.Repo, path)
		if err != nil {
			return nil, err
		}
		updated, err := record.Remove(string(f.Content), id)
		if err != nil {
			return nil, err
		}
		if message == "" {
			message = "Remove record " + id
		}
		return o.writeModule(ctx, c, s, path, updated, message, f.Hash)
	})
}

func (o *Operator) checkRecordTarget(op string, s session.Session, path string) error {
	if err := s.RequireRepository(op); err != nil {
		return err
	}
	return o.checkPath(op, path)
}

// readModule reads the module at path. An absent module is empty text with no hash.
func readModule(ctx context.Context, c remote.FileStore, s session.Session, path string) (string, string, error) {
	f, err := c.ReadFile(ctx, s.Owner, s.Repo, path)
	if err != nil {
		if errors.Is(err, syncerr.ErrNotFound) {
			zerolog.Ctx(ctx).Debug().Str("path", path).Msg("module absent, creating it")
			return "", "", nil
		}
		return "", "", err
	}
	return string(f.Content), f.Hash, nil
}

func (o *Operator) writeModule(ctx context.Context, c remote.FileStore, s session.Session, path, text, message, hash string) (*remote.CommitResult, error) {
	content := []byte(text)
	if err := remote.CheckSize(path, int64(len(content)), o.maxFileSize); err != nil {
		return nil, err
	}
	commit, err := c.WriteFile(ctx, s.Owner, s.Repo, path, content, message, hash)
	if err != nil {
		o.mirror.Forget(s.Owner, s.Repo, path)
		return nil, err
	}
	o.mirror.Committed(s.Owner, s.Repo, content, commit)

	zerolog.Ctx(ctx).Info().Str("path", path).Str("hash", commit.Hash).Str("commit", commit.CommitSHA).Msg("record module written")
	return commit, nil
}
