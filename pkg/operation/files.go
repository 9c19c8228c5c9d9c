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

	"github.com/walteh/contentsync/pkg/remote"
	"github.com/walteh/contentsync/pkg/saga"
	"github.com/walteh/contentsync/pkg/session"
	"github.com/walteh/contentsync/pkg/syncerr"
)

// UploadKind tags plain file uploads in the journal.
const UploadKind = "upload"

// 📥 FetchContents reads path from the selected repository and makes it the
// session's current path.
func (o *Operator) FetchContents(ctx context.Context, s session.Session, path string) (session.Session, *remote.RemoteFile, error) {
	type fetched struct {
		sess session.Session
		file *remote.RemoteFile
	}
	out, err := guard(ctx, o, "fetch_contents", s.RepositoryKey(), func(ctx context.Context) (fetched, error) {
		if err := s.RequireRepository("fetch contents"); err != nil {
			return fetched{sess: s}, err
		}
		if err := remote.ValidatePath(path); err != nil {
			return fetched{sess: s}, err
		}
		c, err := o.client(ctx, s)
		if err != nil {
			return fetched{sess: s}, err
		}
		f, err := c.ReadFile(ctx, s.Owner, s.Repo, path)
		if err != nil {
			if syncerr.KindOf(err) == syncerr.KindNotFound {
				o.mirror.Forget(s.Owner, s.Repo, path)
			}
			return fetched{sess: s}, err
		}
		o.mirror.Put(*f)

		next := s
		next.Path = path
		return fetched{sess: next, file: f}, nil
	})
	return out.sess, out.file, err
}

// 📤 UploadFiles writes files to the selected repository under one commit
// message, one file at a time, as a journaled transaction. Files without an
// ExpectedHash overwrite whatever is there, re-reading its hash first.
//
// Paths, sizes and the message are checked before any request. A failure
// partway returns *remote.BatchError; the transaction can then be resumed.
func (o *Operator) UploadFiles(ctx context.Context, s session.Session, files []remote.FileUpload, message string) (*remote.BatchResult, error) {
	return guard(ctx, o, "upload_files", s.RepositoryKey(), func(ctx context.Context) (*remote.BatchResult, error) {
		const op = "upload files"
		if err := s.RequireRepository(op); err != nil {
			return nil, err
		}
		if strings.TrimSpace(message) == "" {
			return nil, syncerr.Validation(op, "empty commit message")
		}
		if len(files) == 0 {
			return nil, syncerr.Validation(op, "no files to upload")
		}

		uploads := make([]remote.FileUpload, len(files))
		seen := make(map[string]bool, len(files))
		for i, f := range files {
			if err := o.checkPath(op, f.Path); err != nil {
				return nil, err
			}
			if seen[f.Path] {
				return nil, syncerr.Validation(op, "%s is listed twice", f.Path)
			}
			seen[f.Path] = true
			if err := remote.CheckSize(f.Path, int64(len(f.Content)), o.maxFileSize); err != nil {
				return nil, err
			}
			uploads[i] = f
			if f.ExpectedHash == "" {
				uploads[i].Overwrite = true
			}
		}

		c, err := o.client(ctx, s)
		if err != nil {
			return nil, err
		}
		tx := saga.NewTransaction(UploadKind, s.Owner, s.Repo, message, "", uploads...)
		return o.executor(c, s).Run(ctx, tx)
	})
}

// executor returns a saga executor over c. Every file the batch touches is
// dropped from the mirror, since a resumed step may carry re-planned content.
func (o *Operator) executor(c remote.Client, s session.Session) *saga.Executor {
	observe := func(ctx context.Context, out remote.StepOutcome) {
		o.mirror.Forget(s.Owner, s.Repo, out.Path)
		if o.observer != nil {
			o.observer(ctx, out)
		}
	}
	return saga.NewExecutor(c, o.journal, observe)
}
