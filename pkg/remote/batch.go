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

package remote

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/contentsync/pkg/syncerr"
	"gitlab.com/tozd/go/errors"
)

// 📊 StepStatus is the outcome of one file in a batch
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepCommitted StepStatus = "committed"
	StepFailed    StepStatus = "failed"
)

// StepOutcome reports what happened to one file of a batch
type StepOutcome struct {
	Index  int
	Path   string
	Status StepStatus
	Commit *CommitResult
	Err    error
}

// BatchObserver is told about every step as soon as it finishes.
type BatchObserver func(ctx context.Context, outcome StepOutcome)

// BatchResult lists which files of a batch were committed.
type BatchResult struct {
	Message      string
	Committed    []CommitResult
	Failed       string
	FailedErr    error
	NotAttempted []string
}

// Complete reports whether every file was committed.
func (r *BatchResult) Complete() bool {
	return r.Failed == ""
}

// BatchError is returned when a batch stops partway through.
// Files listed in Result.Committed stay committed.
type BatchError struct {
	Result *BatchResult
}

func (e *BatchError) Error() string {
	committed := make([]string, 0, len(e.Result.Committed))
	for _, c := range e.Result.Committed {
		committed = append(committed, c.Path)
	}
	return fmt.Sprintf("batch %q stopped at %s: %v (committed: [%s], not attempted: [%s])",
		e.Result.Message,
		e.Result.Failed,
		e.Result.FailedErr,
		strings.Join(committed, ", "),
		strings.Join(e.Result.NotAttempted, ", "),
	)
}

func (e *BatchError) Unwrap() error {
	return e.Result.FailedErr
}

// PartiallyApplied reports whether any file was committed before the failure.
func (e *BatchError) PartiallyApplied() bool {
	return len(e.Result.Committed) > 0
}

// 📤 UploadBatch writes files one at a time under a shared commit message.
//
// The remote only guarantees single-file atomicity, so a failure stops the
// batch and nothing already committed is rolled back. The returned
// *BatchError names the committed, failed and unattempted paths.
func UploadBatch(ctx context.Context, store FileStore, owner, repo string, files []FileUpload, message string, observe BatchObserver) (*BatchResult, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("owner", owner).Str("repo", repo).Int("files", len(files)).Str("message", message).Msg("uploading batch")

	result := &BatchResult{Message: message}
	if strings.TrimSpace(message) == "" {
		return result, syncerr.Validation("upload", "empty commit message")
	}
	for _, f := range files {
		if err := ValidatePath(f.Path); err != nil {
			return result, err
		}
	}

	for i, f := range files {
		commit, err := uploadOne(ctx, store, owner, repo, f, message)
		if err != nil {
			logger.Warn().Err(err).Str("path", f.Path).Msg("batch step failed")
			result.Failed = f.Path
			result.FailedErr = err
			for _, rest := range files[i+1:] {
				result.NotAttempted = append(result.NotAttempted, rest.Path)
			}
			if observe != nil {
				observe(ctx, StepOutcome{Index: i, Path: f.Path, Status: StepFailed, Err: err})
			}
			return result, errors.WithStack(&BatchError{Result: result})
		}

		result.Committed = append(result.Committed, *commit)
		if observe != nil {
			observe(ctx, StepOutcome{Index: i, Path: f.Path, Status: StepCommitted, Commit: commit})
		}
	}

	return result, nil
}

func uploadOne(ctx context.Context, store FileStore, owner, repo string, f FileUpload, message string) (*CommitResult, error) {
	hash := f.ExpectedHash
	if f.Overwrite && hash == "" {
		current, err := store.ReadFile(ctx, owner, repo, f.Path)
		switch {
		case err == nil:
			hash = current.Hash
		case errors.Is(err, syncerr.ErrNotFound):
		default:
			return nil, errors.Errorf("reading current hash of %s: %w", f.Path, err)
		}
	}

	commit, err := store.WriteFile(ctx, owner, repo, f.Path, f.Content, message, hash)
	if err != nil {
		return nil, errors.Errorf("writing %s: %w", f.Path, err)
	}
	return commit, nil
}
