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

package status

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/contentsync/pkg/remote"
	"github.com/walteh/contentsync/pkg/saga"
	"github.com/walteh/contentsync/pkg/syncerr"
	"gitlab.com/tozd/go/errors"
)

func TestDefaultFormatter_FormatStep(t *testing.T) {
	tests := []struct {
		name string
		info FileInfo
		want string
	}{
		{name: "created", info: FileInfo{Path: "docs/a.md", Status: StatusCreated}, want: "✨ Created docs/a.md"},
		{name: "updated", info: FileInfo{Path: "docs/a.md", Status: StatusUpdated}, want: "📝 Updated docs/a.md"},
		{name: "failed", info: FileInfo{Path: "docs/b.md", Status: StatusFailed}, want: "❌ Failed docs/b.md"},
		{name: "skipped", info: FileInfo{Path: "docs/c.md", Status: StatusSkipped}, want: "⏭️  Skipped docs/c.md"},
		{name: "unknown", info: FileInfo{Path: "x"}, want: "❔ Unknown x"},
	}

	f := NewDefaultFormatter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.FormatStep(tt.info))
		})
	}
}

func TestDefaultFormatter_FormatProgress(t *testing.T) {
	tests := []struct {
		name    string
		current int
		total   int
		want    string
	}{
		{name: "start", current: 0, total: 3, want: "⏳ Progress: 0/3 (0%)"},
		{name: "middle", current: 1, total: 4, want: "⏳ Progress: 1/4 (25%)"},
		{name: "done", current: 3, total: 3, want: "✅ Progress: 3/3 (100%)"},
		{name: "empty", current: 0, total: 0, want: "✅ Progress: 0/0 (0%)"},
	}

	f := NewDefaultFormatter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.FormatProgress(tt.current, tt.total))
		})
	}
}

func TestDefaultFormatter_FormatError(t *testing.T) {
	partial := errors.WithStack(&remote.BatchError{Result: &remote.BatchResult{
		Message:   "Upload docs",
		Committed: []remote.CommitResult{{Path: "docs/a.md"}},
		Failed:    "docs/b.md",
		FailedErr: syncerr.New(syncerr.KindTransient, "write docs/b.md", "502 Bad Gateway"),
	}})

	tests := []struct {
		name         string
		err          error
		wantContains []string
		wantMissing  []string
	}{
		{
			name:         "nil",
			err:          nil,
			wantContains: []string{""},
		},
		{
			name:         "conflict",
			err:          &remote.ConflictError{Path: "a.js", Message: "does not match"},
			wantContains: []string{"❌ conflict error", "hint: the file changed remotely"},
			wantMissing:  []string{"resume"},
		},
		{
			name:         "partial_batch",
			err:          partial,
			wantContains: []string{"❌ transient error", "1 file(s) already committed", "hint: retry later"},
		},
		{
			name:         "unclassified",
			err:          errors.New("boom"),
			wantContains: []string{"❌ unknown error: boom"},
			wantMissing:  []string{"hint"},
		},
	}

	f := NewDefaultFormatter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.FormatError(tt.err)
			if tt.err == nil {
				assert.Empty(t, got)
				return
			}
			for _, want := range tt.wantContains {
				assert.Contains(t, got, want)
			}
			for _, missing := range tt.wantMissing {
				assert.NotContains(t, got, missing)
			}
		})
	}
}

func TestTransactionRow(t *testing.T) {
	tx := saga.NewTransaction("upload", "octo", "site", "Upload docs", "",
		remote.FileUpload{Path: "a"}, remote.FileUpload{Path: "b"})
	tx.ID = uuid.MustParse("6f1c2f0e-5d1a-4b59-9a55-1f7f6f6c9e01")
	tx.Status = saga.StatusPartial
	tx.Steps[0].Status = remote.StepCommitted
	tx.CreatedAt = time.Date(2025, 3, 1, 9, 30, 0, 0, time.Local)

	row := TransactionRow(tx)
	require.Len(t, row, len(TransactionHeader))
	assert.Equal(t, []string{
		"6f1c2f0e-5d1a-4b59-9a55-1f7f6f6c9e01",
		"partial",
		"upload",
		"octo/site",
		"1/2",
		"Upload docs",
		"2025-03-01 09:30",
	}, row)
}

func TestRepositoryRow(t *testing.T) {
	tests := []struct {
		name     string
		repo     remote.Repository
		selected bool
		want     []string
	}{
		{
			name: "private_selected",
			repo: remote.Repository{FullName: "octo/site", Private: true, DefaultBranch: "main", Stars: 3,
				UpdatedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.Local)},
			selected: true,
			want:     []string{"octo/site *", "private", "main", "2025-03-01 00:00", "3"},
		},
		{
			name: "public",
			repo: remote.Repository{FullName: "octo/notes", DefaultBranch: "trunk",
				UpdatedAt: time.Date(2024, 12, 31, 23, 59, 0, 0, time.Local)},
			want: []string{"octo/notes", "public", "trunk", "2024-12-31 23:59", "0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := RepositoryRow(tt.repo, tt.selected)
			require.Len(t, row, len(RepositoryHeader))
			assert.Equal(t, tt.want, row)
		})
	}
}
