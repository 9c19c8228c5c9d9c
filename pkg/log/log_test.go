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

package log

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/contentsync/pkg/remote"
)

func TestLogger(t *testing.T) {
	// Disable color for testing
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name     string
		op       func(t *testing.T, logger *Logger)
		wantLogs []string
	}{
		{
			name: "log_created_step",
			op: func(t *testing.T, logger *Logger) {
				logger.LogStep(context.Background(), remote.StepOutcome{
					Path:   "docs/a.md",
					Status: remote.StepCommitted,
					Commit: &remote.CommitResult{Path: "docs/a.md", CommitSHA: "0000000000000000000000000000000000000001", Created: true},
				})
			},
			wantLogs: []string{
				"✓ docs/a.md                           created    0000000",
			},
		},
		{
			name: "log_batch",
			op: func(t *testing.T, logger *Logger) {
				logger.StartBatch(context.Background(), Batch{
					Repository: "octo/site",
					Message:    "Upload docs",
					Files:      []string{"docs/a.md", "docs/b.md"},
				})
			},
			wantLogs: []string{
				"[writing octo/site]",
				"◆ Upload docs • 2 files",
			},
		},
		{
			name: "end_batch_lists_skipped_files",
			op: func(t *testing.T, logger *Logger) {
				ctx := context.Background()
				logger.StartBatch(ctx, Batch{Repository: "octo/site", Message: "m", Files: []string{"a", "b", "c"}})
				logger.EndBatch(ctx, &remote.BatchResult{Failed: "b", NotAttempted: []string{"docs/c.md"}})
			},
			wantLogs: []string{
				"[writing octo/site]",
				"◆ m • 3 files",
				"- docs/c.md                           skipped",
			},
		},
		{
			name: "end_without_start",
			op: func(t *testing.T, logger *Logger) {
				ctx := context.Background()
				logger.EndBatch(ctx, &remote.BatchResult{NotAttempted: []string{"x"}})
				logger.StartBatch(ctx, Batch{Repository: "octo/site", Message: "m", Files: []string{"a"}})
			},
			wantLogs: []string{
				"[writing octo/site]",
				"◆ m • 1 files",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Create buffer for console output
			buf := &bytes.Buffer{}
			logger := New(buf, zerolog.Nop())

			// Perform operation
			tt.op(t, logger)

			// Check output
			output := strings.TrimSpace(buf.String())
			lines := strings.Split(output, "\n")

			require.Equal(t, len(tt.wantLogs), len(lines), "number of log lines should match")
			for i, want := range tt.wantLogs {
				assert.Equal(t, want, strings.TrimSpace(lines[i]), "log line %d should match", i)
			}
		})
	}
}

func TestStepFormatting(t *testing.T) {
	// Disable color for testing
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name string
		out  remote.StepOutcome
		want string
	}{
		{
			name: "created",
			out: remote.StepOutcome{Path: "docs/a.md", Status: remote.StepCommitted,
				Commit: &remote.CommitResult{CommitSHA: "0000000", Created: true}},
			want: "    ✓ docs/a.md                           created    0000000        ",
		},
		{
			name: "updated",
			out: remote.StepOutcome{Path: "docs/a.md", Status: remote.StepCommitted,
				Commit: &remote.CommitResult{CommitSHA: "abcdef1234567890"}},
			want: "    ⟳ docs/a.md                           updated    abcdef1        ",
		},
		{
			name: "failed_with_kind",
			out: remote.StepOutcome{Path: "docs/b.md", Status: remote.StepFailed,
				Err: &remote.ConflictError{Path: "docs/b.md"}},
			want: "    ✗ docs/b.md                           failed     conflict       ",
		},
		{
			name: "not_attempted",
			out:  remote.StepOutcome{Path: "docs/c.md", Status: remote.StepPending},
			want: "    - docs/c.md                           skipped                   ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatStep(tt.out))
		})
	}
}

func TestLogStepObservesBatches(t *testing.T) {
	var observer remote.BatchObserver = New(io.Discard, zerolog.Nop()).LogStep
	assert.NotNil(t, observer)
}
