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

package remote_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/walteh/contentsync/pkg/remote"
	"github.com/walteh/contentsync/pkg/syncerr"
	"github.com/walteh/contentsync/pkg/testutils"
	"gitlab.com/tozd/go/errors"
)

func TestUploadBatch(t *testing.T) {
	t.Run("all_committed", func(t *testing.T) {
		ctx := testutils.Context(t)
		client := testutils.NewMockClient(t)

		client.On("WriteFile", mock.Anything, "octo", "site", "a.js", []byte("a"), "Add things", "").
			Return(&remote.CommitResult{Path: "a.js", Hash: "h1", CommitSHA: "c1", Created: true}, nil).Once()
		client.On("WriteFile", mock.Anything, "octo", "site", "b.js", []byte("b"), "Add things", "old").
			Return(&remote.CommitResult{Path: "b.js", Hash: "h2", CommitSHA: "c2"}, nil).Once()

		var seen []remote.StepOutcome
		result, err := remote.UploadBatch(ctx, client, "octo", "site", []remote.FileUpload{
			{Path: "a.js", Content: []byte("a")},
			{Path: "b.js", Content: []byte("b"), ExpectedHash: "old"},
		}, "Add things", func(_ context.Context, o remote.StepOutcome) {
			seen = append(seen, o)
		})

		require.NoError(t, err)
		assert.True(t, result.Complete())
		assert.Len(t, result.Committed, 2)
		require.Len(t, seen, 2)
		assert.Equal(t, remote.StepCommitted, seen[1].Status)
		assert.Equal(t, "c2", seen[1].Commit.CommitSHA)
	})

	t.Run("partial_failure_reports_paths", func(t *testing.T) {
		ctx := testutils.Context(t)
		client := testutils.NewMockClient(t)

		client.On("WriteFile", mock.Anything, "octo", "site", "data.js", mock.Anything, "msg", "").
			Return(&remote.CommitResult{Path: "data.js", Hash: "h1", Created: true}, nil).Once()
		client.On("WriteFile", mock.Anything, "octo", "site", "index.js", mock.Anything, "msg", "stale").
			Return(nil, &remote.ConflictError{Path: "index.js", ExpectedHash: "stale"}).Once()

		result, err := remote.UploadBatch(ctx, client, "octo", "site", []remote.FileUpload{
			{Path: "data.js", Content: []byte("d")},
			{Path: "index.js", Content: []byte("i"), ExpectedHash: "stale"},
			{Path: "later.js", Content: []byte("l")},
		}, "msg", nil)

		require.Error(t, err)
		assert.True(t, errors.Is(err, syncerr.ErrConflict), "cause should stay visible")

		var be *remote.BatchError
		require.True(t, errors.As(err, &be))
		assert.Equal(t, "index.js", be.Result.Failed)
		assert.Equal(t, []string{"later.js"}, be.Result.NotAttempted)
		require.Len(t, result.Committed, 1)
		assert.Equal(t, "data.js", result.Committed[0].Path)
		assert.Contains(t, err.Error(), "committed: [data.js]")
		assert.False(t, result.Complete())
	})

	t.Run("overwrite_reads_current_hash", func(t *testing.T) {
		ctx := testutils.Context(t)
		client := testutils.NewMockClient(t)

		client.On("ReadFile", mock.Anything, "octo", "site", "exists.js").
			Return(&remote.RemoteFile{Path: "exists.js", Hash: "current"}, nil).Once()
		client.On("WriteFile", mock.Anything, "octo", "site", "exists.js", mock.Anything, "msg", "current").
			Return(&remote.CommitResult{Path: "exists.js", Hash: "next"}, nil).Once()
		client.On("ReadFile", mock.Anything, "octo", "site", "new.js").
			Return(nil, syncerr.NotFound("read", "missing")).Once()
		client.On("WriteFile", mock.Anything, "octo", "site", "new.js", mock.Anything, "msg", "").
			Return(&remote.CommitResult{Path: "new.js", Hash: "fresh", Created: true}, nil).Once()

		result, err := remote.UploadBatch(ctx, client, "octo", "site", []remote.FileUpload{
			{Path: "exists.js", Content: []byte("x"), Overwrite: true},
			{Path: "new.js", Content: []byte("y"), Overwrite: true},
		}, "msg", nil)

		require.NoError(t, err)
		assert.Len(t, result.Committed, 2)
	})

	t.Run("invalid_input_makes_no_calls", func(t *testing.T) {
		ctx := testutils.Context(t)
		client := testutils.NewMockClient(t)

		_, err := remote.UploadBatch(ctx, client, "octo", "site", []remote.FileUpload{{Path: "a.js"}}, "  ", nil)
		assert.True(t, errors.Is(err, syncerr.ErrValidation), "empty message")

		_, err = remote.UploadBatch(ctx, client, "octo", "site", []remote.FileUpload{{Path: "a.js"}, {Path: "/b.js"}}, "msg", nil)
		assert.True(t, errors.Is(err, syncerr.ErrValidation), "bad path")

		client.AssertNotCalled(t, "WriteFile", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
