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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/contentsync/pkg/remote"
	"github.com/walteh/contentsync/pkg/syncerr"
	"gitlab.com/tozd/go/errors"
)

func TestCheckSize(t *testing.T) {
	tests := []struct {
		name    string
		size    int64
		max     int64
		wantErr bool
	}{
		{name: "empty", size: 0, max: 10},
		{name: "exactly_max", size: 10, max: 10},
		{name: "one_over", size: 11, max: 10, wantErr: true},
		{name: "default_exactly_max", size: remote.DefaultMaxFileSize, max: 0},
		{name: "default_one_over", size: remote.DefaultMaxFileSize + 1, max: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := remote.CheckSize("a.js", tt.size, tt.max)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, syncerr.ErrValidation), "oversized content is a validation error")
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		path    string
		wantErr bool
	}{
		{path: "src/data/collections/index.js"},
		{path: "README.md"},
		{path: "", wantErr: true},
		{path: "/abs.js", wantErr: true},
		{path: "dir/", wantErr: true},
		{path: "a//b.js", wantErr: true},
		{path: "a/../b.js", wantErr: true},
		{path: "./b.js", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			err := remote.ValidatePath(tt.path)
			if tt.wantErr {
				assert.True(t, errors.Is(err, syncerr.ErrValidation), "path %q should be rejected", tt.path)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestConflictErrorIs(t *testing.T) {
	err := errors.Errorf("saving: %w", &remote.ConflictError{Path: "a.js", ExpectedHash: "abc", Message: "a.js does not match abc"})

	assert.True(t, errors.Is(err, syncerr.ErrConflict))
	assert.Equal(t, syncerr.KindConflict, syncerr.KindOf(err))

	var ce *remote.ConflictError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "abc", ce.ExpectedHash)
}
