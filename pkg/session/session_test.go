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

package session_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/walteh/contentsync/pkg/remote"
	"github.com/walteh/contentsync/pkg/session"
	"github.com/walteh/contentsync/pkg/syncerr"
	"gitlab.com/tozd/go/errors"
)

func TestValidateCredential(t *testing.T) {
	tests := []struct {
		name       string
		credential string
		wantErr    bool
	}{
		{name: "personal_access_token", credential: "ghp_0123456789abcdefghijklmnop"},
		{name: "fine_grained", credential: "github_pat_11ABCDEFG0123456789_abcdef"},
		{name: "oauth", credential: "gho_abcdefghijklmnop1234"},
		{name: "classic_hex", credential: strings.Repeat("a1", 20)},
		{name: "unprefixed_long", credential: "some-enterprise-token-value"},
		{name: "empty", credential: "", wantErr: true},
		{name: "whitespace", credential: "ghp_0123456789 abcdefghijklmnop", wantErr: true},
		{name: "trailing_newline", credential: "ghp_0123456789abcdefghijklmnop\n", wantErr: true},
		{name: "too_short", credential: "short-token", wantErr: true},
		{name: "truncated_prefix", credential: "github_pat_012345678", wantErr: true},
		{name: "short_hex", credential: strings.Repeat("a", 19), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := session.ValidateCredential(tt.credential)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, errors.Is(err, syncerr.ErrValidation), "malformed credential is a validation error")
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSession(t *testing.T) {
	var s session.Session
	assert.False(t, s.SignedIn())
	assert.True(t, errors.Is(s.RequireRepository("read"), syncerr.ErrAuthentication))

	s.Credential = "ghp_0123456789abcdefghijklmnop"
	s.Identity = &remote.Identity{Login: "octo"}
	assert.True(t, s.SignedIn())
	assert.True(t, errors.Is(s.RequireRepository("read"), syncerr.ErrValidation))

	s.Path = "docs"
	next := s.WithRepository("octo", "site")
	assert.NoError(t, next.RequireRepository("read"))
	assert.Equal(t, "octo/site", next.RepositoryKey())
	assert.Empty(t, next.Path, "selecting a repository resets the path")
	assert.Equal(t, "docs", s.Path, "original value is untouched")
}

func TestMemoryCredentials(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	var m session.MemoryCredentials

	_, err := m.Credential(ctx)
	assert.True(t, errors.Is(err, syncerr.ErrNotFound))

	assert.NoError(t, m.SaveCredential(ctx, "tok"))
	got, err := m.Credential(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "tok", got)

	assert.NoError(t, m.ClearCredential(ctx))
	_, err = m.Credential(ctx)
	assert.True(t, errors.Is(err, syncerr.ErrNotFound))
}
