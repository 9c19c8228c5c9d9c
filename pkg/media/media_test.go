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

package media_test

import (
	"context"
	"io"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/contentsync/pkg/media"
	"github.com/walteh/contentsync/pkg/session"
	"github.com/walteh/contentsync/pkg/syncerr"
	"github.com/walteh/contentsync/pkg/testutils"
	"gitlab.com/tozd/go/errors"
)

const (
	token = "ghp_0123456789abcdefghijklmnop"
	dir   = "/media"
)

type harness struct {
	fake   *testutils.FakeGitHub
	fs     afero.Fs
	creds  *session.MemoryCredentials
	states []media.State
	view   *media.View
}

func newHarness(t *testing.T, opts ...media.Option) *harness {
	t.Helper()
	h := &harness{
		fake:  testutils.NewFakeGitHub(t, token),
		fs:    afero.NewMemMapFs(),
		creds: &session.MemoryCredentials{},
	}
	require.NoError(t, h.fs.MkdirAll(dir, 0o755))
	opts = append([]media.Option{media.WithFs(h.fs), media.WithDir(dir)}, opts...)
	f := media.NewFetcher(h.creds, opts...)
	h.view = media.NewView(f, func(s media.State) { h.states = append(h.states, s) })
	return h
}

func (h *harness) files(t *testing.T) int {
	t.Helper()
	entries, err := afero.ReadDir(h.fs, dir)
	require.NoError(t, err)
	return len(entries)
}

func (h *harness) read(t *testing.T, hd *media.Handle) string {
	t.Helper()
	f, err := hd.Open()
	require.NoError(t, err)
	defer f.Close()
	b, err := io.ReadAll(f)
	require.NoError(t, err)
	return string(b)
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name       string
		private    bool
		credential string
		wantStates []media.State
		wantHandle bool
		errKind    error
	}{
		{
			name:       "direct",
			wantStates: []media.State{media.StateLoading, media.StateDisplayed},
		},
		{
			name:       "authenticated_fallback",
			private:    true,
			credential: token,
			wantStates: []media.State{media.StateLoading, media.StateRetrying, media.StateDisplayed},
			wantHandle: true,
		},
		{
			name:       "fallback_fails",
			private:    true,
			credential: "ghp_wrongwrongwrongwrongwrong",
			wantStates: []media.State{media.StateLoading, media.StateRetrying, media.StateFailed},
			errKind:    syncerr.ErrNotFound,
		},
		{
			name:       "no_credential",
			private:    true,
			wantStates: []media.State{media.StateLoading, media.StateFailed},
			errKind:    syncerr.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testutils.Context(t)
			h := newHarness(t)
			if tt.credential != "" {
				require.NoError(t, h.creds.SaveCredential(ctx, tt.credential))
			}
			url := h.fake.AddAsset("cover.png", []byte("PNGDATA"), tt.private)

			state := h.view.Load(ctx, url)
			assert.Equal(t, tt.wantStates, h.states)
			assert.Equal(t, tt.wantStates[len(tt.wantStates)-1], state)
			assert.True(t, state.Terminal())

			if tt.errKind != nil {
				assert.True(t, errors.Is(h.view.Err(), tt.errKind))
				assert.Empty(t, h.view.Source())
			}

			hd := h.view.Handle()
			if !tt.wantHandle {
				assert.Nil(t, hd)
				assert.Zero(t, h.files(t), "no temporary file left behind")
				if tt.errKind == nil {
					assert.Equal(t, url, h.view.Source())
				}
				return
			}
			require.NotNil(t, hd)
			assert.Equal(t, hd.Path(), h.view.Source())
			assert.Equal(t, "PNGDATA", h.read(t, hd))
			assert.Equal(t, int64(7), hd.Size())
			assert.Equal(t, 1, h.files(t))
		})
	}
}

func TestHandleLifecycle(t *testing.T) {
	ctx := testutils.Context(t)

	t.Run("superseded_by_reload", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.creds.SaveCredential(ctx, token))
		url := h.fake.AddAsset("a.png", []byte("a"), true)

		h.view.Load(ctx, url)
		first := h.view.Handle()
		require.NotNil(t, first)

		h.view.Load(ctx, url)
		second := h.view.Handle()
		require.NotNil(t, second)
		assert.NotSame(t, first, second)
		assert.True(t, first.Released())
		assert.False(t, second.Released())
		assert.Equal(t, 1, h.files(t), "only the displayed copy exists")
	})

	t.Run("url_change", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.creds.SaveCredential(ctx, token))
		a := h.fake.AddAsset("a.png", []byte("a"), true)
		b := h.fake.AddAsset("b.png", []byte("b"), false)

		h.view.Load(ctx, a)
		first := h.view.Handle()
		require.NotNil(t, first)

		assert.Equal(t, media.StateDisplayed, h.view.Load(ctx, b))
		assert.True(t, first.Released(), "switching resources releases the old copy")
		assert.Nil(t, h.view.Handle())
		assert.Zero(t, h.files(t))
	})

	t.Run("second_failure", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.creds.SaveCredential(ctx, token))
		url := h.fake.AddAsset("a.png", []byte("a"), true)

		h.view.Load(ctx, url)
		first := h.view.Handle()
		require.NotNil(t, first)

		require.NoError(t, h.creds.SaveCredential(ctx, "ghp_wrongwrongwrongwrongwrong"))
		assert.Equal(t, media.StateFailed, h.view.Load(ctx, url))
		assert.True(t, first.Released())
		assert.Nil(t, h.view.Handle())
		assert.Zero(t, h.files(t))
	})

	t.Run("close", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.creds.SaveCredential(ctx, token))
		url := h.fake.AddAsset("a.png", []byte("a"), true)

		h.view.Load(ctx, url)
		hd := h.view.Handle()
		require.NotNil(t, hd)

		require.NoError(t, h.view.Close())
		assert.True(t, hd.Released())
		assert.Equal(t, media.StateIdle, h.view.State())
		assert.Zero(t, h.files(t))

		require.NoError(t, hd.Release(), "release is idempotent")
		require.NoError(t, h.view.Close(), "closing twice is fine")

		_, err := hd.Open()
		assert.True(t, errors.Is(err, syncerr.ErrNotFound))
	})
}

func TestOversizedMedia(t *testing.T) {
	ctx := testutils.Context(t)
	h := newHarness(t, media.WithMaxSize(4))
	require.NoError(t, h.creds.SaveCredential(ctx, token))
	url := h.fake.AddAsset("big.png", []byte("12345"), true)

	assert.Equal(t, media.StateFailed, h.view.Load(ctx, url))
	assert.True(t, errors.Is(h.view.Err(), syncerr.ErrValidation))
	assert.Zero(t, h.files(t), "partial copy removed")
}

func TestCanceledLoad(t *testing.T) {
	h := newHarness(t)
	url := h.fake.AddAsset("a.png", []byte("a"), false)

	ctx, cancel := context.WithCancel(testutils.Context(t))
	cancel()

	assert.Equal(t, media.StateFailed, h.view.Load(ctx, url))
	assert.True(t, syncerr.IsRetryable(h.view.Err()))
}
