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

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/contentsync/cmd/contentsync/opts"
	"github.com/walteh/contentsync/pkg/store"
	"github.com/walteh/contentsync/pkg/syncerr"
	"github.com/walteh/contentsync/pkg/testutils"
	"gitlab.com/tozd/go/errors"
)

const token = "ghp_0123456789abcdefghijklmnop"

const index = `export const registry = {
};

export const collections = [
];
`

type harness struct {
	fake   *testutils.FakeGitHub
	dir    string
	config string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("CONTENTSYNC_TEST_TOKEN", "")

	fake := testutils.NewFakeGitHub(t, token)
	fake.AddRepo("site", false, time.Now())
	fake.PutFile("site", "src/data/collections/index.js", []byte(index))

	dir := t.TempDir()
	cfg := filepath.Join(dir, "contentsync.yaml")
	body := "remote:\n" +
		"  base_url: " + fake.URL() + "\n" +
		"  token_env: CONTENTSYNC_TEST_TOKEN\n" +
		"store:\n" +
		"  path: " + filepath.Join(dir, "state.db") + "\n" +
		"log:\n" +
		"  file: " + filepath.Join(dir, "contentsync.log") + "\n" +
		"  level: debug\n"
	require.NoError(t, os.WriteFile(cfg, []byte(body), 0o644))

	return &harness{fake: fake, dir: dir, config: cfg}
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	ro := &opts.RootOpts{User: opts.NewUserLogger(zerolog.Nop())}
	cmd := newRootCmd(ro)

	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(append([]string{"--config", h.config}, args...))

	err := cmd.ExecuteContext(testutils.Context(t))
	_ = ro.Close()
	return out.String(), err
}

func (h *harness) local(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(h.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestEndToEnd(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "login", "--token", token)
	require.NoError(t, err)

	_, err = h.run(t, "repo", "select", "site")
	require.NoError(t, err)

	t.Run("file_put_and_get", func(t *testing.T) {
		local := h.local(t, "a.md", "# A\n")
		_, err := h.run(t, "file", "put", local+"=docs/a.md", "-m", "Add docs")
		require.NoError(t, err)

		got, ok := h.fake.File("site", "docs/a.md")
		require.True(t, ok)
		assert.Equal(t, "# A\n", string(got))

		out, err := h.run(t, "file", "get", "docs/a.md")
		require.NoError(t, err)
		assert.Equal(t, "# A\n", out)

		saved := filepath.Join(h.dir, "copy.md")
		_, err = h.run(t, "file", "get", "docs/a.md", "--out", saved)
		require.NoError(t, err)
		data, err := os.ReadFile(saved)
		require.NoError(t, err)
		assert.Equal(t, "# A\n", string(data))
	})

	t.Run("collection_and_records", func(t *testing.T) {
		_, err := h.run(t, "collection", "create", "Rust Basics")
		require.NoError(t, err)

		module := "src/data/collections/rust-basics.js"
		data, ok := h.fake.File("site", module)
		require.True(t, ok)
		assert.Contains(t, string(data), "export const rustBasics = [")

		idx, _ := h.fake.File("site", "src/data/collections/index.js")
		assert.Contains(t, string(idx), "import { rustBasics } from './rust-basics';")

		_, err = h.run(t, "record", "put", module, "--id", "intro", "--title", "Intro", "--tag", "rust", "--tag", "basics")
		require.NoError(t, err)
		data, _ = h.fake.File("site", module)
		assert.Contains(t, string(data), "intro")
		assert.Contains(t, string(data), "Intro")

		_, err = h.run(t, "record", "list", module)
		require.NoError(t, err)

		_, err = h.run(t, "record", "delete", module, "intro")
		require.NoError(t, err)
		data, _ = h.fake.File("site", module)
		assert.NotContains(t, string(data), "intro")
	})

	t.Run("transactions_are_journaled", func(t *testing.T) {
		_, err := h.run(t, "tx", "list", "--all")
		require.NoError(t, err)

		_, err = h.run(t, "tx", "resume", "not-a-uuid")
		require.Error(t, err)
		assert.True(t, errors.Is(err, syncerr.ErrValidation))
	})

	t.Run("logout_forgets_credential", func(t *testing.T) {
		_, err := h.run(t, "logout")
		require.NoError(t, err)

		_, err = h.run(t, "whoami")
		require.Error(t, err)
		assert.True(t, errors.Is(err, syncerr.ErrAuthentication))
	})

	logged, err := os.ReadFile(filepath.Join(h.dir, "contentsync.log"))
	require.NoError(t, err)
	assert.Contains(t, string(logged), "batch step", "structured log goes to the rotating file")
}

func TestPartialUploadResume(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "login", "--token", token)
	require.NoError(t, err)
	_, err = h.run(t, "repo", "select", "octo/site")
	require.NoError(t, err)

	h.fake.FailNext("PUT /repos/octo/site/contents/docs/b.md", 1)
	a := h.local(t, "a.md", "a")
	b := h.local(t, "b.md", "b")

	_, err = h.run(t, "file", "put", a+"=docs/a.md", b+"=docs/b.md", "-m", "Upload docs")
	require.Error(t, err)
	assert.True(t, syncerr.IsUserActionRequired(err))
	_, ok := h.fake.File("site", "docs/b.md")
	assert.False(t, ok)

	_, err = h.run(t, "tx", "list")
	require.NoError(t, err)

	st, err := store.Open(testutils.Context(t), filepath.Join(h.dir, "state.db"))
	require.NoError(t, err)
	txs, err := st.Journal().List(testutils.Context(t))
	require.NoError(t, err)
	require.NoError(t, st.Close())
	require.Len(t, txs, 1)
	assert.Equal(t, "partial", string(txs[0].Status))
	id := txs[0].ID.String()

	_, err = h.run(t, "tx", "resume", id)
	require.NoError(t, err)
	got, ok := h.fake.File("site", "docs/b.md")
	require.True(t, ok)
	assert.Equal(t, "b", string(got))
}

func TestSignInFromEnvironment(t *testing.T) {
	h := newHarness(t)
	t.Setenv("CONTENTSYNC_TEST_TOKEN", token)

	_, err := h.run(t, "whoami")
	require.NoError(t, err)
}

func TestMissingConfig(t *testing.T) {
	ro := &opts.RootOpts{User: opts.NewUserLogger(zerolog.Nop())}
	cmd := newRootCmd(ro)
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "absent.yaml"), "whoami"})

	err := cmd.ExecuteContext(testutils.Context(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading config")
}

func TestVersion(t *testing.T) {
	ro := &opts.RootOpts{User: opts.NewUserLogger(zerolog.Nop())}
	cmd := newRootCmd(ro)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.ExecuteContext(testutils.Context(t)))
	assert.True(t, strings.HasPrefix(out.String(), "🚀 contentsync version info:"))
	assert.Nil(t, ro.Store, "version opens no store")
}

func TestFormatVersion(t *testing.T) {
	got := FormatVersion(&VersionInfo{Version: "v1.2.3", Revision: "abc", Modified: true, GoVersion: "go1.24", Platform: "linux/amd64"})
	assert.Contains(t, got, "Version:   v1.2.3")
	assert.Contains(t, got, "Revision:  abc (modified)")
}
