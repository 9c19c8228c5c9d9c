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

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/contentsync/pkg/config"
	"github.com/walteh/contentsync/pkg/syncerr"
	"github.com/walteh/contentsync/pkg/testutils"
	"gitlab.com/tozd/go/errors"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{
			name: "yaml",
			file: ".contentsync.yaml",
			body: `
remote:
  owner: octo
  repo: site
limits:
  max_file_size: 2048
content:
  data_dir: content
  manifest_path: content/index.js
  allowed_paths: ["content/**", "docs/*.md"]
cache:
  ttl: 30s
log:
  level: debug
`,
		},
		{
			name: "hcl",
			file: "contentsync.hcl",
			body: `
remote {
  owner = "octo"
  repo  = "site"
}
limits {
  max_file_size = 2048
}
content {
  data_dir      = "content"
  manifest_path = "content/index.js"
  allowed_paths = ["content/**", "docs/*.md"]
}
cache {
  ttl = "30s"
}
log {
  level = "debug"
}
`,
		},
		{
			name: "json",
			file: "contentsync.json",
			body: `{
  "remote": {"owner": "octo", "repo": "site"},
  "limits": {"max_file_size": 2048},
  "content": {"data_dir": "content", "manifest_path": "content/index.js", "allowed_paths": ["content/**", "docs/*.md"]},
  "cache": {"ttl": "30s"},
  "log": {"level": "debug"}
}`,
		},
		{
			name: "toml",
			file: "contentsync.toml",
			body: `
[remote]
owner = "octo"
repo = "site"

[limits]
max_file_size = 2048

[content]
data_dir = "content"
manifest_path = "content/index.js"
allowed_paths = ["content/**", "docs/*.md"]

[cache]
ttl = "30s"

[log]
level = "debug"
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testutils.Context(t)
			path := writeConfig(t, tt.file, tt.body)

			cfg, err := config.Load(ctx, path)
			require.NoError(t, err)

			assert.Equal(t, path, cfg.Location())
			assert.Equal(t, "octo", cfg.Remote.Owner)
			assert.Equal(t, "site", cfg.Remote.Repo)
			assert.Equal(t, config.DefaultBaseURL, cfg.Remote.BaseURL)
			assert.Equal(t, config.DefaultTokenEnv, cfg.Remote.TokenEnv)
			assert.Equal(t, int64(2048), cfg.Limits.MaxFileSize)
			assert.Equal(t, []string{"content/**", "docs/*.md"}, cfg.Content.AllowedPaths)
			assert.Equal(t, 30*time.Second, cfg.CacheTTL())
			assert.Equal(t, 256, cfg.Cache.Size)
			assert.Equal(t, config.DefaultStore, cfg.Store.Path)
			assert.Equal(t, "debug", cfg.Log.Level)

			layout := cfg.Layout()
			assert.Equal(t, "content", layout.DataDir)
			assert.Equal(t, "content/index.js", layout.ManifestPath)
			assert.Equal(t, "registry", layout.RegistryName)
			assert.Equal(t, "collections", layout.AggregateName)
		})
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{name: "unknown_yaml_key", file: "c.yaml", body: "remote:\n  bogus: 1\n"},
		{name: "unknown_json_key", file: "c.json", body: `{"bogus": true}`},
		{name: "unknown_toml_key", file: "c.toml", body: "[remote]\nbogus = 1\n"},
		{name: "unknown_hcl_block", file: "c.hcl", body: "bogus {\n}\n"},
		{name: "unknown_extension", file: "c.ini", body: "a=b"},
		{name: "bad_ttl", file: "c.yaml", body: "cache:\n  ttl: soon\n"},
		{name: "negative_ttl", file: "c.yaml", body: "cache:\n  ttl: -1m\n"},
		{name: "negative_size", file: "c.yaml", body: "limits:\n  max_file_size: -1\n"},
		{name: "bad_pattern", file: "c.yaml", body: "content:\n  allowed_paths: [\"docs/[\"]\n"},
		{name: "bad_level", file: "c.yaml", body: "log:\n  level: loud\n"},
		{name: "owner_without_repo", file: "c.yaml", body: "remote:\n  owner: octo\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testutils.Context(t)
			_, err := config.Load(ctx, writeConfig(t, tt.file, tt.body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, syncerr.ErrValidation), "got %v", err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	ctx := testutils.Context(t)
	_, err := config.Load(ctx, filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, "https://api.github.com/", cfg.Remote.BaseURL)
	assert.Equal(t, int64(104857600), cfg.Limits.MaxFileSize)
	assert.Equal(t, "src/data/collections", cfg.Content.DataDir)
	assert.Equal(t, "src/data/collections/index.js", cfg.Content.ManifestPath)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Location())
	assert.Contains(t, cfg.String(), "(no repository)")
}

func TestEmptyYAMLUsesDefaults(t *testing.T) {
	ctx := testutils.Context(t)
	cfg, err := config.Load(ctx, writeConfig(t, "c.yml", ""))
	require.NoError(t, err)
	assert.Equal(t, config.Default().Content, cfg.Content)
}

func TestHCLEnv(t *testing.T) {
	ctx := testutils.Context(t)
	p := &config.HCLParser{Environ: func() []string {
		return []string{"API_URL=https://ghe.example.com/api/v3", "SITE_REPO=site"}
	}}

	cfg, err := p.Parse(ctx, []byte(`
remote {
  base_url = env.API_URL
  owner    = "octo"
  repo     = env.SITE_REPO
}
`))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "https://ghe.example.com/api/v3/", cfg.Remote.BaseURL, "base url gains a trailing slash")
	assert.Equal(t, "site", cfg.Remote.Repo)
}

func TestToken(t *testing.T) {
	t.Setenv("CONTENTSYNC_TEST_TOKEN", "  ghp_abcdefghijklmnopqrstuvwxyz \n")
	cfg := config.Default()
	cfg.Remote.TokenEnv = "CONTENTSYNC_TEST_TOKEN"
	assert.Equal(t, "ghp_abcdefghijklmnopqrstuvwxyz", cfg.Token())
}
