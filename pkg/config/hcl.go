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

package config

import (
	"context"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct {
	// Environ overrides os.Environ for the env object.
	Environ func() []string
}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}

type hclConfig struct {
	Remote *struct {
		BaseURL  string `hcl:"base_url,optional"`
		TokenEnv string `hcl:"token_env,optional"`
		Branch   string `hcl:"branch,optional"`
		Owner    string `hcl:"owner,optional"`
		Repo     string `hcl:"repo,optional"`
	} `hcl:"remote,block"`
	Limits *struct {
		MaxFileSize int64 `hcl:"max_file_size,optional"`
	} `hcl:"limits,block"`
	Content *struct {
		DataDir       string   `hcl:"data_dir,optional"`
		ManifestPath  string   `hcl:"manifest_path,optional"`
		RegistryName  string   `hcl:"registry_name,optional"`
		AggregateName string   `hcl:"aggregate_name,optional"`
		AllowedPaths  []string `hcl:"allowed_paths,optional"`
	} `hcl:"content,block"`
	Cache *struct {
		Size int    `hcl:"size,optional"`
		TTL  string `hcl:"ttl,optional"`
	} `hcl:"cache,block"`
	Store *struct {
		Path string `hcl:"path,optional"`
	} `hcl:"store,block"`
	Log *struct {
		Level      string `hcl:"level,optional"`
		File       string `hcl:"file,optional"`
		MaxSizeMB  int    `hcl:"max_size_mb,optional"`
		MaxBackups int    `hcl:"max_backups,optional"`
	} `hcl:"log,block"`
	Media *struct {
		Dir string `hcl:"dir,optional"`
	} `hcl:"media,block"`
}

func (p *HCLParser) evalContext() *hcl.EvalContext {
	environ := os.Environ
	if p.Environ != nil {
		environ = p.Environ
	}
	vars := map[string]cty.Value{}
	for _, kv := range environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		vars[k] = cty.StringVal(v)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(vars),
		},
	}
}

// 📝 Parse parses the config from HCL
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, p.evalContext(), &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	cfg := &Config{}
	if r := hclCfg.Remote; r != nil {
		cfg.Remote = RemoteConfig{BaseURL: r.BaseURL, TokenEnv: r.TokenEnv, Branch: r.Branch, Owner: r.Owner, Repo: r.Repo}
	}
	if l := hclCfg.Limits; l != nil {
		cfg.Limits.MaxFileSize = l.MaxFileSize
	}
	if c := hclCfg.Content; c != nil {
		cfg.Content = ContentConfig{
			DataDir:       c.DataDir,
			ManifestPath:  c.ManifestPath,
			RegistryName:  c.RegistryName,
			AggregateName: c.AggregateName,
			AllowedPaths:  c.AllowedPaths,
		}
	}
	if c := hclCfg.Cache; c != nil {
		cfg.Cache = CacheConfig{Size: c.Size, TTL: c.TTL}
	}
	if s := hclCfg.Store; s != nil {
		cfg.Store.Path = s.Path
	}
	if l := hclCfg.Log; l != nil {
		cfg.Log = LogConfig{Level: l.Level, File: l.File, MaxSizeMB: l.MaxSizeMB, MaxBackups: l.MaxBackups}
	}
	if m := hclCfg.Media; m != nil {
		cfg.Media.Dir = m.Dir
	}

	return cfg, nil
}
