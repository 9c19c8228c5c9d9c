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
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/walteh/contentsync/pkg/manifest"
	"github.com/walteh/contentsync/pkg/remote"
	"github.com/walteh/contentsync/pkg/syncerr"
	"gitlab.com/tozd/go/errors"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

const (
	DefaultBaseURL  = "https://api.github.com/"
	DefaultTokenEnv = "GITHUB_TOKEN"
	DefaultStore    = ".contentsync.db"
	DefaultLogLevel = "info"
)

// 🌐 RemoteConfig says where the repository service lives
type RemoteConfig struct {
	BaseURL  string `json:"base_url" yaml:"base_url" toml:"base_url"`
	TokenEnv string `json:"token_env" yaml:"token_env" toml:"token_env"`
	Branch   string `json:"branch" yaml:"branch" toml:"branch"`
	Owner    string `json:"owner" yaml:"owner" toml:"owner"`
	Repo     string `json:"repo" yaml:"repo" toml:"repo"`
}

// 📏 LimitsConfig bounds uploads
type LimitsConfig struct {
	MaxFileSize int64 `json:"max_file_size" yaml:"max_file_size" toml:"max_file_size"`
}

// 📂 ContentConfig locates collection modules
type ContentConfig struct {
	DataDir       string   `json:"data_dir" yaml:"data_dir" toml:"data_dir"`
	ManifestPath  string   `json:"manifest_path" yaml:"manifest_path" toml:"manifest_path"`
	RegistryName  string   `json:"registry_name" yaml:"registry_name" toml:"registry_name"`
	AggregateName string   `json:"aggregate_name" yaml:"aggregate_name" toml:"aggregate_name"`
	AllowedPaths  []string `json:"allowed_paths" yaml:"allowed_paths" toml:"allowed_paths"`
}

// 🧠 CacheConfig sizes the local mirror
type CacheConfig struct {
	Size int    `json:"size" yaml:"size" toml:"size"`
	TTL  string `json:"ttl" yaml:"ttl" toml:"ttl"`
}

type StoreConfig struct {
	Path string `json:"path" yaml:"path" toml:"path"`
}

// 📝 LogConfig controls the structured log
type LogConfig struct {
	Level      string `json:"level" yaml:"level" toml:"level"`
	File       string `json:"file" yaml:"file" toml:"file"`
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb" toml:"max_size_mb"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups" toml:"max_backups"`
}

type MediaConfig struct {
	Dir string `json:"dir" yaml:"dir" toml:"dir"`
}

// 📚 Config represents the complete configuration
type Config struct {
	Remote  RemoteConfig  `json:"remote" yaml:"remote" toml:"remote"`
	Limits  LimitsConfig  `json:"limits" yaml:"limits" toml:"limits"`
	Content ContentConfig `json:"content" yaml:"content" toml:"content"`
	Cache   CacheConfig   `json:"cache" yaml:"cache" toml:"cache"`
	Store   StoreConfig   `json:"store" yaml:"store" toml:"store"`
	Log     LogConfig     `json:"log" yaml:"log" toml:"log"`
	Media   MediaConfig   `json:"media" yaml:"media" toml:"media"`

	location string
}

// Default returns a configuration with every default filled in.
func Default() *Config {
	cfg := &Config{}
	_ = cfg.Validate()
	return cfg
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, syncerr.Validation("load config", "no parser for %s", filepath.Base(path))
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, syncerr.Wrap(syncerr.KindValidation, "load config", err)
	}
	cfg.location = path

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Location is the file the config was loaded from, if any.
func (cfg *Config) Location() string {
	return cfg.location
}

// 🔍 Validate fills defaults and rejects values that cannot work.
func (cfg *Config) Validate() error {
	const op = "validate config"

	if cfg.Remote.BaseURL == "" {
		cfg.Remote.BaseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(cfg.Remote.BaseURL, "/") {
		cfg.Remote.BaseURL += "/"
	}
	if cfg.Remote.TokenEnv == "" {
		cfg.Remote.TokenEnv = DefaultTokenEnv
	}

	if cfg.Limits.MaxFileSize < 0 {
		return syncerr.Validation(op, "limits.max_file_size must not be negative")
	}
	if cfg.Limits.MaxFileSize == 0 {
		cfg.Limits.MaxFileSize = remote.DefaultMaxFileSize
	}

	layout := cfg.Layout()
	cfg.Content.DataDir = layout.DataDir
	cfg.Content.ManifestPath = layout.ManifestPath
	cfg.Content.RegistryName = layout.RegistryName
	cfg.Content.AggregateName = layout.AggregateName
	for _, p := range cfg.Content.AllowedPaths {
		if !doublestar.ValidatePattern(p) {
			return syncerr.Validation(op, "content.allowed_paths: invalid pattern %q", p)
		}
	}

	if cfg.Cache.Size < 0 {
		return syncerr.Validation(op, "cache.size must not be negative")
	}
	if cfg.Cache.Size == 0 {
		cfg.Cache.Size = 256
	}
	if cfg.Cache.TTL == "" {
		cfg.Cache.TTL = "5m"
	}
	if d, err := time.ParseDuration(cfg.Cache.TTL); err != nil || d <= 0 {
		return syncerr.Validation(op, "cache.ttl %q is not a positive duration", cfg.Cache.TTL)
	}

	if cfg.Store.Path == "" {
		cfg.Store.Path = DefaultStore
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil {
		return syncerr.Validation(op, "log.level %q: %v", cfg.Log.Level, err)
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = 10
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = 3
	}

	if (cfg.Remote.Owner == "") != (cfg.Remote.Repo == "") {
		return syncerr.Validation(op, "remote.owner and remote.repo must be set together")
	}
	return nil
}

// Layout returns the collection layout described by the content section.
func (cfg *Config) Layout() manifest.Layout {
	return manifest.Layout{
		DataDir:       cfg.Content.DataDir,
		ManifestPath:  cfg.Content.ManifestPath,
		RegistryName:  cfg.Content.RegistryName,
		AggregateName: cfg.Content.AggregateName,
	}.WithDefaults()
}

// CacheTTL is the parsed cache.ttl. Call after Validate.
func (cfg *Config) CacheTTL() time.Duration {
	d, _ := time.ParseDuration(cfg.Cache.TTL)
	return d
}

// Token reads the credential from the configured environment variable.
func (cfg *Config) Token() string {
	return strings.TrimSpace(os.Getenv(cfg.Remote.TokenEnv))
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	target := "(no repository)"
	if cfg.Remote.Owner != "" {
		target = cfg.Remote.Owner + "/" + cfg.Remote.Repo
	}
	return fmt.Sprintf("%s %s -> %s", cfg.Remote.BaseURL, target, cfg.Content.ManifestPath)
}
