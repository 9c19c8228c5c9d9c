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
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/contentsync/cmd/contentsync/opts"
	"github.com/walteh/contentsync/pkg/config"
	"github.com/walteh/contentsync/pkg/log"
	"github.com/walteh/contentsync/pkg/media"
	"github.com/walteh/contentsync/pkg/operation"
	"github.com/walteh/contentsync/pkg/remote/github"
	"github.com/walteh/contentsync/pkg/status"
	"github.com/walteh/contentsync/pkg/store"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// Flags
	configFile string
	debug      bool
)

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", ".contentsync.yaml", "config file path")
	cmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
}

// loadConfig reads the config file. A missing default file means defaults.
func loadConfig(ctx context.Context, explicit bool) (*config.Config, error) {
	cfg, err := config.Load(ctx, configFile)
	if err == nil {
		return cfg, nil
	}
	if !explicit && errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	return nil, errors.Errorf("loading config: %w", err)
}

// setupLogging builds the structured logger. With log.file set, records go to
// a rotating file; otherwise they go to stderr.
func setupLogging(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if debug {
		level = zerolog.DebugLevel
	}

	var w io.Writer = zerolog.ConsoleWriter{Out: os.Stderr}
	if cfg.Log.File != "" {
		w = &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
		}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// newRootOpts wires the store, operator and media fetcher for a command run.
func newRootOpts(ctx context.Context, cfg *config.Config, logger zerolog.Logger, ro *opts.RootOpts) error {
	st, err := store.Open(ctx, cfg.Store.Path)
	if err != nil {
		return errors.Errorf("opening store: %w", err)
	}

	ro.Config = cfg
	ro.Store = st
	ro.Console = log.New(os.Stdout, logger)
	ro.Tracker = status.NewTracker(&logger)
	ro.User = opts.NewUserLogger(logger)

	wd, err := os.Getwd()
	if err != nil {
		return errors.Errorf("getting working directory: %w", err)
	}
	ro.Workspace = status.NewWorkspace(nil, wd)

	clientOpts := []github.Option{
		github.WithBaseURL(cfg.Remote.BaseURL),
		github.WithMaxFileSize(cfg.Limits.MaxFileSize),
	}
	if cfg.Remote.Branch != "" {
		clientOpts = append(clientOpts, github.WithBranch(cfg.Remote.Branch))
	}

	op, err := operation.New(operation.Options{
		Clients:      operation.GitHubClients(clientOpts...),
		Credentials:  st,
		Journal:      st.Journal(),
		Layout:       cfg.Layout(),
		MaxFileSize:  cfg.Limits.MaxFileSize,
		AllowedPaths: cfg.Content.AllowedPaths,
		MirrorSize:   cfg.Cache.Size,
		MirrorTTL:    cfg.CacheTTL(),
		Observer:     ro.Observe,
	})
	if err != nil {
		_ = st.Close()
		return errors.Errorf("creating operator: %w", err)
	}
	ro.Operator = op

	fetcherOpts := []media.Option{media.WithMaxSize(cfg.Limits.MaxFileSize)}
	if cfg.Media.Dir != "" {
		fetcherOpts = append(fetcherOpts, media.WithDir(cfg.Media.Dir))
	}
	ro.Fetcher = media.NewFetcher(st, fetcherOpts...)

	return nil
}
