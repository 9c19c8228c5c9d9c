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
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/contentsync/cmd/contentsync/commands"
	"github.com/walteh/contentsync/cmd/contentsync/opts"
)

func main() {
	ro := &opts.RootOpts{User: opts.NewUserLogger(zerolog.Nop())}

	if err := newRootCmd(ro).ExecuteContext(context.Background()); err != nil {
		ro.User.Failure(err)
		_ = ro.Close()
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. ro is filled in before any subcommand runs.
func newRootCmd(ro *opts.RootOpts) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "contentsync",
		Short: "Edit site content stored in a GitHub repository",
		Long: `contentsync reads and writes the content modules of a static site
through the GitHub contents API. Every write is gated on the hash the file
was read at, and multi-file changes are journaled so a partial failure can
be resumed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(ctx, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			logger := setupLogging(cfg)
			cmd.SetContext(logger.WithContext(ctx))
			return newRootOpts(cmd.Context(), cfg, logger, ro)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return ro.Close()
		},
	}

	addRootFlags(rootCmd)

	rootCmd.AddCommand(
		commands.NewLoginCmd(ro),
		commands.NewLogoutCmd(ro),
		commands.NewWhoamiCmd(ro),
		commands.NewRepoCmd(ro),
		commands.NewFileCmd(ro),
		commands.NewRecordCmd(ro),
		commands.NewCollectionCmd(ro),
		commands.NewTxCmd(ro),
		commands.NewMediaCmd(ro),
		newVersionCmd(),
	)

	return rootCmd
}
