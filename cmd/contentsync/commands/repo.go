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

package commands

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/walteh/contentsync/cmd/contentsync/opts"
	"github.com/walteh/contentsync/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// NewRepoCmd creates the repo command group
func NewRepoCmd(ro *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repo",
		Short: "List, create and select repositories",
	}
	cmd.AddCommand(newRepoListCmd(ro), newRepoCreateCmd(ro), newRepoSelectCmd(ro))
	return cmd
}

func newRepoListCmd(ro *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List repositories the account can access, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := ro.Session(ctx)
			if err != nil {
				return err
			}
			repos, err := ro.Operator.ListRepositories(ctx, s)
			if err != nil {
				return errors.Errorf("listing repositories: %w", err)
			}

			rows := [][]string{status.RepositoryHeader}
			for _, r := range repos {
				rows = append(rows, status.RepositoryRow(r, r.FullName == s.RepositoryKey()))
			}
			return ro.User.Table(rows)
		},
	}
}

func newRepoCreateCmd(ro *opts.RootOpts) *cobra.Command {
	var private bool

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a repository and select it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := ro.Session(ctx)
			if err != nil {
				return err
			}
			s, repo, err := ro.Operator.CreateRepository(ctx, s, args[0], private)
			if err != nil {
				return errors.Errorf("creating repository: %w", err)
			}
			if err := ro.Remember(ctx, s); err != nil {
				return err
			}
			ro.User.Success("created %s and selected it", repo.FullName)
			return nil
		},
	}

	cmd.Flags().BoolVar(&private, "private", false, "create a private repository")
	return cmd
}

func newRepoSelectCmd(ro *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "select [OWNER/]REPO",
		Short: "Select the repository later commands work on",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := ro.Session(ctx)
			if err != nil {
				return err
			}

			owner, repo := "", args[0]
			if o, r, ok := strings.Cut(args[0], "/"); ok {
				owner, repo = o, r
			}
			s, err = ro.Operator.SelectRepository(ctx, s, owner, repo)
			if err != nil {
				return err
			}
			if err := ro.Remember(ctx, s); err != nil {
				return err
			}
			ro.User.Success("selected %s", s.RepositoryKey())
			return nil
		},
	}
}
