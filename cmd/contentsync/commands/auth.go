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
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/walteh/contentsync/cmd/contentsync/opts"
	"github.com/walteh/contentsync/pkg/session"
	"gitlab.com/tozd/go/errors"
)

// NewLoginCmd creates the login command
func NewLoginCmd(ro *opts.RootOpts) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Validate a personal access token and store it",
		Long: `Login checks the token's shape, confirms it with the remote and stores
it for later runs. Without --token the configured environment variable is read.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if token == "" {
				token = strings.TrimSpace(os.Getenv(ro.Config.Remote.TokenEnv))
			}

			s, err := ro.Operator.Login(ctx, token)
			if err != nil {
				return errors.Errorf("logging in: %w", err)
			}
			ro.User.Success("signed in as %s", s.Identity.Login)
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "personal access token")
	return cmd
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd(ro *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token and repository selection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := ro.Operator.Logout(ctx, session.Session{})
			if err != nil {
				return errors.Errorf("logging out: %w", err)
			}
			if err := ro.Remember(ctx, s); err != nil {
				return errors.Errorf("clearing selection: %w", err)
			}
			ro.User.Success("signed out")
			return nil
		},
	}
}

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd(ro *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account and selected repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ro.Session(cmd.Context())
			if err != nil {
				return err
			}
			ro.User.Info("account: %s (%s)", s.Identity.Login, s.Identity.Name)
			if s.Selected() {
				ro.User.Info("repository: %s", s.RepositoryKey())
			} else {
				ro.User.Warning("no repository selected; run repo select")
			}
			return nil
		},
	}
}
