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
	"io"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/walteh/contentsync/cmd/contentsync/opts"
	"github.com/walteh/contentsync/pkg/media"
	"gitlab.com/tozd/go/errors"
)

// NewMediaCmd creates the media command group
func NewMediaCmd(ro *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "media",
		Short: "Resolve images referenced by records",
	}
	cmd.AddCommand(newMediaFetchCmd(ro))
	return cmd
}

func newMediaFetchCmd(ro *opts.RootOpts) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "fetch URL",
		Short: "Check that an image displays, falling back to an authenticated download",
		Long: `Fetch first requests the URL without credentials. When that fails and a
token is stored, it downloads the resource with the token into a temporary
file. With --out the downloaded bytes are copied to a local file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			view := media.NewView(ro.Fetcher, func(s media.State) {
				pterm.Debug.Printfln("media %s", s)
			})
			defer view.Close()

			if state := view.Load(ctx, args[0]); state == media.StateFailed {
				return errors.Errorf("fetching %s: %w", args[0], view.Err())
			}

			h := view.Handle()
			if h == nil {
				ro.User.Success("%s is publicly reachable", view.Source())
				return nil
			}
			ro.User.Success("downloaded %d bytes with credentials to %s", h.Size(), h.Path())
			if out == "" {
				return nil
			}

			f, err := h.Open()
			if err != nil {
				return err
			}
			defer f.Close()
			data, err := io.ReadAll(f)
			if err != nil {
				return errors.Errorf("reading %s: %w", h.Path(), err)
			}
			if err := ro.Workspace.WriteFile(ctx, out, data); err != nil {
				return err
			}
			ro.User.Success("saved %s", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "local file to copy an authenticated download to")
	return cmd
}
