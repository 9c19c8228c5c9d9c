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
	"github.com/spf13/cobra"
	"github.com/walteh/contentsync/cmd/contentsync/opts"
	"github.com/walteh/contentsync/pkg/manifest"
	"github.com/walteh/contentsync/pkg/operation"
	"github.com/walteh/contentsync/pkg/remote"
)

// NewCollectionCmd creates the collection command group
func NewCollectionCmd(ro *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collection",
		Short: "Manage collections",
	}
	cmd.AddCommand(newCollectionCreateCmd(ro))
	return cmd
}

func newCollectionCreateCmd(ro *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "create NAME",
		Short: "Create an empty collection module and register it in the index",
		Long: `Create derives a slug and an identifier from NAME, writes the empty data
module and then adds the collection to the shared index. If the index write
fails the data module stays; finish with tx resume.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := ro.Session(ctx)
			if err != nil {
				return err
			}

			layout := ro.Config.Layout()
			c, err := manifest.Derive(args[0], layout)
			if err != nil {
				return err
			}

			var res *operation.CollectionResult
			files := []string{c.DataPath, layout.ManifestPath}
			_, err = runBatch(ctx, ro, s, manifest.CommitMessage(c.Name), files, func() (*remote.BatchResult, error) {
				var err error
				res, err = ro.Operator.CreateCollection(ctx, s, args[0])
				if res == nil {
					return nil, err
				}
				return res.Batch, err
			})
			if err != nil {
				if res != nil {
					ro.User.Warning("transaction %s can be resumed with: contentsync tx resume %s", res.Transaction, res.Transaction)
				}
				return err
			}

			ro.User.Success("created %s as %s (export %s)", res.Collection.Name, res.Collection.DataPath, res.Collection.Identifier)
			return nil
		},
	}
}
