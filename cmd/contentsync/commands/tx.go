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
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/walteh/contentsync/cmd/contentsync/opts"
	"github.com/walteh/contentsync/pkg/remote"
	"github.com/walteh/contentsync/pkg/status"
	"github.com/walteh/contentsync/pkg/syncerr"
	"gitlab.com/tozd/go/errors"
)

// NewTxCmd creates the tx command group
func NewTxCmd(ro *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Inspect and resume journaled multi-file writes",
	}
	cmd.AddCommand(newTxListCmd(ro), newTxResumeCmd(ro))
	return cmd
}

func newTxListCmd(ro *opts.RootOpts) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List journaled transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			txs, err := ro.Operator.Transactions(cmd.Context())
			if err != nil {
				return errors.Errorf("listing transactions: %w", err)
			}

			rows := [][]string{status.TransactionHeader}
			for _, tx := range txs {
				if !all && tx.Status.Done() {
					continue
				}
				rows = append(rows, status.TransactionRow(tx))
			}
			return ro.User.Table(rows)
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "include committed transactions")
	return cmd
}

func newTxResumeCmd(ro *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "resume ID",
		Short: "Finish the remaining steps of a partial transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := uuid.Parse(args[0])
			if err != nil {
				return syncerr.Validation("tx resume", "invalid transaction id %q: %v", args[0], err)
			}

			s, err := ro.Session(ctx)
			if err != nil {
				return err
			}

			txs, err := ro.Operator.Transactions(ctx)
			if err != nil {
				return err
			}
			var files []string
			message := ""
			for _, tx := range txs {
				if tx.ID == id {
					message = tx.Message
					for _, step := range tx.Remaining() {
						files = append(files, step.Path)
					}
				}
			}

			result, err := runBatch(ctx, ro, s, message, files, func() (*remote.BatchResult, error) {
				return ro.Operator.ResumeTransaction(ctx, s, id)
			})
			if err != nil {
				return err
			}
			ro.User.Success("transaction %s committed (%d file(s) written)", id, len(result.Committed))
			return nil
		},
	}
}
