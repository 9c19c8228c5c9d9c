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
	"github.com/walteh/contentsync/pkg/record"
	"gitlab.com/tozd/go/errors"
)

// NewRecordCmd creates the record command group
func NewRecordCmd(ro *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "List, save and delete records of a collection module",
	}
	cmd.AddCommand(newRecordListCmd(ro), newRecordPutCmd(ro), newRecordDeleteCmd(ro))
	return cmd
}

func newRecordListCmd(ro *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "list MODULE",
		Short: "List the records of a collection module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := ro.Session(ctx)
			if err != nil {
				return err
			}
			recs, err := ro.Operator.ListRecords(ctx, s, args[0])
			if err != nil {
				return errors.Errorf("listing records: %w", err)
			}

			rows := [][]string{{"ID", "TITLE", "CATEGORY", "DATE", "TAGS"}}
			for _, r := range recs {
				rows = append(rows, []string{r.ID, r.Title, r.Category, r.Date, strings.Join(r.Tags, ", ")})
			}
			return ro.User.Table(rows)
		},
	}
}

func newRecordPutCmd(ro *opts.RootOpts) *cobra.Command {
	var (
		rec      record.Record
		bodyFile string
		message  string
	)

	cmd := &cobra.Command{
		Use:   "put MODULE",
		Short: "Insert a record, or replace the record with the same id",
		Long: `Put serializes the record and splices it into the module. An existing
record with the same id is replaced in place; otherwise the record is appended.
The write is rejected if the module changed since it was read.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if bodyFile != "" {
				body, err := ro.Workspace.ReadFile(ctx, bodyFile)
				if err != nil {
					return err
				}
				rec.Body = string(body)
			}

			s, err := ro.Session(ctx)
			if err != nil {
				return err
			}
			commit, err := ro.Operator.SaveRecord(ctx, s, args[0], rec, message)
			if err != nil {
				return errors.Errorf("saving record %s: %w", rec.ID, err)
			}
			ro.User.Success("saved %s in %s (commit %s)", rec.ID, args[0], commit.CommitSHA)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&rec.ID, "id", "", "record id")
	f.StringVar(&rec.Title, "title", "", "title")
	f.StringVar(&rec.Description, "description", "", "description")
	f.StringSliceVar(&rec.Tags, "tag", nil, "tag, repeatable")
	f.StringVar(&rec.Category, "category", "", "category")
	f.StringVar(&rec.Image, "image", "", "image url")
	f.StringVar(&rec.Date, "date", "", "date")
	f.StringVar(&rec.Body, "body", "", "body text")
	f.StringVar(&bodyFile, "body-file", "", "read the body from a local file")
	f.StringVarP(&message, "message", "m", "", "commit message, derived from the id when empty")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newRecordDeleteCmd(ro *opts.RootOpts) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "delete MODULE ID",
		Short: "Remove a record from a collection module",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := ro.Session(ctx)
			if err != nil {
				return err
			}
			commit, err := ro.Operator.DeleteRecord(ctx, s, args[0], args[1], message)
			if err != nil {
				return errors.Errorf("deleting record %s: %w", args[1], err)
			}
			ro.User.Success("removed %s from %s (commit %s)", args[1], args[0], commit.CommitSHA)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message, derived from the id when empty")
	return cmd
}
