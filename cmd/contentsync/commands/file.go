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
	"github.com/walteh/contentsync/pkg/remote"
	"github.com/walteh/contentsync/pkg/syncerr"
	"gitlab.com/tozd/go/errors"
)

// NewFileCmd creates the file command group
func NewFileCmd(ro *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file",
		Short: "Read and write files of the selected repository",
	}
	cmd.AddCommand(newFileGetCmd(ro), newFilePutCmd(ro))
	return cmd
}

func newFileGetCmd(ro *opts.RootOpts) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "get PATH",
		Short: "Print a file, or save it with --out",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := ro.Session(ctx)
			if err != nil {
				return err
			}
			_, f, err := ro.Operator.FetchContents(ctx, s, args[0])
			if err != nil {
				return errors.Errorf("fetching %s: %w", args[0], err)
			}

			if out == "" {
				_, err := cmd.OutOrStdout().Write(f.Content)
				return err
			}
			if err := ro.Workspace.WriteFile(ctx, out, f.Content); err != nil {
				return err
			}
			ro.User.Success("saved %s (%d bytes, hash %s) to %s", f.Path, f.Size, f.Hash, out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "local file to write")
	return cmd
}

// parseUpload splits LOCAL[=REMOTE]. Without =REMOTE the local path is reused.
func parseUpload(arg string) (local, remotePath string) {
	if l, r, ok := strings.Cut(arg, "="); ok {
		return l, r
	}
	return arg, arg
}

func newFilePutCmd(ro *opts.RootOpts) *cobra.Command {
	var message, expect string

	cmd := &cobra.Command{
		Use:   "put LOCAL[=REMOTE]...",
		Short: "Upload local files under one commit message",
		Long: `Put uploads files one at a time under a shared commit message. A failure
stops the batch; files already committed stay committed and the transaction
can be finished with tx resume.

With --expect HASH (single file only) the write is rejected if the remote
file no longer has that hash.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if expect != "" && len(args) != 1 {
				return syncerr.Validation("file put", "--expect needs exactly one file")
			}
			s, err := ro.Session(ctx)
			if err != nil {
				return err
			}

			uploads := make([]remote.FileUpload, 0, len(args))
			paths := make([]string, 0, len(args))
			for _, arg := range args {
				local, remotePath := parseUpload(arg)
				content, err := ro.Workspace.ReadFile(ctx, local)
				if err != nil {
					return err
				}
				uploads = append(uploads, remote.FileUpload{Path: remotePath, Content: content, ExpectedHash: expect})
				paths = append(paths, remotePath)
			}

			_, err = runBatch(ctx, ro, s, message, paths, func() (*remote.BatchResult, error) {
				return ro.Operator.UploadFiles(ctx, s, uploads, message)
			})
			if err != nil {
				return err
			}
			ro.User.Success("committed %d file(s) to %s", len(uploads), s.RepositoryKey())
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().StringVar(&expect, "expect", "", "content hash the remote file must still have")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}
