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
	"context"

	"github.com/walteh/contentsync/cmd/contentsync/opts"
	"github.com/walteh/contentsync/pkg/log"
	"github.com/walteh/contentsync/pkg/remote"
	"github.com/walteh/contentsync/pkg/session"
)

// runBatch brackets a multi-file write with console and tracker output.
func runBatch(ctx context.Context, ro *opts.RootOpts, s session.Session, message string, files []string, fn func() (*remote.BatchResult, error)) (*remote.BatchResult, error) {
	ro.Console.StartBatch(ctx, log.Batch{
		Repository: s.RepositoryKey(),
		Message:    message,
		Files:      files,
	})
	ro.Tracker.Start(ctx, len(files))

	result, err := fn()

	ro.Console.EndBatch(ctx, result)
	ro.Tracker.Finish(ctx, result)
	return result, err
}
