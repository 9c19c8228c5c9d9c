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

package log

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/walteh/contentsync/pkg/remote"
	"github.com/walteh/contentsync/pkg/syncerr"
)

// 🎨 Display configuration
const (
	fileIndent  = 4  // spaces to indent file entries
	nameWidth   = 35 // Base width for filename
	typeWidth   = 10 // Width for the step result
	statusWidth = 15 // Width for commit or error kind
)

// 📦 Batch describes a multi-file write about to start
type Batch struct {
	Repository  string   // owner/repo
	Message     string   // commit message shared by every file
	Files       []string // paths in write order
	Transaction string   // journal id, empty for single-file writes
}

// 🎯 Logger prints batch progress to a console and mirrors it to zerolog
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
	current *Batch
}

// 🏭 New creates a new logger
func New(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

// 📝 formatStep formats a step outcome for display
func formatStep(out remote.StepOutcome) string {
	var symbol rune
	var symbolColor color.Attribute
	var result, detail string

	switch {
	case out.Status == remote.StepFailed:
		symbol, symbolColor, result = '✗', color.FgRed, "failed"
		detail = syncerr.KindOf(out.Err).String()
	case out.Status == remote.StepCommitted && out.Commit != nil && out.Commit.Created:
		symbol, symbolColor, result = '✓', color.FgGreen, "created"
		detail = shortSHA(out.Commit.CommitSHA)
	case out.Status == remote.StepCommitted:
		symbol, symbolColor, result = '⟳', color.FgBlue, "updated"
		if out.Commit != nil {
			detail = shortSHA(out.Commit.CommitSHA)
		}
	default:
		symbol, symbolColor, result = '-', color.FgYellow, "skipped"
	}

	return fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", fileIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, out.Path),
		color.New(symbolColor).Sprint(fmt.Sprintf("%-*s", typeWidth, result)),
		fmt.Sprintf("%-*s", statusWidth, detail))
}

// 📝 StartBatch prints the batch header
func (l *Logger) StartBatch(ctx context.Context, b Batch) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.current = &b

	fmt.Fprintf(l.console, "[writing %s]\n", color.New(color.FgCyan).Sprint(b.Repository))
	fmt.Fprintf(l.console, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(b.Message),
		color.New(color.Faint).Sprint("•"),
		color.New(color.FgYellow).Sprintf("%d files", len(b.Files)))

	l.zlog.Info().
		Str("repository", b.Repository).
		Str("message", b.Message).
		Strs("files", b.Files).
		Str("transaction", b.Transaction).
		Msg("starting batch")
}

// 📝 LogStep prints one finished step. It satisfies remote.BatchObserver.
func (l *Logger) LogStep(ctx context.Context, out remote.StepOutcome) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintln(l.console, formatStep(out))

	ev := l.zlog.Info()
	if out.Status == remote.StepFailed {
		ev = l.zlog.Warn().Err(out.Err)
	}
	ev = ev.Int("index", out.Index).Str("path", out.Path).Str("status", string(out.Status))
	if out.Commit != nil {
		ev = ev.Str("commit", out.Commit.CommitSHA).Str("hash", out.Commit.Hash).Bool("created", out.Commit.Created)
	}
	ev.Msg("batch step")
}

// 📝 EndBatch prints the files the batch never reached and logs a summary
func (l *Logger) EndBatch(ctx context.Context, result *remote.BatchResult) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current == nil {
		return
	}

	committed, failed, skipped := 0, "", 0
	if result != nil {
		committed = len(result.Committed)
		failed = result.Failed
		for _, p := range result.NotAttempted {
			fmt.Fprintln(l.console, formatStep(remote.StepOutcome{Path: p, Status: remote.StepPending}))
		}
		skipped = len(result.NotAttempted)
	}

	l.zlog.Info().
		Str("repository", l.current.Repository).
		Int("committed", committed).
		Str("failed", failed).
		Int("not_attempted", skipped).
		Msg("batch complete")

	l.current = nil
}
