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

package status

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/walteh/contentsync/pkg/remote"
	"github.com/walteh/contentsync/pkg/syncerr"
	"gitlab.com/tozd/go/errors"
)

// 📊 FileStatus represents what a batch did to one path
type FileStatus int

const (
	StatusUnknown   FileStatus = iota
	StatusCreated              // File did not exist on the remote
	StatusUpdated              // File existed and was replaced
	StatusFailed               // Write was rejected
	StatusSkipped              // Batch stopped before reaching the file
)

// String returns a string representation of FileStatus
func (s FileStatus) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusUpdated:
		return "updated"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// 📄 FileInfo contains what is known about one path of a batch
type FileInfo struct {
	Index     int        // Position in the batch
	Path      string     // Repository-relative path
	Status    FileStatus // Current status
	Hash      string     // Content hash after the write
	CommitSHA string     // Commit that carried the write
	Error     error      // Classified failure, if any
}

// FromOutcome converts a step outcome reported by a batch.
func FromOutcome(out remote.StepOutcome) FileInfo {
	info := FileInfo{Index: out.Index, Path: out.Path, Error: out.Err}
	switch out.Status {
	case remote.StepFailed:
		info.Status = StatusFailed
	case remote.StepCommitted:
		info.Status = StatusUpdated
		if out.Commit != nil {
			info.Hash = out.Commit.Hash
			info.CommitSHA = out.Commit.CommitSHA
			if out.Commit.Created {
				info.Status = StatusCreated
			}
		}
	default:
		info.Status = StatusSkipped
	}
	return info
}

// 📈 Tracker records step outcomes and reports progress
type Tracker struct {
	logger    *zerolog.Logger
	formatter Formatter

	mu        sync.RWMutex
	files     map[string]FileInfo
	total     int
	processed int
}

// 🏭 NewTracker creates a tracker that logs through logger
func NewTracker(logger *zerolog.Logger) *Tracker {
	return &Tracker{
		logger:    logger,
		formatter: NewDefaultFormatter(),
		files:     make(map[string]FileInfo),
	}
}

// Start resets the tracker for a batch of total files.
func (t *Tracker) Start(ctx context.Context, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.files = make(map[string]FileInfo)
	t.total = total
	t.processed = 0
	t.logger.Info().Int("total", total).Msg(t.formatter.FormatProgress(0, total))
}

// Observe satisfies remote.BatchObserver.
func (t *Tracker) Observe(ctx context.Context, out remote.StepOutcome) {
	t.Track(ctx, FromOutcome(out))
}

// Track records info and advances progress.
func (t *Tracker) Track(ctx context.Context, info FileInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, seen := t.files[info.Path]; !seen && info.Status != StatusSkipped {
		t.processed++
	}
	t.files[info.Path] = info

	msg := t.formatter.FormatStep(info)
	if info.Error != nil {
		t.logger.Warn().Str("path", info.Path).Str("kind", syncerr.KindOf(info.Error).String()).Msg(msg)
		return
	}
	t.logger.Info().Str("path", info.Path).Int("processed", t.processed).Int("total", t.total).Msg(msg)
}

// Finish marks every path the batch never reached as skipped.
func (t *Tracker) Finish(ctx context.Context, result *remote.BatchResult) {
	if result != nil {
		for _, p := range result.NotAttempted {
			t.Track(ctx, FileInfo{Index: -1, Path: p, Status: StatusSkipped})
		}
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	t.logger.Info().Int("processed", t.processed).Int("total", t.total).Msg(t.formatter.FormatProgress(t.processed, t.total))
}

// Get returns the info recorded for path.
func (t *Tracker) Get(path string) (FileInfo, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	info, ok := t.files[path]
	if !ok {
		return FileInfo{}, syncerr.NotFound("status", "file not tracked: %s", path)
	}
	return info, nil
}

// List returns every tracked path in batch order. Skipped paths come last.
func (t *Tracker) List() []FileInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()

	files := make([]FileInfo, 0, len(t.files))
	for _, info := range t.files {
		files = append(files, info)
	}
	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i], files[j]
		if (a.Index < 0) != (b.Index < 0) {
			return b.Index < 0
		}
		if a.Index != b.Index {
			return a.Index < b.Index
		}
		return a.Path < b.Path
	})
	return files
}

// Progress returns how many of the batch's files have finished.
func (t *Tracker) Progress() (processed, total int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.processed, t.total
}

// 💾 Workspace reads and writes local files for the CLI
type Workspace struct {
	fs      afero.Fs
	baseDir string
}

// 🏭 NewWorkspace roots a workspace at baseDir on fs. A nil fs uses the OS filesystem.
func NewWorkspace(fs afero.Fs, baseDir string) *Workspace {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Workspace{fs: fs, baseDir: filepath.Clean(baseDir)}
}

func (w *Workspace) abs(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(w.baseDir, path)
}

// ReadFile reads a local file. A missing file is a NotFoundError.
func (w *Workspace) ReadFile(ctx context.Context, path string) ([]byte, error) {
	content, err := afero.ReadFile(w.fs, w.abs(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, syncerr.NotFound("read local "+path, "%v", err)
		}
		return nil, errors.Errorf("reading file: %w", err)
	}
	return content, nil
}

// FileExists reports whether path exists locally.
func (w *Workspace) FileExists(ctx context.Context, path string) (bool, error) {
	ok, err := afero.Exists(w.fs, w.abs(path))
	if err != nil {
		return false, errors.Errorf("checking file existence: %w", err)
	}
	return ok, nil
}

// WriteFile writes content through a temp file and a rename.
func (w *Workspace) WriteFile(ctx context.Context, path string, content []byte) error {
	absPath := w.abs(path)

	if err := w.fs.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return errors.Errorf("creating parent directories: %w", err)
	}

	tempPath := absPath + ".tmp"
	if err := afero.WriteFile(w.fs, tempPath, content, 0o644); err != nil {
		return errors.Errorf("writing temp file: %w", err)
	}

	if err := w.fs.Rename(tempPath, absPath); err != nil {
		_ = w.fs.Remove(tempPath)
		return errors.Errorf("renaming temp file: %w", err)
	}
	return nil
}
