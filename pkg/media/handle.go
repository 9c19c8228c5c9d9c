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

package media

import (
	"sync"

	"github.com/spf13/afero"
	"github.com/walteh/contentsync/pkg/syncerr"
	"gitlab.com/tozd/go/errors"
)

// Handle is a temporary local copy of fetched media. The View that created
// it owns it and releases it exactly once.
type Handle struct {
	fs   afero.Fs
	path string
	size int64

	once sync.Once
	err  error
	gone bool
	mu   sync.Mutex
}

// Path is the location of the copy on the handle's filesystem.
func (h *Handle) Path() string {
	return h.path
}

func (h *Handle) Size() int64 {
	return h.size
}

// Open opens the copy for reading. A released handle is a NotFoundError.
func (h *Handle) Open() (afero.File, error) {
	if h.Released() {
		return nil, syncerr.NotFound("open media", "handle %s was released", h.path)
	}
	f, err := h.fs.Open(h.path)
	if err != nil {
		return nil, errors.Errorf("opening %s: %w", h.path, err)
	}
	return f, nil
}

// Released reports whether Release has run.
func (h *Handle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.gone
}

// 🧹 Release removes the copy. Later calls return the first call's result.
func (h *Handle) Release() error {
	h.once.Do(func() {
		h.mu.Lock()
		h.gone = true
		h.mu.Unlock()
		if err := h.fs.Remove(h.path); err != nil {
			h.err = errors.Errorf("removing %s: %w", h.path, err)
		}
	})
	return h.err
}
