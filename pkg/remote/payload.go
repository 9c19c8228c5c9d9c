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

package remote

import (
	"fmt"
	"strings"

	"github.com/walteh/contentsync/pkg/syncerr"
)

// DefaultMaxFileSize is the largest file the remote accepts through the contents API.
const DefaultMaxFileSize int64 = 100 * 1024 * 1024

// ConflictError is returned when a write presents a hash that no longer
// matches the remote file.
type ConflictError struct {
	Path         string
	ExpectedHash string
	Message      string
}

func (e *ConflictError) Error() string {
	if e.ExpectedHash == "" {
		return fmt.Sprintf("conflict writing %s: file already exists: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("conflict writing %s: expected hash %s is stale: %s", e.Path, e.ExpectedHash, e.Message)
}

func (e *ConflictError) Is(target error) bool {
	return target == syncerr.ErrConflict
}

// ✅ CheckSize rejects content larger than max bytes. A max <= 0 uses DefaultMaxFileSize.
func CheckSize(path string, size int64, max int64) error {
	if max <= 0 {
		max = DefaultMaxFileSize
	}
	if size > max {
		return syncerr.Validation("upload", "%s is %d bytes, over the %d byte limit", path, size, max)
	}
	return nil
}

// ✅ ValidatePath rejects paths the contents API cannot address.
func ValidatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return syncerr.Validation("path", "empty path")
	}
	if strings.HasPrefix(path, "/") || strings.HasSuffix(path, "/") {
		return syncerr.Validation("path", "path %q must be relative to the repository root and name a file", path)
	}
	for _, part := range strings.Split(path, "/") {
		if part == "" || part == "." || part == ".." {
			return syncerr.Validation("path", "path %q has an empty or relative segment", path)
		}
	}
	return nil
}
