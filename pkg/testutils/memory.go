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

package testutils

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/walteh/contentsync/pkg/remote"
	"github.com/walteh/contentsync/pkg/syncerr"
	"gitlab.com/tozd/go/errors"
)

// MemoryRemote is an in-memory remote.Client with the same hash semantics
// as FakeGitHub. Writes can be made to fail by path.
type MemoryRemote struct {
	User remote.Identity

	mu      sync.Mutex
	repos   map[string]*remote.Repository
	files   map[string][]byte
	fail    map[string]error
	writes  []string
	commits int
}

var _ remote.Client = (*MemoryRemote)(nil)

// NewMemoryRemote returns an empty remote owned by "octo".
func NewMemoryRemote() *MemoryRemote {
	return &MemoryRemote{
		User:  remote.Identity{ID: 4242, Login: "octo", Name: "Octo Cat"},
		repos: map[string]*remote.Repository{},
		files: map[string][]byte{},
		fail:  map[string]error{},
	}
}

func fileKey(owner, repo, path string) string {
	return owner + "/" + repo + ":" + path
}

// Seed stores content and returns its hash.
func (m *MemoryRemote) Seed(owner, repo, path string, content []byte) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureRepo(owner, repo)
	m.files[fileKey(owner, repo, path)] = append([]byte(nil), content...)
	return BlobSHA(content)
}

// Content returns what is stored at path.
func (m *MemoryRemote) Content(owner, repo, path string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.files[fileKey(owner, repo, path)]
	return string(c), ok
}

// FailWrites makes every write to path fail with err until cleared with a nil err.
func (m *MemoryRemote) FailWrites(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fail, path)
		return
	}
	m.fail[path] = err
}

// Writes returns the paths written successfully, in order.
func (m *MemoryRemote) Writes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.writes...)
}

func (m *MemoryRemote) ensureRepo(owner, name string) *remote.Repository {
	if r, ok := m.repos[owner+"/"+name]; ok {
		return r
	}
	r := &remote.Repository{
		ID:            int64(len(m.repos) + 1),
		Owner:         owner,
		Name:          name,
		FullName:      owner + "/" + name,
		DefaultBranch: "main",
		UpdatedAt:     time.Now(),
	}
	m.repos[owner+"/"+name] = r
	return r
}

func (m *MemoryRemote) Identity(ctx context.Context) (*remote.Identity, error) {
	id := m.User
	return &id, nil
}

func (m *MemoryRemote) ListRepositories(ctx context.Context) ([]remote.Repository, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]remote.Repository, 0, len(m.repos))
	for _, r := range m.repos {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *MemoryRemote) CreateRepository(ctx context.Context, name string, private bool) (*remote.Repository, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if name == "" {
		return nil, syncerr.Validation("create repository", "empty repository name")
	}
	if _, ok := m.repos[m.User.Login+"/"+name]; ok {
		return nil, syncerr.Validation("create repository", "name already exists on this account")
	}
	r := m.ensureRepo(m.User.Login, name)
	r.Private = private
	out := *r
	return &out, nil
}

func (m *MemoryRemote) ReadFile(ctx context.Context, owner, repo, path string) (*remote.RemoteFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, syncerr.Wrap(syncerr.KindTransient, "read "+path, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.files[fileKey(owner, repo, path)]
	if !ok {
		return nil, syncerr.NotFound("read "+path, "Not Found")
	}
	return &remote.RemoteFile{
		Owner:    owner,
		Repo:     repo,
		Path:     path,
		Content:  append([]byte(nil), c...),
		Hash:     BlobSHA(c),
		Encoding: "base64",
		Size:     len(c),
	}, nil
}

func (m *MemoryRemote) WriteFile(ctx context.Context, owner, repo, path string, content []byte, message, expectedHash string) (*remote.CommitResult, error) {
	if err := remote.CheckSize(path, int64(len(content)), 0); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.fail[path]; ok {
		return nil, err
	}

	key := fileKey(owner, repo, path)
	current, exists := m.files[key]
	switch {
	case exists && expectedHash == "":
		return nil, errors.WithStack(&remote.ConflictError{Path: path, Message: "\"sha\" wasn't supplied"})
	case exists && expectedHash != BlobSHA(current):
		return nil, errors.WithStack(&remote.ConflictError{Path: path, ExpectedHash: expectedHash, Message: "does not match"})
	case !exists && expectedHash != "":
		return nil, syncerr.NotFound("write "+path, "Not Found")
	}

	m.ensureRepo(owner, repo).UpdatedAt = time.Now()
	m.files[key] = append([]byte(nil), content...)
	m.writes = append(m.writes, path)
	m.commits++

	return &remote.CommitResult{
		Path:      path,
		Hash:      BlobSHA(content),
		CommitSHA: fmt.Sprintf("%040x", m.commits),
		Created:   !exists,
	}, nil
}
