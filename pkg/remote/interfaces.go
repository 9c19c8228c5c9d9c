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
	"context"
	"time"
)

// Client is the primary interface for talking to a hosted repository service (e.g. GitHub).
// Implementations are stateless per call apart from the credential they were built with.
type Client interface {
	// Identity returns the account the credential belongs to
	Identity(ctx context.Context) (*Identity, error)
	// ListRepositories returns every repository visible to the identity, newest-updated first
	ListRepositories(ctx context.Context) ([]Repository, error)
	// CreateRepository creates an initialized repository owned by the identity
	CreateRepository(ctx context.Context, name string, private bool) (*Repository, error)
	// ReadFile returns the content and content hash of a file
	ReadFile(ctx context.Context, owner, repo, path string) (*RemoteFile, error)
	// WriteFile creates (empty expectedHash) or updates (matching expectedHash) a file
	WriteFile(ctx context.Context, owner, repo, path string, content []byte, message, expectedHash string) (*CommitResult, error)
}

// FileStore is the subset of Client needed to read and write files.
type FileStore interface {
	ReadFile(ctx context.Context, owner, repo, path string) (*RemoteFile, error)
	WriteFile(ctx context.Context, owner, repo, path string, content []byte, message, expectedHash string) (*CommitResult, error)
}

// Identity is the authenticated account
type Identity struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Email     string `json:"email"`
}

// Repository is a remote container addressed by owner/name
type Repository struct {
	ID            int64     `json:"id"`
	Owner         string    `json:"owner"`
	Name          string    `json:"name"`
	FullName      string    `json:"full_name"`
	Private       bool      `json:"private"`
	Description   string    `json:"description"`
	DefaultBranch string    `json:"default_branch"`
	Language      string    `json:"language"`
	Stars         int       `json:"stars"`
	Forks         int       `json:"forks"`
	Watchers      int       `json:"watchers"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RemoteFile is the content of one file at the moment it was read.
// Hash changes on every successful write.
type RemoteFile struct {
	Owner    string
	Repo     string
	Path     string
	Content  []byte
	Hash     string
	Encoding string
	Size     int
}

// CommitResult describes a successful single-file write
type CommitResult struct {
	Path      string `json:"path"`
	Hash      string `json:"hash"`
	CommitSHA string `json:"commit_sha"`
	Created   bool   `json:"created"`
}

// FileUpload is one entry of a batch upload.
type FileUpload struct {
	Path    string
	Content []byte
	// ExpectedHash gates the write. Empty means the file must not exist yet,
	// unless Overwrite is set.
	ExpectedHash string
	// Overwrite re-reads the current hash immediately before writing.
	Overwrite bool
}
