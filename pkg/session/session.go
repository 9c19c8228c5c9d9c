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

// Package session holds the explicit state of one signed-in user: the
// credential, who it belongs to and which repository is being worked on.
//
// A Session is a plain value. Callers pass it into every operator call and
// keep the updated copy the call returns.
package session

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/walteh/contentsync/pkg/remote"
	"github.com/walteh/contentsync/pkg/syncerr"
)

// Session is the state threaded through operator calls.
type Session struct {
	Credential string           `json:"-"`
	Identity   *remote.Identity `json:"identity,omitempty"`
	Owner      string           `json:"owner,omitempty"`
	Repo       string           `json:"repo,omitempty"`
	Path       string           `json:"path,omitempty"`
}

// SignedIn reports whether the session carries a credential and identity.
func (s Session) SignedIn() bool {
	return s.Credential != "" && s.Identity != nil
}

// Selected reports whether a repository is selected.
func (s Session) Selected() bool {
	return s.Owner != "" && s.Repo != ""
}

// RepositoryKey is the owner/repo pair used for locking and caching.
func (s Session) RepositoryKey() string {
	return s.Owner + "/" + s.Repo
}

// WithRepository returns a copy of s pointing at owner/repo, at the root path.
func (s Session) WithRepository(owner, repo string) Session {
	s.Owner = owner
	s.Repo = repo
	s.Path = ""
	return s
}

// RequireRepository fails with a ValidationError when s cannot address a repository.
func (s Session) RequireRepository(op string) error {
	if s.Credential == "" {
		return syncerr.New(syncerr.KindAuthentication, op, "not signed in")
	}
	if !s.Selected() {
		return syncerr.Validation(op, "no repository selected")
	}
	return nil
}

const minCredentialLength = 20

var (
	tokenPrefixes = []string{"github_pat_", "ghp_", "gho_", "ghu_", "ghs_", "ghr_"}
	classicToken  = regexp.MustCompile(`^[0-9a-f]{40}$`)
)

// 🔐 ValidateCredential is a coarse shape check done before any network call.
// It rejects empty tokens, tokens with whitespace and tokens shorter than 20
// characters. Prefixed tokens need at least 16 characters after the prefix.
func ValidateCredential(credential string) error {
	const op = "validate credential"

	if credential == "" {
		return syncerr.Validation(op, "credential is empty")
	}
	if strings.IndexFunc(credential, unicode.IsSpace) >= 0 {
		return syncerr.Validation(op, "credential contains whitespace")
	}
	if classicToken.MatchString(credential) {
		return nil
	}
	if len(credential) < minCredentialLength {
		return syncerr.Validation(op, "credential is too short")
	}
	for _, p := range tokenPrefixes {
		if rest, ok := strings.CutPrefix(credential, p); ok {
			if len(rest) < 16 {
				return syncerr.Validation(op, "credential with prefix %s is truncated", p)
			}
			return nil
		}
	}
	return nil
}

// CredentialStore persists the credential between runs.
type CredentialStore interface {
	// Credential returns the stored credential or a NotFoundError.
	Credential(ctx context.Context) (string, error)
	SaveCredential(ctx context.Context, credential string) error
	ClearCredential(ctx context.Context) error
}
