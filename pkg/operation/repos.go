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

package operation

import (
	"context"
	"strings"
	"time"

	"github.com/walteh/contentsync/pkg/remote"
	"github.com/walteh/contentsync/pkg/session"
	"github.com/walteh/contentsync/pkg/syncerr"
)

// 📚 ListRepositories returns the repositories visible to s, newest-updated first.
func (o *Operator) ListRepositories(ctx context.Context, s session.Session) ([]remote.Repository, error) {
	return guard(ctx, o, "list_repositories", "", func(ctx context.Context) ([]remote.Repository, error) {
		c, err := o.client(ctx, s)
		if err != nil {
			return nil, err
		}
		return c.ListRepositories(ctx)
	})
}

// 🏗️ CreateRepository creates an initialized repository and selects it.
func (o *Operator) CreateRepository(ctx context.Context, s session.Session, name string, private bool) (session.Session, *remote.Repository, error) {
	type created struct {
		sess session.Session
		repo *remote.Repository
	}
	out, err := guard(ctx, o, "create_repository", "", func(ctx context.Context) (created, error) {
		name = strings.TrimSpace(name)
		if name == "" {
			return created{sess: s}, syncerr.Validation("create repository", "empty repository name")
		}
		c, err := o.client(ctx, s)
		if err != nil {
			return created{sess: s}, err
		}
		repo, err := c.CreateRepository(ctx, name, private)
		if err != nil {
			return created{sess: s}, err
		}
		return created{sess: s.WithRepository(repo.Owner, repo.Name), repo: repo}, nil
	})
	return out.sess, out.repo, err
}

// SelectRepository points s at owner/repo. No request is made; the first
// file operation finds out whether the repository exists.
func (o *Operator) SelectRepository(ctx context.Context, s session.Session, owner, repo string) (session.Session, error) {
	owner, repo = strings.TrimSpace(owner), strings.TrimSpace(repo)
	if owner == "" && s.Identity != nil {
		owner = s.Identity.Login
	}
	if owner == "" || repo == "" || strings.Contains(owner, "/") || strings.Contains(repo, "/") {
		err := syncerr.Validation("select repository", "invalid repository %q/%q", owner, repo)
		return s, o.finish(ctx, "select_repository", time.Now(), err)
	}
	return s.WithRepository(owner, repo), nil
}
