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

package opts

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/contentsync/pkg/config"
	"github.com/walteh/contentsync/pkg/log"
	"github.com/walteh/contentsync/pkg/media"
	"github.com/walteh/contentsync/pkg/operation"
	"github.com/walteh/contentsync/pkg/remote"
	"github.com/walteh/contentsync/pkg/session"
	"github.com/walteh/contentsync/pkg/status"
	"github.com/walteh/contentsync/pkg/store"
	"github.com/walteh/contentsync/pkg/syncerr"
	"gitlab.com/tozd/go/errors"
)

// RepositoryKey stores the selected owner/repo between runs.
const RepositoryKey = "contentsync.repository"

// RootOpts contains shared options used by all commands
type RootOpts struct {
	Config    *config.Config
	Store     *store.Store
	Operator  *operation.Operator
	Fetcher   *media.Fetcher
	Console   *log.Logger
	Tracker   *status.Tracker
	Workspace *status.Workspace
	User      *UserLogger
}

// Observe reports a batch step to the console and the tracker.
func (o *RootOpts) Observe(ctx context.Context, out remote.StepOutcome) {
	if o.Console != nil {
		o.Console.LogStep(ctx, out)
	}
	if o.Tracker != nil {
		o.Tracker.Observe(ctx, out)
	}
}

// Session restores the signed-in session and the selected repository.
// When nothing is stored, the token environment variable signs in instead.
func (o *RootOpts) Session(ctx context.Context) (session.Session, error) {
	s, err := o.Operator.Restore(ctx)
	if errors.Is(err, syncerr.ErrNotFound) {
		token := o.Config.Token()
		if token == "" {
			return session.Session{}, syncerr.New(syncerr.KindAuthentication, "session",
				"not signed in; run login or set %s", o.Config.Remote.TokenEnv)
		}
		zerolog.Ctx(ctx).Debug().Str("env", o.Config.Remote.TokenEnv).Msg("signing in from environment")
		s, err = o.Operator.Login(ctx, token)
	}
	if err != nil {
		return session.Session{}, err
	}

	owner, repo := o.Config.Remote.Owner, o.Config.Remote.Repo
	if stored, err := o.Store.Get(ctx, RepositoryKey); err == nil {
		if so, sr, ok := strings.Cut(stored, "/"); ok {
			owner, repo = so, sr
		}
	} else if !errors.Is(err, syncerr.ErrNotFound) {
		return s, err
	}

	if repo == "" {
		return s, nil
	}
	return o.Operator.SelectRepository(ctx, s, owner, repo)
}

// Remember persists s's repository selection.
func (o *RootOpts) Remember(ctx context.Context, s session.Session) error {
	if !s.Selected() {
		return o.Store.Delete(ctx, RepositoryKey)
	}
	return o.Store.Set(ctx, RepositoryKey, s.RepositoryKey())
}

// Close releases the store.
func (o *RootOpts) Close() error {
	if o.Store == nil {
		return nil
	}
	st := o.Store
	o.Store = nil
	return st.Close()
}
