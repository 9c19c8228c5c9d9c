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
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/walteh/contentsync/pkg/manifest"
	"github.com/walteh/contentsync/pkg/remote"
	"github.com/walteh/contentsync/pkg/remote/github"
	"github.com/walteh/contentsync/pkg/saga"
	"github.com/walteh/contentsync/pkg/session"
	"github.com/walteh/contentsync/pkg/syncerr"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/semaphore"
)

// 🏭 ClientFactory builds a remote client for a credential without contacting the remote.
type ClientFactory func(ctx context.Context, credential string) (remote.Client, error)

// GitHubClients returns a factory for GitHub clients built with opts.
func GitHubClients(opts ...github.Option) ClientFactory {
	return func(ctx context.Context, credential string) (remote.Client, error) {
		return github.New(ctx, credential, opts...)
	}
}

// 🔧 Options contains configuration for the operator
type Options struct {
	// Clients builds the remote client for a session's credential
	Clients ClientFactory
	// Credentials persists the credential between runs
	Credentials session.CredentialStore
	// Journal records multi-file transactions
	Journal saga.Journal
	// Layout locates collection modules and the shared index
	Layout manifest.Layout
	// MaxFileSize bounds every uploaded file; zero means remote.DefaultMaxFileSize
	MaxFileSize int64
	// AllowedPaths are doublestar globs writes must match; empty allows every path
	AllowedPaths []string
	// MirrorSize and MirrorTTL size the local mirror of remote files
	MirrorSize int
	MirrorTTL  time.Duration
	// Observer is told about every committed or failed file of a batch
	Observer remote.BatchObserver
}

// 🎮 Operator sequences remote calls on behalf of explicit sessions.
type Operator struct {
	clients      ClientFactory
	credentials  session.CredentialStore
	journal      saga.Journal
	planner      *manifest.Planner
	maxFileSize  int64
	allowedPaths []string
	observer     remote.BatchObserver
	mirror       *Mirror

	busy atomic.Int32

	mu      sync.Mutex
	locks   map[string]*semaphore.Weighted
	lastErr error
}

// 🏭 New creates a new operator with the given options
func New(opts Options) (*Operator, error) {
	if opts.Clients == nil {
		return nil, errors.Errorf("client factory is required")
	}
	if opts.Credentials == nil {
		return nil, errors.Errorf("credential store is required")
	}
	if opts.Journal == nil {
		opts.Journal = saga.NewMemoryJournal()
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = remote.DefaultMaxFileSize
	}
	for _, p := range opts.AllowedPaths {
		if !doublestar.ValidatePattern(p) {
			return nil, syncerr.Validation("configure", "invalid path pattern %q", p)
		}
	}

	return &Operator{
		clients:      opts.Clients,
		credentials:  opts.Credentials,
		journal:      opts.Journal,
		planner:      manifest.NewPlanner(opts.Layout),
		maxFileSize:  opts.MaxFileSize,
		allowedPaths: opts.AllowedPaths,
		observer:     opts.Observer,
		mirror:       NewMirror(opts.MirrorSize, opts.MirrorTTL),
		locks:        map[string]*semaphore.Weighted{},
	}, nil
}

// Busy reports whether any call is currently talking to the remote.
func (o *Operator) Busy() bool {
	return o.busy.Load() > 0
}

// LastError returns the most recent normalized failure, or nil after a success.
func (o *Operator) LastError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// Mirror exposes the local copy of recently read and written files.
func (o *Operator) Mirror() *Mirror {
	return o.mirror
}

func (o *Operator) lockFor(key string) *semaphore.Weighted {
	o.mu.Lock()
	defer o.mu.Unlock()
	l, ok := o.locks[key]
	if !ok {
		l = semaphore.NewWeighted(1)
		o.locks[key] = l
	}
	return l
}

// guard runs fn as operation op. It marks the operator busy, holds the lock
// for key when key is not empty, records metrics and normalizes the error.
func guard[T any](ctx context.Context, o *Operator, op, key string, fn func(ctx context.Context) (T, error)) (T, error) {
	start := time.Now()
	o.busy.Add(1)
	busyGauge.Inc()
	defer func() {
		o.busy.Add(-1)
		busyGauge.Dec()
	}()

	logger := zerolog.Ctx(ctx).With().Str("op", op).Logger()
	if key != "" {
		logger = logger.With().Str("repository", key).Logger()
	}
	ctx = logger.WithContext(ctx)

	var zero T
	if key != "" {
		l := o.lockFor(key)
		if err := l.Acquire(ctx, 1); err != nil {
			return zero, o.finish(ctx, op, start, syncerr.Wrap(syncerr.KindTransient, op, err))
		}
		defer l.Release(1)
	}

	logger.Debug().Msg("starting")
	out, err := fn(ctx)
	if err != nil {
		return out, o.finish(ctx, op, start, err)
	}
	o.finish(ctx, op, start, nil)
	return out, nil
}

func (o *Operator) finish(ctx context.Context, op string, start time.Time, err error) error {
	err = syncerr.Normalize(op, err)
	operationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	operationsTotal.WithLabelValues(op, resultLabel(err)).Inc()

	logger := zerolog.Ctx(ctx)
	if err != nil {
		logger.Warn().Err(err).Str("kind", syncerr.KindOf(err).String()).Dur("took", time.Since(start)).Msg("failed")
		if errors.Is(err, syncerr.ErrAuthentication) {
			o.forgetCredential(ctx)
		}
	} else {
		logger.Debug().Dur("took", time.Since(start)).Msg("done")
	}

	o.mu.Lock()
	o.lastErr = err
	o.mu.Unlock()
	return err
}

func (o *Operator) forgetCredential(ctx context.Context) {
	if err := o.credentials.ClearCredential(ctx); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to clear stored credential")
	}
	o.mirror.Purge()
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return syncerr.KindOf(err).String()
}

// client builds the remote client for s.
func (o *Operator) client(ctx context.Context, s session.Session) (remote.Client, error) {
	if s.Credential == "" {
		return nil, syncerr.New(syncerr.KindAuthentication, "client", "not signed in")
	}
	return o.clients(ctx, s.Credential)
}

// checkPath validates path and applies the allowed path globs.
func (o *Operator) checkPath(op, path string) error {
	if err := remote.ValidatePath(path); err != nil {
		return err
	}
	if len(o.allowedPaths) == 0 {
		return nil
	}
	for _, p := range o.allowedPaths {
		if ok, _ := doublestar.Match(p, path); ok {
			return nil
		}
	}
	return syncerr.Validation(op, "path %s is outside the allowed paths", path)
}
