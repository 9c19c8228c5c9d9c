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

// Package media resolves media that may live in a private repository.
//
// A View first asks for the resource without credentials. When that fails
// and a credential is stored, it retries with the credential, copies the
// bytes into a temporary Handle and displays that instead.
package media

import (
	"context"
	"io"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/walteh/contentsync/pkg/remote"
	"github.com/walteh/contentsync/pkg/session"
	"github.com/walteh/contentsync/pkg/syncerr"
	"gitlab.com/tozd/go/errors"
)

// RawAccept asks the remote for raw bytes instead of a JSON envelope.
const RawAccept = "application/vnd.github.raw"

// Fetcher performs the two kinds of media request.
type Fetcher struct {
	http        *http.Client
	fs          afero.Fs
	dir         string
	credentials session.CredentialStore
	maxSize     int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.http = c }
}

// WithFs sets where handles are written. The default is the OS filesystem.
func WithFs(fs afero.Fs) Option {
	return func(f *Fetcher) { f.fs = fs }
}

// WithDir sets the directory for handles. Empty means the fs temp dir.
func WithDir(dir string) Option {
	return func(f *Fetcher) { f.dir = dir }
}

func WithMaxSize(n int64) Option {
	return func(f *Fetcher) { f.maxSize = n }
}

// 🏭 NewFetcher creates a fetcher reading the credential from credentials.
func NewFetcher(credentials session.CredentialStore, opts ...Option) *Fetcher {
	f := &Fetcher{
		http:        http.DefaultClient,
		fs:          afero.NewOsFs(),
		credentials: credentials,
		maxSize:     remote.DefaultMaxFileSize,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Direct checks that url can be displayed without credentials.
func (f *Fetcher) Direct(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return syncerr.Validation("fetch media", "bad url %q: %v", url, err)
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return syncerr.Wrap(syncerr.KindTransient, "fetch media", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
	return classify(resp)
}

// Credential returns the stored credential, or false when there is none.
func (f *Fetcher) Credential(ctx context.Context) (string, bool) {
	if f.credentials == nil {
		return "", false
	}
	c, err := f.credentials.Credential(ctx)
	if err != nil {
		if !errors.Is(err, syncerr.ErrNotFound) {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("reading credential for media")
		}
		return "", false
	}
	return c, c != ""
}

// 🔑 Authenticated downloads url with credential into a new Handle.
func (f *Fetcher) Authenticated(ctx context.Context, url, credential string) (*Handle, error) {
	const op = "fetch media"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, syncerr.Validation(op, "bad url %q: %v", url, err)
	}
	req.Header.Set("Authorization", "token "+credential)
	req.Header.Set("Accept", RawAccept)

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, syncerr.Wrap(syncerr.KindTransient, op, err)
	}
	defer resp.Body.Close()
	if err := classify(resp); err != nil {
		return nil, err
	}

	tmp, err := afero.TempFile(f.fs, f.dir, "contentsync-media-*")
	if err != nil {
		return nil, errors.Errorf("creating media handle: %w", err)
	}
	n, err := io.Copy(tmp, io.LimitReader(resp.Body, f.maxSize+1))
	closeErr := tmp.Close()
	switch {
	case err != nil:
		err = syncerr.Wrap(syncerr.KindTransient, op, err)
	case n > f.maxSize:
		err = remote.CheckSize(url, n, f.maxSize)
	case closeErr != nil:
		err = errors.Errorf("closing media handle: %w", closeErr)
	}
	if err != nil {
		_ = f.fs.Remove(tmp.Name())
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().Str("url", url).Str("handle", tmp.Name()).Int64("size", n).Msg("fetched media with credential")
	return &Handle{fs: f.fs, path: tmp.Name(), size: n}, nil
}

func classify(resp *http.Response) error {
	const op = "fetch media"
	switch code := resp.StatusCode; {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return syncerr.New(syncerr.KindAuthentication, op, "%s", resp.Status)
	case code == http.StatusNotFound:
		return syncerr.NotFound(op, "%s", resp.Status)
	case code >= 500:
		return syncerr.New(syncerr.KindTransient, op, "%s", resp.Status)
	default:
		return syncerr.Validation(op, "%s", resp.Status)
	}
}
