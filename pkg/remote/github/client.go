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

package github

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/google/go-github/v60/github"
	"github.com/rs/zerolog"
	"github.com/walteh/contentsync/pkg/remote"
	"github.com/walteh/contentsync/pkg/syncerr"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/oauth2"
)

// GitHubClient defines the GitHub API operations we need
type GitHubClient interface {
	GetUser(ctx context.Context, user string) (*github.User, *github.Response, error)
	ListRepositories(ctx context.Context, opts *github.RepositoryListByAuthenticatedUserOptions) ([]*github.Repository, *github.Response, error)
	CreateRepository(ctx context.Context, org string, repo *github.Repository) (*github.Repository, *github.Response, error)
	GetContents(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentGetOptions) (*github.RepositoryContent, []*github.RepositoryContent, *github.Response, error)
	DownloadContents(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentGetOptions) (io.ReadCloser, *github.Response, error)
	CreateFile(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentFileOptions) (*github.RepositoryContentResponse, *github.Response, error)
	UpdateFile(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentFileOptions) (*github.RepositoryContentResponse, *github.Response, error)
}

// githubClientWrapper wraps the GitHub client to implement our interface
type githubClientWrapper struct {
	client *github.Client
}

func (w *githubClientWrapper) GetUser(ctx context.Context, user string) (*github.User, *github.Response, error) {
	return w.client.Users.Get(ctx, user)
}

func (w *githubClientWrapper) ListRepositories(ctx context.Context, opts *github.RepositoryListByAuthenticatedUserOptions) ([]*github.Repository, *github.Response, error) {
	return w.client.Repositories.ListByAuthenticatedUser(ctx, opts)
}

func (w *githubClientWrapper) CreateRepository(ctx context.Context, org string, repo *github.Repository) (*github.Repository, *github.Response, error) {
	return w.client.Repositories.Create(ctx, org, repo)
}

func (w *githubClientWrapper) GetContents(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentGetOptions) (*github.RepositoryContent, []*github.RepositoryContent, *github.Response, error) {
	return w.client.Repositories.GetContents(ctx, owner, repo, path, opts)
}

func (w *githubClientWrapper) DownloadContents(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentGetOptions) (io.ReadCloser, *github.Response, error) {
	return w.client.Repositories.DownloadContents(ctx, owner, repo, path, opts)
}

func (w *githubClientWrapper) CreateFile(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentFileOptions) (*github.RepositoryContentResponse, *github.Response, error) {
	return w.client.Repositories.CreateFile(ctx, owner, repo, path, opts)
}

func (w *githubClientWrapper) UpdateFile(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentFileOptions) (*github.RepositoryContentResponse, *github.Response, error) {
	return w.client.Repositories.UpdateFile(ctx, owner, repo, path, opts)
}

// 🔧 Option configures a Client
type Option func(*options)

type options struct {
	baseURL     string
	httpClient  *http.Client
	maxFileSize int64
	branch      string
}

// WithBaseURL points the client at a GitHub Enterprise or test API root.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

// WithHTTPClient sets the transport used underneath the token source.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithMaxFileSize overrides remote.DefaultMaxFileSize.
func WithMaxFileSize(n int64) Option {
	return func(o *options) { o.maxFileSize = n }
}

// WithBranch writes to and reads from a branch other than the default one.
func WithBranch(b string) Option {
	return func(o *options) { o.branch = b }
}

// Client implements remote.Client for GitHub
type Client struct {
	api         GitHubClient
	maxFileSize int64
	branch      string
}

var _ remote.Client = (*Client)(nil)

// 🏭 New stores the credential for subsequent calls. It does not contact the remote.
func New(ctx context.Context, credential string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(credential) == "" {
		return nil, syncerr.New(syncerr.KindAuthentication, "github", "no credential")
	}

	o := &options{maxFileSize: remote.DefaultMaxFileSize}
	for _, opt := range opts {
		opt(o)
	}

	if o.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, o.httpClient)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: credential})
	gh := github.NewClient(oauth2.NewClient(ctx, ts))

	if o.baseURL != "" {
		u, err := url.Parse(o.baseURL)
		if err != nil {
			return nil, syncerr.Validation("github", "invalid base url %q: %v", o.baseURL, err)
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		gh.BaseURL = u
	}

	return NewWithAPI(gh, o.maxFileSize, o.branch), nil
}

// NewWithAPI builds a Client over an existing go-github client.
func NewWithAPI(gh *github.Client, maxFileSize int64, branch string) *Client {
	return newClient(&githubClientWrapper{client: gh}, maxFileSize, branch)
}

func newClient(api GitHubClient, maxFileSize int64, branch string) *Client {
	if maxFileSize <= 0 {
		maxFileSize = remote.DefaultMaxFileSize
	}
	return &Client{api: api, maxFileSize: maxFileSize, branch: branch}
}

// 👤 Identity returns the account behind the credential
func (c *Client) Identity(ctx context.Context) (*remote.Identity, error) {
	zerolog.Ctx(ctx).Debug().Msg("looking up identity")

	user, resp, err := c.api.GetUser(ctx, "")
	if err != nil {
		return nil, classify("identity", resp, err)
	}

	return &remote.Identity{
		ID:        user.GetID(),
		Login:     user.GetLogin(),
		Name:      user.GetName(),
		AvatarURL: user.GetAvatarURL(),
		Email:     user.GetEmail(),
	}, nil
}

// 📚 ListRepositories returns every visible repository, newest-updated first
func (c *Client) ListRepositories(ctx context.Context) ([]remote.Repository, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Msg("listing repositories")

	opts := &github.RepositoryListByAuthenticatedUserOptions{
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var out []remote.Repository
	for {
		repos, resp, err := c.api.ListRepositories(ctx, opts)
		if err != nil {
			return nil, classify("list repositories", resp, err)
		}
		for _, r := range repos {
			out = append(out, convertRepository(r))
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})

	logger.Debug().Int("count", len(out)).Msg("listed repositories")
	return out, nil
}

// 🆕 CreateRepository creates an auto-initialized repository
func (c *Client) CreateRepository(ctx context.Context, name string, private bool) (*remote.Repository, error) {
	zerolog.Ctx(ctx).Debug().Str("name", name).Bool("private", private).Msg("creating repository")

	if strings.TrimSpace(name) == "" {
		return nil, syncerr.Validation("create repository", "empty repository name")
	}

	repo, resp, err := c.api.CreateRepository(ctx, "", &github.Repository{
		Name:     github.String(name),
		Private:  github.Bool(private),
		AutoInit: github.Bool(true),
	})
	if err != nil {
		return nil, classify("create repository", resp, err)
	}

	out := convertRepository(repo)
	return &out, nil
}

// 📄 ReadFile returns the content and hash of a file
func (c *Client) ReadFile(ctx context.Context, owner, repo, path string) (*remote.RemoteFile, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("owner", owner).Str("repo", repo).Str("path", path).Msg("reading file")

	if err := remote.ValidatePath(path); err != nil {
		return nil, err
	}

	file, dir, resp, err := c.api.GetContents(ctx, owner, repo, path, c.getOptions())
	if err != nil {
		return nil, classify("read "+path, resp, err)
	}
	if file == nil {
		return nil, syncerr.Validation("read "+path, "path is a directory with %d entries", len(dir))
	}

	var content []byte
	if file.GetEncoding() == "none" {
		content, err = c.download(ctx, owner, repo, path)
		if err != nil {
			return nil, err
		}
	} else {
		text, err := file.GetContent()
		if err != nil {
			return nil, syncerr.Wrap(syncerr.KindTransient, "read "+path, errors.Errorf("decoding content: %w", err))
		}
		content = []byte(text)
	}

	logger.Debug().Str("path", path).Str("hash", file.GetSHA()).Int("size", len(content)).Msg("read file")

	return &remote.RemoteFile{
		Owner:    owner,
		Repo:     repo,
		Path:     path,
		Content:  content,
		Hash:     file.GetSHA(),
		Encoding: file.GetEncoding(),
		Size:     len(content),
	}, nil
}

func (c *Client) download(ctx context.Context, owner, repo, path string) ([]byte, error) {
	rc, resp, err := c.api.DownloadContents(ctx, owner, repo, path, c.getOptions())
	if err != nil {
		return nil, classify("download "+path, resp, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, c.maxFileSize+1))
	if err != nil {
		return nil, syncerr.Wrap(syncerr.KindTransient, "download "+path, err)
	}
	if err := remote.CheckSize(path, int64(len(data)), c.maxFileSize); err != nil {
		return nil, err
	}
	return data, nil
}

// ✍️ WriteFile creates the file when expectedHash is empty and updates it otherwise.
// The size limit is enforced before any request is made.
func (c *Client) WriteFile(ctx context.Context, owner, repo, path string, content []byte, message, expectedHash string) (*remote.CommitResult, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("owner", owner).Str("repo", repo).Str("path", path).Str("expected_hash", expectedHash).Int("size", len(content)).Msg("writing file")

	if err := remote.ValidatePath(path); err != nil {
		return nil, err
	}
	if err := remote.CheckSize(path, int64(len(content)), c.maxFileSize); err != nil {
		return nil, err
	}
	if strings.TrimSpace(message) == "" {
		return nil, syncerr.Validation("write "+path, "empty commit message")
	}

	// go-github base64-encodes Content when marshalling the request body.
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: content,
	}
	if c.branch != "" {
		opts.Branch = github.String(c.branch)
	}

	var (
		res  *github.RepositoryContentResponse
		resp *github.Response
		err  error
	)
	if expectedHash == "" {
		res, resp, err = c.api.CreateFile(ctx, owner, repo, path, opts)
	} else {
		opts.SHA = github.String(expectedHash)
		res, resp, err = c.api.UpdateFile(ctx, owner, repo, path, opts)
	}
	if err != nil {
		return nil, classifyWrite(path, expectedHash, resp, err)
	}

	commit := &remote.CommitResult{
		Path:    path,
		Created: expectedHash == "",
	}
	if res != nil {
		commit.Hash = res.GetContent().GetSHA()
		commit.CommitSHA = res.Commit.GetSHA()
	}

	logger.Debug().Str("path", path).Str("hash", commit.Hash).Str("commit", commit.CommitSHA).Msg("wrote file")
	return commit, nil
}

func (c *Client) getOptions() *github.RepositoryContentGetOptions {
	if c.branch == "" {
		return nil
	}
	return &github.RepositoryContentGetOptions{Ref: c.branch}
}

func convertRepository(r *github.Repository) remote.Repository {
	return remote.Repository{
		ID:            r.GetID(),
		Owner:         r.GetOwner().GetLogin(),
		Name:          r.GetName(),
		FullName:      r.GetFullName(),
		Private:       r.GetPrivate(),
		Description:   r.GetDescription(),
		DefaultBranch: r.GetDefaultBranch(),
		Language:      r.GetLanguage(),
		Stars:         r.GetStargazersCount(),
		Forks:         r.GetForksCount(),
		Watchers:      r.GetWatchersCount(),
		UpdatedAt:     r.GetUpdatedAt().Time,
	}
}
