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

// Package testutils provides fakes of the GitHub API for tests.
package testutils

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// FakeUser is the identity served by FakeGitHub.
type FakeUser struct {
	ID        int64
	Login     string
	Name      string
	AvatarURL string
	Email     string
}

type fakeRepo struct {
	id        int64
	name      string
	private   bool
	desc      string
	language  string
	stars     int
	updatedAt time.Time
	files     map[string][]byte
}

// FakeGitHub is an in-process GitHub REST API covering users, repositories,
// contents and raw assets. Content hashes are git blob shas, so they change
// on every write that changes bytes.
type FakeGitHub struct {
	Server *httptest.Server
	Token  string
	User   FakeUser

	mu       sync.Mutex
	repos    map[string]*fakeRepo
	assets   map[string]fakeAsset
	nextID   int64
	commits  int
	requests atomic.Int64
	failures map[string]int
}

type fakeAsset struct {
	data    []byte
	private bool
}

// 🏭 NewFakeGitHub starts a fake API accepting token as the only valid credential.
// The server is closed when the test ends.
func NewFakeGitHub(t testing.TB, token string) *FakeGitHub {
	t.Helper()

	f := &FakeGitHub{
		Token: token,
		User: FakeUser{
			ID:        4242,
			Login:     "octo",
			Name:      "Octo Cat",
			AvatarURL: "https://avatars.example.com/u/4242",
			Email:     "octo@example.com",
		},
		repos:    map[string]*fakeRepo{},
		assets:   map[string]fakeAsset{},
		failures: map[string]int{},
		nextID:   1000,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/user", f.auth(f.handleUser))
	mux.HandleFunc("/user/repos", f.auth(f.handleUserRepos))
	mux.HandleFunc("/repos/", f.auth(f.handleContents))
	mux.HandleFunc("/assets/", f.handleAsset)

	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		if f.takeFailure(r.Method + " " + r.URL.Path) {
			writeJSON(w, http.StatusBadGateway, map[string]any{"message": "Server Error"})
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.Server.Close)

	return f
}

// URL is the API root, with a trailing slash.
func (f *FakeGitHub) URL() string {
	return f.Server.URL + "/"
}

// Requests returns how many HTTP requests the server has seen.
func (f *FakeGitHub) Requests() int64 {
	return f.requests.Load()
}

// AddRepo registers a repository owned by the fake user.
func (f *FakeGitHub) AddRepo(name string, private bool, updatedAt time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addRepoLocked(name, private, updatedAt)
}

func (f *FakeGitHub) addRepoLocked(name string, private bool, updatedAt time.Time) *fakeRepo {
	f.nextID++
	r := &fakeRepo{
		id:        f.nextID,
		name:      name,
		private:   private,
		language:  "JavaScript",
		updatedAt: updatedAt,
		files:     map[string][]byte{},
	}
	f.repos[name] = r
	return r
}

// PutFile seeds a file without counting as a request.
func (f *FakeGitHub) PutFile(repo, path string, content []byte) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.repos[repo]
	if !ok {
		r = f.addRepoLocked(repo, false, time.Now())
	}
	r.files[path] = append([]byte(nil), content...)
	return BlobSHA(content)
}

// File returns the stored content of a file.
func (f *FakeGitHub) File(repo, path string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.repos[repo]
	if !ok {
		return nil, false
	}
	c, ok := r.files[path]
	return c, ok
}

// Commits returns the number of successful writes.
func (f *FakeGitHub) Commits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.commits
}

// FailNext makes the next n requests matching "METHOD /path" answer 502.
func (f *FakeGitHub) FailNext(methodPath string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[methodPath] += n
}

// AddAsset serves data at /assets/<name>. Private assets require the token.
func (f *FakeGitHub) AddAsset(name string, data []byte, private bool) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assets[name] = fakeAsset{data: data, private: private}
	return f.Server.URL + "/assets/" + name
}

func (f *FakeGitHub) takeFailure(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures[key] > 0 {
		f.failures[key]--
		return true
	}
	return false
}

// BlobSHA computes the git blob hash of content.
func BlobSHA(content []byte) string {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", len(content))
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

func (f *FakeGitHub) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		tok := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(h, "Bearer "), "token "))
		if tok == "" || tok != f.Token {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Bad credentials"})
			return
		}
		next(w, r)
	}
}

func (f *FakeGitHub) handleUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"message": "Method Not Allowed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":         f.User.ID,
		"login":      f.User.Login,
		"name":       f.User.Name,
		"avatar_url": f.User.AvatarURL,
		"email":      f.User.Email,
	})
}

func (f *FakeGitHub) handleUserRepos(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		repos := make([]*fakeRepo, 0, len(f.repos))
		for _, repo := range f.repos {
			repos = append(repos, repo)
		}
		// deliberately oldest first; the client must order by updated time
		sort.Slice(repos, func(i, j int) bool { return repos[i].updatedAt.Before(repos[j].updatedAt) })
		out := make([]map[string]any, 0, len(repos))
		for _, repo := range repos {
			out = append(out, f.repoJSON(repo))
		}
		writeJSON(w, http.StatusOK, out)

	case http.MethodPost:
		var body struct {
			Name     string `json:"name"`
			Private  bool   `json:"private"`
			AutoInit bool   `json:"auto_init"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Problems parsing JSON"})
			return
		}
		if _, exists := f.repos[body.Name]; exists {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"message": "Repository creation failed.",
				"errors": []map[string]any{{
					"resource": "Repository",
					"code":     "custom",
					"field":    "name",
					"message":  "name already exists on this account",
				}},
			})
			return
		}
		repo := f.addRepoLocked(body.Name, body.Private, time.Now())
		if body.AutoInit {
			repo.files["README.md"] = []byte("# " + body.Name + "\n")
		}
		writeJSON(w, http.StatusCreated, f.repoJSON(repo))

	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"message": "Method Not Allowed"})
	}
}

func (f *FakeGitHub) repoJSON(r *fakeRepo) map[string]any {
	return map[string]any{
		"id":               r.id,
		"name":             r.name,
		"full_name":        f.User.Login + "/" + r.name,
		"owner":            map[string]any{"login": f.User.Login},
		"private":          r.private,
		"description":      r.desc,
		"default_branch":   "main",
		"language":         r.language,
		"stargazers_count": r.stars,
		"forks_count":      0,
		"watchers_count":   r.stars,
		"updated_at":       r.updatedAt.UTC().Format(time.RFC3339),
	}
}

// handleContents serves /repos/{owner}/{repo}/contents/{path}.
func (f *FakeGitHub) handleContents(w http.ResponseWriter, r *http.Request) {
	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/repos/"), "/", 4)
	if len(parts) < 4 || parts[2] != "contents" || parts[0] != f.User.Login {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not Found"})
		return
	}
	repoName, path := parts[1], parts[3]

	f.mu.Lock()
	defer f.mu.Unlock()

	repo, ok := f.repos[repoName]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not Found"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		content, ok := repo.files[path]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not Found"})
			return
		}
		encoded := encodeContent(content)
		writeJSON(w, http.StatusOK, contentJSON(path, content, encoded))

	case http.MethodPut:
		var body struct {
			Message string `json:"message"`
			Content string `json:"content"`
			SHA     string `json:"sha"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Problems parsing JSON"})
			return
		}
		content, err := decodeContent(body.Content)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": "content is not valid Base64"})
			return
		}

		current, exists := repo.files[path]
		switch {
		case exists && body.SHA == "":
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"message": "Invalid request.\n\n\"sha\" wasn't supplied."})
			return
		case exists && body.SHA != BlobSHA(current):
			writeJSON(w, http.StatusConflict, map[string]any{"message": fmt.Sprintf("%s does not match %s", path, body.SHA)})
			return
		case !exists && body.SHA != "":
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not Found"})
			return
		}

		repo.files[path] = content
		repo.updatedAt = time.Now()
		f.commits++

		status := http.StatusOK
		if !exists {
			status = http.StatusCreated
		}
		writeJSON(w, status, map[string]any{
			"content": contentJSON(path, content, ""),
			"commit": map[string]any{
				"sha":     fmt.Sprintf("%040x", f.commits),
				"message": body.Message,
			},
		})

	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"message": "Method Not Allowed"})
	}
}

func (f *FakeGitHub) handleAsset(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/assets/")

	f.mu.Lock()
	asset, ok := f.assets[name]
	f.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	if asset.private {
		if r.Header.Get("Authorization") != "token "+f.Token {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Accept") != "application/vnd.github.raw" {
			writeJSON(w, http.StatusUnsupportedMediaType, map[string]any{"message": "raw media type required"})
			return
		}
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(asset.data)
}

// encodeContent base64-encodes content and breaks it every 60 characters
// the way the contents API does.
func encodeContent(content []byte) string {
	flat := base64.StdEncoding.EncodeToString(content)
	var b strings.Builder
	for len(flat) > 60 {
		b.WriteString(flat[:60])
		b.WriteByte('\n')
		flat = flat[60:]
	}
	b.WriteString(flat)
	return b.String()
}

// decodeContent reverses encodeContent. The decoder skips line breaks.
func decodeContent(encoded string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(encoded)
}

func contentJSON(path string, content []byte, encoded string) map[string]any {
	name := path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		name = path[i+1:]
	}
	out := map[string]any{
		"type": "file",
		"name": name,
		"path": path,
		"size": len(content),
		"sha":  BlobSHA(content),
	}
	if encoded != "" {
		out["encoding"] = "base64"
		out["content"] = encoded
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
