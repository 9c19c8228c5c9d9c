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
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/walteh/contentsync/pkg/remote"
)

const (
	DefaultMirrorSize = 256
	DefaultMirrorTTL  = 5 * time.Minute
)

// Mirror is a bounded, expiring copy of remote files keyed by repository and path.
// It only ever serves listings; every write re-reads the remote first.
type Mirror struct {
	cache *expirable.LRU[string, remote.RemoteFile]
}

// 🏭 NewMirror creates a mirror holding at most size files for ttl each.
func NewMirror(size int, ttl time.Duration) *Mirror {
	if size <= 0 {
		size = DefaultMirrorSize
	}
	if ttl <= 0 {
		ttl = DefaultMirrorTTL
	}
	return &Mirror{cache: expirable.NewLRU[string, remote.RemoteFile](size, nil, ttl)}
}

func mirrorKey(owner, repo, path string) string {
	return owner + "/" + repo + ":" + path
}

// Get returns the mirrored file, counting the hit or miss.
func (m *Mirror) Get(owner, repo, path string) (remote.RemoteFile, bool) {
	f, ok := m.cache.Get(mirrorKey(owner, repo, path))
	if ok {
		mirrorHits.Inc()
		return f, true
	}
	mirrorMisses.Inc()
	return remote.RemoteFile{}, false
}

// Put stores a copy of f.
func (m *Mirror) Put(f remote.RemoteFile) {
	f.Content = append([]byte(nil), f.Content...)
	m.cache.Add(mirrorKey(f.Owner, f.Repo, f.Path), f)
}

// Committed records content just written under the hash the remote returned.
func (m *Mirror) Committed(owner, repo string, content []byte, c *remote.CommitResult) {
	m.Put(remote.RemoteFile{
		Owner:    owner,
		Repo:     repo,
		Path:     c.Path,
		Content:  content,
		Hash:     c.Hash,
		Encoding: "base64",
		Size:     len(content),
	})
}

func (m *Mirror) Forget(owner, repo, path string) {
	m.cache.Remove(mirrorKey(owner, repo, path))
}

// Purge drops everything.
func (m *Mirror) Purge() {
	m.cache.Purge()
}

func (m *Mirror) Len() int {
	return m.cache.Len()
}
