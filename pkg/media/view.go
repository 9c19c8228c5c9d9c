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

package media

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// State is where a View is in resolving its resource.
type State string

const (
	StateIdle      State = "idle"
	StateLoading   State = "loading"
	StateRetrying  State = "retrying"
	StateDisplayed State = "displayed"
	StateFailed    State = "failed"
)

// Terminal reports whether s ends a Load.
func (s State) Terminal() bool {
	return s == StateDisplayed || s == StateFailed
}

// View displays one media resource at a time and owns the handle behind it.
type View struct {
	fetcher *Fetcher
	onState func(State)

	mu     sync.Mutex
	state  State
	url    string
	handle *Handle
	err    error
}

// 🏭 NewView creates a view. onState, when set, sees every transition.
func NewView(f *Fetcher, onState func(State)) *View {
	return &View{fetcher: f, onState: onState, state: StateIdle}
}

func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Err is the failure behind StateFailed.
func (v *View) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

// Source is what to display: the local handle path after an authenticated
// fetch, the url itself after a direct one, or empty.
func (v *View) Source() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state != StateDisplayed {
		return ""
	}
	if v.handle != nil {
		return v.handle.Path()
	}
	return v.url
}

// Handle returns the handle currently displayed, if any.
func (v *View) Handle() *Handle {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.handle
}

func (v *View) set(s State) {
	v.state = s
	if v.onState != nil {
		v.onState(s)
	}
}

// swap installs h as the displayed handle and releases the previous one.
func (v *View) swap(ctx context.Context, h *Handle) {
	prev := v.handle
	v.handle = h
	if prev != nil && prev != h {
		if err := prev.Release(); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("handle", prev.Path()).Msg("releasing media handle")
		}
	}
}

// 🖼️ Load resolves url and returns the terminal state. Loading a new url
// releases the handle of the old one; a failed load leaves no handle.
func (v *View) Load(ctx context.Context, url string) State {
	v.mu.Lock()
	defer v.mu.Unlock()

	logger := zerolog.Ctx(ctx).With().Str("url", url).Logger()

	if url != v.url {
		v.swap(ctx, nil)
	}
	v.url = url
	v.err = nil
	v.set(StateLoading)

	err := v.fetcher.Direct(ctx, url)
	if err == nil {
		v.swap(ctx, nil)
		v.set(StateDisplayed)
		logger.Debug().Msg("media displayed directly")
		return v.state
	}
	logger.Debug().Err(err).Msg("direct media fetch failed")

	credential, ok := v.fetcher.Credential(ctx)
	if !ok {
		v.fail(ctx, err)
		return v.state
	}

	v.set(StateRetrying)
	h, err := v.fetcher.Authenticated(ctx, url, credential)
	if err != nil {
		logger.Warn().Err(err).Msg("authenticated media fetch failed")
		v.fail(ctx, err)
		return v.state
	}
	v.swap(ctx, h)
	v.set(StateDisplayed)
	return v.state
}

func (v *View) fail(ctx context.Context, err error) {
	v.swap(ctx, nil)
	v.err = err
	v.set(StateFailed)
}

// Close releases the displayed handle. The view can be loaded again.
func (v *View) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	h := v.handle
	v.handle = nil
	v.url = ""
	v.state = StateIdle
	if h == nil {
		return nil
	}
	return h.Release()
}
