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

package session

import (
	"context"
	"sync"

	"github.com/walteh/contentsync/pkg/syncerr"
)

// MemoryCredentials is a CredentialStore that forgets everything on exit.
type MemoryCredentials struct {
	mu    sync.Mutex
	value string
}

var _ CredentialStore = (*MemoryCredentials)(nil)

func (m *MemoryCredentials) Credential(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.value == "" {
		return "", syncerr.NotFound("credential", "no stored credential")
	}
	return m.value, nil
}

func (m *MemoryCredentials) SaveCredential(ctx context.Context, credential string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = credential
	return nil
}

func (m *MemoryCredentials) ClearCredential(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = ""
	return nil
}
