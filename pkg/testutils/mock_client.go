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

package testutils

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/walteh/contentsync/pkg/remote"
)

// MockClient is a testify mock of remote.Client
type MockClient struct {
	mock.Mock
}

var _ remote.Client = (*MockClient)(nil)

// NewMockClient registers AssertExpectations on cleanup.
func NewMockClient(t testing.TB) *MockClient {
	m := &MockClient{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockClient) Identity(ctx context.Context) (*remote.Identity, error) {
	args := m.Called(ctx)
	id, _ := args.Get(0).(*remote.Identity)
	return id, args.Error(1)
}

func (m *MockClient) ListRepositories(ctx context.Context) ([]remote.Repository, error) {
	args := m.Called(ctx)
	repos, _ := args.Get(0).([]remote.Repository)
	return repos, args.Error(1)
}

func (m *MockClient) CreateRepository(ctx context.Context, name string, private bool) (*remote.Repository, error) {
	args := m.Called(ctx, name, private)
	repo, _ := args.Get(0).(*remote.Repository)
	return repo, args.Error(1)
}

func (m *MockClient) ReadFile(ctx context.Context, owner, repo, path string) (*remote.RemoteFile, error) {
	args := m.Called(ctx, owner, repo, path)
	f, _ := args.Get(0).(*remote.RemoteFile)
	return f, args.Error(1)
}

func (m *MockClient) WriteFile(ctx context.Context, owner, repo, path string, content []byte, message, expectedHash string) (*remote.CommitResult, error) {
	args := m.Called(ctx, owner, repo, path, content, message, expectedHash)
	c, _ := args.Get(0).(*remote.CommitResult)
	return c, args.Error(1)
}

// Context returns a context carrying a zerolog logger that writes to the test log.
func Context(t testing.TB) context.Context {
	logger := zerolog.New(zerolog.TestWriter{T: t}).With().Timestamp().Logger()
	return logger.WithContext(context.Background())
}
