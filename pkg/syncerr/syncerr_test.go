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

package syncerr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "nil", err: nil, want: KindUnknown},
		{name: "plain", err: errors.New("boom"), want: KindUnknown},
		{name: "classified", err: New(KindConflict, "write", "stale hash %s", "abc"), want: KindConflict},
		{name: "wrapped_classified", err: errors.Errorf("outer: %w", Validation("login", "too short")), want: KindValidation},
		{name: "wrapped_sentinel", err: errors.Errorf("reading: %w", ErrNotFound), want: KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err), "kind should match")
		})
	}
}

func TestErrorIs(t *testing.T) {
	err := errors.Errorf("saving record: %w", New(KindIntegrity, "patch", "id %q appears 2 times", "x"))

	assert.True(t, errors.Is(err, ErrIntegrity), "should match integrity sentinel")
	assert.False(t, errors.Is(err, ErrConflict), "should not match conflict sentinel")
	assert.Contains(t, err.Error(), "patch: id \"x\" appears 2 times", "message should carry op and detail")
}

func TestNormalize(t *testing.T) {
	t.Run("nil_stays_nil", func(t *testing.T) {
		assert.NoError(t, Normalize("op", nil))
	})

	t.Run("classified_passes_through", func(t *testing.T) {
		in := NotFound("read", "missing %s", "a.js")
		out := Normalize("fetch", in)
		assert.Equal(t, in, out, "classified error should not be rewrapped")
	})

	t.Run("raw_becomes_transient", func(t *testing.T) {
		out := Normalize("fetch", errors.New("connection reset by peer"))
		require.Error(t, out)
		assert.True(t, errors.Is(out, ErrTransient), "raw errors should be transient")
		assert.True(t, IsRetryable(out), "transient errors are retryable")
	})

	t.Run("cancellation_becomes_transient", func(t *testing.T) {
		out := Normalize("fetch", errors.Errorf("doing request: %w", context.Canceled))
		assert.Equal(t, KindTransient, KindOf(out))
		assert.True(t, IsCanceled(out), "cancellation should still be detectable")
	})
}

func TestIsUserActionRequired(t *testing.T) {
	assert.True(t, IsUserActionRequired(Wrap(KindConflict, "write", errors.New("stale"))))
	assert.True(t, IsUserActionRequired(Wrap(KindStructural, "patch", errors.New("no array"))))
	assert.False(t, IsUserActionRequired(Wrap(KindTransient, "write", errors.New("502"))))
	assert.False(t, IsRetryable(Wrap(KindConflict, "write", errors.New("stale"))))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "not_found", KindNotFound.String())
	assert.Equal(t, "unknown", Kind(99).String())
}
