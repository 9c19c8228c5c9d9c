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

// Package syncerr classifies every failure the sync engine can surface.
//
// Errors are checked with errors.Is against the sentinels:
//
//	if errors.Is(err, syncerr.ErrConflict) {
//	    // re-read the file and re-apply the patch
//	}
package syncerr

import (
	"context"

	"gitlab.com/tozd/go/errors"
)

// 🏷️ Kind is the category of a sync failure
type Kind int

const (
	KindUnknown Kind = iota
	KindAuthentication
	KindValidation
	KindNotFound
	KindConflict
	KindStructural
	KindIntegrity
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindStructural:
		return "structural"
	case KindIntegrity:
		return "integrity"
	case KindTransient:
		return "transient"
	default:
		return "unknown"
	}
}

var (
	// ErrAuthentication is returned when the credential is missing, malformed
	// for the remote, expired or revoked. The stored credential is cleared.
	ErrAuthentication = errors.New("authentication failed")

	// ErrValidation is returned for malformed input, detected before any
	// network call is made.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a remote path, repository or record is absent.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write presents a stale content hash.
	ErrConflict = errors.New("content hash conflict")

	// ErrStructural is returned when a module has no recognizable collection literal.
	ErrStructural = errors.New("unrecognized module structure")

	// ErrIntegrity is returned when a record id matches more than one span.
	ErrIntegrity = errors.New("record integrity violation")

	// ErrTransient is returned for network and remote service failures.
	ErrTransient = errors.New("transient remote failure")
)

var sentinels = map[Kind]error{
	KindAuthentication: ErrAuthentication,
	KindValidation:     ErrValidation,
	KindNotFound:       ErrNotFound,
	KindConflict:       ErrConflict,
	KindStructural:     ErrStructural,
	KindIntegrity:      ErrIntegrity,
	KindTransient:      ErrTransient,
}

// 🎯 Error is a classified failure with the operation that produced it
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// 🏭 New creates a classified error from a message
func New(kind Kind, op string, format string, args ...any) error {
	return errors.WithStack(&Error{Kind: kind, Op: op, Err: errors.Errorf(format, args...)})
}

// 🏭 Wrap classifies err under kind. A nil err stays nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(&Error{Kind: kind, Op: op, Err: err})
}

// Validation is shorthand for New(KindValidation, ...).
func Validation(op string, format string, args ...any) error {
	return New(KindValidation, op, format, args...)
}

// NotFound is shorthand for New(KindNotFound, ...).
func NotFound(op string, format string, args ...any) error {
	return New(KindNotFound, op, format, args...)
}

// 🔍 KindOf returns the kind of the first classified error in err's chain
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	for kind, s := range sentinels {
		if errors.Is(err, s) {
			return kind
		}
	}
	return KindUnknown
}

// IsRetryable reports whether repeating the same call may succeed.
// Only transient failures qualify; conflicts need a fresh read first.
func IsRetryable(err error) bool {
	return KindOf(err) == KindTransient
}

// PartialFailure is implemented by errors from multi-file operations that
// stopped after some files were already committed.
type PartialFailure interface {
	error
	PartiallyApplied() bool
}

// IsUserActionRequired reports whether an operator has to reconcile state by hand.
func IsUserActionRequired(err error) bool {
	var pf PartialFailure
	if errors.As(err, &pf) && pf.PartiallyApplied() {
		return true
	}
	switch KindOf(err) {
	case KindConflict, KindStructural, KindIntegrity:
		return true
	default:
		return false
	}
}

// 🧹 Normalize makes sure err carries a kind before it leaves the engine.
// Unclassified failures, cancellations included, are treated as transient.
func Normalize(op string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindUnknown {
		return err
	}
	return Wrap(KindTransient, op, err)
}

// IsCanceled reports whether err came from a cancelled or expired context.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
