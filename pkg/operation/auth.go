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

	"github.com/rs/zerolog"
	"github.com/walteh/contentsync/pkg/session"
	"github.com/walteh/contentsync/pkg/syncerr"
	"gitlab.com/tozd/go/errors"
)

// 🔐 Login checks the credential shape, looks up its identity and stores it.
// A malformed credential fails before any request is made.
func (o *Operator) Login(ctx context.Context, credential string) (session.Session, error) {
	return guard(ctx, o, "login", "", func(ctx context.Context) (session.Session, error) {
		if err := session.ValidateCredential(credential); err != nil {
			return session.Session{}, err
		}
		return o.signIn(ctx, credential)
	})
}

// Restore rebuilds a session from the stored credential. With nothing
// stored it returns a NotFoundError.
func (o *Operator) Restore(ctx context.Context) (session.Session, error) {
	return guard(ctx, o, "restore", "", func(ctx context.Context) (session.Session, error) {
		credential, err := o.credentials.Credential(ctx)
		if err != nil {
			return session.Session{}, err
		}
		if err := session.ValidateCredential(credential); err != nil {
			// a stored credential that no longer passes is as good as revoked
			return session.Session{}, syncerr.Wrap(syncerr.KindAuthentication, "restore", err)
		}
		return o.signIn(ctx, credential)
	})
}

func (o *Operator) signIn(ctx context.Context, credential string) (session.Session, error) {
	s := session.Session{Credential: credential}
	c, err := o.client(ctx, s)
	if err != nil {
		return session.Session{}, err
	}
	id, err := c.Identity(ctx)
	if err != nil {
		return session.Session{}, errors.Errorf("looking up identity: %w", err)
	}
	if err := o.credentials.SaveCredential(ctx, credential); err != nil {
		return session.Session{}, errors.Errorf("storing credential: %w", err)
	}
	s.Identity = id

	zerolog.Ctx(ctx).Info().Str("login", id.Login).Int64("id", id.ID).Msg("signed in")
	return s, nil
}

// 🚪 Logout clears the stored credential and the mirror. The returned
// session is empty.
func (o *Operator) Logout(ctx context.Context, s session.Session) (session.Session, error) {
	return guard(ctx, o, "logout", "", func(ctx context.Context) (session.Session, error) {
		if err := o.credentials.ClearCredential(ctx); err != nil {
			return s, errors.Errorf("clearing credential: %w", err)
		}
		o.mirror.Purge()
		return session.Session{}, nil
	})
}
