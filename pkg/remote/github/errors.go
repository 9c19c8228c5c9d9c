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
	"net/http"
	"strings"

	"github.com/google/go-github/v60/github"
	"github.com/walteh/contentsync/pkg/remote"
	"github.com/walteh/contentsync/pkg/syncerr"
	"gitlab.com/tozd/go/errors"
)

// classify maps a go-github failure onto the sync error taxonomy.
func classify(op string, resp *github.Response, err error) error {
	if syncerr.IsCanceled(err) {
		return syncerr.Wrap(syncerr.KindTransient, op, err)
	}

	var rle *github.RateLimitError
	var arle *github.AbuseRateLimitError
	if errors.As(err, &rle) || errors.As(err, &arle) {
		return syncerr.Wrap(syncerr.KindTransient, op, err)
	}

	status := statusOf(resp, err)
	switch {
	case status == 0:
		return syncerr.Wrap(syncerr.KindTransient, op, err)
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return syncerr.Wrap(syncerr.KindAuthentication, op, err)
	case status == http.StatusNotFound:
		return syncerr.Wrap(syncerr.KindNotFound, op, err)
	case status == http.StatusConflict:
		return syncerr.Wrap(syncerr.KindConflict, op, err)
	case status >= 500:
		return syncerr.Wrap(syncerr.KindTransient, op, err)
	case status >= 400:
		return syncerr.Wrap(syncerr.KindValidation, op, err)
	default:
		return syncerr.Wrap(syncerr.KindTransient, op, err)
	}
}

// classifyWrite turns hash mismatches into *remote.ConflictError.
// The contents API answers 409 for a stale sha and 422 when a sha is
// missing for an existing file or names the wrong blob.
func classifyWrite(path, expectedHash string, resp *github.Response, err error) error {
	status := statusOf(resp, err)
	msg := messageOf(err)

	if status == http.StatusConflict || (status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "sha")) {
		return errors.WithStack(&remote.ConflictError{
			Path:         path,
			ExpectedHash: expectedHash,
			Message:      msg,
		})
	}
	return classify("write "+path, resp, err)
}

func statusOf(resp *github.Response, err error) int {
	if resp != nil && resp.Response != nil {
		return resp.StatusCode
	}
	var er *github.ErrorResponse
	if errors.As(err, &er) && er.Response != nil {
		return er.Response.StatusCode
	}
	return 0
}

func messageOf(err error) string {
	var er *github.ErrorResponse
	if errors.As(err, &er) {
		parts := []string{er.Message}
		for _, e := range er.Errors {
			if e.Message != "" {
				parts = append(parts, e.Message)
			}
		}
		return strings.Join(parts, "; ")
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
