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

package status

import (
	"fmt"
	"strings"

	"github.com/walteh/contentsync/pkg/remote"
	"github.com/walteh/contentsync/pkg/saga"
	"github.com/walteh/contentsync/pkg/syncerr"
	"gitlab.com/tozd/go/errors"
)

// 🎨 Formatter renders tracker state and errors for people
type Formatter interface {
	FormatStep(info FileInfo) string
	FormatProgress(current, total int) string
	FormatError(err error) string
}

// DefaultFormatter provides a default implementation of Formatter
type DefaultFormatter struct{}

var _ Formatter = (*DefaultFormatter)(nil)

// NewDefaultFormatter creates a new DefaultFormatter
func NewDefaultFormatter() *DefaultFormatter {
	return &DefaultFormatter{}
}

// FormatStep formats one file of a batch with emojis
func (f *DefaultFormatter) FormatStep(info FileInfo) string {
	switch info.Status {
	case StatusCreated:
		return fmt.Sprintf("✨ Created %s", info.Path)
	case StatusUpdated:
		return fmt.Sprintf("📝 Updated %s", info.Path)
	case StatusFailed:
		return fmt.Sprintf("❌ Failed %s", info.Path)
	case StatusSkipped:
		return fmt.Sprintf("⏭️  Skipped %s", info.Path)
	default:
		return fmt.Sprintf("❔ Unknown %s", info.Path)
	}
}

// FormatProgress formats a progress message with percentage
func (f *DefaultFormatter) FormatProgress(current, total int) string {
	var percentage float64
	if total == 0 {
		percentage = 0
		if current > 0 {
			percentage = 100
		}
	} else {
		percentage = float64(current) / float64(total) * 100
	}

	if current >= total {
		return fmt.Sprintf("✅ Progress: %d/%d (%.0f%%)", current, total, percentage)
	}
	return fmt.Sprintf("⏳ Progress: %d/%d (%.0f%%)", current, total, percentage)
}

// Hint suggests what to do about an error of kind.
func Hint(kind syncerr.Kind) string {
	switch kind {
	case syncerr.KindAuthentication:
		return "sign in again with a valid token"
	case syncerr.KindValidation:
		return "fix the input and retry"
	case syncerr.KindNotFound:
		return "check the repository and path"
	case syncerr.KindConflict:
		return "the file changed remotely, reload and retry"
	case syncerr.KindStructural:
		return "the module layout is not recognized, edit it by hand"
	case syncerr.KindIntegrity:
		return "the module has duplicate ids, repair it by hand"
	case syncerr.KindTransient:
		return "retry later"
	default:
		return ""
	}
}

// FormatError formats an error message with its kind and a next step
func (f *DefaultFormatter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	kind := syncerr.KindOf(err)
	var b strings.Builder
	fmt.Fprintf(&b, "❌ %s error: %v", kind, err)

	var be *remote.BatchError
	if errors.As(err, &be) && be.PartiallyApplied() {
		fmt.Fprintf(&b, "\n   %d file(s) already committed; resume the transaction to finish", len(be.Result.Committed))
	}
	if h := Hint(kind); h != "" {
		fmt.Fprintf(&b, "\n   hint: %s", h)
	}
	return b.String()
}

// TransactionHeader names the columns of TransactionRow.
var TransactionHeader = []string{"ID", "STATUS", "KIND", "REPOSITORY", "STEPS", "MESSAGE", "CREATED"}

// TransactionRow renders one journal entry as table cells.
func TransactionRow(tx *saga.Transaction) []string {
	done := len(tx.Steps) - len(tx.Remaining())
	return []string{
		tx.ID.String(),
		string(tx.Status),
		tx.Kind,
		tx.Owner + "/" + tx.Repo,
		fmt.Sprintf("%d/%d", done, len(tx.Steps)),
		tx.Message,
		tx.CreatedAt.Local().Format("2006-01-02 15:04"),
	}
}

// RepositoryHeader names the columns of RepositoryRow.
var RepositoryHeader = []string{"REPOSITORY", "VISIBILITY", "BRANCH", "UPDATED", "STARS"}

// RepositoryRow renders one repository as table cells. The selected
// repository is marked with a trailing star.
func RepositoryRow(r remote.Repository, selected bool) []string {
	visibility := "public"
	if r.Private {
		visibility = "private"
	}
	name := r.FullName
	if selected {
		name += " *"
	}
	return []string{
		name,
		visibility,
		r.DefaultBranch,
		r.UpdatedAt.Local().Format("2006-01-02 15:04"),
		fmt.Sprint(r.Stars),
	}
}
