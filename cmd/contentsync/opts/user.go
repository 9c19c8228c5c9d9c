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

package opts

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/walteh/contentsync/pkg/status"
)

// 📢 UserLogger prints outcomes for people and mirrors them to zerolog
type UserLogger struct {
	log       zerolog.Logger
	formatter status.Formatter
}

// 🏭 NewUserLogger creates a user logger
func NewUserLogger(log zerolog.Logger) *UserLogger {
	return &UserLogger{log: log, formatter: status.NewDefaultFormatter()}
}

func (u *UserLogger) Success(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	pterm.Success.WithPrefix(pterm.Prefix{Text: "✨"}).Println(msg)
	u.log.Info().Msg(msg)
}

func (u *UserLogger) Info(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	pterm.Info.Println(msg)
	u.log.Info().Msg(msg)
}

func (u *UserLogger) Warning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	pterm.Warning.Println(msg)
	u.log.Warn().Msg(msg)
}

// Failure prints err with its kind and a hint.
func (u *UserLogger) Failure(err error) {
	pterm.Error.Println(u.formatter.FormatError(err))
	u.log.Error().Err(err).Msg("command failed")
}

// Table renders rows with the first as a header.
func (u *UserLogger) Table(rows [][]string) error {
	if len(rows) <= 1 {
		pterm.Info.Println("nothing to show")
		return nil
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}
