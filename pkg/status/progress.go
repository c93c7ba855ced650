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
	"context"
	"io"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/walteh/projectbackup/pkg/export"
)

// ⏳ BarSink draws a terminal progress bar for an export
type BarSink struct {
	writer io.Writer
	title  string
	bar    *pterm.ProgressbarPrinter
}

var _ export.ProgressSink = (*BarSink)(nil)

// 🏭 NewBarSink creates a progress bar sink writing to w
func NewBarSink(w io.Writer, title string) *BarSink {
	return &BarSink{writer: w, title: title}
}

// Progress starts the bar on the first call and stops it once total is reached
func (s *BarSink) Progress(ctx context.Context, current, total int, path string) {
	if s.bar == nil {
		bar, err := pterm.DefaultProgressbar.
			WithTotal(total).
			WithTitle(s.title).
			WithWriter(s.writer).
			WithRemoveWhenDone(false).
			Start()
		if err != nil {
			zerolog.Ctx(ctx).Debug().Err(err).Msg("starting progress bar")
			return
		}
		s.bar = bar
	}

	zerolog.Ctx(ctx).Debug().Str("file", path).Int("processed", current).Int("total", total).Msg("progress")

	if current > s.bar.Current {
		s.bar.UpdateTitle(path)
		s.bar.Add(current - s.bar.Current)
	}

	if current >= total {
		s.Stop()
	}
}

// Stop finishes the bar; safe to call when it never started
func (s *BarSink) Stop() {
	if s.bar == nil || !s.bar.IsActive {
		return
	}
	_, _ = s.bar.Stop()
}

// Finish stops the bar so the report prints below it
func (s *BarSink) Finish(ctx context.Context, report *export.Report) {
	s.Stop()
}

// CancelRequested is always false; a bar has no way to stop an export
func (s *BarSink) CancelRequested() bool {
	return false
}
