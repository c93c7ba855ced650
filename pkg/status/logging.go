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

	"github.com/rs/zerolog"
	"github.com/walteh/projectbackup/pkg/export"
)

// 📝 LogSink reports progress as one log line per file
type LogSink struct {
	formatter FileFormatter
}

var _ export.ProgressSink = (*LogSink)(nil)

// 🏭 NewLogSink creates a sink that logs through the context logger
func NewLogSink(formatter FileFormatter) *LogSink {
	if formatter == nil {
		formatter = NewDefaultFileFormatter()
	}
	return &LogSink{formatter: formatter}
}

func (s *LogSink) Progress(ctx context.Context, current, total int, path string) {
	zerolog.Ctx(ctx).Info().
		Str("file", path).
		Int("processed", current).
		Int("total", total).
		Msg(s.formatter.FormatProgress(current, total))
}

// Finish logs one line per issue of the report
func (s *LogSink) Finish(ctx context.Context, report *export.Report) {
	logger := zerolog.Ctx(ctx)
	for _, issue := range report.Issues {
		ev := logger.Info()
		if issue.Reason.Outcome() == export.OutcomeFailed {
			ev = logger.Warn()
		}
		ev.Str("file", issue.Path).Str("reason", string(issue.Reason)).Msg(s.formatter.FormatIssue(issue))
	}
}

// CancelRequested is always false; log lines have no way to stop an export
func (s *LogSink) CancelRequested() bool {
	return false
}
