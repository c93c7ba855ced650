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

package export

import (
	"fmt"
)

// 📊 Report is the final outcome of an export session
type Report struct {
	SessionID    string
	Total        int // File tasks produced by the walk
	Processed    int
	Skipped      int
	Failed       int
	NotProcessed int // Tasks left untouched by a cancellation
	Issues       []Issue
	Saved        []string // Relative paths written by the session, in order
	Cancelled    bool
}

// HasIssues reports whether anything was skipped, failed or left untouched
func (r *Report) HasIssues() bool {
	return len(r.Issues) > 0
}

// IssuesByReason returns the issues with the given reason
func (r *Report) IssuesByReason(reason Reason) []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Reason == reason {
			out = append(out, issue)
		}
	}
	return out
}

// Status returns a short status word for the report
func (r *Report) Status() string {
	switch {
	case r.Cancelled:
		return "cancelled"
	case r.HasIssues():
		return "completed with issues"
	default:
		return "completed"
	}
}

func (r *Report) String() string {
	return fmt.Sprintf("%s: %d processed, %d skipped, %d failed, %d not processed (%d issues)",
		r.Status(), r.Processed, r.Skipped, r.Failed, r.NotProcessed, len(r.Issues))
}
