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
	"path/filepath"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/walteh/projectbackup/pkg/project"
	"gitlab.com/tozd/go/errors"
)

// 🔄 State is the lifecycle of a session
type State int

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateCancelled
)

// String returns a string representation of State
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// 📋 Session is a single export of one project into one destination root.
//
// It is owned by the command that created it. Cancel may be called from any
// goroutine; everything else belongs to the export loop.
type Session struct {
	ID       string // Random, tags the session's log lines
	Root     project.Node
	DestRoot string

	state     State
	cancelled atomic.Bool

	issues       []Issue
	savedPaths   []string
	total        int
	processed    int
	skipped      int
	failed       int
	notProcessed int
}

// 🏭 NewSession creates an idle session
func NewSession(root project.Node, destRoot string) *Session {
	return &Session{
		ID:       uuid.NewString(),
		Root:     root,
		DestRoot: filepath.Clean(destRoot),
	}
}

// State returns the current lifecycle state
func (s *Session) State() State {
	return s.state
}

// 🛑 Cancel asks the running export to stop before its next file
func (s *Session) Cancel() {
	s.cancelled.Store(true)
}

// CancelRequested reports whether Cancel was called
func (s *Session) CancelRequested() bool {
	return s.cancelled.Load()
}

// Issues returns the issues recorded so far, in order
func (s *Session) Issues() []Issue {
	return s.issues
}

func (s *Session) begin() error {
	if s.state != StateIdle {
		return errors.Errorf("session is %s, not idle", s.state)
	}
	s.state = StateRunning
	return nil
}

func (s *Session) finish(cancelled bool) {
	if cancelled {
		s.state = StateCancelled
		return
	}
	s.state = StateCompleted
}

func (s *Session) saved(relPath string) {
	s.processed++
	s.savedPaths = append(s.savedPaths, relPath)
}

func (s *Session) record(issue Issue) {
	s.issues = append(s.issues, issue)
	switch issue.Reason.Outcome() {
	case OutcomeSkipped:
		s.skipped++
	case OutcomeNotProcessed:
		s.notProcessed++
	default:
		s.failed++
	}
}

// 📊 Report summarizes the session
func (s *Session) Report() *Report {
	issues := make([]Issue, len(s.issues))
	copy(issues, s.issues)
	saved := make([]string, len(s.savedPaths))
	copy(saved, s.savedPaths)
	return &Report{
		SessionID:    s.ID,
		Total:        s.total,
		Processed:    s.processed,
		Skipped:      s.skipped,
		Failed:       s.failed,
		NotProcessed: s.notProcessed,
		Issues:       issues,
		Saved:        saved,
		Cancelled:    s.state == StateCancelled,
	}
}
