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
	"context"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/projectbackup/pkg/project"
	"github.com/walteh/projectbackup/pkg/walker"
	"gitlab.com/tozd/go/errors"
)

// DefaultExtensions are the design file types exported when none are
// configured
var DefaultExtensions = []string{"f3d", "f3z"}

// partialSuffix marks the staging folder of a transfer in flight
const partialSuffix = ".partial"

// errAppeared means the destination was created while its content was being
// fetched
var errAppeared = errors.Base("destination appeared during transfer")

// 📥 Fetcher transfers the content of a node into a local file
type Fetcher interface {
	Fetch(ctx context.Context, node project.Node, destPath string) error
}

// 📈 ProgressSink receives per-file progress and can ask the export to stop
type ProgressSink interface {
	Progress(ctx context.Context, current, total int, path string)
	CancelRequested() bool
}

type noopSink struct{}

func (noopSink) Progress(context.Context, int, int, string) {}
func (noopSink) CancelRequested() bool                      { return false }

// 📦 Exporter writes walked files below the session's destination root
type Exporter struct {
	fetcher    Fetcher
	extensions map[string]struct{}
	sink       ProgressSink
}

// Option configures an Exporter
type Option func(*Exporter)

// WithExtensions replaces the set of exported extensions
func WithExtensions(extensions ...string) Option {
	return func(e *Exporter) {
		e.extensions = make(map[string]struct{}, len(extensions))
		for _, ext := range extensions {
			e.extensions[NormalizeExtension(ext)] = struct{}{}
		}
	}
}

// WithProgress sets the sink that receives progress updates
func WithProgress(sink ProgressSink) Option {
	return func(e *Exporter) {
		if sink != nil {
			e.sink = sink
		}
	}
}

// 🏭 New creates an exporter that fetches content through fetcher
func New(fetcher Fetcher, opts ...Option) *Exporter {
	e := &Exporter{
		fetcher: fetcher,
		sink:    noopSink{},
	}
	WithExtensions(DefaultExtensions...)(e)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NormalizeExtension lower-cases an extension and strips its leading dot
func NormalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// 🏃 Export runs the session over tasks.
//
// Every task ends up either processed or as exactly one Issue; per-file
// problems never abort the session. Cancellation (ctx, Session.Cancel or the
// sink) is observed only before a file starts. The error is reserved for a
// session that is not idle.
func (e *Exporter) Export(ctx context.Context, sess *Session, tasks iter.Seq2[walker.Task, error]) (*Report, error) {
	logger := zerolog.Ctx(ctx).With().Str("session", sess.ID).Logger()
	ctx = logger.WithContext(ctx)

	if err := sess.begin(); err != nil {
		return nil, errors.Errorf("starting session: %w", err)
	}

	// Nothing is listed once cancellation is requested; tasks the walk never
	// produced are not part of the session.
	cancelled := e.cancelRequested(ctx, sess)
	var pending []walker.Task
	if !cancelled {
		for task, err := range tasks {
			if err != nil {
				issue := walkIssue(task, err)
				logger.Warn().Err(err).Str("path", issue.Path).Str("reason", string(issue.Reason)).Msg("walk issue")
				sess.record(issue)
			} else {
				pending = append(pending, task)
			}
			if e.cancelRequested(ctx, sess) {
				cancelled = true
				logger.Warn().Int("listed", len(pending)).Msg("cancelled while listing the project")
				break
			}
		}
	}
	sess.total = len(pending)

	logger.Info().
		Int("total", sess.total).
		Str("destination", sess.DestRoot).
		Msg("starting export")

	for i, task := range pending {
		if cancelled || e.cancelRequested(ctx, sess) {
			cancelled = true
			for _, rest := range pending[i:] {
				sess.record(Issue{Path: rest.RelPath, Reason: ReasonCancelled})
			}
			logger.Warn().
				Int("processed", sess.processed).
				Int("remaining", len(pending)-i).
				Msg("export cancelled")
			break
		}

		if issue := e.exportTask(ctx, sess, task); issue != nil {
			sess.record(*issue)
		} else {
			sess.saved(task.RelPath)
		}

		e.sink.Progress(ctx, i+1, len(pending), task.RelPath)
	}

	sess.finish(cancelled)
	report := sess.Report()

	logger.Info().
		Int("processed", report.Processed).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Int("not_processed", report.NotProcessed).
		Bool("cancelled", report.Cancelled).
		Msg("export finished")

	return report, nil
}

func (e *Exporter) cancelRequested(ctx context.Context, sess *Session) bool {
	return ctx.Err() != nil || sess.CancelRequested() || e.sink.CancelRequested()
}

// 📄 exportTask resolves a single task, returning nil on success
func (e *Exporter) exportTask(ctx context.Context, sess *Session, task walker.Task) *Issue {
	logger := zerolog.Ctx(ctx).With().Str("file", task.RelPath).Logger()

	fail := func(reason Reason, err error) *Issue {
		ev := logger.Debug()
		if reason.Outcome() == OutcomeFailed {
			ev = logger.Warn()
		}
		ev.Err(err).Str("reason", string(reason)).Msg("file not exported")
		return &Issue{Path: task.RelPath, Reason: reason, Err: err}
	}

	if !within(sess.DestRoot, task.Dest) {
		return fail(ReasonUnsafePath, errors.Errorf("destination %s is outside %s", task.Dest, sess.DestRoot))
	}

	if _, ok := e.extensions[NormalizeExtension(task.Node.Extension())]; !ok {
		return fail(ReasonUnsupportedExtension, nil)
	}

	if task.Node.CloudRef() == "" {
		return fail(ReasonMissingCloudReference, nil)
	}

	if err := os.MkdirAll(filepath.Dir(task.Dest), 0o755); err != nil {
		return fail(ReasonWriteFailure, errors.Errorf("creating parent directories: %w", err))
	}

	exists, err := fileExists(task.Dest)
	if err != nil {
		return fail(ReasonWriteFailure, err)
	}
	if exists {
		return fail(ReasonAlreadyExists, nil)
	}

	logger.Debug().Str("dest", task.Dest).Msg("starting transfer")

	if err := e.transfer(ctx, task); err != nil {
		if errors.Is(err, errAppeared) {
			return fail(ReasonAlreadyExists, nil)
		}
		return fail(ReasonWriteFailure, err)
	}

	logger.Info().Str("dest", task.Dest).Msg("file exported")
	return nil
}

// 🚚 transfer has the host write into a private staging folder next to the
// destination and links the result into place. Nothing that existed before
// the transfer is removed or replaced.
func (e *Exporter) transfer(ctx context.Context, task walker.Task) error {
	base := filepath.Base(task.Dest)

	staging, err := os.MkdirTemp(filepath.Dir(task.Dest), "."+base+".*"+partialSuffix)
	if err != nil {
		return errors.Errorf("creating staging folder: %w", err)
	}
	defer os.RemoveAll(staging)

	staged := filepath.Join(staging, base)

	// An in-flight transfer is allowed to finish; cancellation is checked
	// between files only.
	if err := e.fetcher.Fetch(context.WithoutCancel(ctx), task.Node, staged); err != nil {
		return errors.Errorf("fetching content: %w", err)
	}

	info, err := os.Lstat(staged)
	if err != nil {
		return errors.Errorf("host reported success without writing content: %w", err)
	}
	if !info.Mode().IsRegular() {
		return errors.Errorf("host wrote %s instead of a regular file", info.Mode().Type())
	}

	if err := os.Link(staged, task.Dest); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return errAppeared
		}
		return errors.Errorf("moving file into place: %w", err)
	}

	return nil
}

func walkIssue(task walker.Task, err error) Issue {
	var unsafe *walker.UnsafePathError
	if errors.As(err, &unsafe) {
		p := unsafe.Name
		if unsafe.Path != "" {
			p = unsafe.Path + "/" + unsafe.Name
		}
		return Issue{Path: p, Reason: ReasonUnsafePath, Err: err}
	}
	p := task.RelPath
	if p == "" {
		p = "."
	}
	return Issue{Path: p, Reason: ReasonListingFailure, Err: err}
}

func fileExists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Errorf("checking file existence: %w", err)
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
