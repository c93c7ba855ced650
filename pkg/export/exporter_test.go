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

package export_test

import (
	"context"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/walteh/projectbackup/pkg/export"
	"github.com/walteh/projectbackup/pkg/project"
	"github.com/walteh/projectbackup/pkg/walker"
	"gitlab.com/tozd/go/errors"
)

// 🔧 MockFetcher is a mock implementation of the export.Fetcher interface
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, node project.Node, destPath string) error {
	return m.Called(ctx, node, destPath).Error(0)
}

// 📥 writeFetcher writes "content of <ref>" for every node
type writeFetcher struct {
	calls []string
}

func (f *writeFetcher) Fetch(ctx context.Context, node project.Node, destPath string) error {
	f.calls = append(f.calls, node.CloudRef())
	return os.WriteFile(destPath, []byte("content of "+node.CloudRef()), 0o644)
}

// 📈 recordingSink records progress and cancels after a number of updates
type recordingSink struct {
	updates     []string
	cancelAfter int
}

func (s *recordingSink) Progress(ctx context.Context, current, total int, path string) {
	s.updates = append(s.updates, path)
}

func (s *recordingSink) CancelRequested() bool {
	return s.cancelAfter > 0 && len(s.updates) >= s.cancelAfter
}

// 📂 countingFolder counts how often it is listed
type countingFolder struct {
	name     string
	children []project.Node
	listings *atomic.Int32
	onList   func()
}

func (f *countingFolder) Name() string       { return f.name }
func (f *countingFolder) Kind() project.Kind { return project.KindFolder }
func (f *countingFolder) Extension() string  { return "" }
func (f *countingFolder) CloudRef() string   { return "" }

func (f *countingFolder) Children(ctx context.Context) ([]project.Node, error) {
	f.listings.Add(1)
	if f.onList != nil {
		f.onList()
	}
	return f.children, nil
}

// stagedFor matches the staging path a transfer of name below dir uses
func stagedFor(dir, name string) func(string) bool {
	return func(p string) bool {
		staging := filepath.Dir(p)
		return filepath.Base(p) == name &&
			filepath.Dir(staging) == dir &&
			strings.HasPrefix(filepath.Base(staging), "."+name+".") &&
			strings.HasSuffix(staging, ".partial")
	}
}

func assertNoStaging(t *testing.T, dir string) {
	t.Helper()
	leftovers, err := filepath.Glob(filepath.Join(dir, ".*.partial"))
	require.NoError(t, err)
	assert.Empty(t, leftovers, "staging folders are removed")
}

func testCtx(t *testing.T) context.Context {
	return zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
}

func run(t *testing.T, ctx context.Context, root project.Node, dest string, fetcher export.Fetcher, opts ...export.Option) (*export.Session, *export.Report) {
	t.Helper()
	sess := export.NewSession(root, dest)
	report, err := export.New(fetcher, opts...).Export(ctx, sess, walker.New(dest).Walk(ctx, root))
	require.NoError(t, err)
	return sess, report
}

func scenarioTree() project.Node {
	return project.Folder("Gearbox",
		project.Folder("A",
			project.File("part", "f3d", "ref://a/part"),
		),
		project.File("root", "txt", "ref://root"),
	)
}

func TestExportScenario(t *testing.T) {
	ctx := testCtx(t)
	dest := t.TempDir()
	fetcher := &writeFetcher{}
	sink := &recordingSink{}

	sess, report := run(t, ctx, scenarioTree(), dest, fetcher, export.WithProgress(sink))

	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.Failed)
	assert.False(t, report.Cancelled)
	assert.Equal(t, export.StateCompleted, sess.State())

	require.Len(t, report.Issues, 1)
	assert.Equal(t, "root.txt", report.Issues[0].Path)
	assert.Equal(t, export.ReasonUnsupportedExtension, report.Issues[0].Reason)

	content, err := os.ReadFile(filepath.Join(dest, "A", "part.f3d"))
	require.NoError(t, err)
	assert.Equal(t, "content of ref://a/part", string(content))

	assert.NoFileExists(t, filepath.Join(dest, "root.txt"), "unsupported files are never written")
	assertNoStaging(t, filepath.Join(dest, "A"))
	assert.Equal(t, []string{"ref://a/part"}, fetcher.calls)
	assert.Equal(t, []string{"A/part.f3d", "root.txt"}, sink.updates)
}

func TestExportNeverOverwrites(t *testing.T) {
	ctx := testCtx(t)
	dest := t.TempDir()

	existing := filepath.Join(dest, "A", "part.f3d")
	require.NoError(t, os.MkdirAll(filepath.Dir(existing), 0o755))
	require.NoError(t, os.WriteFile(existing, []byte("original bytes"), 0o644))

	fetcher := &MockFetcher{}
	_, report := run(t, ctx, scenarioTree(), dest, fetcher)

	assert.Equal(t, 0, report.Processed)
	require.Len(t, report.IssuesByReason(export.ReasonAlreadyExists), 1)
	assert.Equal(t, "A/part.f3d", report.IssuesByReason(export.ReasonAlreadyExists)[0].Path)

	content, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "original bytes", string(content))
	fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything, mock.Anything)
}

func TestExportSecondRunIsIdempotent(t *testing.T) {
	ctx := testCtx(t)
	dest := t.TempDir()
	root := project.Folder("P",
		project.File("one", "f3d", "ref://one"),
		project.Folder("sub",
			project.File("two", "F3Z", "ref://two"),
		),
	)

	_, first := run(t, ctx, root, dest, &writeFetcher{})
	require.Equal(t, 2, first.Processed)
	require.Empty(t, first.Issues)

	second := &writeFetcher{}
	_, report := run(t, ctx, root, dest, second)

	assert.Equal(t, 0, report.Processed)
	assert.Equal(t, 2, report.Skipped)
	assert.Len(t, report.IssuesByReason(export.ReasonAlreadyExists), 2)
	assert.Empty(t, second.calls)
}

func TestExportMissingCloudReference(t *testing.T) {
	ctx := testCtx(t)
	dest := t.TempDir()
	root := project.Folder("P",
		project.File("Untitled", "f3d", ""),
		project.File("saved", "f3d", "ref://saved"),
	)

	_, report := run(t, ctx, root, dest, &writeFetcher{})

	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, export.ReasonMissingCloudReference, report.Issues[0].Reason)
	assert.Equal(t, "Untitled.f3d", report.Issues[0].Path)
	assert.FileExists(t, filepath.Join(dest, "saved.f3d"))
	assert.NoFileExists(t, filepath.Join(dest, "Untitled.f3d"))
}

func TestExportCancellation(t *testing.T) {
	tests := []struct {
		name          string
		cancelAfter   int
		wantProcessed int
	}{
		{name: "after_first", cancelAfter: 1, wantProcessed: 1},
		{name: "after_third", cancelAfter: 3, wantProcessed: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testCtx(t)
			dest := t.TempDir()
			root := project.Folder("P",
				project.File("f1", "f3d", "ref://1"),
				project.File("f2", "f3d", "ref://2"),
				project.File("f3", "f3d", "ref://3"),
				project.File("f4", "f3d", "ref://4"),
				project.File("f5", "f3d", "ref://5"),
			)
			fetcher := &writeFetcher{}
			sink := &recordingSink{cancelAfter: tt.cancelAfter}

			sess, report := run(t, ctx, root, dest, fetcher, export.WithProgress(sink))

			assert.True(t, report.Cancelled)
			assert.Equal(t, export.StateCancelled, sess.State())
			assert.LessOrEqual(t, report.Processed, tt.cancelAfter)
			assert.Equal(t, tt.wantProcessed, report.Processed)
			assert.Len(t, fetcher.calls, tt.cancelAfter, "no transfer starts after cancellation")
			assert.Equal(t, 5-tt.cancelAfter, report.NotProcessed)
			assert.Len(t, report.IssuesByReason(export.ReasonCancelled), 5-tt.cancelAfter)
			assert.Equal(t, "cancelled", report.Status())
		})
	}
}

func TestExportSessionCancelBeforeStart(t *testing.T) {
	ctx := testCtx(t)
	dest := t.TempDir()
	fetcher := &MockFetcher{}

	sess := export.NewSession(scenarioTree(), dest)
	sess.Cancel()

	report, err := export.New(fetcher).Export(ctx, sess, walker.New(dest).Walk(ctx, sess.Root))
	require.NoError(t, err)

	assert.True(t, report.Cancelled)
	assert.Equal(t, 0, report.Processed)
	assert.Equal(t, 0, report.Total, "nothing is listed after cancellation")
	assert.Equal(t, 0, report.NotProcessed)
	fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything, mock.Anything)
}

func TestExportContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(testCtx(t))
	dest := t.TempDir()
	root := scenarioTree()

	tasks := walker.New(dest).Walk(context.Background(), root)
	cancel()

	fetcher := &MockFetcher{}
	report, err := export.New(fetcher).Export(ctx, export.NewSession(root, dest), tasks)
	require.NoError(t, err)

	assert.True(t, report.Cancelled)
	assert.Equal(t, 0, report.Total)
	assert.Equal(t, 0, report.NotProcessed)
	fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything, mock.Anything)
}

func TestExportWriteFailureContinues(t *testing.T) {
	ctx := testCtx(t)
	dest := t.TempDir()
	broken := project.File("broken", "f3d", "ref://broken")
	good := project.File("good", "f3d", "ref://good")
	root := project.Folder("P", broken, good)

	fetcher := &MockFetcher{}
	fetcher.On("Fetch", mock.Anything, broken, mock.MatchedBy(stagedFor(dest, "broken.f3d"))).
		Run(func(args mock.Arguments) {
			// leave a half written file behind
			require.NoError(t, os.WriteFile(args.String(2), []byte("half"), 0o644))
		}).
		Return(errors.New("export failed in host"))
	fetcher.On("Fetch", mock.Anything, good, mock.MatchedBy(stagedFor(dest, "good.f3d"))).
		Run(func(args mock.Arguments) {
			require.NoError(t, os.WriteFile(args.String(2), []byte("good"), 0o644))
		}).
		Return(nil)

	_, report := run(t, ctx, root, dest, fetcher)

	fetcher.AssertExpectations(t)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, export.ReasonWriteFailure, report.Issues[0].Reason)
	assert.Contains(t, report.Issues[0].Err.Error(), "export failed in host")

	assert.NoFileExists(t, filepath.Join(dest, "broken.f3d"))
	assertNoStaging(t, dest)
	assert.FileExists(t, filepath.Join(dest, "good.f3d"))
}

func TestExportHostWroteNothing(t *testing.T) {
	ctx := testCtx(t)
	dest := t.TempDir()
	root := project.Folder("P", project.File("ghost", "f3d", "ref://ghost"))

	fetcher := &MockFetcher{}
	fetcher.On("Fetch", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, report := run(t, ctx, root, dest, fetcher)

	require.Len(t, report.Issues, 1)
	assert.Equal(t, export.ReasonWriteFailure, report.Issues[0].Reason)
	assert.Contains(t, report.Issues[0].Err.Error(), "without writing content")
}

func TestExportParentDirectoryFailure(t *testing.T) {
	ctx := testCtx(t)
	dest := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dest, "A"), []byte("a file, not a folder"), 0o644))

	_, report := run(t, ctx, scenarioTree(), dest, &writeFetcher{})

	issues := report.IssuesByReason(export.ReasonWriteFailure)
	require.Len(t, issues, 1)
	assert.Equal(t, "A/part.f3d", issues[0].Path)
	assert.Contains(t, issues[0].Err.Error(), "creating parent directories")
}

func TestExportListingFailure(t *testing.T) {
	ctx := testCtx(t)
	dest := t.TempDir()
	root := project.Folder("P",
		project.UnlistableFolder("Locked", errors.New("access denied")),
		project.File("free", "f3d", "ref://free"),
	)

	_, report := run(t, ctx, root, dest, &writeFetcher{})

	assert.Equal(t, 1, report.Total)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, export.ReasonListingFailure, report.Issues[0].Reason)
	assert.Equal(t, "Locked", report.Issues[0].Path)
}

func TestExportUnsafeNames(t *testing.T) {
	ctx := testCtx(t)
	dest := t.TempDir()
	root := project.Folder("P",
		project.Folder("..", project.File("evil", "f3d", "ref://evil")),
	)

	_, report := run(t, ctx, root, dest, &writeFetcher{})

	require.Len(t, report.Issues, 1)
	assert.Equal(t, export.ReasonUnsafePath, report.Issues[0].Reason)
	assert.Equal(t, "..", report.Issues[0].Path)
	assert.NoFileExists(t, filepath.Join(filepath.Dir(dest), "evil.f3d"))
}

func TestExportRejectsDestinationOutsideRoot(t *testing.T) {
	ctx := testCtx(t)
	dest := t.TempDir()
	node := project.File("part", "f3d", "ref://part")

	var tasks iter.Seq2[walker.Task, error] = func(yield func(walker.Task, error) bool) {
		yield(walker.Task{Node: node, RelPath: "part.f3d", Dest: filepath.Join(t.TempDir(), "part.f3d")}, nil)
	}

	fetcher := &MockFetcher{}
	report, err := export.New(fetcher).Export(ctx, export.NewSession(project.Folder("P", node), dest), tasks)
	require.NoError(t, err)

	require.Len(t, report.Issues, 1)
	assert.Equal(t, export.ReasonUnsafePath, report.Issues[0].Reason)
	fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything, mock.Anything)
}

func TestExportCustomExtensions(t *testing.T) {
	ctx := testCtx(t)
	dest := t.TempDir()
	root := project.Folder("P",
		project.File("drawing", "PDF", "ref://drawing"),
		project.File("part", "f3d", "ref://part"),
	)

	_, report := run(t, ctx, root, dest, &writeFetcher{}, export.WithExtensions(".pdf"))

	assert.Equal(t, 1, report.Processed)
	assert.FileExists(t, filepath.Join(dest, "drawing.PDF"))
	require.Len(t, report.IssuesByReason(export.ReasonUnsupportedExtension), 1)
	assert.Equal(t, "part.f3d", report.Issues[0].Path)
}

func TestExportSessionRunsOnce(t *testing.T) {
	ctx := testCtx(t)
	dest := t.TempDir()
	root := scenarioTree()
	sess := export.NewSession(root, dest)
	exp := export.New(&writeFetcher{})

	_, err := exp.Export(ctx, sess, walker.New(dest).Walk(ctx, root))
	require.NoError(t, err)

	_, err = exp.Export(ctx, sess, walker.New(dest).Walk(ctx, root))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session is completed, not idle")
}

func TestExportKeepsForeignPartialFiles(t *testing.T) {
	ctx := testCtx(t)
	dest := t.TempDir()

	foreign := filepath.Join(dest, "A", "part.f3d.partial")
	require.NoError(t, os.MkdirAll(filepath.Dir(foreign), 0o755))
	require.NoError(t, os.WriteFile(foreign, []byte("user data"), 0o644))

	_, report := run(t, ctx, scenarioTree(), dest, &writeFetcher{})

	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, []string{"A/part.f3d"}, report.Saved)

	content, err := os.ReadFile(foreign)
	require.NoError(t, err)
	assert.Equal(t, "user data", string(content))

	content, err = os.ReadFile(filepath.Join(dest, "A", "part.f3d"))
	require.NoError(t, err)
	assert.Equal(t, "content of ref://a/part", string(content))
	assertNoStaging(t, filepath.Join(dest, "A"))
}

func TestExportDestinationAppearsDuringTransfer(t *testing.T) {
	ctx := testCtx(t)
	dest := t.TempDir()
	node := project.File("part", "f3d", "ref://part")
	root := project.Folder("P", node)
	target := filepath.Join(dest, "part.f3d")

	fetcher := &MockFetcher{}
	fetcher.On("Fetch", mock.Anything, node, mock.MatchedBy(stagedFor(dest, "part.f3d"))).
		Run(func(args mock.Arguments) {
			// someone else saves the file while the host is still sending it
			require.NoError(t, os.WriteFile(target, []byte("theirs"), 0o644))
			require.NoError(t, os.WriteFile(args.String(2), []byte("ours"), 0o644))
		}).
		Return(nil)

	_, report := run(t, ctx, root, dest, fetcher)

	fetcher.AssertExpectations(t)
	assert.Equal(t, 0, report.Processed)
	assert.Empty(t, report.Saved)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, export.ReasonAlreadyExists, report.Issues[0].Reason)

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "theirs", string(content))
	assertNoStaging(t, dest)
}

func TestExportCancelStopsListing(t *testing.T) {
	tests := []struct {
		name         string
		cancelAt     int32 // Listing that requests cancellation, 0 for before the export
		wantListings int32
	}{
		{name: "before_export", cancelAt: 0, wantListings: 0},
		{name: "while_listing", cancelAt: 3, wantListings: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testCtx(t)
			dest := t.TempDir()
			listings := &atomic.Int32{}

			sess := export.NewSession(nil, dest)
			cancelOnList := func() {
				if tt.cancelAt > 0 && listings.Load() == tt.cancelAt {
					sess.Cancel()
				}
			}

			var folders []project.Node
			for i := range 50 {
				folders = append(folders, &countingFolder{
					name:     fmt.Sprintf("f%02d", i),
					children: []project.Node{project.File("part", "f3d", fmt.Sprintf("ref://%d", i))},
					listings: listings,
					onList:   cancelOnList,
				})
			}
			root := &countingFolder{name: "P", children: folders, listings: listings, onList: cancelOnList}
			sess.Root = root

			if tt.cancelAt == 0 {
				sess.Cancel()
			}

			fetcher := &MockFetcher{}
			report, err := export.New(fetcher).Export(ctx, sess, walker.New(dest).Walk(ctx, root))
			require.NoError(t, err)

			assert.True(t, report.Cancelled)
			assert.Equal(t, tt.wantListings, listings.Load())
			assert.Equal(t, 0, report.Processed)
			assert.Equal(t, report.Total, report.NotProcessed)
			fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}
