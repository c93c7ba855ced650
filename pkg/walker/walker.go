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

package walker

import (
	"context"
	"fmt"
	"iter"
	"path"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/walteh/projectbackup/pkg/project"
)

// 📦 Task is one file to export: where it lives in the project and where it
// goes on disk
type Task struct {
	Node    project.Node // Source node
	RelPath string       // Slash separated path below the project root
	Dest    string       // Destination root joined with RelPath
}

// 🚫 ListingError reports a folder whose children could not be listed
type ListingError struct {
	Path string
	Err  error
}

func (e *ListingError) Error() string {
	return fmt.Sprintf("listing %q: %v", displayPath(e.Path), e.Err)
}

func (e *ListingError) Unwrap() error {
	return e.Err
}

// ⚠️ UnsafePathError reports a node whose name cannot be used as a path
// segment below the destination root
type UnsafePathError struct {
	Path string
	Name string
}

func (e *UnsafePathError) Error() string {
	return fmt.Sprintf("unsafe name %q under %q", e.Name, displayPath(e.Path))
}

// 🚶 Walker enumerates the files of a project tree
type Walker struct {
	destRoot string
	exclude  []string
}

// Option configures a Walker
type Option func(*Walker)

// WithExclude skips files matching any of the doublestar patterns and does
// not descend into matching folders
func WithExclude(patterns ...string) Option {
	return func(w *Walker) {
		w.exclude = append(w.exclude, patterns...)
	}
}

// 🏭 New creates a walker that maps tasks below destRoot
func New(destRoot string, opts ...Option) *Walker {
	w := &Walker{
		destRoot: filepath.Clean(destRoot),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// DestRoot returns the destination root tasks are mapped below
func (w *Walker) DestRoot() string {
	return w.destRoot
}

// 🔄 Walk lazily yields one task per file below root, depth first, in the
// order the host lists children.
//
// A folder that cannot be listed yields its own path together with a
// *ListingError and the walk continues with its siblings. A node whose name
// would escape the destination yields an *UnsafePathError. Every call starts
// over from root; the returned sequence is single pass.
func (w *Walker) Walk(ctx context.Context, root project.Node) iter.Seq2[Task, error] {
	return func(yield func(Task, error) bool) {
		w.walk(ctx, root, "", yield)
	}
}

// walk returns false once the consumer stops
func (w *Walker) walk(ctx context.Context, folder project.Node, rel string, yield func(Task, error) bool) bool {
	logger := zerolog.Ctx(ctx)

	if ctx.Err() != nil {
		return false
	}

	children, err := folder.Children(ctx)
	if err != nil {
		logger.Debug().Err(err).Str("folder", displayPath(rel)).Msg("folder listing failed")
		return yield(w.task(folder, rel), &ListingError{Path: rel, Err: err})
	}

	for _, child := range children {
		switch child.Kind() {
		case project.KindFolder:
			name := child.Name()
			if !safeSegment(name) {
				if !yield(w.task(child, rel), &UnsafePathError{Path: rel, Name: name}) {
					return false
				}
				continue
			}
			childRel := path.Join(rel, name)
			if w.excluded(ctx, childRel) {
				continue
			}
			if !w.walk(ctx, child, childRel, yield) {
				return false
			}
		case project.KindFile:
			name := SanitizeFileName(project.FileName(child))
			if !safeSegment(name) {
				if !yield(w.task(child, rel), &UnsafePathError{Path: rel, Name: name}) {
					return false
				}
				continue
			}
			childRel := path.Join(rel, name)
			if w.excluded(ctx, childRel) {
				continue
			}
			if !yield(w.task(child, childRel), nil) {
				return false
			}
		default:
			logger.Debug().Str("name", child.Name()).Str("folder", displayPath(rel)).Msg("skipping node of unknown kind")
		}
	}

	return true
}

func (w *Walker) task(n project.Node, rel string) Task {
	return Task{
		Node:    n,
		RelPath: rel,
		Dest:    filepath.Join(w.destRoot, filepath.FromSlash(rel)),
	}
}

// 🔍 excluded checks if a path matches an exclude pattern
func (w *Walker) excluded(ctx context.Context, rel string) bool {
	logger := zerolog.Ctx(ctx)
	for _, pattern := range w.exclude {
		matched, err := doublestar.Match(pattern, rel)
		if err != nil {
			logger.Debug().Str("pattern", pattern).Str("path", rel).Err(err).Msg("error matching pattern")
			continue
		}
		if matched {
			logger.Debug().Str("path", rel).Str("pattern", pattern).Msg("path excluded by pattern")
			return true
		}
	}
	return false
}

func displayPath(rel string) string {
	if rel == "" {
		return "."
	}
	return rel
}
