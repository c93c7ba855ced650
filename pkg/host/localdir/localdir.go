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

// Package localdir serves a directory on disk as a project, typically a
// folder kept in sync by a cloud drive client.
package localdir

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/projectbackup/pkg/config"
	"github.com/walteh/projectbackup/pkg/host"
	"github.com/walteh/projectbackup/pkg/project"
	"gitlab.com/tozd/go/errors"
)

func init() {
	host.Register("localdir", func(ctx context.Context, src config.Source) (host.Host, error) {
		return New(src.Path)
	})
}

// 🗂️ Host serves the directory tree below root
type Host struct {
	root string
}

var _ host.Host = (*Host)(nil)

// 🏭 New creates a host for the directory at root
func New(root string) (*Host, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Errorf("resolving project directory: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, errors.Errorf("opening project directory: %w", err)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("project path %s is not a directory", abs)
	}

	return &Host{root: abs}, nil
}

func (h *Host) Name() string { return "localdir" }

// ActiveProject implements host.Host.ActiveProject
func (h *Host) ActiveProject(ctx context.Context) (project.Node, error) {
	return &node{path: h.root, name: filepath.Base(h.root), kind: project.KindFolder}, nil
}

// Fetch implements host.Host.Fetch by copying the file the node refers to
func (h *Host) Fetch(ctx context.Context, n project.Node, destPath string) error {
	src := n.CloudRef()
	if src == "" {
		return errors.Errorf("node %s has no content reference", n.Name())
	}
	if !strings.HasPrefix(src, h.root+string(filepath.Separator)) {
		return errors.Errorf("node %s refers outside the project directory", n.Name())
	}

	zerolog.Ctx(ctx).Debug().Str("src", src).Str("dest", destPath).Msg("copying file")

	return host.CopyFile(src, destPath)
}

// node is a directory entry
type node struct {
	path string
	name string
	ext  string
	kind project.Kind
}

func (n *node) Name() string       { return n.name }
func (n *node) Kind() project.Kind { return n.kind }
func (n *node) Extension() string  { return n.ext }

func (n *node) CloudRef() string {
	if n.kind != project.KindFile {
		return ""
	}
	return n.path
}

// Children lists the directory in name order; symlinks and special files are
// left out
func (n *node) Children(ctx context.Context) ([]project.Node, error) {
	if n.kind != project.KindFolder {
		return nil, errors.Errorf("listing %s: not a folder", n.name)
	}

	entries, err := os.ReadDir(n.path)
	if err != nil {
		return nil, errors.Errorf("reading directory: %w", err)
	}

	children := make([]project.Node, 0, len(entries))
	for _, entry := range entries {
		full := filepath.Join(n.path, entry.Name())
		switch {
		case entry.IsDir():
			children = append(children, &node{path: full, name: entry.Name(), kind: project.KindFolder})
		case entry.Type().IsRegular():
			ext := filepath.Ext(entry.Name())
			children = append(children, &node{
				path: full,
				name: strings.TrimSuffix(entry.Name(), ext),
				ext:  strings.TrimPrefix(ext, "."),
				kind: project.KindFile,
			})
		default:
			zerolog.Ctx(ctx).Debug().Str("path", full).Msg("skipping non regular file")
		}
	}

	return children, nil
}
