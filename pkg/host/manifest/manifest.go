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

package manifest

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/walteh/projectbackup/pkg/config"
	"github.com/walteh/projectbackup/pkg/host"
	"github.com/walteh/projectbackup/pkg/project"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

func init() {
	host.Register("manifest", func(ctx context.Context, src config.Source) (host.Host, error) {
		return Load(ctx, src.Path)
	})
}

// 📜 Manifest is a YAML snapshot of a project tree
type Manifest struct {
	Project string `yaml:"project"`
	Items   []Item `yaml:"items"`
}

// 📄 Item is a folder or a file in the manifest.
//
// An item with items (or kind folder) is a folder. Ref is an http(s) URL or
// a path relative to the manifest; files without a ref are unsaved
// documents. Error marks a folder the snapshot could not list.
type Item struct {
	Name      string `yaml:"name"`
	Kind      string `yaml:"kind,omitempty"`
	Extension string `yaml:"extension,omitempty"`
	Ref       string `yaml:"ref,omitempty"`
	Error     string `yaml:"error,omitempty"`
	Items     []Item `yaml:"items,omitempty"`
}

func (i Item) isFolder() bool {
	switch i.Kind {
	case "folder":
		return true
	case "file":
		return false
	default:
		return i.Items != nil || i.Error != ""
	}
}

// 🌐 Host serves a project described by a manifest
type Host struct {
	root   *project.MemoryNode
	client *http.Client
}

var _ host.Host = (*Host)(nil)

// Option configures a Host
type Option func(*Host)

// WithHTTPClient sets the client used for http(s) refs
func WithHTTPClient(client *http.Client) Option {
	return func(h *Host) {
		h.client = client
	}
}

// 🏭 Load reads a manifest file; relative refs resolve against its directory
func Load(ctx context.Context, path string, opts ...Option) (*Host, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading manifest: %w", err)
	}

	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, errors.Errorf("resolving manifest directory: %w", err)
	}

	return Parse(ctx, data, abs, opts...)
}

// 📝 Parse decodes a manifest; relative refs resolve against baseDir
func Parse(ctx context.Context, data []byte, baseDir string, opts ...Option) (*Host, error) {
	var m Manifest
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&m); err != nil {
		return nil, errors.Errorf("parsing manifest: %w", err)
	}
	if m.Project == "" {
		return nil, errors.Errorf("manifest has no project name")
	}

	root, err := build(project.Folder(m.Project), m.Items, baseDir)
	if err != nil {
		return nil, err
	}

	h := &Host{root: root, client: http.DefaultClient}
	for _, opt := range opts {
		opt(h)
	}

	zerolog.Ctx(ctx).Debug().Str("project", m.Project).Msg("manifest loaded")

	return h, nil
}

func build(folder *project.MemoryNode, items []Item, baseDir string) (*project.MemoryNode, error) {
	for _, item := range items {
		if item.Name == "" {
			return nil, errors.Errorf("item in %s has no name", folder.Name())
		}

		if !item.isFolder() {
			folder.Add(project.File(item.Name, item.Extension, resolveRef(item.Ref, baseDir)))
			continue
		}

		if item.Error != "" {
			folder.Add(project.UnlistableFolder(item.Name, errors.New(item.Error)))
			continue
		}

		child, err := build(project.Folder(item.Name), item.Items, baseDir)
		if err != nil {
			return nil, err
		}
		folder.Add(child)
	}
	return folder, nil
}

func resolveRef(ref, baseDir string) string {
	if ref == "" || isURL(ref) || filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(baseDir, filepath.FromSlash(ref))
}

func isURL(ref string) bool {
	u, err := url.Parse(ref)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

func (h *Host) Name() string { return "manifest" }

// ActiveProject implements host.Host.ActiveProject
func (h *Host) ActiveProject(ctx context.Context) (project.Node, error) {
	return h.root, nil
}

// Fetch implements host.Host.Fetch, downloading URLs and copying paths
func (h *Host) Fetch(ctx context.Context, n project.Node, destPath string) error {
	ref := n.CloudRef()
	if ref == "" {
		return errors.Errorf("node %s has no content reference", n.Name())
	}

	logger := zerolog.Ctx(ctx)

	if isURL(ref) {
		logger.Debug().Str("url", ref).Str("dest", destPath).Msg("downloading file")
		return host.DownloadTo(ctx, h.client, ref, destPath)
	}

	logger.Debug().Str("src", ref).Str("dest", destPath).Msg("copying file")
	return host.CopyFile(ref, destPath)
}
