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

package github

import (
	"context"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/google/go-github/v60/github"
	"github.com/rs/zerolog"
	"github.com/walteh/projectbackup/pkg/config"
	"github.com/walteh/projectbackup/pkg/host"
	"github.com/walteh/projectbackup/pkg/project"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/time/rate"
)

func init() {
	host.Register("github", func(ctx context.Context, src config.Source) (host.Host, error) {
		opts := []Option{WithRef(src.Ref), WithPath(src.Path), WithRateLimit(src.RateLimit)}
		if token := os.Getenv(src.TokenEnv); token != "" {
			opts = append(opts, WithToken(token))
		} else {
			zerolog.Ctx(ctx).Warn().Str("env", src.TokenEnv).Msg("no token set, only public repositories are reachable")
		}
		return New(src.Repo, opts...)
	})
}

// 🎯 Host serves a folder of a GitHub repository as a project
type Host struct {
	client     *github.Client
	httpClient *http.Client
	owner      string
	repo       string
	ref        string
	path       string
	limiter    *rate.Limiter
}

var _ host.Host = (*Host)(nil)

// Option configures a Host
type Option func(*Host)

// WithRef selects the branch, tag or commit; the default branch when empty
func WithRef(ref string) Option {
	return func(h *Host) { h.ref = ref }
}

// WithPath selects the folder inside the repository that is the project root
func WithPath(p string) Option {
	return func(h *Host) { h.path = strings.Trim(p, "/") }
}

// WithToken authenticates API calls
func WithToken(token string) Option {
	return func(h *Host) { h.client = h.client.WithAuthToken(token) }
}

// WithRateLimit caps contents API calls per second; 0 means no limit
func WithRateLimit(perSecond float64) Option {
	return func(h *Host) {
		if perSecond > 0 {
			h.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithClients replaces the API client and the client used for downloads
func WithClients(client *github.Client, httpClient *http.Client) Option {
	return func(h *Host) {
		h.client = client
		h.httpClient = httpClient
	}
}

// 🏭 New creates a host for repo (owner/name or github.com/owner/name)
func New(repo string, opts ...Option) (*Host, error) {
	owner, name, err := parseRepo(repo)
	if err != nil {
		return nil, errors.Errorf("parsing repo: %w", err)
	}

	h := &Host{
		client:     github.NewClient(nil),
		httpClient: http.DefaultClient,
		owner:      owner,
		repo:       name,
		limiter:    rate.NewLimiter(rate.Inf, 0),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// 🔍 parseRepo parses a GitHub repository reference
func parseRepo(repo string) (owner, name string, err error) {
	parts := strings.Split(strings.Trim(repo, "/"), "/")
	if len(parts) < 2 || parts[len(parts)-2] == "" || parts[len(parts)-1] == "" {
		return "", "", errors.Errorf("invalid repository format: %s", repo)
	}

	return parts[len(parts)-2], parts[len(parts)-1], nil
}

func (h *Host) Name() string { return "github" }

// 📂 ActiveProject checks the repository is reachable and returns the root
// folder
func (h *Host) ActiveProject(ctx context.Context) (project.Node, error) {
	repo, _, err := h.client.Repositories.Get(ctx, h.owner, h.repo)
	if err != nil {
		return nil, errors.Errorf("getting repository %s/%s: %w", h.owner, h.repo, err)
	}

	if h.ref == "" {
		h.ref = repo.GetDefaultBranch()
	}

	name := repo.GetName()
	if h.path != "" {
		name = path.Base(h.path)
	}

	zerolog.Ctx(ctx).Debug().
		Str("repo", repo.GetFullName()).
		Str("ref", h.ref).
		Str("path", h.path).
		Msg("resolved project repository")

	return &node{host: h, path: h.path, name: name, kind: project.KindFolder}, nil
}

// 📥 Fetch downloads the raw content of a file node
func (h *Host) Fetch(ctx context.Context, n project.Node, destPath string) error {
	url := n.CloudRef()
	if url == "" {
		return errors.Errorf("node %s has no download url", n.Name())
	}

	zerolog.Ctx(ctx).Debug().Str("url", url).Str("dest", destPath).Msg("downloading file")

	return host.DownloadTo(ctx, h.httpClient, url, destPath)
}

// node is an entry of the contents API
type node struct {
	host        *Host
	path        string
	name        string
	ext         string
	kind        project.Kind
	downloadURL string
}

func (n *node) Name() string       { return n.name }
func (n *node) Kind() project.Kind { return n.kind }
func (n *node) Extension() string  { return n.ext }
func (n *node) CloudRef() string   { return n.downloadURL }

// 📂 Children lists a directory through the contents API
func (n *node) Children(ctx context.Context) ([]project.Node, error) {
	if n.kind != project.KindFolder {
		return nil, errors.Errorf("listing %s: not a folder", n.name)
	}

	h := n.host
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, errors.Errorf("waiting for rate limit: %w", err)
	}

	file, entries, _, err := h.client.Repositories.GetContents(ctx, h.owner, h.repo, n.path, &github.RepositoryContentGetOptions{
		Ref: h.ref,
	})
	if err != nil {
		return nil, errors.Errorf("getting contents of %q: %w", n.path, err)
	}
	if file != nil {
		return nil, errors.Errorf("listing %s: path is a file", n.path)
	}

	children := make([]project.Node, 0, len(entries))
	for _, entry := range entries {
		switch entry.GetType() {
		case "dir":
			children = append(children, &node{
				host: h,
				path: entry.GetPath(),
				name: entry.GetName(),
				kind: project.KindFolder,
			})
		case "file":
			ext := path.Ext(entry.GetName())
			children = append(children, &node{
				host:        h,
				path:        entry.GetPath(),
				name:        strings.TrimSuffix(entry.GetName(), ext),
				ext:         strings.TrimPrefix(ext, "."),
				kind:        project.KindFile,
				downloadURL: entry.GetDownloadURL(),
			})
		default:
			zerolog.Ctx(ctx).Debug().Str("path", entry.GetPath()).Str("type", entry.GetType()).Msg("skipping entry")
		}
	}

	return children, nil
}
