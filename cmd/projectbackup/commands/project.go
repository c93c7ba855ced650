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

package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/walteh/projectbackup/pkg/config"
	"github.com/walteh/projectbackup/pkg/host"
	"github.com/walteh/projectbackup/pkg/project"
	"github.com/walteh/projectbackup/pkg/walker"
	"gitlab.com/tozd/go/errors"

	_ "github.com/walteh/projectbackup/pkg/host/github"
	_ "github.com/walteh/projectbackup/pkg/host/localdir"
	_ "github.com/walteh/projectbackup/pkg/host/manifest"
)

// openProject creates the configured host and resolves its active project
func openProject(ctx context.Context, cfg *config.Config) (host.Host, project.Node, error) {
	src := cfg.Source
	if src.Provider != "github" {
		src.Path = cfg.Resolve(src.Path)
	}

	h, err := host.New(ctx, src)
	if err != nil {
		return nil, nil, errors.Errorf("creating host: %w", err)
	}

	root, err := h.ActiveProject(ctx)
	if err != nil {
		return nil, nil, errors.Errorf("active project not found: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("host", h.Name()).Str("project", root.Name()).Msg("active project identified")

	return h, root, nil
}

// destination picks the backup folder: the flag wins over the config
func destination(cfg *config.Config, override string) (string, error) {
	dest := override
	if dest == "" {
		dest = cfg.Resolve(cfg.Destination)
	}
	if dest == "" {
		return "", errors.Errorf("no destination: set destination in the config or pass --dest")
	}

	abs, err := filepath.Abs(dest)
	if err != nil {
		return "", errors.Errorf("getting absolute destination path: %w", err)
	}
	return abs, nil
}

func newWalker(cfg *config.Config, dest string) *walker.Walker {
	return walker.New(dest, walker.WithExclude(cfg.Exclude...))
}

func sourceString(src config.Source) string {
	if src.Provider == "github" {
		return fmt.Sprintf("github:%s@%s", src.Repo, src.Ref)
	}
	return fmt.Sprintf("%s:%s", src.Provider, src.Path)
}
