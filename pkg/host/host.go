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

package host

import (
	"context"
	"sort"
	"strings"

	"github.com/walteh/projectbackup/pkg/config"
	"github.com/walteh/projectbackup/pkg/project"
	"gitlab.com/tozd/go/errors"
)

// 🔌 Host owns a project tree and can transfer file content to local disk
type Host interface {
	// 🏷️ Name returns the provider name (e.g. "github")
	Name() string

	// 📂 ActiveProject returns the root folder of the project to back up
	ActiveProject(ctx context.Context) (project.Node, error)

	// 📥 Fetch writes the content of a file node to destPath, which must not
	// exist yet
	Fetch(ctx context.Context, node project.Node, destPath string) error
}

// 🏭 Factory creates a host from the configured source
type Factory func(ctx context.Context, src config.Source) (Host, error)

var (
	// 🗺️ factories is a map of provider names to factories
	factories = make(map[string]Factory)
)

// 📝 Register registers a host factory
func Register(name string, factory Factory) {
	factories[name] = factory
}

// 🎯 New creates the host named by src.Provider
func New(ctx context.Context, src config.Source) (Host, error) {
	factory, ok := factories[src.Provider]
	if !ok {
		options := make([]string, 0, len(factories))
		for k := range factories {
			options = append(options, k)
		}
		sort.Strings(options)
		return nil, errors.Errorf("provider %s not found, options: %s", src.Provider, strings.Join(options, ", "))
	}

	h, err := factory(ctx, src)
	if err != nil {
		return nil, errors.Errorf("creating %s host: %w", src.Provider, err)
	}
	return h, nil
}
