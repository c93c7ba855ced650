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

package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gitlab.com/tozd/go/errors"
)

// 🏷️ Defaults applied by Validate
const (
	DefaultCompany  = "walteh"
	DefaultAddIn    = "ProjectBackup"
	DefaultTokenEnv = "GITHUB_TOKEN"
)

// DefaultExtensions are the design file types exported when none are
// configured
var DefaultExtensions = []string{"f3d", "f3z"}

// 🧩 AddIn identifies the add-in the backup command belongs to
type AddIn struct {
	Company string `json:"company,omitempty" yaml:"company,omitempty" hcl:"company,optional" toml:"company,omitempty"`
	Name    string `json:"name,omitempty" yaml:"name,omitempty" hcl:"name,optional" toml:"name,omitempty"`
}

// CommandID returns the identifier of the backup command
func (a AddIn) CommandID() string {
	return fmt.Sprintf("%s_%s_backup_project", a.Company, a.Name)
}

// 📦 Source selects the host that owns the project
type Source struct {
	Provider string `json:"provider" yaml:"provider" hcl:"provider" toml:"provider"`                                            // localdir, manifest or github
	Path     string `json:"path,omitempty" yaml:"path,omitempty" hcl:"path,optional" toml:"path,omitempty"`                     // Directory, manifest file or path in repo
	Repo     string `json:"repo,omitempty" yaml:"repo,omitempty" hcl:"repo,optional" toml:"repo,omitempty"`                     // owner/name, github only
	Ref      string `json:"ref,omitempty" yaml:"ref,omitempty" hcl:"ref,optional" toml:"ref,omitempty"`                         // Branch or tag, github only; empty for the default branch
	TokenEnv string `json:"token_env,omitempty" yaml:"token_env,omitempty" hcl:"token_env,optional" toml:"token_env,omitempty"` // Env var holding the token, github only

	RateLimit float64 `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty" hcl:"rate_limit,optional" toml:"rate_limit,omitempty"` // API requests per second, 0 for no limit, github only
}

// 📚 Config represents the complete configuration
type Config struct {
	AddIn       *AddIn   `json:"addin,omitempty" yaml:"addin,omitempty" hcl:"addin,block" toml:"addin,omitempty"`
	Source      Source   `json:"source" yaml:"source" hcl:"source,block" toml:"source"`
	Destination string   `json:"destination,omitempty" yaml:"destination,omitempty" hcl:"destination,optional" toml:"destination,omitempty"`
	Extensions  []string `json:"extensions,omitempty" yaml:"extensions,omitempty" hcl:"extensions,optional" toml:"extensions,omitempty"`
	Exclude     []string `json:"exclude,omitempty" yaml:"exclude,omitempty" hcl:"exclude,optional" toml:"exclude,omitempty"`

	location string
}

// Location returns the file the config was loaded from
func (cfg *Config) Location() string {
	return cfg.location
}

// Resolve makes a relative path relative to the directory of the config file
func (cfg *Config) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || cfg.location == "" {
		return path
	}
	return filepath.Join(filepath.Dir(cfg.location), path)
}

// 🔍 Validate checks the configuration and fills in defaults
func (cfg *Config) Validate() error {
	switch cfg.Source.Provider {
	case "":
		return errors.Errorf("source.provider is required")
	case "localdir", "manifest":
		if cfg.Source.Path == "" {
			return errors.Errorf("source.path is required for provider %s", cfg.Source.Provider)
		}
		cfg.Source.Path = filepath.Clean(cfg.Source.Path)
	case "github":
		if cfg.Source.Repo == "" {
			return errors.Errorf("source.repo is required for provider github")
		}
		if len(strings.Split(cfg.Source.Repo, "/")) < 2 {
			return errors.Errorf("source.repo must look like owner/name, got %q", cfg.Source.Repo)
		}
		if cfg.Source.TokenEnv == "" {
			cfg.Source.TokenEnv = DefaultTokenEnv
		}
		cfg.Source.Path = strings.Trim(cfg.Source.Path, "/")
		if cfg.Source.RateLimit < 0 {
			return errors.Errorf("source.rate_limit must not be negative")
		}
	}

	if cfg.AddIn == nil {
		cfg.AddIn = &AddIn{}
	}
	if cfg.AddIn.Company == "" {
		cfg.AddIn.Company = DefaultCompany
	}
	if cfg.AddIn.Name == "" {
		cfg.AddIn.Name = DefaultAddIn
	}

	if cfg.Destination != "" {
		cfg.Destination = filepath.Clean(cfg.Destination)
	}

	if len(cfg.Extensions) == 0 {
		cfg.Extensions = append([]string(nil), DefaultExtensions...)
	}
	for i, ext := range cfg.Extensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext == "" {
			return errors.Errorf("extensions[%d] is empty", i)
		}
		cfg.Extensions[i] = ext
	}

	for _, pattern := range cfg.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return errors.Errorf("invalid exclude pattern %q", pattern)
		}
	}

	return nil
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	src := cfg.Source.Path
	if cfg.Source.Provider == "github" {
		ref := cfg.Source.Ref
		if ref == "" {
			ref = "default-branch"
		}
		src = fmt.Sprintf("%s@%s:%s", cfg.Source.Repo, ref, cfg.Source.Path)
	}
	return fmt.Sprintf("%s:%s -> %s", cfg.Source.Provider, src, cfg.Destination)
}
