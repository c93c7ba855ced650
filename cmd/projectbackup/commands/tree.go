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
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/projectbackup/cmd/projectbackup/opts"
	"github.com/walteh/projectbackup/pkg/export"
	"github.com/walteh/projectbackup/pkg/status"
	"gitlab.com/tozd/go/errors"
)

func NewTreeCmd(opts *opts.RootOpts) *cobra.Command {
	var dest string

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show the project tree and what a backup would do",
		Long: `Tree walks the active project without writing anything and prints its
files as a tree, followed by the destination path of every file a backup
would copy.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "tree").Logger().WithContext(cmd.Context())
			return RunTree(ctx, opts, dest, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&dest, "dest", "", "destination folder (overrides the config)")

	return cmd
}

// 🌳 RunTree prints the project tree and the planned copies to out
func RunTree(ctx context.Context, opts *opts.RootOpts, destOverride string, out io.Writer) error {
	cfg := opts.Config

	dest, err := destination(cfg, destOverride)
	if err != nil {
		return err
	}

	_, root, err := openProject(ctx, cfg)
	if err != nil {
		return err
	}

	opts.UserLogger.Header(fmt.Sprintf("planning backup of '%s' to %s", root.Name(), dest))

	extensions := make(map[string]struct{}, len(cfg.Extensions))
	for _, ext := range cfg.Extensions {
		extensions[export.NormalizeExtension(ext)] = struct{}{}
	}

	var entries []status.TreeEntry
	var planned []string
	files := 0
	for task, err := range newWalker(cfg, dest).Walk(ctx, root) {
		if err != nil {
			entries = append(entries, status.TreeEntry{RelPath: task.RelPath, Note: err.Error()})
			continue
		}

		files++
		entry := status.TreeEntry{RelPath: task.RelPath}
		if _, ok := extensions[export.NormalizeExtension(task.Node.Extension())]; !ok {
			entry.Note = "unsupported"
		} else {
			planned = append(planned, task.Dest)
		}
		entries = append(entries, entry)
	}
	if err := ctx.Err(); err != nil {
		return errors.Errorf("walking project: %w", err)
	}

	tree, err := status.RenderTree(root.Name(), entries)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, tree)

	fmt.Fprintf(out, "%d of %d files would be copied to %s\n", len(planned), files, dest)
	for _, p := range planned {
		fmt.Fprintf(out, "  %s\n", p)
	}

	return nil
}
