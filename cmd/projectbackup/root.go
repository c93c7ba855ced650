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

package main

import (
	"context"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/projectbackup/cmd/projectbackup/commands"
	"github.com/walteh/projectbackup/cmd/projectbackup/opts"
	"github.com/walteh/projectbackup/pkg/config"
	"github.com/walteh/projectbackup/pkg/log"
	"gitlab.com/tozd/go/errors"
)

// skipConfig marks commands that run without a config file
const skipConfig = "skip-config"

type rootFlags struct {
	configFile string
	debug      bool
}

func newRootCmd(stderr io.Writer) *cobra.Command {
	flags := &rootFlags{}
	rootOpts := &opts.RootOpts{}

	rootCmd := &cobra.Command{
		Use:   "projectbackup",
		Short: "Back up cloud design projects into a local folder",
		Long: `projectbackup copies the design files of a project into a local folder,
preserving the project's folder hierarchy. Files that already exist locally
are never overwritten.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx := setupLogging(cmd.Context(), stderr, flags.debug)
			cmd.SetContext(ctx)

			if cmd.Annotations[skipConfig] == "true" {
				return nil
			}

			return loadRootOpts(ctx, flags, rootOpts, stderr)
		},
	}

	addRootFlags(rootCmd, flags)

	rootCmd.AddCommand(
		commands.NewBackupCmd(rootOpts),
		commands.NewTreeCmd(rootOpts),
		newVersionCmd(),
	)

	return rootCmd
}

func addRootFlags(cmd *cobra.Command, flags *rootFlags) {
	cmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", ".projectbackup.yaml", "config file path")
	cmd.PersistentFlags().BoolVarP(&flags.debug, "debug", "d", false, "enable debug logging")
}

func loadRootOpts(ctx context.Context, flags *rootFlags, rootOpts *opts.RootOpts, stderr io.Writer) error {
	cfg, err := config.Load(ctx, flags.configFile)
	if err != nil {
		return errors.Errorf("loading config: %w", err)
	}

	mirror := zerolog.Nop()
	if flags.debug {
		mirror = *zerolog.Ctx(ctx)
	}

	rootOpts.Config = cfg
	rootOpts.UserLogger = log.NewWithZerolog(stderr, mirror)

	return nil
}

func setupLogging(ctx context.Context, w io.Writer, debug bool) context.Context {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: w}).Level(level).With().Timestamp().Logger()
	return logger.WithContext(ctx)
}
