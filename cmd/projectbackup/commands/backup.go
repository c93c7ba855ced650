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
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/projectbackup/cmd/projectbackup/opts"
	"github.com/walteh/projectbackup/pkg/export"
	"github.com/walteh/projectbackup/pkg/log"
	"github.com/walteh/projectbackup/pkg/status"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/term"
)

// ErrCancelled is returned when the user stops a backup
var ErrCancelled = errors.Base("backup operation canceled by user")

// BackupOptions are the per-invocation settings of a backup
type BackupOptions struct {
	Destination string    // Overrides the configured destination
	Plain       bool      // Log progress lines instead of drawing a bar
	Out         io.Writer // Progress bar and summary table
}

// finishSink is a progress sink that wraps up once the export returns
type finishSink interface {
	export.ProgressSink
	Finish(ctx context.Context, report *export.Report)
}

func NewBackupCmd(opts *opts.RootOpts) *cobra.Command {
	var bo BackupOptions

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Back up the active project into a local folder",
		Long: `Backup copies every design file of the active project into the destination
folder, recreating the project's folder hierarchy.
It will:
1. Resolve the active project from the configured source
2. Walk its folders and files
3. Copy supported files that do not exist locally yet
4. Report skipped and failed files

Press Ctrl+C to stop after the current file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "backup").Logger().WithContext(cmd.Context())

			bo.Out = cmd.OutOrStdout()

			report, err := RunBackup(ctx, opts, bo)
			if err != nil {
				return err
			}
			if report.Cancelled {
				return ErrCancelled
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&bo.Destination, "dest", "", "destination folder (overrides the config)")
	cmd.Flags().BoolVar(&bo.Plain, "plain", false, "log progress lines instead of drawing a progress bar")

	return cmd
}

// 💾 RunBackup exports the active project and prints the outcome
func RunBackup(ctx context.Context, opts *opts.RootOpts, bo BackupOptions) (*export.Report, error) {
	cfg := opts.Config
	userLogger := opts.UserLogger

	dest, err := destination(cfg, bo.Destination)
	if err != nil {
		return nil, err
	}

	h, root, err := openProject(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, errors.Errorf("creating destination %s: %w", dest, err)
	}

	userLogger.StartProjectOperation(ctx, log.ProjectOperation{
		Name:        root.Name(),
		Source:      sourceString(cfg.Source),
		Destination: dest,
	})
	defer userLogger.EndProjectOperation(ctx)

	var sink finishSink
	if bo.Plain || !isTerminal(bo.Out) {
		sink = status.NewLogSink(nil)
	} else {
		bar := status.NewBarSink(bo.Out, fmt.Sprintf("Backing up project '%s'", root.Name()))
		defer bar.Stop()
		sink = bar
	}

	exporter := export.New(h,
		export.WithExtensions(cfg.Extensions...),
		export.WithProgress(sink),
	)
	sess := export.NewSession(root, dest)

	// The first signal asks the session to stop after the current file and
	// lists nothing more; a second one gets the default handling.
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	stopWatch := context.AfterFunc(sigCtx, func() {
		sess.Cancel()
		stop()
	})
	defer stopWatch()

	report, err := exporter.Export(sigCtx, sess, newWalker(cfg, dest).Walk(sigCtx, root))
	if err != nil {
		return nil, errors.Errorf("exporting project: %w", err)
	}

	sink.Finish(ctx, report)

	for _, saved := range report.Saved {
		userLogger.LogFileOperation(ctx, log.FileOperation{
			Path:    saved,
			Outcome: export.OutcomeProcessed.String(),
			IsSaved: true,
		})
	}
	for _, issue := range report.Issues {
		userLogger.LogFileOperation(ctx, fileOperation(issue))
	}
	userLogger.LogNewline()

	if err := status.PrintReport(bo.Out, report); err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("printing report")
	}

	switch {
	case report.Cancelled:
		userLogger.Warning("Backup operation canceled by user.")
	case !report.HasIssues():
		userLogger.Success("Backup completed successfully with no issues.")
	default:
		userLogger.Warningf("Backup completed with %d issues.", len(report.Issues))
	}

	userLogger.Infof("%d of %d files saved.", len(report.Saved), report.Total)
	if report.Failed > 0 {
		userLogger.Errorf("%d files could not be saved.", report.Failed)
	}

	if !report.Cancelled {
		userLogger.Successf("Backup of project '%s' completed. Files saved to: %s", root.Name(), dest)
	}

	zerolog.Ctx(ctx).Info().Str("session", report.SessionID).Str("report", report.String()).Msg("backup finished")

	return report, nil
}

// isTerminal reports whether w is an interactive terminal a bar can redraw on
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func fileOperation(issue export.Issue) log.FileOperation {
	outcome := issue.Reason.Outcome()
	return log.FileOperation{
		Path:        issue.Path,
		Reason:      string(issue.Reason),
		Outcome:     outcome.String(),
		IsSkipped:   outcome == export.OutcomeSkipped,
		IsCancelled: outcome == export.OutcomeNotProcessed,
		Err:         issue.Err,
	}
}
