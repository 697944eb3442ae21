package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"captioner/internal/history"
	"captioner/internal/host"
	"captioner/internal/notifications"
	"captioner/internal/pipeline"
	"captioner/internal/preflight"
	"captioner/internal/runlock"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var formatFlag string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Export, transcribe, and import captions for the active sequence",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			format := strings.TrimSpace(formatFlag)
			if format == "" {
				format = cfg.Transcription.OutputFormat
			}
			parsed, err := host.ParseFormat(format)
			if err != nil {
				return err
			}

			lock, err := runlock.Acquire(cfg.LockPath())
			if err != nil {
				return err
			}
			defer lock.Release()

			logger, err := ctx.loggerValue()
			if err != nil {
				return err
			}
			facade, err := ctx.newFacade(logger)
			if err != nil {
				return err
			}

			return ctx.withStore(func(store *history.Store) error {
				out := cmd.OutOrStdout()
				view := newProgressView(cmd.ErrOrStderr(), shouldColorize(cmd.ErrOrStderr()), ctx.jsonOutput())
				orch := pipeline.New(facade, ctx.newClient(logger),
					pipeline.WithLogger(logger),
					pipeline.WithRecorder(store),
					pipeline.WithRecorder(notifications.NewService(cfg)),
					pipeline.WithProgress(view.update),
					pipeline.WithHostTimeout(cfg.HostCommandTimeout()),
					pipeline.WithPreflight(freeSpacePreflight(facade, cfg.Host.MinFreeSpaceMegabytes)),
				)

				runCtx := requestContext(cmd)
				if _, err := orch.RefreshSequence(runCtx); err != nil {
					return err
				}
				run, runErr := orch.Generate(runCtx, parsed)
				view.finish(run)

				if ctx.jsonOutput() {
					if err := writeJSON(cmd, newRunView(run)); err != nil {
						return err
					}
					return runErr
				}
				if runErr != nil {
					return runErr
				}
				fmt.Fprintf(out, "Imported %d captions into %q\n", run.CaptionCount, run.SequenceName)
				fmt.Fprintf(out, "Subtitle file: %s\n", run.SubtitlePath)
				fmt.Fprintf(out, "Completed in %s\n", run.Duration().Round(time.Millisecond))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&formatFlag, "format", "f", "", "Subtitle format: srt or xml (defaults to the configured format)")
	return cmd
}

// freeSpacePreflight checks the project directory before the host writes the
// audio export. It is disabled when minMegabytes is zero.
func freeSpacePreflight(facade *host.Facade, minMegabytes int) func(context.Context) error {
	if minMegabytes <= 0 {
		return nil
	}
	return func(ctx context.Context) error {
		info, err := facade.GetProjectInfo(ctx)
		if err != nil {
			return err
		}
		return preflight.RequireFreeSpace(nearestExistingDir(host.ProjectDir(info.Path)), minMegabytes)
	}
}

func nearestExistingDir(dir string) string {
	for {
		if _, err := os.Stat(dir); err == nil || !errors.Is(err, fs.ErrNotExist) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}

type runView struct {
	ID              string `json:"id"`
	State           string `json:"state"`
	ProgressPercent uint8  `json:"progress_percent"`
	Format          string `json:"format"`
	SequenceName    string `json:"sequence_name"`
	AudioPath       string `json:"audio_path,omitempty"`
	SubtitlePath    string `json:"subtitle_path,omitempty"`
	CaptionCount    int    `json:"caption_count"`
	LastError       string `json:"last_error,omitempty"`
	ErrorKind       string `json:"error_kind,omitempty"`
	StartedAt       string `json:"started_at,omitempty"`
	FinishedAt      string `json:"finished_at,omitempty"`
	DurationMillis  int64  `json:"duration_ms"`
}

func newRunView(run pipeline.Run) runView {
	view := runView{
		ID:              run.ID,
		State:           string(run.State),
		ProgressPercent: run.ProgressPercent,
		Format:          string(run.Format),
		SequenceName:    run.SequenceName,
		AudioPath:       run.AudioPath,
		SubtitlePath:    run.SubtitlePath,
		CaptionCount:    run.CaptionCount,
		LastError:       run.LastError,
		ErrorKind:       run.ErrorKind,
		DurationMillis:  run.Duration().Milliseconds(),
	}
	if !run.StartedAt.IsZero() {
		view.StartedAt = run.StartedAt.UTC().Format(time.RFC3339)
	}
	if !run.FinishedAt.IsZero() {
		view.FinishedAt = run.FinishedAt.UTC().Format(time.RFC3339)
	}
	return view
}
