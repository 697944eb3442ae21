package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"captioner/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var prune int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent pipeline runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *history.Store) error {
				reqCtx := requestContext(cmd)
				if prune > 0 {
					removed, err := store.PruneRuns(reqCtx, prune)
					if err != nil {
						return err
					}
					if !ctx.jsonOutput() {
						fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d runs\n", removed)
					}
				}

				runs, err := store.ListRuns(reqCtx, limit)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					views := make([]runView, 0, len(runs))
					for _, run := range runs {
						views = append(views, newRunView(run))
					}
					return writeJSON(cmd, views)
				}

				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					detail := run.SubtitlePath
					if run.LastError != "" {
						detail = run.LastError
					}
					rows = append(rows, []string{
						shortRunID(run.ID),
						run.StartedAt.Local().Format("2006-01-02 15:04:05"),
						stateLabel(run.State),
						string(run.Format),
						run.SequenceName,
						fmt.Sprint(run.CaptionCount),
						run.Duration().Round(time.Millisecond).String(),
						detail,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Started", "State", "Format", "Sequence", "Captions", "Took", "Detail"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
				))
				return nil
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show one recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *history.Store) error {
				run, err := store.GetRun(requestContext(cmd), args[0])
				if err != nil {
					return err
				}
				if run == nil {
					return fmt.Errorf("run %s not found", args[0])
				}
				view := newRunView(*run)
				if ctx.jsonOutput() {
					return writeJSON(cmd, view)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderStatusLine("Run "+shortRunID(view.ID), stateKind(run.State), stateLabel(run.State), shouldColorize(out)))
				fmt.Fprintf(out, "  Sequence:  %s\n", view.SequenceName)
				fmt.Fprintf(out, "  Format:    %s\n", view.Format)
				fmt.Fprintf(out, "  Progress:  %d%%\n", view.ProgressPercent)
				fmt.Fprintf(out, "  Captions:  %d\n", view.CaptionCount)
				if view.AudioPath != "" {
					fmt.Fprintf(out, "  Audio:     %s\n", view.AudioPath)
				}
				if view.SubtitlePath != "" {
					fmt.Fprintf(out, "  Subtitles: %s\n", view.SubtitlePath)
				}
				if view.LastError != "" {
					fmt.Fprintf(out, "  Error:     %s (%s)\n", view.LastError, view.ErrorKind)
				}
				return nil
			})
		},
	})

	cmd.Flags().IntVarP(&limit, "limit", "n", history.DefaultListLimit, "Maximum runs to list")
	cmd.Flags().IntVar(&prune, "prune", 0, "Keep only the newest N runs before listing")
	return cmd
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
