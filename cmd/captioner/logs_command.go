package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"captioner/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines  int
		follow bool
		raw    bool
		filter logs.Filter
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the captioner log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ctx.configValue().LogFilePath()
			out := cmd.OutOrStdout()
			emit := func(line string) {
				printLogLine(out, line, filter, raw)
			}

			recent, offset, err := logs.Tail(path, lines)
			if err != nil {
				return err
			}
			for _, line := range recent {
				emit(line)
			}
			if !follow {
				return nil
			}
			return logs.Follow(cmd.Context(), path, offset, logs.DefaultPollInterval, emit)
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print lines exactly as written")
	cmd.Flags().StringVar(&filter.RunID, "run", "", "Only show lines for this run ID (prefix)")
	cmd.Flags().StringVar(&filter.Component, "component", "", "Only show lines from this component")
	cmd.Flags().StringVar(&filter.MinLevel, "level", "", "Minimum level: debug, info, warn, error")
	return cmd
}

func printLogLine(out io.Writer, line string, filter logs.Filter, raw bool) {
	evt, ok := logs.ParseLine(line)
	if !ok {
		if raw {
			fmt.Fprintln(out, line)
		}
		return
	}
	if !filter.Match(evt) {
		return
	}
	if raw {
		fmt.Fprintln(out, line)
		return
	}
	fmt.Fprintln(out, logs.Format(evt))
}
