package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"captioner/internal/preflight"
	"captioner/internal/services"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the state directory, host transport, and transcription service",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.loggerValue()
			if err != nil {
				return err
			}
			cfg := ctx.configValue()
			results := preflight.RunAll(requestContext(cmd), cfg, ctx.newClient(logger))
			failed := preflight.Failed(results)

			if ctx.jsonOutput() {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				fmt.Fprintf(out, "Host transport: %s\n", cfg.Host.Transport)
				fmt.Fprintf(out, "Endpoint:       %s\n", cfg.Transcription.APIEndpoint)
				for _, r := range results {
					kind := statusOK
					if !r.Passed {
						kind = statusError
					}
					fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
				}
			}

			if len(failed) > 0 {
				names := make([]string, 0, len(failed))
				for _, r := range failed {
					names = append(names, r.Name)
				}
				return services.Wrap(services.ErrPrecondition, "cli", "health", "failed checks: "+strings.Join(names, ", "), nil)
			}
			return nil
		},
	}
}

func newModelsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the transcription service's models",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.loggerValue()
			if err != nil {
				return err
			}
			models, err := ctx.newClient(logger).ListModels(requestContext(cmd))
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, models)
			}
			rows := make([][]string, 0, len(models.AvailableModels))
			for _, name := range models.AvailableModels {
				rows = append(rows, []string{name, yesNo(name == models.CurrentModel)})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Current model: %s (faster-whisper: %s)\n", models.CurrentModel, yesNo(models.FasterWhisper))
			if len(rows) > 0 {
				fmt.Fprintln(out, renderTable([]string{"Model", "Current"}, rows, nil))
			}
			return nil
		},
	}
}
