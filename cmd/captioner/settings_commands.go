package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"captioner/internal/history"
)

func newSettingsCommand(ctx *commandContext) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the persisted transcription settings",
	}
	settingsCmd.AddCommand(newSettingsShowCommand(ctx))
	settingsCmd.AddCommand(newSettingsSetCommand(ctx))
	return settingsCmd
}

type settingsView struct {
	APIEndpoint  string `json:"apiEndpoint"`
	OutputFormat string `json:"outputFormat"`
	Persisted    bool   `json:"persisted"`
}

func newSettingsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective transcription settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *history.Store) error {
				_, persisted, err := store.LoadSettings(requestContext(cmd))
				if err != nil {
					return err
				}
				effective := history.SettingsFromConfig(ctx.configValue())
				view := settingsView{APIEndpoint: effective.APIEndpoint, OutputFormat: effective.OutputFormat, Persisted: persisted}
				if ctx.jsonOutput() {
					return writeJSON(cmd, view)
				}
				source := "configuration file"
				if persisted {
					source = "saved settings"
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "API endpoint:  %s\n", view.APIEndpoint)
				fmt.Fprintf(out, "Output format: %s\n", view.OutputFormat)
				fmt.Fprintf(out, "Source:        %s\n", source)
				return nil
			})
		},
	}
}

func newSettingsSetCommand(ctx *commandContext) *cobra.Command {
	var endpoint string
	var format string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Persist transcription settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("endpoint") && !cmd.Flags().Changed("format") {
				return fmt.Errorf("nothing to set: pass --endpoint and/or --format")
			}
			return ctx.withStore(func(store *history.Store) error {
				cfg := ctx.configValue()
				settings := history.SettingsFromConfig(cfg)
				if cmd.Flags().Changed("endpoint") {
					settings.APIEndpoint = endpoint
				}
				if cmd.Flags().Changed("format") {
					settings.OutputFormat = format
				}
				if err := store.SaveSettings(requestContext(cmd), settings); err != nil {
					return err
				}
				saved, _, err := store.LoadSettings(requestContext(cmd))
				if err != nil {
					return err
				}
				saved.Apply(cfg)

				if ctx.jsonOutput() {
					return writeJSON(cmd, settingsView{APIEndpoint: saved.APIEndpoint, OutputFormat: saved.OutputFormat, Persisted: true})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved settings: endpoint %s, format %s\n", saved.APIEndpoint, saved.OutputFormat)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Transcription service base URL")
	cmd.Flags().StringVar(&format, "format", "", "Default subtitle format: srt or xml")
	return cmd
}
