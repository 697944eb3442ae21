package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"captioner/internal/host"
	"captioner/internal/subtitles"
)

func newSequenceCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sequence",
		Short: "Show the active sequence",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withFacade(cmd, func(reqCtx context.Context, facade *host.Facade) error {
				info, err := facade.GetCurrentSequence(reqCtx)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, info)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Sequence:     %s\n", info.Name)
				fmt.Fprintf(out, "Duration:     %s\n", formatTicks(info.DurationTicks))
				fmt.Fprintf(out, "Video tracks: %d\n", info.VideoTrackCount)
				fmt.Fprintf(out, "Audio tracks: %d\n", info.AudioTrackCount)
				return nil
			})
		},
	}
}

func newTracksCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tracks",
		Short: "Count the active sequence's tracks by type",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withFacade(cmd, func(reqCtx context.Context, facade *host.Facade) error {
				tracks, err := facade.GetSequenceTracks(reqCtx)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, tracks)
				}
				rows := [][]string{
					{"Video", fmt.Sprint(tracks.Video)},
					{"Audio", fmt.Sprint(tracks.Audio)},
					{"Captions", fmt.Sprint(tracks.Captions)},
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Type", "Tracks"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
}

func newProjectCommand(ctx *commandContext) *cobra.Command {
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Show the open project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withFacade(cmd, func(reqCtx context.Context, facade *host.Facade) error {
				info, err := facade.GetProjectInfo(reqCtx)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, info)
				}
				active := "(none)"
				if info.ActiveSequenceName != nil {
					active = *info.ActiveSequenceName
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Project:         %s\n", info.Name)
				fmt.Fprintf(out, "Path:            %s\n", info.Path)
				fmt.Fprintf(out, "Sequences:       %d\n", info.SequenceCount)
				fmt.Fprintf(out, "Active sequence: %s\n", active)
				return nil
			})
		},
	}

	projectCmd.AddCommand(&cobra.Command{
		Use:   "save",
		Short: "Save the open project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withFacade(cmd, func(reqCtx context.Context, facade *host.Facade) error {
				if err := facade.SaveProject(reqCtx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Project saved")
				return nil
			})
		},
	})
	return projectCmd
}

func newCaptionsCommand(ctx *commandContext) *cobra.Command {
	captionsCmd := &cobra.Command{
		Use:   "captions",
		Short: "Caption track utilities",
	}

	captionsCmd.AddCommand(&cobra.Command{
		Use:   "ensure",
		Short: "Create a caption track on the active sequence if none exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withFacade(cmd, func(reqCtx context.Context, facade *host.Facade) error {
				result, err := facade.EnsureCaptionTrack(reqCtx)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, result)
				}
				verb := "exists"
				if result.Created {
					verb = "created"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Caption track %s (%d total)\n", verb, result.TrackCount)
				return nil
			})
		},
	})

	var importFormat string
	importCmd := &cobra.Command{
		Use:   "import <path>",
		Short: "Import a subtitle file into the active sequence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve subtitle path: %w", err)
			}
			format, err := host.ParseFormat(formatForPath(importFormat, path))
			if err != nil {
				return err
			}
			return ctx.withFacade(cmd, func(reqCtx context.Context, facade *host.Facade) error {
				result, err := facade.ImportSubtitles(reqCtx, path, format)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, result)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d captions from %s\n", result.CaptionCount, result.Path)
				return nil
			})
		},
	}
	importCmd.Flags().StringVarP(&importFormat, "format", "f", "", "Subtitle format: srt or xml (defaults to the file extension)")
	captionsCmd.AddCommand(importCmd)

	var showFormat string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Read back the project's generated subtitle file through the host",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			format, err := host.ParseFormat(formatForPath(showFormat, "."+cfg.Transcription.OutputFormat))
			if err != nil {
				return err
			}
			return ctx.withFacade(cmd, func(reqCtx context.Context, facade *host.Facade) error {
				info, err := facade.GetProjectInfo(reqCtx)
				if err != nil {
					return err
				}
				path := host.SubtitlePath(info.Path, info.Name, format)
				content, err := facade.ReadTextFile(reqCtx, path)
				if err != nil {
					return err
				}
				cues, err := parseCues([]byte(content), format)
				if err != nil {
					return err
				}
				return renderCues(cmd, path, cues, ctx.jsonOutput())
			})
		},
	}
	showCmd.Flags().StringVarP(&showFormat, "format", "f", "", "Subtitle format: srt or xml (defaults to the configured format)")
	captionsCmd.AddCommand(showCmd)

	return captionsCmd
}

// formatForPath prefers an explicit format, then the file extension.
func formatForPath(explicit, path string) string {
	if f := strings.TrimSpace(explicit); f != "" {
		return f
	}
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

func parseCues(content []byte, format host.Format) ([]subtitles.Cue, error) {
	if format == host.FormatXML {
		_, cues, err := subtitles.ParseXML(content)
		return cues, err
	}
	return subtitles.ParseSRT(content)
}

type cueView struct {
	Index int    `json:"index"`
	Start string `json:"start"`
	End   string `json:"end"`
	Text  string `json:"text"`
}

func renderCues(cmd *cobra.Command, path string, cues []subtitles.Cue, asJSON bool) error {
	views := make([]cueView, 0, len(cues))
	for i, cue := range cues {
		views = append(views, cueView{
			Index: i + 1,
			Start: subtitles.FormatTimestamp(cue.Start),
			End:   subtitles.FormatTimestamp(cue.End),
			Text:  cue.Text,
		})
	}
	if asJSON {
		return writeJSON(cmd, views)
	}
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		rows = append(rows, []string{fmt.Sprint(v.Index), v.Start, v.End, v.Text})
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%d captions)\n", path, len(cues))
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable([]string{"#", "Start", "End", "Text"}, rows, []columnAlignment{alignRight}))
	}
	return nil
}

func formatTicks(ticks uint64) string {
	seconds := float64(ticks) / subtitles.TicksPerSecond
	return (time.Duration(seconds * float64(time.Second))).Round(time.Millisecond).String()
}
