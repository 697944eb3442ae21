package pipeline

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"captioner/internal/host"
	"captioner/internal/logging"
	"captioner/internal/services"
	"captioner/internal/subtitles"
)

// execute runs the stages in order and stops at the first failure.
func (o *Orchestrator) execute(ctx context.Context, runID string, format host.Format) error {
	audioPath, err := o.export(ctx, runID)
	if err != nil {
		return err
	}
	transcript, err := o.transcribe(ctx, runID, audioPath, format)
	if err != nil {
		return err
	}
	return o.importSubtitles(ctx, runID, transcript, format)
}

func (o *Orchestrator) export(ctx context.Context, runID string) (string, error) {
	ctx = services.WithStage(ctx, string(StateExporting))
	start := time.Now()

	if o.preflight != nil {
		if err := o.preflight(ctx); err != nil {
			return "", err
		}
	}

	hostCtx, cancel := o.hostContext(ctx)
	defer cancel()
	artifact, err := o.host.ExportSequenceAudio(hostCtx)
	if err != nil {
		return "", err
	}

	o.update(func(r *Run) { r.AudioPath = artifact.Path })
	o.transition(StateExporting, percentExported)
	logging.WithContext(ctx, o.logger).Info("audio exported",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("audio_path", artifact.Path),
		logging.Duration("stage_duration", time.Since(start)))
	o.emit(runID, percentExported, "Audio exported", StateExporting)
	return artifact.Path, nil
}

func (o *Orchestrator) transcribe(ctx context.Context, runID, audioPath string, format host.Format) ([]byte, error) {
	o.transition(StateUploading, 0)
	ctx = services.WithStage(ctx, string(StateUploading))
	audio, err := o.readFile(audioPath)
	if err != nil {
		return nil, services.Wrap(services.ErrHostOperation, "pipeline", "read audio", audioPath, err)
	}

	o.transition(StateTranscribing, 0)
	ctx = services.WithStage(ctx, string(StateTranscribing))
	logger := logging.WithContext(ctx, o.logger)
	logger.Debug("uploading audio", logging.Int("audio_bytes", len(audio)))

	start := time.Now()
	transcript, err := o.client.Transcribe(ctx, audio, filepath.Base(audioPath), string(format))
	if err != nil {
		return nil, err
	}

	count := o.inspect(ctx, transcript.Content, format)
	o.update(func(r *Run) { r.CaptionCount = count })
	o.transition(StateTranscribing, percentTranscribed)
	logger.Info("transcription complete",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("content_type", transcript.ContentType),
		logging.Int("captions", count),
		logging.Duration("stage_duration", time.Since(start)))
	o.emit(runID, percentTranscribed, "Transcription complete", StateTranscribing)
	return transcript.Content, nil
}

// inspect parses the transcript to count captions and warn about suspicious
// content. Problems here never fail the run; the host gets the text as-is.
func (o *Orchestrator) inspect(ctx context.Context, content []byte, format host.Format) int {
	logger := logging.WithContext(ctx, o.logger)
	var (
		cues []subtitles.Cue
		err  error
	)
	switch format {
	case host.FormatXML:
		_, cues, err = subtitles.ParseXML(content)
	default:
		cues, err = subtitles.ParseSRT(content)
	}
	if err != nil {
		logger.Warn("transcript did not parse", logging.Error(err))
		return 0
	}
	if issues := subtitles.Validate(cues); len(issues) > 0 {
		logging.WarnWithContext(logger, "transcript has issues", "transcript_issues",
			logging.Int("issue_count", len(issues)),
			logging.String("first_issue", issues[0]),
			logging.String(logging.FieldImpact, "captions may import incomplete"))
	}
	return len(cues)
}

func (o *Orchestrator) importSubtitles(ctx context.Context, runID string, content []byte, format host.Format) error {
	o.transition(StateImporting, 0)
	ctx = services.WithStage(ctx, string(StateImporting))
	start := time.Now()

	hostCtx, cancel := o.hostContext(ctx)
	defer cancel()

	project, err := o.host.GetProjectInfo(hostCtx)
	if err != nil {
		return err
	}
	if strings.TrimSpace(project.Path) == "" {
		return services.Wrap(services.ErrHostOperation, "pipeline", "import", "project has no path", nil)
	}
	path := host.SubtitlePath(project.Path, project.Name, format)
	o.update(func(r *Run) { r.SubtitlePath = path })

	if err := o.host.WriteTextFile(hostCtx, path, string(content)); err != nil {
		return err
	}
	result, err := o.host.ImportSubtitles(hostCtx, path, format)
	if err != nil {
		return err
	}

	o.update(func(r *Run) {
		if result.CaptionCount > 0 {
			r.CaptionCount = result.CaptionCount
		}
	})
	o.transition(StateImporting, percentImported)
	logging.WithContext(ctx, o.logger).Info("subtitles imported",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("subtitle_path", path),
		logging.Int("captions", result.CaptionCount),
		logging.Duration("stage_duration", time.Since(start)))
	o.emit(runID, percentImported, "Subtitles imported", StateImporting)
	return nil
}
