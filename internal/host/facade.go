package host

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"captioner/internal/logging"
	"captioner/internal/services"
)

// Executor sends a command to the host and returns the raw reply. It is
// satisfied by *bridge.Bridge.
type Executor interface {
	Execute(ctx context.Context, command string) (string, error)
}

// Facade provides typed host operations.
type Facade struct {
	exec   Executor
	logger *slog.Logger
}

// New constructs a Facade over the given executor.
func New(exec Executor, logger *slog.Logger) *Facade {
	return &Facade{exec: exec, logger: logging.NewComponentLogger(logger, "host")}
}

// call runs one dispatcher function and decodes the successful reply into T.
func call[T any](ctx context.Context, f *Facade, function string, params any) (T, error) {
	var out T
	command, err := BuildCommand(function, params)
	if err != nil {
		return out, services.Wrap(services.ErrHostOperation, "host", function, "encode command", err)
	}

	logger := logging.WithContext(ctx, f.logger).With(logging.String("function", function))
	start := time.Now()
	reply, err := f.exec.Execute(ctx, command)
	if err != nil {
		err = bridgeFailure(function, err)
		logger.Debug("host call rejected", logging.Duration("elapsed", time.Since(start)), logging.Error(err))
		return out, err
	}

	raw, err := decodeEnvelope(function, reply)
	if err != nil {
		logger.Debug("host call failed", logging.Duration("elapsed", time.Since(start)), logging.Error(err))
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, services.Wrap(services.ErrHostOperation, "host", function, "decode reply fields", err)
	}
	logger.Debug("host call succeeded", logging.Duration("elapsed", time.Since(start)))
	return out, nil
}

// GetCurrentSequence queries the active sequence.
func (f *Facade) GetCurrentSequence(ctx context.Context) (SequenceInfo, error) {
	reply, err := call[sequenceReply](ctx, f, FnGetCurrentSequence, nil)
	if err != nil {
		return SequenceInfo{}, err
	}
	return SequenceInfo{
		Name:            reply.Name,
		DurationTicks:   uint64(reply.Duration),
		VideoTrackCount: reply.VideoTracks,
		AudioTrackCount: reply.AudioTracks,
	}, nil
}

// ExportSequenceAudio bounces the active sequence to a WAV file next to the
// project using the fixed export profile.
func (f *Facade) ExportSequenceAudio(ctx context.Context) (ExportArtifact, error) {
	reply, err := call[pathReply](ctx, f, FnExportSequenceAudio, exportParams{
		Encoding:   ExportEncoding,
		SampleRate: ExportSampleRate,
		BitDepth:   ExportBitDepth,
		Channels:   ExportChannels,
	})
	if err != nil {
		return ExportArtifact{}, err
	}
	if reply.Path == "" {
		return ExportArtifact{}, services.Wrap(services.ErrHostOperation, "host", FnExportSequenceAudio, "reply missing path", nil)
	}
	return ExportArtifact{Path: reply.Path}, nil
}

// ImportSubtitles imports the subtitle file at path into the active sequence.
// SRT files go straight onto the caption track. XML files are imported as a
// temporary sequence whose captions are copied over before it is removed.
func (f *Facade) ImportSubtitles(ctx context.Context, path string, format Format) (ImportResult, error) {
	format, err := ParseFormat(string(format))
	if err != nil {
		return ImportResult{}, err
	}
	if path == "" {
		return ImportResult{}, services.Wrap(services.ErrValidation, "host", FnImportSubtitles, "subtitle path required", nil)
	}
	reply, err := call[pathReply](ctx, f, FnImportSubtitles, importParams{Path: path, Format: format})
	if err != nil {
		return ImportResult{}, err
	}
	if reply.Path == "" {
		reply.Path = path
	}
	return ImportResult{Path: reply.Path, Format: format, CaptionCount: reply.Captions}, nil
}

// EnsureCaptionTrack creates a caption track when none exists. Calling it
// again leaves the track count unchanged.
func (f *Facade) EnsureCaptionTrack(ctx context.Context) (CaptionTrackResult, error) {
	reply, err := call[captionTrackReply](ctx, f, FnEnsureCaptionTrack, nil)
	if err != nil {
		return CaptionTrackResult{}, err
	}
	return CaptionTrackResult{TrackCount: reply.Tracks, Created: reply.Created}, nil
}

// GetProjectInfo describes the open project.
func (f *Facade) GetProjectInfo(ctx context.Context) (ProjectInfo, error) {
	reply, err := call[projectReply](ctx, f, FnGetProjectInfo, nil)
	if err != nil {
		return ProjectInfo{}, err
	}
	return ProjectInfo{
		Name:               reply.Name,
		Path:               reply.Path,
		SequenceCount:      reply.Sequences,
		ActiveSequenceName: reply.ActiveSequence,
	}, nil
}

// SaveProject saves the open project.
func (f *Facade) SaveProject(ctx context.Context) error {
	reply, err := call[saveReply](ctx, f, FnSaveProject, nil)
	if err != nil {
		return err
	}
	logging.WithContext(ctx, f.logger).Info("project saved", logging.String("host_message", reply.Message))
	return nil
}

// GetSequenceTracks counts the active sequence's tracks by type.
func (f *Facade) GetSequenceTracks(ctx context.Context) (TrackInfo, error) {
	reply, err := call[tracksReply](ctx, f, FnGetSequenceTracks, nil)
	if err != nil {
		return TrackInfo{}, err
	}
	return reply.Tracks, nil
}

// WriteTextFile asks the host to write content to path verbatim.
func (f *Facade) WriteTextFile(ctx context.Context, path, content string) error {
	if path == "" {
		return services.Wrap(services.ErrValidation, "host", FnWriteTextFile, "path required", nil)
	}
	_, err := call[pathReply](ctx, f, FnWriteTextFile, writeParams{Path: path, Content: content})
	return err
}

// ReadTextFile asks the host to read the file at path.
func (f *Facade) ReadTextFile(ctx context.Context, path string) (string, error) {
	if path == "" {
		return "", services.Wrap(services.ErrValidation, "host", FnReadTextFile, "path required", nil)
	}
	reply, err := call[readReply](ctx, f, FnReadTextFile, readParams{Path: path})
	if err != nil {
		return "", err
	}
	if reply.Content == nil {
		return "", services.Wrap(services.ErrHostOperation, "host", FnReadTextFile, "reply missing content", nil)
	}
	return *reply.Content, nil
}
