package host

import (
	"fmt"
	"strings"

	"captioner/internal/services"
)

// Format is a subtitle format the host can import.
type Format string

const (
	FormatSRT Format = "srt"
	FormatXML Format = "xml"
)

// ParseFormat normalizes and validates a subtitle format name.
func ParseFormat(value string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(value))); f {
	case FormatSRT, FormatXML:
		return f, nil
	default:
		return "", services.Wrap(services.ErrValidation, "host", "format", fmt.Sprintf("unsupported subtitle format %q (want srt or xml)", value), nil)
	}
}

// Audio export profile sent with every export request.
const (
	ExportEncoding   = "pcm"
	ExportSampleRate = 44100
	ExportBitDepth   = 16
	ExportChannels   = 2
)

// SequenceInfo is a snapshot of the active sequence. It is not kept in sync
// with the host; re-query after any host-side change.
type SequenceInfo struct {
	Name            string `json:"name"`
	DurationTicks   uint64 `json:"duration_ticks"`
	VideoTrackCount uint32 `json:"video_track_count"`
	AudioTrackCount uint32 `json:"audio_track_count"`
}

// ProjectInfo describes the open project.
type ProjectInfo struct {
	Name               string  `json:"name"`
	Path               string  `json:"path"`
	SequenceCount      uint32  `json:"sequence_count"`
	ActiveSequenceName *string `json:"active_sequence_name"`
}

// ExportArtifact is an audio file written by the host. The host owns it.
type ExportArtifact struct {
	Path string `json:"path"`
}

// ImportResult reports a completed subtitle import.
type ImportResult struct {
	Path         string `json:"path"`
	Format       Format `json:"format"`
	CaptionCount int    `json:"caption_count"`
}

// CaptionTrackResult reports the caption track count after EnsureCaptionTrack.
type CaptionTrackResult struct {
	TrackCount uint32 `json:"track_count"`
	Created    bool   `json:"created"`
}

// TrackInfo counts the tracks of the active sequence by type.
type TrackInfo struct {
	Video    uint32 `json:"video"`
	Audio    uint32 `json:"audio"`
	Captions uint32 `json:"captions"`
}

type exportParams struct {
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sampleRate"`
	BitDepth   int    `json:"bitDepth"`
	Channels   int    `json:"channels"`
}

type importParams struct {
	Path   string `json:"path"`
	Format Format `json:"format"`
}

type writeParams struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

type readParams struct {
	Path string `json:"path"`
}

type sequenceReply struct {
	Name        string `json:"name"`
	Duration    ticks  `json:"duration"`
	VideoTracks uint32 `json:"videoTracks"`
	AudioTracks uint32 `json:"audioTracks"`
}

type projectReply struct {
	Name           string  `json:"name"`
	Path           string  `json:"path"`
	Sequences      uint32  `json:"sequences"`
	ActiveSequence *string `json:"activeSequence"`
}

type pathReply struct {
	Path     string `json:"path"`
	Captions int    `json:"captions"`
}

type captionTrackReply struct {
	Tracks  uint32 `json:"tracks"`
	Created bool   `json:"created"`
}

type tracksReply struct {
	Tracks TrackInfo `json:"tracks"`
}

type readReply struct {
	Content *string `json:"content"`
}

type saveReply struct {
	Message string `json:"message"`
}
