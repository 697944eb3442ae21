package pipeline

import (
	"context"
	"time"

	"captioner/internal/host"
	"captioner/internal/transcription"
)

// State is a pipeline run state.
type State string

const (
	StateIdle         State = "idle"
	StateExporting    State = "exporting"
	StateUploading    State = "uploading"
	StateTranscribing State = "transcribing"
	StateImporting    State = "importing"
	StateDone         State = "done"
	StateError        State = "error"
)

// Active reports whether a run in this state is still doing work.
func (s State) Active() bool {
	switch s {
	case StateExporting, StateUploading, StateTranscribing, StateImporting:
		return true
	default:
		return false
	}
}

// Terminal reports whether the state ends a run.
func (s State) Terminal() bool {
	return s == StateDone || s == StateError
}

// Run is a snapshot of the current or last pipeline run.
type Run struct {
	ID              string
	State           State
	ProgressPercent uint8
	LastError       string
	ErrorKind       string
	StartedAt       time.Time
	FinishedAt      time.Time
	Format          host.Format
	SequenceName    string
	AudioPath       string
	SubtitlePath    string
	CaptionCount    int
}

// Duration reports how long a finished run took.
func (r Run) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Progress is an advisory progress event.
type Progress struct {
	RunID   string
	Percent uint8
	Message string
	State   State
}

// Progress checkpoints.
const (
	percentStart       uint8 = 0
	percentExported    uint8 = 30
	percentTranscribed uint8 = 70
	percentImported    uint8 = 100
)

// Host is the subset of *host.Facade the pipeline drives.
type Host interface {
	GetCurrentSequence(ctx context.Context) (host.SequenceInfo, error)
	ExportSequenceAudio(ctx context.Context) (host.ExportArtifact, error)
	GetProjectInfo(ctx context.Context) (host.ProjectInfo, error)
	WriteTextFile(ctx context.Context, path, content string) error
	ImportSubtitles(ctx context.Context, path string, format host.Format) (host.ImportResult, error)
}

// Transcriber is satisfied by *transcription.Client.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename, format string) (transcription.Transcript, error)
}

// Recorder receives every finished run.
type Recorder interface {
	RecordRun(ctx context.Context, run Run) error
}
