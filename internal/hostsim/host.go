package hostsim

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"captioner/internal/host"
	"captioner/internal/logging"
)

// ticksPerSecond matches the editor timebase.
const ticksPerSecond = 254016000000

// Host simulates the host dispatcher.
type Host struct {
	mu        sync.Mutex
	project   *Project
	failures  map[string]string
	hangs     map[string]bool
	calls     map[string]int
	legacy    bool
	copyLimit int
	logger    *slog.Logger
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) { h.logger = logger }
}

// WithoutProject starts with no open project.
func WithoutProject() Option {
	return func(h *Host) { h.project = nil }
}

// WithoutActiveSequence opens the project with no active sequence.
func WithoutActiveSequence() Option {
	return func(h *Host) {
		if h.project != nil {
			h.project.Active = -1
		}
	}
}

// WithCaptionTrack starts the active sequence with one empty caption track.
func WithCaptionTrack() Option {
	return func(h *Host) {
		if seq := h.project.activeSequence(); seq != nil && len(seq.CaptionTracks) == 0 {
			seq.CaptionTracks = append(seq.CaptionTracks, &CaptionTrack{})
		}
	}
}

// FailFunction makes function reply success:false with message.
func FailFunction(function, message string) Option {
	return func(h *Host) { h.failures[function] = message }
}

// HangFunction makes function block until the caller's context ends.
func HangFunction(function string) Option {
	return func(h *Host) { h.hangs[function] = true }
}

// WithLegacyErrors reports missing projects and sequences through the
// "Error:" channel with the original host messages instead of coded envelopes.
func WithLegacyErrors() Option {
	return func(h *Host) { h.legacy = true }
}

// FailCaptionCopyAfter makes XML imports fail after n captions are copied.
func FailCaptionCopyAfter(n int) Option {
	return func(h *Host) { h.copyLimit = n }
}

// New creates a simulated host with an open project at projectPath (the
// project file; its directory receives exported artifacts) and one active
// sequence.
func New(projectPath string, opts ...Option) *Host {
	name := filepath.Base(projectPath)
	h := &Host{
		project: &Project{
			Name: name,
			Path: projectPath,
			Sequences: []*Sequence{{
				Name:          "Sequence 01",
				DurationTicks: 60 * ticksPerSecond,
				VideoTracks:   3,
				AudioTracks:   4,
			}},
			Active: 0,
		},
		failures:  make(map[string]string),
		hangs:     make(map[string]bool),
		calls:     make(map[string]int),
		copyLimit: -1,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = logging.NewComponentLogger(h.logger, "hostsim")
	return h
}

// Calls reports how many times function was dispatched.
func (h *Host) Calls(function string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls[function]
}

// Snapshot copies the simulated state.
func (h *Host) Snapshot() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.project == nil {
		return Snapshot{}
	}
	snap := Snapshot{ProjectOpen: true, SequenceCount: len(h.project.Sequences), Saves: h.project.Saves}
	if seq := h.project.activeSequence(); seq != nil {
		snap.ActiveSequence = seq.Name
		snap.CaptionTracks = len(seq.CaptionTracks)
		if len(seq.CaptionTracks) > 0 {
			snap.Captions = append([]Caption(nil), seq.CaptionTracks[0].Captions...)
		}
	}
	return snap
}

// Eval implements the bridge Evaluator contract.
func (h *Host) Eval(ctx context.Context, script string) (string, error) {
	function, params, err := host.ParseCommand(script)
	if err != nil {
		return "Error: " + err.Error(), nil
	}

	h.mu.Lock()
	h.calls[function]++
	hang := h.hangs[function]
	message, failing := h.failures[function]
	h.mu.Unlock()

	logging.WithContext(ctx, h.logger).Debug("dispatch", logging.String("function", function))

	if hang {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if failing {
		return failureReply(message, ""), nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	reply, err := h.dispatch(function, params)
	if err != nil {
		if le, ok := err.(legacyError); ok {
			return "Error: " + string(le), nil
		}
		return "", err
	}
	return reply, nil
}

type handler func(h *Host, params json.RawMessage) (map[string]any, *failure)

type failure struct {
	message string
	code    string
}

type legacyError string

func (e legacyError) Error() string { return string(e) }

var handlers = map[string]handler{
	host.FnGetCurrentSequence:  (*Host).getCurrentSequence,
	host.FnExportSequenceAudio: (*Host).exportSequenceAudio,
	host.FnImportSubtitles:     (*Host).importSubtitles,
	host.FnEnsureCaptionTrack:  (*Host).ensureCaptionTrack,
	host.FnGetProjectInfo:      (*Host).getProjectInfo,
	host.FnSaveProject:         (*Host).saveProject,
	host.FnGetSequenceTracks:   (*Host).getSequenceTracks,
	host.FnWriteTextFile:       (*Host).writeTextFile,
	host.FnReadTextFile:        (*Host).readTextFile,
}

func (h *Host) dispatch(function string, params json.RawMessage) (string, error) {
	fn, ok := handlers[function]
	if !ok {
		return failureReply("unknown function: "+function, host.CodeUnknownFunction), nil
	}
	fields, fail := fn(h, params)
	if fail != nil {
		if h.legacy && (fail.code == host.CodeNoProject || fail.code == host.CodeNoSequence) {
			return "", legacyError(fail.message)
		}
		return failureReply(fail.message, fail.code), nil
	}
	if fields == nil {
		fields = map[string]any{}
	}
	fields["success"] = true
	data, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("encode reply: %w", err)
	}
	return string(data), nil
}

func failureReply(message, code string) string {
	env := map[string]any{"success": false, "error": message}
	if code != "" {
		env["code"] = code
	}
	data, _ := json.Marshal(env)
	return string(data)
}

func (h *Host) noProject() *failure {
	if h.legacy {
		return &failure{message: "Proje bulunamadı", code: host.CodeNoProject}
	}
	return &failure{message: "No project is open", code: host.CodeNoProject}
}

func (h *Host) noSequence() *failure {
	if h.legacy {
		return &failure{message: "Aktif sequence bulunamadı", code: host.CodeNoSequence}
	}
	return &failure{message: "No active sequence", code: host.CodeNoSequence}
}

func (h *Host) requireSequence() (*Sequence, *failure) {
	if h.project == nil {
		return nil, h.noProject()
	}
	seq := h.project.activeSequence()
	if seq == nil {
		return nil, h.noSequence()
	}
	return seq, nil
}

func decodeParams(params json.RawMessage, dst any) *failure {
	if err := json.Unmarshal(params, dst); err != nil {
		return &failure{message: "invalid params: " + err.Error(), code: host.CodeInvalidParams}
	}
	return nil
}

func invalidParams(format string, args ...any) *failure {
	return &failure{message: fmt.Sprintf(format, args...), code: host.CodeInvalidParams}
}

func trimmed(s string) string { return strings.TrimSpace(s) }
