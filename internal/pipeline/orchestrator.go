package pipeline

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"captioner/internal/host"
	"captioner/internal/logging"
	"captioner/internal/services"
)

// Orchestrator drives pipeline runs. Create one per host connection and
// share it; it is safe for concurrent use.
type Orchestrator struct {
	host        Host
	client      Transcriber
	logger      *slog.Logger
	progress    func(Progress)
	recorders   []Recorder
	readFile    func(string) ([]byte, error)
	preflight   func(context.Context) error
	hostTimeout time.Duration

	mu       sync.Mutex
	run      Run
	sequence *host.SequenceInfo
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithProgress registers a progress callback. It is called outside the
// orchestrator lock, in order, from the goroutine running Generate.
func WithProgress(fn func(Progress)) Option {
	return func(o *Orchestrator) { o.progress = fn }
}

// WithRecorder adds a recorder for finished runs. Recorders run in
// registration order; their failures are logged and otherwise ignored.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.recorders = append(o.recorders, r)
		}
	}
}

// WithReadFile replaces the function used to read the exported audio.
func WithReadFile(fn func(string) ([]byte, error)) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.readFile = fn
		}
	}
}

// WithPreflight runs fn before the export step. A failure ends the run.
func WithPreflight(fn func(context.Context) error) Option {
	return func(o *Orchestrator) { o.preflight = fn }
}

// WithHostTimeout bounds each host step. Zero leaves host waits bounded only
// by the caller's context.
func WithHostTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.hostTimeout = d }
}

// New constructs an Orchestrator.
func New(h Host, client Transcriber, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		host:     h,
		client:   client,
		readFile: os.ReadFile,
		run:      Run{State: StateIdle},
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = logging.NewComponentLogger(o.logger, "pipeline")
	return o
}

// RefreshSequence queries the active sequence and caches it. A failure
// clears the cache.
func (o *Orchestrator) RefreshSequence(ctx context.Context) (host.SequenceInfo, error) {
	hostCtx, cancel := o.hostContext(ctx)
	defer cancel()
	info, err := o.host.GetCurrentSequence(hostCtx)

	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		o.sequence = nil
		return host.SequenceInfo{}, err
	}
	o.sequence = &info
	return info, nil
}

// Sequence returns the cached sequence, if any.
func (o *Orchestrator) Sequence() (host.SequenceInfo, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.sequence == nil {
		return host.SequenceInfo{}, false
	}
	return *o.sequence, true
}

// Run returns a snapshot of the current run record.
func (o *Orchestrator) Run() Run {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.run
}

// Reset consumes a finished run, returning the orchestrator to idle. It
// reports whether anything was reset; active and idle runs are left alone.
func (o *Orchestrator) Reset() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.run.State.Terminal() {
		return false
	}
	o.run = Run{State: StateIdle}
	return true
}

// Generate runs the full pipeline for the cached sequence. It returns the
// finished run and the first failure, if any.
func (o *Orchestrator) Generate(ctx context.Context, format host.Format) (Run, error) {
	format, err := host.ParseFormat(string(format))
	if err != nil {
		return o.Run(), err
	}

	run, err := o.begin(format)
	if err != nil {
		return o.Run(), err
	}

	ctx = services.WithRunID(ctx, run.ID)
	logger := logging.WithContext(ctx, o.logger)
	logger.Info("pipeline started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("format", string(format)),
		logging.String("sequence", run.SequenceName))
	o.emit(run.ID, percentStart, "Exporting audio", StateExporting)

	err = o.execute(ctx, run.ID, format)
	return o.finish(ctx, err), err
}

// begin applies the start guard and opens a new run record.
func (o *Orchestrator) begin(format host.Format) (Run, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.run.State.Active() {
		return Run{}, services.Wrap(services.ErrAlreadyRunning, "pipeline", "generate", "run "+shortID(o.run.ID)+" is "+string(o.run.State), nil)
	}
	if o.sequence == nil {
		return Run{}, services.Wrap(services.ErrNoActiveSequence, "pipeline", "generate", "refresh the sequence first", nil)
	}
	o.run = Run{
		ID:           uuid.NewString(),
		State:        StateExporting,
		StartedAt:    time.Now(),
		Format:       format,
		SequenceName: o.sequence.Name,
	}
	return o.run, nil
}

func (o *Orchestrator) finish(ctx context.Context, runErr error) Run {
	o.mu.Lock()
	o.run.FinishedAt = time.Now()
	if runErr != nil {
		o.run.State = StateError
		o.run.LastError = services.Message(runErr)
		o.run.ErrorKind = services.Kind(runErr)
	} else {
		o.run.State = StateDone
		o.run.ProgressPercent = percentImported
	}
	run := o.run
	o.mu.Unlock()

	logger := logging.WithContext(ctx, o.logger)
	if runErr != nil {
		logging.ErrorWithContext(logger, "pipeline failed", "run_failed",
			append(logging.ErrorAttrs(runErr),
				logging.String("last_error", run.LastError),
				logging.Duration("run_duration", run.Duration()))...)
	} else {
		logger.Info("pipeline completed",
			logging.String(logging.FieldEventType, "run_complete"),
			logging.String("subtitle_path", run.SubtitlePath),
			logging.Int("captions", run.CaptionCount),
			logging.Duration("run_duration", run.Duration()))
	}

	for _, recorder := range o.recorders {
		if err := recorder.RecordRun(context.WithoutCancel(ctx), run); err != nil {
			logger.Warn("failed to record run", logging.Error(err))
		}
	}
	return run
}

// transition moves the active run to state and optionally advances progress.
func (o *Orchestrator) transition(state State, percent uint8) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.run.State = state
	if percent > o.run.ProgressPercent {
		o.run.ProgressPercent = percent
	}
}

func (o *Orchestrator) update(fn func(*Run)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fn(&o.run)
}

func (o *Orchestrator) emit(runID string, percent uint8, message string, state State) {
	if o.progress == nil {
		return
	}
	o.progress(Progress{RunID: runID, Percent: percent, Message: message, State: state})
}

func (o *Orchestrator) hostContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.hostTimeout > 0 {
		return context.WithTimeout(ctx, o.hostTimeout)
	}
	return context.WithCancel(ctx)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
