package pipeline_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"captioner/internal/bridge"
	"captioner/internal/host"
	"captioner/internal/hostsim"
	"captioner/internal/pipeline"
	"captioner/internal/services"
	"captioner/internal/subtitles"
	"captioner/internal/transcription"
)

const sampleSRT = "1\n00:00:00,000 --> 00:00:02,000\nHello there\n\n2\n00:00:02,000 --> 00:00:04,500\n\"Quoted\" `ticks`\n"

type fakeTranscriber struct {
	mu      sync.Mutex
	calls   int
	entered chan struct{}
	release chan struct{}
	content string
	err     error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audio []byte, filename, format string) (transcription.Transcript, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.entered != nil {
		close(f.entered)
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return transcription.Transcript{}, ctx.Err()
		}
	}
	if f.err != nil {
		return transcription.Transcript{}, f.err
	}
	return transcription.Transcript{Content: []byte(f.content), ContentType: "text/plain"}, nil
}

func (f *fakeTranscriber) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type memoryRecorder struct {
	mu   sync.Mutex
	runs []pipeline.Run
}

func (m *memoryRecorder) RecordRun(_ context.Context, run pipeline.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func newSim(t *testing.T, opts ...hostsim.Option) (*hostsim.Host, *host.Facade, string) {
	t.Helper()
	dir := t.TempDir()
	sim := hostsim.New(filepath.Join(dir, "proj.prproj"), opts...)
	return sim, host.New(bridge.New(sim), nil), dir
}

func TestGenerateRefusesWithoutSequence(t *testing.T) {
	sim, facade, _ := newSim(t, hostsim.WithoutActiveSequence(), hostsim.WithLegacyErrors())
	client := &fakeTranscriber{content: sampleSRT}
	orch := pipeline.New(facade, client)

	if _, err := orch.RefreshSequence(context.Background()); !errors.Is(err, services.ErrNoSequence) {
		t.Fatalf("expected ErrNoSequence from refresh, got %v", err)
	}
	if _, ok := orch.Sequence(); ok {
		t.Fatal("failed refresh should leave no cached sequence")
	}
	_, err := orch.Generate(context.Background(), host.FormatSRT)
	if !errors.Is(err, services.ErrPrecondition) || !errors.Is(err, services.ErrNoActiveSequence) {
		t.Fatalf("expected precondition error, got %v", err)
	}
	if sim.Calls(host.FnExportSequenceAudio) != 0 || client.Calls() != 0 {
		t.Fatal("export or transcription ran without a sequence")
	}
	if run := orch.Run(); run.State != pipeline.StateIdle {
		t.Fatalf("state = %s, want idle", run.State)
	}
}

func TestGenerateSucceeds(t *testing.T) {
	sim, facade, dir := newSim(t)
	client := &fakeTranscriber{content: sampleSRT}
	recorder := &memoryRecorder{}

	var (
		mu     sync.Mutex
		events []pipeline.Progress
	)
	orch := pipeline.New(facade, client,
		pipeline.WithRecorder(recorder),
		pipeline.WithProgress(func(p pipeline.Progress) {
			mu.Lock()
			events = append(events, p)
			mu.Unlock()
		}))

	seq, err := orch.RefreshSequence(context.Background())
	if err != nil {
		t.Fatalf("RefreshSequence: %v", err)
	}
	if cached, ok := orch.Sequence(); !ok || cached.Name != seq.Name {
		t.Fatalf("cached sequence = %+v %v, want %q", cached, ok, seq.Name)
	}
	run, err := orch.Generate(context.Background(), host.FormatSRT)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if run.State != pipeline.StateDone || run.ProgressPercent != 100 || run.LastError != "" {
		t.Fatalf("unexpected run %+v", run)
	}

	want := []uint8{0, 30, 70, 100}
	if len(events) != len(want) {
		t.Fatalf("progress events = %+v", events)
	}
	for i, p := range events {
		if p.Percent != want[i] || p.RunID != run.ID {
			t.Fatalf("event %d = %+v, want percent %d", i, p, want[i])
		}
	}

	subtitlePath := filepath.Join(dir, "proj_subtitles.srt")
	if run.SubtitlePath != subtitlePath {
		t.Fatalf("subtitle path = %s, want %s", run.SubtitlePath, subtitlePath)
	}
	written, err := os.ReadFile(subtitlePath)
	if err != nil || string(written) != sampleSRT {
		t.Fatalf("subtitle file mismatch: %q %v", written, err)
	}
	if snap := sim.Snapshot(); len(snap.Captions) != 2 || snap.CaptionTracks != 1 {
		t.Fatalf("unexpected host state %+v", snap)
	}
	if run.CaptionCount != 2 {
		t.Fatalf("caption count = %d", run.CaptionCount)
	}
	if len(recorder.runs) != 1 || recorder.runs[0].ID != run.ID {
		t.Fatalf("recorder saw %+v", recorder.runs)
	}
}

func TestGenerateTranscriptionFailureSkipsImport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "model unavailable")
	}))
	defer srv.Close()

	sim, facade, _ := newSim(t)
	orch := pipeline.New(facade, transcription.New(srv.URL))
	if _, err := orch.RefreshSequence(context.Background()); err != nil {
		t.Fatalf("RefreshSequence: %v", err)
	}
	run, err := orch.Generate(context.Background(), host.FormatSRT)
	if !errors.Is(err, services.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
	if run.State != pipeline.StateError || !strings.Contains(run.LastError, "model unavailable") {
		t.Fatalf("unexpected run %+v", run)
	}
	if run.ErrorKind != "network" || run.ProgressPercent != 30 {
		t.Fatalf("unexpected run %+v", run)
	}
	if sim.Calls(host.FnImportSubtitles) != 0 || sim.Calls(host.FnWriteTextFile) != 0 {
		t.Fatal("import ran after a transcription failure")
	}
}

func TestGenerateExportFailureKeepsHostMessage(t *testing.T) {
	_, facade, _ := newSim(t, hostsim.FailFunction(host.FnExportSequenceAudio, "Export preset missing"))
	client := &fakeTranscriber{content: sampleSRT}
	orch := pipeline.New(facade, client)
	if _, err := orch.RefreshSequence(context.Background()); err != nil {
		t.Fatalf("RefreshSequence: %v", err)
	}
	run, err := orch.Generate(context.Background(), host.FormatSRT)
	if !errors.Is(err, services.ErrHostOperation) {
		t.Fatalf("expected ErrHostOperation, got %v", err)
	}
	if run.LastError != "Export preset missing" || client.Calls() != 0 {
		t.Fatalf("unexpected run %+v (transcribe calls %d)", run, client.Calls())
	}
}

func TestConcurrentGenerateIsRejected(t *testing.T) {
	sim, facade, _ := newSim(t)
	client := &fakeTranscriber{
		content: sampleSRT,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	orch := pipeline.New(facade, client)
	if _, err := orch.RefreshSequence(context.Background()); err != nil {
		t.Fatalf("RefreshSequence: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := orch.Generate(context.Background(), host.FormatSRT)
		done <- err
	}()

	select {
	case <-client.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first run never reached transcription")
	}
	if state := orch.Run().State; state != pipeline.StateTranscribing {
		t.Fatalf("state = %s, want transcribing", state)
	}
	if _, err := orch.Generate(context.Background(), host.FormatSRT); !errors.Is(err, services.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
	if orch.Reset() {
		t.Fatal("Reset cleared an active run")
	}

	close(client.release)
	if err := <-done; err != nil {
		t.Fatalf("first run: %v", err)
	}
	if sim.Calls(host.FnExportSequenceAudio) != 1 || client.Calls() != 1 {
		t.Fatalf("export calls %d, transcribe calls %d", sim.Calls(host.FnExportSequenceAudio), client.Calls())
	}
}

func TestResetConsumesTerminalRun(t *testing.T) {
	_, facade, _ := newSim(t)
	orch := pipeline.New(facade, &fakeTranscriber{err: errors.New("boom")})
	if orch.Reset() {
		t.Fatal("Reset reported work on an idle orchestrator")
	}
	if _, err := orch.RefreshSequence(context.Background()); err != nil {
		t.Fatalf("RefreshSequence: %v", err)
	}
	first, _ := orch.Generate(context.Background(), host.FormatXML)
	if first.State != pipeline.StateError {
		t.Fatalf("state = %s, want error", first.State)
	}
	if !orch.Reset() || orch.Run().State != pipeline.StateIdle {
		t.Fatalf("Reset did not return to idle: %+v", orch.Run())
	}

	second, _ := orch.Generate(context.Background(), host.FormatXML)
	if second.ID == first.ID {
		t.Fatal("terminal run was reused")
	}
	third, _ := orch.Generate(context.Background(), host.FormatXML)
	if third.ID == second.ID || third.State != pipeline.StateError {
		t.Fatalf("starting from a terminal run did not open a new one: %+v", third)
	}
}

func TestGenerateRejectsUnknownFormat(t *testing.T) {
	sim, facade, _ := newSim(t)
	orch := pipeline.New(facade, &fakeTranscriber{})
	if _, err := orch.RefreshSequence(context.Background()); err != nil {
		t.Fatalf("RefreshSequence: %v", err)
	}
	if _, err := orch.Generate(context.Background(), host.Format("vtt")); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if sim.Calls(host.FnExportSequenceAudio) != 0 {
		t.Fatal("export ran for an invalid format")
	}
}

func TestHostTimeoutBoundsHangingHost(t *testing.T) {
	_, facade, _ := newSim(t, hostsim.HangFunction(host.FnExportSequenceAudio))
	orch := pipeline.New(facade, &fakeTranscriber{content: sampleSRT}, pipeline.WithHostTimeout(30*time.Millisecond))
	if _, err := orch.RefreshSequence(context.Background()); err != nil {
		t.Fatalf("RefreshSequence: %v", err)
	}
	run, err := orch.Generate(context.Background(), host.FormatSRT)
	if !errors.Is(err, services.ErrTimeout) || run.ErrorKind != "timeout" || run.LastError != "timed out" {
		t.Fatalf("expected timeout, got %v (%+v)", err, run)
	}
}

func TestTranscriptionTimeoutRecordsTimedOut(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	sim, facade, _ := newSim(t)
	orch := pipeline.New(facade, transcription.New(srv.URL, transcription.WithTimeout(50*time.Millisecond)))
	if _, err := orch.RefreshSequence(context.Background()); err != nil {
		t.Fatalf("RefreshSequence: %v", err)
	}
	run, err := orch.Generate(context.Background(), host.FormatSRT)
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if run.State != pipeline.StateError || run.LastError != "timed out" || run.ErrorKind != "timeout" {
		t.Fatalf("unexpected run %+v", run)
	}
	if sim.Calls(host.FnImportSubtitles) != 0 {
		t.Fatal("import ran after a timeout")
	}
}

func TestPreflightFailureStopsExport(t *testing.T) {
	sim, facade, _ := newSim(t)
	orch := pipeline.New(facade, &fakeTranscriber{content: sampleSRT},
		pipeline.WithPreflight(func(context.Context) error {
			return services.Wrap(services.ErrPrecondition, "preflight", "free space", "disk nearly full", nil)
		}))
	if _, err := orch.RefreshSequence(context.Background()); err != nil {
		t.Fatalf("RefreshSequence: %v", err)
	}
	run, err := orch.Generate(context.Background(), host.FormatSRT)
	if !errors.Is(err, services.ErrPrecondition) || run.State != pipeline.StateError {
		t.Fatalf("unexpected result %v %+v", err, run)
	}
	if sim.Calls(host.FnExportSequenceAudio) != 0 {
		t.Fatal("export ran after preflight failure")
	}
}

func TestXMLRunImportsThroughTemporarySequence(t *testing.T) {
	sim, facade, dir := newSim(t)
	doc, err := subtitles.FormatXML([]subtitles.Cue{
		{Start: 0, End: 2 * time.Second, Text: "Hello"},
		{Start: 2 * time.Second, End: 3 * time.Second, Text: "World"},
	}, "")
	if err != nil {
		t.Fatalf("FormatXML: %v", err)
	}
	orch := pipeline.New(facade, &fakeTranscriber{content: string(doc)})
	if _, err := orch.RefreshSequence(context.Background()); err != nil {
		t.Fatalf("RefreshSequence: %v", err)
	}
	run, err := orch.Generate(context.Background(), host.FormatXML)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if run.SubtitlePath != filepath.Join(dir, "proj_subtitles.xml") || run.CaptionCount != 2 {
		t.Fatalf("unexpected run %+v", run)
	}
	snap := sim.Snapshot()
	if snap.SequenceCount != 1 || len(snap.Captions) != 2 || snap.Captions[0].Text != "Hello" {
		t.Fatalf("unexpected host state %+v", snap)
	}
}
