package main

import (
	"bytes"
	"strings"
	"testing"

	"captioner/internal/pipeline"
)

func TestStateLabel(t *testing.T) {
	cases := map[pipeline.State]string{
		"":                         "Idle",
		pipeline.StateTranscribing: "Transcribing",
		pipeline.StateDone:         "Done",
	}
	for state, want := range cases {
		if got := stateLabel(state); got != want {
			t.Fatalf("stateLabel(%q) = %q, want %q", state, got, want)
		}
	}
}

func TestRenderStatusLine(t *testing.T) {
	line := renderStatusLine("Transcription", statusError, "unreachable", false)
	if !strings.Contains(line, "Transcription:") || !strings.HasSuffix(line, "[ERROR] unreachable") {
		t.Fatalf("unexpected line %q", line)
	}
	colored := renderStatusLine("Transcription", statusOK, "", true)
	if !strings.HasPrefix(colored, ansiGreen) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected colour codes, got %q", colored)
	}
	if shouldColorize(&bytes.Buffer{}) {
		t.Fatal("buffers are never terminals")
	}
}

func TestProgressViewPrintsLinesWhenNotInteractive(t *testing.T) {
	var buf bytes.Buffer
	view := newProgressView(&buf, false, false)
	view.update(pipeline.Progress{Percent: 30, Message: "Audio exported"})
	view.update(pipeline.Progress{Percent: 100, Message: "Captions imported"})
	view.finish(pipeline.Run{State: pipeline.StateDone})

	want := "[ 30%] Audio exported\n[100%] Captions imported\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}

	var quiet bytes.Buffer
	view = newProgressView(&quiet, false, true)
	view.update(pipeline.Progress{Percent: 30, Message: "Audio exported"})
	if quiet.Len() != 0 {
		t.Fatalf("quiet view wrote %q", quiet.String())
	}
}

func TestFormatForPath(t *testing.T) {
	if got := formatForPath("", "/tmp/a.SRT"); got != "srt" {
		t.Fatalf("got %q", got)
	}
	if got := formatForPath("xml", "/tmp/a.srt"); got != "xml" {
		t.Fatalf("got %q", got)
	}
}
