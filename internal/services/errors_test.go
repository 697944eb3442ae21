package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"captioner/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrNetwork, "transcribing", "transcribe", "upload failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrNetwork) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"transcribing", "transcribe", "upload failed", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarkerAndDetail(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrHostOperation) {
		t.Fatalf("expected default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "operation failed") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestPreconditionMarkersShareClass(t *testing.T) {
	for _, marker := range []error{services.ErrNoProject, services.ErrNoSequence, services.ErrNoActiveSequence} {
		wrapped := services.Wrap(marker, "pipeline", "start", "", nil)
		if !errors.Is(wrapped, services.ErrPrecondition) {
			t.Fatalf("expected %v to match ErrPrecondition", marker)
		}
		if !errors.Is(wrapped, marker) {
			t.Fatalf("expected %v to match itself after wrapping", marker)
		}
	}
	if errors.Is(services.ErrNoProject, services.ErrNoSequence) {
		t.Fatal("no-project must not match no-sequence")
	}
}

func TestKindMapping(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{services.Wrap(services.ErrAlreadyRunning, "", "", "", nil), "already_running"},
		{services.Wrap(services.ErrNoSequence, "", "", "", nil), "precondition"},
		{services.Wrap(services.ErrTimeout, "", "", "", nil), "timeout"},
		{services.Wrap(services.ErrNetwork, "", "", "", nil), "network"},
		{services.Wrap(services.ErrHostBridge, "", "", "", nil), "host_bridge"},
		{services.Wrap(services.ErrHostOperation, "", "", "", nil), "host_operation"},
		{errors.New("plain"), "internal"},
	}
	for _, tc := range cases {
		if got := services.Kind(tc.err); got != tc.want {
			t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
	if services.Hint(services.ErrTimeout) == "" {
		t.Fatal("expected hint for timeout")
	}
}

func TestMessageFollowsCause(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{services.Wrap(services.ErrHostOperation, "host", "saveProject", "", errors.New("disk full")), "disk full"},
		{services.Wrap(services.ErrNetwork, "transcription", "transcribe", "HTTP 500: model unavailable", nil), "transcription: transcribe: HTTP 500: model unavailable"},
		{services.Wrap(services.ErrTimeout, "transcription", "transcribe", "", context.DeadlineExceeded), "timed out"},
		{services.Wrap(services.ErrTimeout, "bridge", "execute", "host did not reply", errors.New("deadline")), "timed out"},
		{services.ErrNoProject, "no project open"},
	}
	for _, tc := range cases {
		if got := services.Message(tc.err); got != tc.want {
			t.Fatalf("Message(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
