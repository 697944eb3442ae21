package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"captioner/internal/config"
	"captioner/internal/notifications"
	"captioner/internal/pipeline"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newNtfyServer(t *testing.T, status int) (*httptest.Server, func() []captured) {
	t.Helper()
	var (
		mu   sync.Mutex
		seen []captured
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		seen = append(seen, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte("nope"))
	}))
	t.Cleanup(srv.Close)
	return srv, func() []captured {
		mu.Lock()
		defer mu.Unlock()
		return append([]captured(nil), seen...)
	}
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if err := svc.RecordRun(context.Background(), pipeline.Run{State: pipeline.StateDone}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := svc.TestNotification(context.Background()); err != nil {
		t.Fatalf("expected noop test notification to return nil, got %v", err)
	}
}

func TestRecordRunPublishesByState(t *testing.T) {
	srv, seen := newNtfyServer(t, http.StatusOK)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL + "/captions"
	svc := notifications.NewService(&cfg)
	ctx := context.Background()

	done := pipeline.Run{State: pipeline.StateDone, SequenceName: "Sequence 01", CaptionCount: 12, SubtitlePath: "/p/Demo_subtitles.srt"}
	failed := pipeline.Run{State: pipeline.StateError, SequenceName: "Sequence 01", ProgressPercent: 30, LastError: "HTTP 500: model unavailable", ErrorKind: "network"}
	for _, run := range []pipeline.Run{done, failed, {State: pipeline.StateTranscribing}} {
		if err := svc.RecordRun(ctx, run); err != nil {
			t.Fatalf("record %s: %v", run.State, err)
		}
	}

	got := seen()
	if len(got) != 2 {
		t.Fatalf("expected two notifications, got %d", len(got))
	}
	if got[0].title != "Captioner - Captions Ready" || got[0].tags != "captioner,run,completed" {
		t.Fatalf("unexpected completion headers %+v", got[0])
	}
	if got[0].body != "✅ 12 captions imported into \"Sequence 01\"\nFile: /p/Demo_subtitles.srt" {
		t.Fatalf("unexpected completion body %q", got[0].body)
	}
	if got[1].priority != "high" || got[1].tags != "captioner,run,failed,network" {
		t.Fatalf("unexpected failure headers %+v", got[1])
	}
	if got[1].body != "❌ Captions failed for \"Sequence 01\" at 30%: HTTP 500: model unavailable" {
		t.Fatalf("unexpected failure body %q", got[1].body)
	}
}

func TestSendReportsServerErrors(t *testing.T) {
	srv, _ := newNtfyServer(t, http.StatusForbidden)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	err := notifications.NewService(&cfg).TestNotification(context.Background())
	if err == nil {
		t.Fatal("expected error for 403")
	}
	if want := "ntfy returned 403: nope"; err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}
}
