package transcription_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"captioner/internal/services"
	"captioner/internal/transcription"
)

func TestCheckHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" || r.Method != http.MethodGet {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status":"healthy","model":"base","faster_whisper":true}`)
	}))
	defer srv.Close()

	info, err := transcription.New(srv.URL + "/").CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}
	if !info.Healthy() || info.Model != "base" || !info.FasterWhisper {
		t.Fatalf("unexpected health %+v", info)
	}
}

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"current_model":"small","available_models":["tiny","base","small"],"faster_whisper":false}`)
	}))
	defer srv.Close()

	list, err := transcription.New(srv.URL).ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if list.CurrentModel != "small" || len(list.AvailableModels) != 3 {
		t.Fatalf("unexpected models %+v", list)
	}
}

func TestTranscribeSendsMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
			return
		}
		if got := r.FormValue("format"); got != "srt" {
			t.Errorf("format = %q", got)
		}
		file, header, err := r.FormFile("audio")
		if err != nil {
			t.Errorf("audio field: %v", err)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if string(data) != "RIFFdata" || header.Filename != "Show_audio_export.wav" {
			t.Errorf("unexpected upload %q %q", header.Filename, data)
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "1\n00:00:00,000 --> 00:00:01,000\nHi\n")
	}))
	defer srv.Close()

	out, err := transcription.New(srv.URL).Transcribe(context.Background(), []byte("RIFFdata"), "Show_audio_export.wav", "srt")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if !strings.HasPrefix(string(out.Content), "1\n00:00:00,000") || !strings.HasPrefix(out.ContentType, "text/plain") {
		t.Fatalf("unexpected transcript %+v", out)
	}
}

func TestTranscribeRejectsEmptyAudio(t *testing.T) {
	_, err := transcription.New("http://127.0.0.1:1").Transcribe(context.Background(), nil, "a.wav", "srt")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestHTTPErrorUsesJSONMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":"model unavailable"}`)
	}))
	defer srv.Close()

	_, err := transcription.New(srv.URL).Transcribe(context.Background(), []byte("x"), "a.wav", "srt")
	if !errors.Is(err, services.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
	if !strings.Contains(err.Error(), "HTTP 500: model unavailable") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestHTTPErrorFallsBackToStatusText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := transcription.New(srv.URL).CheckHealth(context.Background())
	if err == nil || !strings.Contains(err.Error(), "HTTP 502: Bad Gateway") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestTimeoutCancelsRequest(t *testing.T) {
	observed := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		close(observed)
	}))
	defer srv.Close()

	client := transcription.New(srv.URL, transcription.WithTimeout(50*time.Millisecond))
	start := time.Now()
	_, err := client.Transcribe(context.Background(), []byte("x"), "a.wav", "srt")
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "timed out") {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("timeout took %s", elapsed)
	}
	select {
	case <-observed:
	case <-time.After(2 * time.Second):
		t.Fatal("server never observed cancellation")
	}
}

func TestCallerCancellationIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := transcription.New(srv.URL).CheckHealth(ctx)
	if !errors.Is(err, services.ErrNetwork) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancelled network error, got %v", err)
	}
}

func TestSettersApplyToLaterCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"healthy"}`)
	}))
	defer srv.Close()

	client := transcription.New("http://127.0.0.1:1")
	client.SetBaseURL(srv.URL + "/")
	client.SetTimeout(0)
	if client.BaseURL() != srv.URL || client.Timeout() != transcription.DefaultTimeout {
		t.Fatalf("unexpected settings %s %s", client.BaseURL(), client.Timeout())
	}
	if _, err := client.CheckHealth(context.Background()); err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}
}
