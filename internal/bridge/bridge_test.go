package bridge_test

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"captioner/internal/bridge"
	"captioner/internal/ipc"
	"captioner/internal/services"
)

func staticReply(reply string) bridge.Evaluator {
	return bridge.EvalFunc(func(context.Context, string) (string, error) {
		return reply, nil
	})
}

func TestExecuteRejectsErrorPrefix(t *testing.T) {
	cases := []string{
		"Error: Proje bulunamadı",
		"Error:no sequence",
		"Error:",
		"Error: {\"success\":true}",
	}
	for _, reply := range cases {
		b := bridge.New(staticReply(reply))
		got, err := b.Execute(context.Background(), "main({})")
		if err == nil {
			t.Fatalf("reply %q: expected error, got %q", reply, got)
		}
		if !errors.Is(err, services.ErrHostBridge) {
			t.Fatalf("reply %q: expected ErrHostBridge, got %v", reply, err)
		}
		var hostErr *bridge.HostError
		if !errors.As(err, &hostErr) {
			t.Fatalf("reply %q: expected *HostError, got %T", reply, err)
		}
		if strings.HasPrefix(hostErr.Message, "Error:") || hostErr.Message == "" {
			t.Fatalf("reply %q: unexpected message %q", reply, hostErr.Message)
		}
	}
}

func TestExecuteCarriesRemainderAsMessage(t *testing.T) {
	b := bridge.New(staticReply("Error: Aktif sequence bulunamadı"))
	_, err := b.Execute(context.Background(), "x")
	if err == nil || err.Error() != "Aktif sequence bulunamadı" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestExecutePassesThroughOtherReplies(t *testing.T) {
	for _, reply := range []string{
		`{"success":false,"error":"unknown function: nope"}`,
		`{"success":true,"path":"/p/a.wav"}`,
		"",
		" Error: leading space is not the sentinel",
		"error: lowercase is not the sentinel",
	} {
		got, err := bridge.New(staticReply(reply)).Execute(context.Background(), "x")
		if err != nil {
			t.Fatalf("reply %q: unexpected error %v", reply, err)
		}
		if got != reply {
			t.Fatalf("reply %q: got %q", reply, got)
		}
	}
}

func TestExecuteWrapsTransportFailure(t *testing.T) {
	boom := errors.New("socket closed")
	b := bridge.New(bridge.EvalFunc(func(context.Context, string) (string, error) { return "", boom }))
	_, err := b.Execute(context.Background(), "x")
	if !errors.Is(err, services.ErrHostBridge) || !errors.Is(err, boom) {
		t.Fatalf("expected wrapped transport error, got %v", err)
	}
}

func TestExecuteWaitsUntilContextEnds(t *testing.T) {
	started := make(chan struct{})
	hang := bridge.EvalFunc(func(ctx context.Context, _ string) (string, error) {
		close(started)
		<-ctx.Done()
		return "", ctx.Err()
	})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := bridge.New(hang).Execute(ctx, "x")
	<-started
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected deadline to map to ErrTimeout, got %v", err)
	}
}

func TestExecuteRejectsCanceledContextWithoutSending(t *testing.T) {
	called := false
	b := bridge.New(bridge.EvalFunc(func(context.Context, string) (string, error) {
		called = true
		return "", nil
	}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := b.Execute(ctx, "x"); err == nil {
		t.Fatal("expected error for canceled context")
	}
	if called {
		t.Fatal("evaluator should not be called after cancellation")
	}
}

func TestNilTransport(t *testing.T) {
	if _, err := bridge.New(nil).Execute(context.Background(), "x"); !errors.Is(err, services.ErrHostBridge) {
		t.Fatalf("expected ErrHostBridge, got %v", err)
	}
}

func TestExecEvaluatorEchoesStdin(t *testing.T) {
	catPath, err := exec.LookPath("cat")
	if err != nil {
		t.Skip("cat not available")
	}
	eval := bridge.NewExecEvaluator(catPath)
	got, err := bridge.New(eval).Execute(context.Background(), `{"success":true}`+"\n")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got != `{"success":true}` {
		t.Fatalf("unexpected reply %q", got)
	}

	got, err = bridge.New(eval).Execute(context.Background(), "Error: from host")
	if err == nil || err.Error() != "from host" {
		t.Fatalf("expected host error through exec transport, got %q %v", got, err)
	}
}

func TestExecEvaluatorReportsExitCode(t *testing.T) {
	shPath, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	eval := bridge.NewExecEvaluator(shPath, "-c", "echo broken >&2; exit 3")
	_, err = eval.Eval(context.Background(), "")
	if err == nil || !strings.Contains(err.Error(), "code 3") || !strings.Contains(err.Error(), "broken") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestSocketEvaluatorRoundTrip(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "h.sock")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	echo := bridge.EvalFunc(func(_ context.Context, script string) (string, error) {
		if script == "fail" {
			return "Error: refused", nil
		}
		return "ok:" + script, nil
	})
	srv, err := ipc.NewServer(ctx, socket, echo, nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	srv.Serve()
	defer srv.Close()

	b := bridge.New(bridge.NewSocketEvaluator(socket))
	got, err := b.Execute(context.Background(), `main({"function":"saveProject"})`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got != `ok:main({"function":"saveProject"})` {
		t.Fatalf("unexpected reply %q", got)
	}
	if _, err := b.Execute(context.Background(), "fail"); err == nil || err.Error() != "refused" {
		t.Fatalf("expected host error over socket, got %v", err)
	}
}

func TestSocketEvaluatorMissingSocket(t *testing.T) {
	b := bridge.New(bridge.NewSocketEvaluator(filepath.Join(t.TempDir(), "absent.sock")))
	if _, err := b.Execute(context.Background(), "x"); !errors.Is(err, services.ErrHostBridge) {
		t.Fatalf("expected ErrHostBridge for missing socket, got %v", err)
	}
}
