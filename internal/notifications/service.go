package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"captioner/internal/config"
	"captioner/internal/pipeline"
)

const userAgent = "captioner/1.0"

// Service is the notification surface. It satisfies pipeline.Recorder.
type Service interface {
	RecordRun(ctx context.Context, run pipeline.Run) error
	NotifyRunCompleted(ctx context.Context, run pipeline.Run) error
	NotifyRunFailed(ctx context.Context, run pipeline.Run) error
	TestNotification(ctx context.Context) error
}

// NewService builds an ntfy-backed notifier, or a no-op one when the topic
// is empty.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := cfg.NotificationTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{endpoint: topic, client: &http.Client{Timeout: timeout}}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) RecordRun(ctx context.Context, run pipeline.Run) error {
	switch run.State {
	case pipeline.StateDone:
		return n.NotifyRunCompleted(ctx, run)
	case pipeline.StateError:
		return n.NotifyRunFailed(ctx, run)
	default:
		return nil
	}
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, run pipeline.Run) error {
	message := fmt.Sprintf("✅ %d captions imported into %s", run.CaptionCount, sequenceLabel(run))
	if run.SubtitlePath != "" {
		message += "\nFile: " + run.SubtitlePath
	}
	return n.send(ctx, payload{
		title:   "Captioner - Captions Ready",
		message: message,
		tags:    []string{"captioner", "run", "completed"},
	})
}

func (n *ntfyService) NotifyRunFailed(ctx context.Context, run pipeline.Run) error {
	reason := strings.TrimSpace(run.LastError)
	if reason == "" {
		reason = "unknown"
	}
	message := fmt.Sprintf("❌ Captions failed for %s at %d%%: %s", sequenceLabel(run), run.ProgressPercent, reason)
	tags := []string{"captioner", "run", "failed"}
	if run.ErrorKind != "" {
		tags = append(tags, run.ErrorKind)
	}
	return n.send(ctx, payload{
		title:    "Captioner - Run Failed",
		message:  message,
		tags:     tags,
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "Captioner - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"captioner", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func sequenceLabel(run pipeline.Run) string {
	if name := strings.TrimSpace(run.SequenceName); name != "" {
		return fmt.Sprintf("%q", name)
	}
	return "the active sequence"
}

type noopService struct{}

func (noopService) RecordRun(context.Context, pipeline.Run) error          { return nil }
func (noopService) NotifyRunCompleted(context.Context, pipeline.Run) error { return nil }
func (noopService) NotifyRunFailed(context.Context, pipeline.Run) error    { return nil }
func (noopService) TestNotification(context.Context) error                 { return nil }
