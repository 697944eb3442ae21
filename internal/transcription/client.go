package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"captioner/internal/logging"
	"captioner/internal/services"
)

// DefaultTimeout bounds each request when no timeout is configured.
const DefaultTimeout = 30 * time.Second

const maxErrorBody = 4 << 10

// Client calls the transcription service. It is safe for concurrent use;
// the endpoint and timeout can be changed between calls.
type Client struct {
	mu      sync.RWMutex
	baseURL string
	timeout time.Duration
	http    *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) { cl.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) { cl.logger = logger }
}

// New constructs a client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: normalizeBaseURL(baseURL),
		timeout: DefaultTimeout,
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	c.logger = logging.NewComponentLogger(c.logger, "transcription")
	return c
}

// BaseURL returns the current endpoint.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// SetBaseURL changes the endpoint used by subsequent calls.
func (c *Client) SetBaseURL(baseURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = normalizeBaseURL(baseURL)
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.timeout
}

// SetTimeout changes the per-request timeout. Non-positive values restore
// the default.
func (c *Client) SetTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultTimeout
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeout = d
}

// CheckHealth queries GET /health.
func (c *Client) CheckHealth(ctx context.Context) (HealthInfo, error) {
	var info HealthInfo
	err := c.getJSON(ctx, "health", "/health", &info)
	return info, err
}

// ListModels queries GET /models.
func (c *Client) ListModels(ctx context.Context) (ModelList, error) {
	var list ModelList
	err := c.getJSON(ctx, "models", "/models", &list)
	return list, err
}

// Transcribe uploads audio and returns the subtitle document in format.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename, format string) (Transcript, error) {
	if len(audio) == 0 {
		return Transcript{}, services.Wrap(services.ErrValidation, "transcription", "transcribe", "audio is empty", nil)
	}
	if filename == "" {
		filename = "audio.wav"
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("audio", filename)
	if err != nil {
		return Transcript{}, services.Wrap(services.ErrNetwork, "transcription", "transcribe", "build form", err)
	}
	if _, err := part.Write(audio); err != nil {
		return Transcript{}, services.Wrap(services.ErrNetwork, "transcription", "transcribe", "build form", err)
	}
	if err := form.WriteField("format", format); err != nil {
		return Transcript{}, services.Wrap(services.ErrNetwork, "transcription", "transcribe", "build form", err)
	}
	if err := form.Close(); err != nil {
		return Transcript{}, services.Wrap(services.ErrNetwork, "transcription", "transcribe", "build form", err)
	}

	var out Transcript
	err = c.do(ctx, "transcribe", http.MethodPost, "/transcribe", &body, form.FormDataContentType(), func(resp *http.Response) error {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		out = Transcript{Content: data, ContentType: resp.Header.Get("Content-Type")}
		return nil
	})
	if err != nil {
		return Transcript{}, err
	}
	c.logger.Debug("transcript received",
		logging.String("format", format),
		logging.Int("audio_bytes", len(audio)),
		logging.Int("transcript_bytes", len(out.Content)))
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, dst any) error {
	return c.do(ctx, op, http.MethodGet, path, nil, "", func(resp *http.Response) error {
		return json.NewDecoder(resp.Body).Decode(dst)
	})
}

func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string, read func(*http.Response) error) error {
	c.mu.RLock()
	base, timeout := c.baseURL, c.timeout
	c.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, base+path, body)
	if err != nil {
		return services.Wrap(services.ErrNetwork, "transcription", op, "build request", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if id, ok := services.RequestIDFromContext(ctx); ok {
		req.Header.Set("X-Request-ID", id)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return classify(ctx, op, err)
	}
	defer resp.Body.Close()

	logging.WithContext(ctx, c.logger).Debug("transcription request",
		logging.String("method", method),
		logging.String("path", path),
		logging.Int("status", resp.StatusCode),
		logging.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return services.Wrap(services.ErrNetwork, "transcription", op, statusMessage(resp), nil)
	}
	if err := read(resp); err != nil {
		if ctx.Err() != nil {
			return classify(ctx, op, err)
		}
		return services.Wrap(services.ErrNetwork, "transcription", op, "read response", err)
	}
	return nil
}

// classify maps a transport failure to a taxonomy marker. A deadline on the
// request context is a timeout; anything else is a network error.
func classify(ctx context.Context, op string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "transcription", op, "", context.DeadlineExceeded)
	}
	if errors.Is(err, context.Canceled) {
		return services.Wrap(services.ErrNetwork, "transcription", op, "request cancelled", context.Canceled)
	}
	return services.Wrap(services.ErrNetwork, "transcription", op, "", err)
}

func statusMessage(resp *http.Response) string {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	detail := strings.TrimSpace(string(data))
	var body errorBody
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		detail = body.Error
	}
	if detail == "" {
		detail = http.StatusText(resp.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", resp.StatusCode, detail)
}

func normalizeBaseURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}
