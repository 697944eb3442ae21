package logging

import (
	"context"
	"log/slog"
	"maps"
	"strings"
	"sync"
	"time"
)

// DefaultStreamCapacity bounds the activity log kept for the CLI.
const DefaultStreamCapacity = 50

// LogEvent is one structured log record as kept by a StreamHub or parsed
// back from the JSON log file.
type LogEvent struct {
	Sequence  uint64            `json:"seq"`
	Timestamp time.Time         `json:"ts"`
	Level     string            `json:"level"`
	Message   string            `json:"msg"`
	Component string            `json:"component,omitempty"`
	Stage     string            `json:"stage,omitempty"`
	RunID     string            `json:"run_id,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// StreamHub keeps the most recent events in a fixed-size ring. A nil hub
// accepts and returns nothing.
type StreamHub struct {
	mu    sync.Mutex
	ring  []LogEvent
	start int
	count int
	seq   uint64
}

// NewStreamHub returns a hub holding at most capacity events.
func NewStreamHub(capacity int) *StreamHub {
	if capacity <= 0 {
		capacity = DefaultStreamCapacity
	}
	return &StreamHub{ring: make([]LogEvent, capacity)}
}

// Publish stamps evt with the next sequence number and stores it, replacing
// the oldest event once the ring is full.
func (h *StreamHub) Publish(evt LogEvent) {
	if h == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	evt.Sequence = h.seq
	size := len(h.ring)
	if h.count < size {
		h.ring[(h.start+h.count)%size] = evt
		h.count++
		return
	}
	h.ring[h.start] = evt
	h.start = (h.start + 1) % size
}

// Tail returns up to limit of the newest events, oldest first, along with
// the latest sequence number. A limit of zero or less means all of them.
func (h *StreamHub) Tail(limit int) ([]LogEvent, uint64) {
	if h == nil {
		return nil, 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if limit <= 0 || limit > h.count {
		limit = h.count
	}
	out := make([]LogEvent, 0, limit)
	for i := h.count - limit; i < h.count; i++ {
		out = append(out, h.ring[(h.start+i)%len(h.ring)])
	}
	return out, h.seq
}

// Clear empties the ring without resetting the sequence.
func (h *StreamHub) Clear() {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.start, h.count = 0, 0
	h.mu.Unlock()
}

// streamHandler publishes every record it handles to a hub and then passes
// it on. base holds the metadata bound through WithAttrs.
type streamHandler struct {
	next slog.Handler
	hub  *StreamHub
	base LogEvent
}

func newStreamHandler(next slog.Handler, hub *StreamHub) slog.Handler {
	if hub == nil || next == nil {
		return next
	}
	return &streamHandler{next: next, hub: hub}
}

func (h *streamHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *streamHandler) Handle(ctx context.Context, r slog.Record) error {
	evt := h.base
	evt.Fields = maps.Clone(h.base.Fields)
	evt.Timestamp = r.Time
	evt.Level = strings.ToUpper(r.Level.String())
	evt.Message = strings.TrimSpace(r.Message)
	r.Attrs(func(a slog.Attr) bool {
		setEventAttr(&evt, a)
		return true
	})
	h.hub.Publish(evt)
	return h.next.Handle(ctx, r.Clone())
}

func (h *streamHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	base := h.base
	base.Fields = maps.Clone(h.base.Fields)
	for _, a := range attrs {
		setEventAttr(&base, a)
	}
	return &streamHandler{next: h.next.WithAttrs(attrs), hub: h.hub, base: base}
}

func (h *streamHandler) WithGroup(name string) slog.Handler {
	return &streamHandler{next: h.next.WithGroup(name), hub: h.hub, base: h.base}
}

func setEventAttr(evt *LogEvent, a slog.Attr) {
	key := strings.TrimSpace(a.Key)
	switch key {
	case "":
	case FieldComponent:
		evt.Component = plainText(a.Value)
	case FieldStage:
		evt.Stage = plainText(a.Value)
	case FieldRunID:
		evt.RunID = plainText(a.Value)
	default:
		if evt.Fields == nil {
			evt.Fields = make(map[string]string)
		}
		evt.Fields[key] = plainText(a.Value)
	}
}
