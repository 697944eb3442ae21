package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const consoleTimeLayout = "2006-01-02 15:04:05"

// consoleHandler renders one headline per record followed by its fields:
//
//	2025-01-02 15:04:05 INFO  [pipeline] Run 01234567 (exporting) – audio exported
//	    - path: /p/a.wav
type consoleHandler struct {
	out     *lockedWriter
	level   slog.Leveler
	withSrc bool
	prefix  string
	preset  fieldSet
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) write(p []byte) error {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	_, err := lw.w.Write(p)
	return err
}

func newConsoleHandler(w io.Writer, level slog.Leveler, withSrc bool) slog.Handler {
	return &consoleHandler{out: &lockedWriter{w: w}, level: level, withSrc: withSrc}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	fields := h.preset.clone()
	r.Attrs(func(a slog.Attr) bool {
		fields.add(h.prefix, a)
		return true
	})

	var component, runID, stage string
	rest := make([]field, 0, len(fields.items))
	for _, f := range fields.items {
		switch f.key {
		case FieldComponent:
			component = strings.TrimSpace(plainText(f.value))
		case FieldRunID:
			runID = strings.TrimSpace(plainText(f.value))
		case FieldStage:
			stage = strings.TrimSpace(plainText(f.value))
		default:
			rest = append(rest, f)
		}
	}

	when := r.Time
	if when.IsZero() {
		when = time.Now()
	}
	message := strings.TrimSpace(r.Message)
	if message == "" {
		message = "(no message)"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %-5s", when.In(time.Local).Format(consoleTimeLayout), levelName(r.Level))
	if component != "" {
		fmt.Fprintf(&b, " [%s]", component)
	}
	if subject := runSubject(runID, stage); subject != "" {
		b.WriteString(" " + subject)
	}
	b.WriteString(" – " + message)
	if h.withSrc && r.PC != 0 {
		if src := r.Source(); src != nil {
			fmt.Fprintf(&b, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}
	b.WriteByte('\n')
	for _, f := range rest {
		fmt.Fprintf(&b, "    - %s: %s\n", f.key, renderValue(f.value))
	}
	return h.out.write([]byte(b.String()))
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.preset = h.preset.clone()
	for _, a := range attrs {
		next.preset.add(h.prefix, a)
	}
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = joinKey(h.prefix, name)
	return &next
}

// runSubject names the run (short id) and stage a record belongs to.
func runSubject(runID, stage string) string {
	if len(runID) > 8 {
		runID = runID[:8]
	}
	switch {
	case runID == "":
		return stage
	case stage == "":
		return "Run " + runID
	default:
		return fmt.Sprintf("Run %s (%s)", runID, stage)
	}
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	}
	return "DEBUG"
}

type field struct {
	key   string
	value slog.Value
}

// fieldSet keeps attributes in arrival order. Groups are flattened into
// dotted keys and a repeated key overwrites the earlier value in place.
type fieldSet struct {
	items []field
	index map[string]int
}

func (s *fieldSet) add(prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Value.Kind() == slog.KindGroup {
		group := prefix
		if a.Key != "" {
			group = joinKey(prefix, a.Key)
		}
		for _, child := range a.Value.Group() {
			s.add(group, child)
		}
		return
	}
	if a.Key == "" {
		return
	}
	key := joinKey(prefix, a.Key)
	if i, ok := s.index[key]; ok {
		s.items[i].value = a.Value
		return
	}
	if s.index == nil {
		s.index = make(map[string]int)
	}
	s.index[key] = len(s.items)
	s.items = append(s.items, field{key: key, value: a.Value})
}

func (s fieldSet) clone() fieldSet {
	out := fieldSet{
		items: append([]field(nil), s.items...),
		index: make(map[string]int, len(s.index)),
	}
	for k, i := range s.index {
		out.index[k] = i
	}
	return out
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// plainText renders a value without quoting.
func plainText(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindAny:
		return anyText(v.Any())
	}
	return renderValue(v)
}

// renderValue formats a field value for console output, quoting strings
// that are empty or would break the line layout.
func renderValue(v slog.Value) string {
	v = v.Resolve()
	var s string
	switch v.Kind() {
	case slog.KindDuration:
		return v.Duration().Round(time.Millisecond).String()
	case slog.KindTime:
		return v.Time().In(time.Local).Format(consoleTimeLayout)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindString:
		s = v.String()
	case slog.KindAny:
		s = anyText(v.Any())
	default:
		return v.String()
	}
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r < ' ' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}

func anyText(v any) string {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(v)
}
