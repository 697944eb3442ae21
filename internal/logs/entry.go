package logs

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"captioner/internal/logging"
)

var reservedKeys = map[string]bool{
	"ts": true, "level": true, "msg": true, "source": true,
	logging.FieldComponent: true, logging.FieldStage: true, logging.FieldRunID: true,
}

// ParseLine decodes one JSON log line. Lines that are not JSON objects
// report false.
func ParseLine(line string) (logging.LogEvent, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "{") {
		return logging.LogEvent{}, false
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return logging.LogEvent{}, false
	}

	evt := logging.LogEvent{
		Level:     stringField(raw, "level"),
		Message:   stringField(raw, "msg"),
		Component: stringField(raw, logging.FieldComponent),
		Stage:     stringField(raw, logging.FieldStage),
		RunID:     stringField(raw, logging.FieldRunID),
	}
	if ts, err := time.Parse(time.RFC3339Nano, stringField(raw, "ts")); err == nil {
		evt.Timestamp = ts
	}
	for key, value := range raw {
		if reservedKeys[key] {
			continue
		}
		if evt.Fields == nil {
			evt.Fields = make(map[string]string)
		}
		evt.Fields[key] = fmt.Sprint(value)
	}
	return evt, true
}

func stringField(raw map[string]any, key string) string {
	if v, ok := raw[key].(string); ok {
		return v
	}
	return ""
}

// Filter selects events by run, component, and minimum level. Zero values
// match everything.
type Filter struct {
	RunID     string
	Component string
	MinLevel  string
}

var levelRank = map[string]int{"debug": 0, "info": 1, "warn": 2, "error": 3}

// Match reports whether evt passes the filter.
func (f Filter) Match(evt logging.LogEvent) bool {
	if f.RunID != "" && !strings.HasPrefix(evt.RunID, f.RunID) {
		return false
	}
	if f.Component != "" && !strings.EqualFold(evt.Component, f.Component) {
		return false
	}
	if floor, ok := levelRank[strings.ToLower(f.MinLevel)]; ok {
		if rank, known := levelRank[strings.ToLower(evt.Level)]; known && rank < floor {
			return false
		}
	}
	return true
}

// Format renders evt as a single human-readable line.
func Format(evt logging.LogEvent) string {
	var b strings.Builder
	if !evt.Timestamp.IsZero() {
		b.WriteString(evt.Timestamp.Local().Format("2006-01-02 15:04:05"))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s", strings.ToUpper(evt.Level))
	if evt.Component != "" {
		b.WriteString(" [" + evt.Component + "]")
	}
	if evt.RunID != "" {
		id := evt.RunID
		if len(id) > 8 {
			id = id[:8]
		}
		b.WriteString(" " + id)
	}
	b.WriteString(" " + evt.Message)

	keys := make([]string, 0, len(evt.Fields))
	for k := range evt.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(" " + k + "=" + evt.Fields[k])
	}
	return b.String()
}
