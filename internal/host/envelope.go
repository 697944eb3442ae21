package host

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"captioner/internal/bridge"
	"captioner/internal/services"
)

// Envelope codes a host may attach to a failure.
const (
	CodeNoProject       = "no_project"
	CodeNoSequence      = "no_sequence"
	CodeUnknownFunction = "unknown_function"
	CodeInvalidParams   = "invalid_params"
)

// Messages emitted by hosts that predate the code field.
var (
	legacyNoProject  = []string{"proje bulunamadı", "no project"}
	legacyNoSequence = []string{"aktif sequence bulunamadı", "no active sequence"}
)

// Envelope is the common part of every host reply.
type Envelope struct {
	Success *bool  `json:"success"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// OperationError is a structured success:false reply.
type OperationError struct {
	Function string
	Message  string
	Code     string
}

func (e *OperationError) Error() string {
	return e.Message
}

// Unwrap lets errors.Is match services.ErrHostOperation.
func (e *OperationError) Unwrap() error {
	return services.ErrHostOperation
}

// decodeEnvelope parses a reply, returning the raw bytes for the typed decode
// when the envelope reports success.
func decodeEnvelope(function, reply string) ([]byte, error) {
	raw := []byte(strings.TrimSpace(reply))
	if len(raw) == 0 {
		return nil, services.Wrap(services.ErrHostOperation, "host", function, "empty reply", nil)
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, services.Wrap(services.ErrHostOperation, "host", function, "decode reply", err)
	}
	if env.Success == nil {
		return nil, services.Wrap(services.ErrHostOperation, "host", function, "reply missing success field", nil)
	}
	if !*env.Success {
		return nil, operationFailure(function, env)
	}
	return raw, nil
}

func operationFailure(function string, env Envelope) error {
	msg := strings.TrimSpace(env.Error)
	if msg == "" {
		msg = "host reported failure without a message"
	}
	opErr := &OperationError{Function: function, Message: msg, Code: env.Code}
	if marker := preconditionMarker(env.Code, msg); marker != nil {
		return services.Wrap(marker, "host", function, "", opErr)
	}
	return services.Wrap(services.ErrHostOperation, "host", function, "", opErr)
}

// bridgeFailure keeps the bridge classification and adds a precondition
// marker when a legacy host reported a missing project or sequence through
// the "Error:" channel.
func bridgeFailure(function string, err error) error {
	var hostErr *bridge.HostError
	if errors.As(err, &hostErr) {
		if marker := preconditionMarker("", hostErr.Message); marker != nil {
			return services.Wrap(marker, "host", function, "", err)
		}
	}
	if errors.Is(err, services.ErrHostBridge) || errors.Is(err, services.ErrTimeout) {
		return fmt.Errorf("%s: %w", function, err)
	}
	return services.Wrap(services.ErrHostBridge, "host", function, "", err)
}

func preconditionMarker(code, message string) error {
	switch code {
	case CodeNoProject:
		return services.ErrNoProject
	case CodeNoSequence:
		return services.ErrNoSequence
	}
	lower := strings.ToLower(message)
	for _, candidate := range legacyNoProject {
		if strings.Contains(lower, candidate) {
			return services.ErrNoProject
		}
	}
	for _, candidate := range legacyNoSequence {
		if strings.Contains(lower, candidate) {
			return services.ErrNoSequence
		}
	}
	return nil
}

// ticks accepts the host's tick count as either a JSON number or a string.
type ticks uint64

func (t *ticks) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*t = 0
		return nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("ticks: %w", err)
	}
	*t = ticks(v)
	return nil
}
