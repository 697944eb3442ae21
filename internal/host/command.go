package host

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Dispatcher function names understood by the host.
const (
	FnGetCurrentSequence  = "getCurrentSequence"
	FnExportSequenceAudio = "exportSequenceAudio"
	FnImportSubtitles     = "importSubtitles"
	FnEnsureCaptionTrack  = "ensureCaptionTrack"
	FnGetProjectInfo      = "getProjectInfo"
	FnSaveProject         = "saveProject"
	FnGetSequenceTracks   = "getSequenceTracks"
	FnWriteTextFile       = "writeTextFile"
	FnReadTextFile        = "readTextFile"
)

// Request is the envelope consumed by the host dispatcher.
type Request struct {
	Function string `json:"function"`
	Params   any    `json:"params"`
}

const (
	commandPrefix = "main("
	commandSuffix = ")"
)

// BuildCommand renders a dispatcher call as main(<json>). Nil params encode
// as an empty object.
func BuildCommand(function string, params any) (string, error) {
	if function == "" {
		return "", fmt.Errorf("build command: function name required")
	}
	if params == nil {
		params = struct{}{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(Request{Function: function, Params: params}); err != nil {
		return "", fmt.Errorf("build command %s: %w", function, err)
	}
	return commandPrefix + string(bytes.TrimRight(buf.Bytes(), "\n")) + commandSuffix, nil
}

// ParseCommand is the inverse of BuildCommand. Host-side dispatchers use it to
// recover the request; params are left as raw JSON.
func ParseCommand(command string) (string, json.RawMessage, error) {
	body, ok := bytes.CutPrefix(bytes.TrimSpace([]byte(command)), []byte(commandPrefix))
	if !ok {
		return "", nil, fmt.Errorf("parse command: missing %q prefix", commandPrefix)
	}
	body, ok = bytes.CutSuffix(body, []byte(commandSuffix))
	if !ok {
		return "", nil, fmt.Errorf("parse command: missing closing parenthesis")
	}
	var req struct {
		Function string          `json:"function"`
		Params   json.RawMessage `json:"params"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return "", nil, fmt.Errorf("parse command: %w", err)
	}
	if req.Function == "" {
		return "", nil, fmt.Errorf("parse command: function name required")
	}
	if len(req.Params) == 0 || string(req.Params) == "null" {
		req.Params = json.RawMessage("{}")
	}
	return req.Function, req.Params, nil
}
