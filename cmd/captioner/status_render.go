package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"captioner/internal/pipeline"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

var statusStyles = map[statusKind]struct{ label, color string }{
	statusInfo:  {"INFO", ""},
	statusOK:    {"OK", ansiGreen},
	statusWarn:  {"WARN", ansiYellow},
	statusError: {"ERROR", ansiRed},
}

// renderStatusLine formats "  Label:   [KIND] message", padded so a block
// of lines lines up. Colour wraps the whole line.
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style := statusStyles[kind]
	line := fmt.Sprintf("  %-24s [%s]", label+":", style.label)
	if message != "" {
		line += " " + message
	}
	if colorize && style.color != "" {
		line = style.color + line + ansiReset
	}
	return line
}

// stateLabel renders a run state for humans ("transcribing" -> "Transcribing").
func stateLabel(state pipeline.State) string {
	if state == "" {
		return "Idle"
	}
	return cases.Title(language.Und).String(string(state))
}

func stateKind(state pipeline.State) statusKind {
	switch state {
	case pipeline.StateDone:
		return statusOK
	case pipeline.StateError:
		return statusError
	case pipeline.StateIdle, "":
		return statusInfo
	}
	return statusWarn
}

func shouldColorize(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
