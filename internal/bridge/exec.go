package bridge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ExecEvaluator runs a host-side command line tool once per script. The
// script is written to stdin and stdout is the reply.
type ExecEvaluator struct {
	Command string
	Args    []string
}

// NewExecEvaluator returns an evaluator that runs command with args.
func NewExecEvaluator(command string, args ...string) *ExecEvaluator {
	return &ExecEvaluator{Command: command, Args: args}
}

// Eval implements Evaluator. Context cancellation kills the process.
func (e *ExecEvaluator) Eval(ctx context.Context, script string) (string, error) {
	cmd := exec.CommandContext(ctx, e.Command, e.Args...)
	cmd.Stdin = strings.NewReader(script)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			detail := strings.TrimSpace(stderr.String())
			if detail == "" {
				detail = exitErr.Error()
			}
			return "", fmt.Errorf("host command %s exited with code %d: %s", e.Command, exitErr.ExitCode(), detail)
		}
		return "", fmt.Errorf("run host command %s: %w", e.Command, err)
	}
	return strings.TrimRight(stdout.String(), "\r\n"), nil
}
