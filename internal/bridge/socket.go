package bridge

import (
	"context"
	"fmt"

	"captioner/internal/ipc"
	"captioner/internal/services"
)

// SocketEvaluator reaches the host over the JSON-RPC Unix socket. Each Eval
// dials a fresh connection so a hung call never blocks later ones.
type SocketEvaluator struct {
	Path string
}

// NewSocketEvaluator returns an evaluator for the socket at path.
func NewSocketEvaluator(path string) *SocketEvaluator {
	return &SocketEvaluator{Path: path}
}

// Eval implements Evaluator.
func (s *SocketEvaluator) Eval(ctx context.Context, script string) (string, error) {
	client, err := ipc.Dial(ctx, s.Path)
	if err != nil {
		return "", fmt.Errorf("dial host socket %s: %w", s.Path, err)
	}
	defer client.Close()

	requestID, _ := services.RequestIDFromContext(ctx)
	return client.Eval(ctx, ipc.EvalRequest{Script: script, RequestID: requestID})
}
