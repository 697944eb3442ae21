package ipc

// EvalRequest carries one script for the host to execute.
type EvalRequest struct {
	Script    string `json:"script"`
	RequestID string `json:"request_id,omitempty"`
}

// EvalResponse carries the raw reply text.
type EvalResponse struct {
	Reply string `json:"reply"`
}

// ServiceName is the JSON-RPC receiver name registered by Server.
const ServiceName = "Host"
