// Package bridge is the command channel between captioner and the host
// application.
//
// A Bridge sends an opaque script through an Evaluator transport and returns
// the raw reply. The host channel has no structured error type: a reply that
// starts with "Error:" is a failure by convention. That convention is decoded
// in exactly one place (decodeReply) and surfaced as *HostError, which
// matches services.ErrHostBridge. Every other reply, including JSON failure
// envelopes, is returned untouched for the host package to interpret.
//
// The Bridge never imposes a timeout. Calls end when the host replies, the
// transport fails, or the caller's context ends.
package bridge
