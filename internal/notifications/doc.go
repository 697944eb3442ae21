// Package notifications publishes pipeline run outcomes to ntfy.
//
// NewService returns a no-op notifier when no topic is configured, so callers
// can always wire it as a pipeline recorder.
package notifications
