// Package pipeline sequences the caption workflow: export the active
// sequence's audio through the host, transcribe it remotely and import the
// resulting subtitles back into the sequence.
//
// An Orchestrator holds the only mutable run record. Starts are single-flight:
// a Generate call made while a run is active fails with
// services.ErrAlreadyRunning and performs no work. Finished runs stay visible
// through Run until Reset or the next Generate consumes them.
package pipeline
