// Package main hosts the captioner CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, builds the host facade
// for the configured transport, and drives the caption pipeline. Commands stay
// thin: behaviour lives in the internal packages and is surfaced here.
package main
