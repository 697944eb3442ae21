// Package hostsim is an in-process stand-in for the editing application.
//
// Host implements the bridge Evaluator contract: it accepts the same
// main(<json>) commands a real host dispatcher receives, keeps a simulated
// project with sequences and caption tracks, and answers with the same JSON
// envelopes. Exported audio and subtitle files are real files on disk, so
// the full pipeline can run end to end without the application installed.
//
// Tests use the options to simulate a missing project or sequence, failing
// functions, hangs, and hosts that still speak the legacy "Error:" channel.
package hostsim
