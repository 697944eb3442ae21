// Package devserver serves a local stand-in for the transcription service.
//
// It speaks the same HTTP contract as the real service (GET /health,
// GET /models, POST /transcribe) and produces deterministic placeholder
// captions sized to the uploaded WAV audio, so the whole pipeline can run
// without a speech model.
package devserver
