// Package transcription talks to the remote speech-to-text service.
//
// The service exposes three endpoints: GET /health, GET /models and
// POST /transcribe. Every call is bounded by the client timeout; expiry maps
// to services.ErrTimeout and any other failure to services.ErrNetwork.
package transcription
