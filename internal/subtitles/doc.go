// Package subtitles parses and renders the two subtitle formats exchanged
// with the transcription service and the host: SRT and the xmeml caption
// sequence used for XML imports.
//
// Cues carry start and end offsets as time.Duration. XML timing uses the
// editor timebase of 254016000000 ticks per second.
package subtitles
