// Package logs reads the JSON log file behind `captioner logs`.
//
// Tail returns the last lines of the file together with the end offset;
// Follow polls from an offset and hands each new line to a callback until its
// context ends. ParseLine decodes a line into the same event shape the
// in-memory stream hub publishes, so file and live views render alike.
package logs
