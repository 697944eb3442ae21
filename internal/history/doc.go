// Package history persists finished pipeline runs and the user-editable
// transcription settings in a SQLite database under the state directory.
package history
