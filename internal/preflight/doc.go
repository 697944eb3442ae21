// Package preflight provides readiness checks for the filesystem, the host
// transport and the transcription service.
//
// These checks run in two contexts:
//   - The pipeline runs CheckFreeSpace against the project directory before
//     asking the host to export audio.
//   - The CLI "captioner health" command runs RunAll and prints every result.
package preflight
