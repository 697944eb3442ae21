// Package host exposes typed operations on the editing application.
//
// Every operation follows one pattern: encode a {function, params} request as
// a main(<json>) command, send it through the bridge, decode the reply
// envelope, and return either a typed value or an error. JSON encoding is
// the only escaping layer, so paths and subtitle text containing quotes,
// backticks, or newlines travel intact.
//
// Failures collapse into the services taxonomy. A bridge rejection keeps
// ErrHostBridge, a success:false envelope becomes an *OperationError
// (ErrHostOperation), and missing projects or sequences additionally match
// ErrNoProject or ErrNoSequence. Recognition uses the envelope's code field
// first and falls back to the host's legacy message strings.
//
// The package also owns artifact path derivation: the exported audio file and
// the subtitle file both sit next to the project, named after the project
// with its extension stripped.
package host
