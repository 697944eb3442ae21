// Package services defines the shared error taxonomy and context helpers used
// by every captioner component.
//
// Key responsibilities:
//   - Sentinel markers for each failure domain (host bridge, host operation,
//     network, timeout, single-flight, precondition) plus the Wrap helper
//     that attaches stage and operation detail without losing the marker.
//   - Kind and Hint, which map an error to a stable label and an operator
//     next step for logs, history, and CLI output.
//   - Context helpers that stamp run IDs, stage names, and correlation
//     identifiers for logging.
//
// Component boundaries convert their internal failures into one of these
// markers before returning, so callers classify errors with errors.Is and
// never inspect raw host replies or HTTP responses.
package services
