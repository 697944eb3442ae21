// Package ipc carries host commands over JSON-RPC on a Unix domain socket.
//
// The host side (a plugin inside the editing application, or the simulated
// host served by `captioner host-server`) runs a Server that evaluates each
// script and returns the raw reply text. The CLI side uses Client, which
// dials per call and aborts the in-flight call when its context ends.
//
// The protocol is deliberately thin: one method, Host.Eval, with the script
// in and the reply string out. Reply interpretation (the "Error:" sentinel,
// JSON envelopes) belongs to the bridge and host packages.
package ipc
