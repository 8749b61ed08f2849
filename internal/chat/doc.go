// Package chat defines the boundary between the session state machine and a
// concrete chat transport.
//
// The session layer only ever talks to a Transport: it sends and edits status
// messages, uploads a finished document, and acknowledges button presses.
// Inbound button payloads are parsed once, here, into the tagged Action
// variants so nothing downstream inspects callback strings.
package chat
