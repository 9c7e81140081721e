// Package session drives one telnet connection end-to-end: negotiate the
// handshake once, then loop forever prompting for a username and password,
// recording each pair, and rejecting it.
//
// There is no success state. The loop ends only when the peer disconnects,
// the handshake fails, or surplus protocol traffic arrives mid-field.
// Sessions share no mutable state; every connection gets its own option
// registry, negotiator, and line editor.
package session
