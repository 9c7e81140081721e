// Package telnet implements the server side of the telnet option
// negotiation handshake and a character-at-a-time line editor.
//
// This package contains the protocol core of telnetpot:
//   - Registry tracks the per-connection negotiation stance tables and
//     suppresses duplicate replies so two disagreeing endpoints cannot
//     negotiate forever.
//   - Negotiator drives the handshake state machine over the raw byte
//     stream, captures bounded sub-negotiation payloads, and resolves a
//     terminal capability Snapshot (terminal type and window size) under
//     a hard deadline.
//   - LineEditor reads one input field at a time, reproducing terminal
//     echo, backspace, and masking, because the peer's local echo has
//     been negotiated off.
//
// All state is per-connection. Nothing in this package is safe for
// concurrent use, and nothing needs to be: one goroutine owns one
// connection from handshake to close.
package telnet
