// Package server provides the TCP accept loop for the honeypot.
//
// The server owns the listener and connection lifecycle: it caps
// concurrent peers, spawns one session per connection, and shuts the
// listener down when the context is canceled. Session behavior itself
// lives in the session package.
//
// On Linux the server can also harden the process after the listener is
// open: chroot into an empty directory and drop root privileges. This
// runs between bind and accept so port 23 can still be bound as root.
package server
