// Package log provides structured logging for telnetpot, built on top of
// the standard slog package.
//
// Captured credentials are the honeypot's product, and they belong in the
// capture store, not in operational logs that get shipped to aggregators
// or pasted into bug reports. The RedactingHandler therefore masks any
// log attribute whose key looks like a secret (password, token, and so
// on) before it reaches the underlying handler.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
//
//	logger.Info("credentials captured",
//	    "peer", "198.51.100.7",
//	    "username", "alice",
//	    "password", "hunter2", // masked on output
//	)
package log
