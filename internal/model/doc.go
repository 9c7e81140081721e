// Package model defines the core data structures used throughout telnetpot.
//
// This package contains the following main types:
//   - Credential: One captured login attempt with its session context
//   - CaptureReport: An aggregate view of everything captured so far
//
// Multiple packages (session, database, report) need these types, so
// centralizing them prevents import cycles. The models are designed to be
// serializable to JSON for report output and database storage.
package model
