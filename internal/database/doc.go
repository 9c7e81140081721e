// Package database provides SQLite-based storage for captured credentials.
//
// This package implements the CaptureDB, an append-only store of every
// login attempt a session records, plus the aggregate queries the report
// command builds on.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
package database
