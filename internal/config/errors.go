package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Using errors.New() here rather than fmt.Errorf()
// because we don't need to include dynamic values in these messages.
var (
	// ErrNoListenAddress is returned when the listen address is empty.
	ErrNoListenAddress = errors.New("no listen address specified")

	// ErrInvalidHandshakeTimeout is returned when the handshake timeout
	// is not positive. A zero timeout would reject every peer before it
	// can answer the initial option offers.
	ErrInvalidHandshakeTimeout = errors.New("invalid handshake timeout: must be positive")

	// ErrInvalidDelay is returned when a session delay is negative.
	// Use 0 to disable the delay entirely.
	ErrInvalidDelay = errors.New("invalid session delay: must be non-negative")

	// ErrInvalidMaxSessions is returned when the session cap is not positive.
	// A cap of zero would refuse every connection.
	ErrInvalidMaxSessions = errors.New("invalid max sessions: must be positive")

	// ErrInvalidFieldCapacity is returned when the field buffer is too
	// small to hold a single input byte plus its terminator.
	ErrInvalidFieldCapacity = errors.New("invalid field capacity: must be at least 2")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidReportLimit is returned when a report list bound is negative.
	// Use 0 to omit the list entirely.
	ErrInvalidReportLimit = errors.New("invalid report limit: must be non-negative")
)
