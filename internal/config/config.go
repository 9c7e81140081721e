package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultListenAddress is the standard telnet port on all interfaces.
	// Binding port 23 requires root; the serve command drops privileges
	// after the listener is open.
	DefaultListenAddress = ":23"

	// DefaultHostname is the hostname the fake login console presents.
	DefaultHostname = "kexec.com"

	// DefaultHandshakeTimeout bounds the telnet option negotiation.
	// Real telnet clients answer the initial offers within milliseconds.
	// Port scanners and raw TCP probes never answer, so one second is
	// enough to tell them apart without holding sockets open.
	DefaultHandshakeTimeout = 1 * time.Second

	// DefaultVerifyDelay is the pause after a credential submission,
	// imitating a backend verifying the login.
	DefaultVerifyDelay = 1 * time.Second

	// DefaultRejectDelay is the pause after the rejection message,
	// before the console redraws for the next attempt.
	DefaultRejectDelay = 2 * time.Second

	// DefaultMaxSessions caps concurrent peer connections. Each session
	// holds one goroutine and one file descriptor, so the cap mostly
	// guards against connection floods exhausting descriptors.
	DefaultMaxSessions = 512

	// DefaultFieldCapacity is the input buffer size for the username and
	// password fields, including the terminator slot.
	DefaultFieldCapacity = 1024

	// DefaultChrootDir is the empty directory the serve command chroots
	// into when hardening is enabled.
	DefaultChrootDir = "/var/empty"

	// DefaultReportTopN bounds the top-N lists in generated reports.
	DefaultReportTopN = 10

	// DefaultReportRecentN bounds the recent-capture list in reports.
	DefaultReportRecentN = 20

	// AppName is the application name used for XDG directory paths.
	AppName = "telnetpot"
)

// Config holds all configuration options for telnetpot.
// This struct is designed to be populated from CLI flags and the optional
// config file, then passed through the application via dependency
// injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., ServerConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
type Config struct {
	// ListenAddress is the TCP address to listen on in "host:port" format.
	ListenAddress string

	// Hostname is the hostname the fake login console presents in its
	// banner, prompts, and terminal titles.
	Hostname string

	// HandshakeTimeout is the maximum time a peer gets to complete the
	// telnet option negotiation before the connection is rejected.
	HandshakeTimeout time.Duration

	// VerifyDelay is the pause after each credential submission.
	VerifyDelay time.Duration

	// RejectDelay is the pause after each rejection message.
	RejectDelay time.Duration

	// MaxSessions caps the number of concurrent peer connections.
	MaxSessions int

	// FieldCapacity is the input buffer size for login fields.
	// Must be at least 2 (one byte of input plus the terminator slot).
	FieldCapacity int

	// CaptureLogFile is the path of the flat capture log.
	// When empty, no flat log is written.
	CaptureLogFile string

	// DBDir is the directory path for storing the SQLite database.
	// When empty, the XDG data directory is used.
	DBDir string

	// SaveToDB indicates whether captures are stored in the database.
	SaveToDB bool

	// ChrootDir is the directory to chroot into when hardening is enabled.
	ChrootDir string

	// DropPrivileges enables chroot and setuid hardening after the
	// listener is open. Requires running as root.
	DropPrivileges bool

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only info and above are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .telnetpot in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// JSONReport enables JSON report output instead of human-readable format.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of
	// human-readable format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// ReportTopN bounds the top-N lists in generated reports.
	ReportTopN int

	// ReportRecentN bounds the recent-capture list in reports.
	ReportRecentN int
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeouts, the
// listen port). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		ListenAddress:    DefaultListenAddress,
		Hostname:         DefaultHostname,
		HandshakeTimeout: DefaultHandshakeTimeout,
		VerifyDelay:      DefaultVerifyDelay,
		RejectDelay:      DefaultRejectDelay,
		MaxSessions:      DefaultMaxSessions,
		FieldCapacity:    DefaultFieldCapacity,
		ChrootDir:        DefaultChrootDir,
		SaveToDB:         true,
		ReportTopN:       DefaultReportTopN,
		ReportRecentN:    DefaultReportRecentN,
	}
}

// XDGDataDir returns the XDG data directory for telnetpot.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/telnetpot
// On macOS: ~/Library/Application Support/telnetpot
// On Windows: %LOCALAPPDATA%\telnetpot
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for telnetpot.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.config/telnetpot
// On macOS: ~/Library/Application Support/telnetpot
// On Windows: %APPDATA%\telnetpot
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before the listener opens.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if c.ListenAddress == "" {
		return ErrNoListenAddress
	}

	// Zero timeout would reject every peer before it can answer
	if c.HandshakeTimeout <= 0 {
		return ErrInvalidHandshakeTimeout
	}

	// Delays of zero are fine; negative is nonsensical
	if c.VerifyDelay < 0 || c.RejectDelay < 0 {
		return ErrInvalidDelay
	}

	if c.MaxSessions <= 0 {
		return ErrInvalidMaxSessions
	}

	// The field buffer needs room for at least one byte plus the terminator
	if c.FieldCapacity < 2 {
		return ErrInvalidFieldCapacity
	}

	// JSONReport and MarkdownReport are mutually exclusive
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.ReportTopN < 0 || c.ReportRecentN < 0 {
		return ErrInvalidReportLimit
	}

	return nil
}
