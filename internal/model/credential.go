package model

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"
)

// Credential is one captured login attempt. Every attempt is recorded;
// none is ever accepted.
type Credential struct {
	// ID is the database row identifier, zero until stored.
	ID int64 `json:"id,omitempty"`

	// SourceAddr is the peer's IP address without the port.
	SourceAddr string `json:"source_addr"`

	// Username is the identifier field exactly as typed.
	Username string `json:"username"`

	// Password is the secret field exactly as typed.
	Password string `json:"password"`

	// TerminalType is the terminal the peer announced during the
	// handshake, or the negotiated default.
	TerminalType string `json:"terminal_type,omitempty"`

	// TerminalWidth is the window width the peer reported, or the
	// negotiated default.
	TerminalWidth int `json:"terminal_width,omitempty"`

	// Timestamp is when the attempt was captured.
	Timestamp time.Time `json:"timestamp"`
}

// Fingerprint returns a hex SHA3-256 digest of the username/password pair.
// Identical pairs produce identical fingerprints regardless of source, so
// repeated use of one credential list is visible across sessions.
func (c Credential) Fingerprint() string {
	h := sha3.New256()
	h.Write([]byte(c.Username))
	h.Write([]byte{0})
	h.Write([]byte(c.Password))
	return hex.EncodeToString(h.Sum(nil))
}

// HasDomain reports whether the username carries a domain qualifier. The
// session loop hints at a missing one to keep the peer typing.
func (c Credential) HasDomain() bool {
	return strings.Contains(c.Username, "@")
}

// LogLine renders the flat-file sink format: "addr - user:pass".
func (c Credential) LogLine() string {
	return fmt.Sprintf("%s - %s:%s", c.SourceAddr, c.Username, c.Password)
}

// CountedValue is a value with its occurrence count, used for the top-N
// lists in the capture report.
type CountedValue struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// CaptureReport is an aggregate view over all stored credentials,
// rendered by the report command.
type CaptureReport struct {
	// GeneratedAt is when the report was built.
	GeneratedAt time.Time `json:"generated_at"`

	// TotalAttempts is the number of captured login attempts.
	TotalAttempts int `json:"total_attempts"`

	// UniqueSources is the number of distinct peer addresses seen.
	UniqueSources int `json:"unique_sources"`

	// UniquePairs is the number of distinct credential fingerprints.
	UniquePairs int `json:"unique_pairs"`

	// TopUsernames, TopPasswords and TopSources are the most frequent
	// values, most frequent first.
	TopUsernames []CountedValue `json:"top_usernames,omitempty"`
	TopPasswords []CountedValue `json:"top_passwords,omitempty"`
	TopSources   []CountedValue `json:"top_sources,omitempty"`

	// Recent holds the most recent captures, newest first.
	Recent []Credential `json:"recent,omitempty"`
}
