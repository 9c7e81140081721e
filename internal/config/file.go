package config

import (
	"fmt"
	"time"
)

// File represents the structure of the .telnetpot configuration file.
// All fields are optional; unset fields leave the corresponding Config
// value untouched.
//
// Durations are written as Go duration strings ("1s", "1500ms") so the
// file stays readable and yaml.v3 does not need a custom unmarshaler.
type File struct {
	// Listen is the TCP address to listen on.
	Listen string `yaml:"listen,omitempty"`

	// Hostname is the hostname the fake console presents.
	Hostname string `yaml:"hostname,omitempty"`

	// HandshakeTimeout bounds the telnet option negotiation.
	HandshakeTimeout string `yaml:"handshakeTimeout,omitempty"`

	// VerifyDelay is the pause after a credential submission.
	VerifyDelay string `yaml:"verifyDelay,omitempty"`

	// RejectDelay is the pause after the rejection message.
	RejectDelay string `yaml:"rejectDelay,omitempty"`

	// MaxSessions caps concurrent peer connections.
	MaxSessions int `yaml:"maxSessions,omitempty"`

	// FieldCapacity is the login field buffer size.
	FieldCapacity int `yaml:"fieldCapacity,omitempty"`

	// CaptureLog is the path of the flat capture log.
	CaptureLog string `yaml:"captureLog,omitempty"`

	// DBDir is the directory for the SQLite database.
	DBDir string `yaml:"dbDir,omitempty"`

	// ChrootDir is the directory to chroot into when hardening is enabled.
	ChrootDir string `yaml:"chrootDir,omitempty"`

	// DropPrivileges enables chroot and setuid hardening.
	DropPrivileges *bool `yaml:"dropPrivileges,omitempty"`
}

// ApplyTo overlays the file's values onto the given Config.
// CLI flags are applied after this, so flags win over the file.
func (f *File) ApplyTo(c *Config) error {
	if f.Listen != "" {
		c.ListenAddress = f.Listen
	}
	if f.Hostname != "" {
		c.Hostname = f.Hostname
	}

	if err := applyDuration(&c.HandshakeTimeout, "handshakeTimeout", f.HandshakeTimeout); err != nil {
		return err
	}
	if err := applyDuration(&c.VerifyDelay, "verifyDelay", f.VerifyDelay); err != nil {
		return err
	}
	if err := applyDuration(&c.RejectDelay, "rejectDelay", f.RejectDelay); err != nil {
		return err
	}

	if f.MaxSessions != 0 {
		c.MaxSessions = f.MaxSessions
	}
	if f.FieldCapacity != 0 {
		c.FieldCapacity = f.FieldCapacity
	}
	if f.CaptureLog != "" {
		c.CaptureLogFile = f.CaptureLog
	}
	if f.DBDir != "" {
		c.DBDir = f.DBDir
	}
	if f.ChrootDir != "" {
		c.ChrootDir = f.ChrootDir
	}
	if f.DropPrivileges != nil {
		c.DropPrivileges = *f.DropPrivileges
	}

	return nil
}

// applyDuration parses a duration field and stores it if set.
func applyDuration(dst *time.Duration, field, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", field, value, err)
	}
	*dst = d
	return nil
}
