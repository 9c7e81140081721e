package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/nao1215/telnetpot/internal/model"
	"github.com/nao1215/telnetpot/internal/telnet"
)

// Session defaults.
const (
	// DefaultHostname is the host the scripted console pretends to be.
	DefaultHostname = "kexec.com"

	// DefaultVerifyDelay simulates credential verification before the
	// rejection.
	DefaultVerifyDelay = time.Second

	// DefaultRejectDelay lets the rejection message sink in before the
	// screen is redrawn.
	DefaultRejectDelay = 2 * time.Second
)

// Session owns one accepted connection from handshake to close.
type Session struct {
	conn     telnet.Conn
	peer     string
	recorder Recorder
	logger   *slog.Logger

	hostname         string
	handshakeTimeout time.Duration
	verifyDelay      time.Duration
	rejectDelay      time.Duration
	fieldCapacity    int
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithHostname sets the host the scripted console claims to be.
func WithHostname(hostname string) Option {
	return func(s *Session) {
		if hostname != "" {
			s.hostname = hostname
		}
	}
}

// WithHandshakeTimeout sets the negotiation deadline.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.handshakeTimeout = d
		}
	}
}

// WithDelays sets the simulated verification and rejection delays. Zero
// disables a delay; tests rely on that.
func WithDelays(verify, reject time.Duration) Option {
	return func(s *Session) {
		s.verifyDelay = verify
		s.rejectDelay = reject
	}
}

// WithFieldCapacity bounds each input field.
func WithFieldCapacity(n int) Option {
	return func(s *Session) {
		s.fieldCapacity = n
	}
}

// New creates a Session for one connection. peer is the remote address
// without the port, as supplied by the accept loop.
func New(conn telnet.Conn, peer string, recorder Recorder, opts ...Option) *Session {
	s := &Session{
		conn:             conn,
		peer:             peer,
		recorder:         recorder,
		logger:           slog.Default(),
		hostname:         DefaultHostname,
		handshakeTimeout: telnet.DefaultHandshakeTimeout,
		verifyDelay:      DefaultVerifyDelay,
		rejectDelay:      DefaultRejectDelay,
		fieldCapacity:    telnet.DefaultFieldCapacity,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run drives the session until the peer disconnects or the handshake
// fails. The returned error describes why the session ended; io.EOF and
// ErrHandshakeTimeout are ordinary outcomes for a honeypot, not faults.
func (s *Session) Run(ctx context.Context) error {
	negotiator := telnet.NewNegotiator(s.conn,
		telnet.WithHandshakeTimeout(s.handshakeTimeout),
		telnet.WithLogger(s.logger),
	)

	snap, err := negotiator.Negotiate(ctx)
	if err != nil {
		if errors.Is(err, telnet.ErrHandshakeTimeout) {
			s.logger.Info("peer failed the handshake", "peer", s.peer)
		}
		return err
	}

	s.logger.Debug("handshake complete",
		"peer", s.peer,
		"terminal", snap.TerminalType,
		"width", snap.TerminalWidth,
		"local_echo", snap.LocalEcho,
	)

	if err := s.writeWelcome(); err != nil {
		return err
	}

	editor := telnet.NewLineEditor(s.conn, telnet.WithFieldCapacity(s.fieldCapacity))

	for {
		if err := s.prompt("Username: "); err != nil {
			return err
		}
		username, err := editor.ReadField(false)
		if err != nil {
			return err
		}

		if err := s.prompt("Password: "); err != nil {
			return err
		}
		password, err := editor.ReadField(true)
		if err != nil {
			return err
		}

		if err := telnet.Newline(s.conn, 2); err != nil {
			return err
		}

		cred := model.Credential{
			SourceAddr:    s.peer,
			Username:      username,
			Password:      password,
			TerminalType:  snap.TerminalType,
			TerminalWidth: snap.TerminalWidth,
			Timestamp:     time.Now(),
		}
		if err := s.recorder.Record(ctx, cred); err != nil {
			// Capture failures must not break the deception.
			s.logger.Error("failed to record capture", "peer", s.peer, "error", err)
		}
		s.logger.Info("credentials captured",
			"peer", s.peer,
			"username", username,
			"password", password,
			"fingerprint", cred.Fingerprint(),
		)

		if err := s.reject(ctx, cred); err != nil {
			return err
		}
	}
}

// writeWelcome paints the initial console: terminal titles, cleared
// screen, hidden cursor, and the scripted banner.
func (s *Session) writeWelcome() error {
	welcome := fmt.Sprintf("Welcome to %s", s.hostname)

	var b strings.Builder
	// Title sequences for screen/tmux, xterm tab, and xterm window.
	fmt.Fprintf(&b, "\x1bk%s\x1b\\", welcome)
	fmt.Fprintf(&b, "\x1b]1;%s\a", welcome)
	fmt.Fprintf(&b, "\x1b]2;%s\a", welcome)
	b.WriteString(telnet.ClearScreen + telnet.HideCursor)
	if _, err := io.WriteString(s.conn, b.String()); err != nil {
		return err
	}

	if err := s.writeHeader(); err != nil {
		return err
	}
	if err := telnet.Newline(s.conn, 3); err != nil {
		return err
	}

	lines := []string{
		"This console uses " + telnet.ANSIBrightBlue + "Google App Engine" + telnet.ANSIReset + " for authentication. To login as",
		"an administrator, enter the admin account credentials. If you do not",
		"yet have an account on " + s.shortHost() + ", enter your Google credentials to begin.",
	}
	for i, line := range lines {
		if _, err := io.WriteString(s.conn, line); err != nil {
			return err
		}
		count := 1
		if i == len(lines)-1 {
			count = 4
		}
		if err := telnet.Newline(s.conn, count); err != nil {
			return err
		}
	}
	return nil
}

// writeHeader paints the centered console title line.
func (s *Session) writeHeader() error {
	header := fmt.Sprintf("                  %s%s Administration Console%s",
		telnet.ANSIBold, s.hostname, telnet.ANSIReset)
	_, err := io.WriteString(s.conn, header)
	return err
}

// shortHost returns the hostname without its domain suffix for use in
// running text.
func (s *Session) shortHost() string {
	host, _, found := strings.Cut(s.hostname, ".")
	if !found || host == "" {
		return s.hostname
	}
	return host
}

// prompt paints a bright green field label.
func (s *Session) prompt(label string) error {
	_, err := io.WriteString(s.conn, telnet.ANSIBrightGreen+label+telnet.ANSIReset)
	return err
}

// reject plays the scripted rejection: a pause for pretend verification,
// the invalid-credentials message, another pause, then a redrawn header
// with an optional hint about the missing domain qualifier.
func (s *Session) reject(ctx context.Context, cred model.Credential) error {
	if err := s.pause(ctx, s.verifyDelay); err != nil {
		return err
	}
	if err := telnet.Newline(s.conn, 1); err != nil {
		return err
	}
	if _, err := io.WriteString(s.conn, telnet.ANSIBrightRed+"Invalid credentials. Please try again."+telnet.ANSIReset); err != nil {
		return err
	}
	if err := s.pause(ctx, s.rejectDelay); err != nil {
		return err
	}

	if _, err := io.WriteString(s.conn, telnet.ClearScreen+telnet.HideCursor); err != nil {
		return err
	}
	if err := s.writeHeader(); err != nil {
		return err
	}
	if err := telnet.Newline(s.conn, 2); err != nil {
		return err
	}

	if !cred.HasDomain() {
		hint := telnet.ANSIBrightBlue + "Be sure to include the domain in your username (e.g. @gmail.com)." + telnet.ANSIReset
		if _, err := io.WriteString(s.conn, hint); err != nil {
			return err
		}
		if err := telnet.Newline(s.conn, 2); err != nil {
			return err
		}
	}
	return nil
}

// pause sleeps for d unless the session context ends first.
func (s *Session) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
