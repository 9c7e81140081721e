package telnet

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// Negotiation errors.
var (
	// ErrHandshakeTimeout is returned when the peer fails to complete the
	// option handshake before the deadline. Non-interactive scanners that
	// pipe bytes at the port without negotiating trip this.
	ErrHandshakeTimeout = errors.New("telnet: handshake timed out")

	// ErrProtocol is returned on a malformed command sequence during the
	// handshake, such as a doubled IAC. The handshake scanner never expects
	// literal 0xff data, so a doubled IAC is treated as a broken peer
	// rather than an escaped data byte.
	ErrProtocol = errors.New("telnet: malformed command sequence")
)

// Negotiation defaults.
const (
	// DefaultHandshakeTimeout bounds the whole option exchange. Real telnet
	// clients answer the initial offers within milliseconds.
	DefaultHandshakeTimeout = time.Second

	// DefaultTerminalType is assumed when the peer never names a terminal.
	DefaultTerminalType = "ansi"

	// DefaultTerminalWidth is assumed when the peer never reports a window
	// size.
	DefaultTerminalWidth = 80

	// subnegCapacity bounds the sub-negotiation capture buffer. Payload
	// bytes beyond it are dropped, never buffered.
	subnegCapacity = 1024

	// maxTerminalType bounds the terminal type accepted from the peer.
	maxTerminalType = 255

	// capabilitiesNeeded is how many capability resolutions (terminal type
	// and window size) end the handshake successfully.
	capabilitiesNeeded = 2
)

// DefaultRejectBanner is shown to peers that never complete the handshake.
const DefaultRejectBanner = "*** You must connect using a real telnet client. ***"

// Conn is the duplex byte stream the protocol core runs over. net.Conn
// satisfies it; the read deadline carries the handshake timeout.
type Conn interface {
	io.Reader
	io.Writer
	SetReadDeadline(t time.Time) error
}

// Snapshot is the capability set resolved by the handshake. It is handed
// to the session loop read-only once negotiation exits.
type Snapshot struct {
	// TerminalType is the terminal name announced by the peer, or
	// DefaultTerminalType.
	TerminalType string

	// TerminalWidth is the window width reported by the peer, or
	// DefaultTerminalWidth.
	TerminalWidth int

	// LocalEcho reports whether the peer asked this server to echo. The
	// session masks secrets unconditionally, but the flag is resolved
	// regardless.
	LocalEcho bool
}

// state is the negotiation scanner state.
type state int

const (
	// stateNormal scans for IAC; ordinary bytes are discarded because the
	// handshake window carries no application dialog.
	stateNormal state = iota

	// stateCommand follows an IAC; the next byte is a negotiation verb or a
	// structural command.
	stateCommand

	// stateOption follows a negotiation verb; the next byte is the option
	// code.
	stateOption

	// stateSubneg captures sub-negotiation payload bytes until IAC SE.
	stateSubneg
)

// Negotiator drives the option handshake for one connection.
type Negotiator struct {
	conn     Conn
	registry *Registry
	logger   *slog.Logger
	timeout  time.Duration
	banner   string

	state    state
	verb     byte // pending verb while in stateOption
	inSubneg bool
	subneg   []byte
	resolved int
	snap     Snapshot
	one      [1]byte
}

// NegotiatorOption configures a Negotiator.
type NegotiatorOption func(*Negotiator)

// WithHandshakeTimeout sets the handshake deadline.
func WithHandshakeTimeout(d time.Duration) NegotiatorOption {
	return func(n *Negotiator) {
		if d > 0 {
			n.timeout = d
		}
	}
}

// WithRegistry sets the option registry. The default is DefaultRegistry.
func WithRegistry(r *Registry) NegotiatorOption {
	return func(n *Negotiator) {
		if r != nil {
			n.registry = r
		}
	}
}

// WithLogger sets a logger for per-command debug tracing.
func WithLogger(logger *slog.Logger) NegotiatorOption {
	return func(n *Negotiator) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// WithRejectBanner sets the banner written to peers that time out.
func WithRejectBanner(banner string) NegotiatorOption {
	return func(n *Negotiator) {
		n.banner = banner
	}
}

// NewNegotiator creates a Negotiator for one connection.
func NewNegotiator(conn Conn, opts ...NegotiatorOption) *Negotiator {
	n := &Negotiator{
		conn:     conn,
		registry: DefaultRegistry(),
		logger:   slog.Default(),
		timeout:  DefaultHandshakeTimeout,
		banner:   DefaultRejectBanner,
		subneg:   make([]byte, 0, subnegCapacity),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Negotiate transmits the server's option offers, then consumes the peer's
// negotiation traffic until both capabilities (terminal type and window
// size) resolve or the deadline fires.
//
// On timeout it writes the rejection banner and returns
// ErrHandshakeTimeout. A malformed command sequence returns ErrProtocol.
// Stream exhaustion returns the underlying read error. All three are fatal
// to the session; nothing is retried.
func (n *Negotiator) Negotiate(ctx context.Context) (*Snapshot, error) {
	n.snap = Snapshot{
		TerminalType:  DefaultTerminalType,
		TerminalWidth: DefaultTerminalWidth,
	}

	if err := n.sendOffers(); err != nil {
		return nil, fmt.Errorf("send option offers: %w", err)
	}

	if err := n.conn.SetReadDeadline(time.Now().Add(n.timeout)); err != nil {
		return nil, fmt.Errorf("arm handshake deadline: %w", err)
	}

	for n.resolved < capabilitiesNeeded {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		b, err := n.readByte()
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				n.rejectPeer()
				return nil, ErrHandshakeTimeout
			}
			return nil, err
		}

		if err := n.step(b); err != nil {
			return nil, err
		}
	}

	snap := n.snap
	return &snap, nil
}

// sendOffers transmits the declared stances for both directions through
// Reconcile, priming the agreed tables so the peer echoing an offer back
// draws no duplicate reply.
func (n *Negotiator) sendOffers() error {
	var err error
	send := func(stance, opt byte) {
		if err != nil {
			return
		}
		err = n.writeCommand(stance, opt)
	}
	n.registry.eachDeclared(DirLocal, func(opt, stance byte) {
		if n.registry.Reconcile(DirLocal, opt, stance) {
			send(stance, opt)
		}
	})
	n.registry.eachDeclared(DirPeer, func(opt, stance byte) {
		if n.registry.Reconcile(DirPeer, opt, stance) {
			send(stance, opt)
		}
	})
	return err
}

// step advances the state machine by one input byte.
func (n *Negotiator) step(b byte) error {
	switch n.state {
	case stateNormal:
		if b == IAC {
			n.state = stateCommand
		}
		// Ordinary bytes outside a sub-negotiation are not part of the
		// handshake and are discarded.
		return nil
	case stateSubneg:
		if b == IAC {
			n.state = stateCommand
			return nil
		}
		n.capture(b)
		return nil
	case stateCommand:
		return n.stepCommand(b)
	case stateOption:
		return n.stepOption(b)
	}
	return nil
}

// resume returns the state to re-enter after a command completes: back
// into the sub-negotiation capture if one is active, otherwise normal
// scanning.
func (n *Negotiator) resume() state {
	if n.inSubneg {
		return stateSubneg
	}
	return stateNormal
}

// stepCommand handles the byte following an IAC.
func (n *Negotiator) stepCommand(b byte) error {
	switch b {
	case WILL, WONT, DO, DONT:
		n.verb = b
		n.state = stateOption
	case SB:
		n.inSubneg = true
		n.subneg = n.subneg[:0]
		n.state = stateSubneg
	case SE:
		err := n.finishSubneg()
		n.inSubneg = false
		n.state = stateNormal
		return err
	case NOP:
		// Keep-alive courtesy: answer in kind.
		if err := n.writeRaw([]byte{IAC, NOP}); err != nil {
			return err
		}
		n.state = n.resume()
	case IAC:
		// A doubled IAC would be a literal 0xff in application data, but
		// the handshake scanner never expects literal data.
		return ErrProtocol
	default:
		n.logger.Debug("ignoring telnet command", "command", codeName(b))
		n.state = n.resume()
	}
	return nil
}

// stepOption handles the option code following a negotiation verb.
func (n *Negotiator) stepOption(opt byte) error {
	defer func() { n.state = n.resume() }()

	n.logger.Debug("peer negotiation",
		"verb", codeName(n.verb), "option", codeName(opt))

	switch n.verb {
	case WILL, WONT:
		stance := n.registry.Offer(DirPeer, opt)
		if n.registry.Reconcile(DirPeer, opt, stance) {
			if err := n.writeCommand(stance, opt); err != nil {
				return err
			}
		}
		if n.verb == WILL && opt == TTYPE {
			// The peer can name its terminal; ask it to do so now. This is
			// the one place the server originates new negotiation traffic
			// mid-handshake.
			if err := n.writeRaw([]byte{IAC, SB, TTYPE, SEND, IAC, SE}); err != nil {
				return err
			}
		}
	case DO, DONT:
		stance := n.registry.Offer(DirLocal, opt)
		if n.registry.Reconcile(DirLocal, opt, stance) {
			if err := n.writeCommand(stance, opt); err != nil {
				return err
			}
		}
		if opt == ECHO {
			n.snap.LocalEcho = n.verb == DO
		}
	}
	return nil
}

// capture appends a payload byte to the sub-negotiation buffer. Bytes past
// capacity are dropped silently; the buffer can never grow beyond
// subnegCapacity under any peer input.
func (n *Negotiator) capture(b byte) {
	if len(n.subneg) < subnegCapacity {
		n.subneg = append(n.subneg, b)
	}
}

// finishSubneg resolves a completed sub-negotiation. The buffer's leading
// byte names the option being answered; the rest is payload. Each
// resolution disarms the handshake deadline.
func (n *Negotiator) finishSubneg() error {
	if len(n.subneg) == 0 {
		return nil
	}

	switch n.subneg[0] {
	case TTYPE:
		// Payload is IS followed by the terminal name.
		if name := n.terminalName(); name != "" {
			n.snap.TerminalType = name
		}
		n.logger.Debug("terminal type resolved", "terminal", n.snap.TerminalType)
		return n.resolveCapability()
	case NAWS:
		// Payload is width and height, two bytes each in network order.
		if len(n.subneg) >= 3 {
			if width := int(binary.BigEndian.Uint16(n.subneg[1:3])); width > 0 {
				n.snap.TerminalWidth = width
			}
		}
		n.logger.Debug("window size resolved", "width", n.snap.TerminalWidth)
		return n.resolveCapability()
	}
	return nil
}

// terminalName extracts the bounded terminal name from the TTYPE payload,
// skipping the option code and the IS marker.
func (n *Negotiator) terminalName() string {
	if len(n.subneg) < 3 {
		return ""
	}
	name := n.subneg[2:]
	if len(name) > maxTerminalType {
		name = name[:maxTerminalType]
	}
	return string(name)
}

// resolveCapability counts one resolved capability and disarms the
// handshake deadline so the timer cannot fire after the peer has already
// proven interactive.
func (n *Negotiator) resolveCapability() error {
	n.resolved++
	if err := n.conn.SetReadDeadline(time.Time{}); err != nil {
		return fmt.Errorf("disarm handshake deadline: %w", err)
	}
	return nil
}

// rejectPeer writes the rejection banner for peers that never complete the
// handshake. Write errors are ignored; the session is terminating either
// way.
func (n *Negotiator) rejectPeer() {
	_, _ = n.conn.Write([]byte(ShowCursor + ANSIReset + ClearScreen))
	_, _ = n.conn.Write([]byte(ANSIBrightRed + n.banner + ANSIReset))
	_ = Newline(n.conn, 1)
}

// readByte reads exactly one byte from the connection.
func (n *Negotiator) readByte() (byte, error) {
	if _, err := io.ReadFull(n.conn, n.one[:]); err != nil {
		return 0, err
	}
	return n.one[0], nil
}

// writeCommand transmits IAC, a negotiation verb, and an option code.
func (n *Negotiator) writeCommand(verb, opt byte) error {
	n.logger.Debug("server negotiation",
		"verb", codeName(verb), "option", codeName(opt))
	return n.writeRaw([]byte{IAC, verb, opt})
}

// writeRaw writes bytes to the peer.
func (n *Negotiator) writeRaw(p []byte) error {
	_, err := n.conn.Write(p)
	return err
}

// Newline writes the telnet newline sequence (CR NUL LF) n times. The NUL
// is the protocol's required filler after a bare carriage return.
func Newline(w io.Writer, count int) error {
	for i := 0; i < count; i++ {
		if _, err := w.Write([]byte{'\r', 0, '\n'}); err != nil {
			return err
		}
	}
	return nil
}
