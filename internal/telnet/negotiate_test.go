package telnet

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

// handshakeScript builds the byte stream of a cooperative telnet client
// that announces the given terminal type and window width.
func handshakeScript(terminal string, width int) []byte {
	var b bytes.Buffer
	b.Write([]byte{IAC, WILL, TTYPE})
	b.Write([]byte{IAC, SB, TTYPE, IS})
	b.WriteString(terminal)
	b.Write([]byte{IAC, SE})
	b.Write([]byte{IAC, SB, NAWS, byte(width >> 8), byte(width), 0, 24})
	b.Write([]byte{IAC, SE})
	return b.Bytes()
}

func TestNegotiateResolvesCapabilities(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		script    []byte
		wantType  string
		wantWidth int
	}{
		{
			name:      "xterm at 120 columns",
			script:    handshakeScript("xterm", 120),
			wantType:  "xterm",
			wantWidth: 120,
		},
		{
			name:      "wide window uses both width bytes",
			script:    handshakeScript("vt100", 320),
			wantType:  "vt100",
			wantWidth: 320,
		},
		{
			name:      "empty terminal name keeps the default",
			script:    handshakeScript("", 100),
			wantType:  DefaultTerminalType,
			wantWidth: 100,
		},
		{
			name:      "zero width keeps the default",
			script:    handshakeScript("ansi", 0),
			wantType:  "ansi",
			wantWidth: DefaultTerminalWidth,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			conn := newTestConn(tt.script)
			snap, err := NewNegotiator(conn).Negotiate(context.Background())
			if err != nil {
				t.Fatalf("Negotiate() error = %v", err)
			}
			if snap.TerminalType != tt.wantType {
				t.Errorf("TerminalType = %q, want %q", snap.TerminalType, tt.wantType)
			}
			if snap.TerminalWidth != tt.wantWidth {
				t.Errorf("TerminalWidth = %d, want %d", snap.TerminalWidth, tt.wantWidth)
			}
		})
	}
}

func TestNegotiateSendsInitialOffers(t *testing.T) {
	t.Parallel()

	conn := newTestConn(handshakeScript("xterm", 80))
	if _, err := NewNegotiator(conn).Negotiate(context.Background()); err != nil {
		t.Fatalf("Negotiate() error = %v", err)
	}

	sent := conn.sent()
	for _, offer := range [][]byte{
		{IAC, WILL, ECHO},
		{IAC, WILL, SGA},
		{IAC, DONT, ECHO},
		{IAC, DO, NAWS},
		{IAC, DO, TTYPE},
		{IAC, DONT, LINEMODE},
	} {
		if !bytes.Contains(sent, offer) {
			t.Errorf("initial offers missing %s %s",
				codeName(offer[1]), codeName(offer[2]))
		}
	}
}

func TestNegotiateRequestsTerminalType(t *testing.T) {
	t.Parallel()

	conn := newTestConn(handshakeScript("xterm", 80))
	if _, err := NewNegotiator(conn).Negotiate(context.Background()); err != nil {
		t.Fatalf("Negotiate() error = %v", err)
	}

	// Peer announced WILL TTYPE, so the server must have asked it to send
	// the terminal name.
	request := []byte{IAC, SB, TTYPE, SEND, IAC, SE}
	if !bytes.Contains(conn.sent(), request) {
		t.Error("server never requested the terminal type sub-negotiation")
	}
}

func TestNegotiateSuppressesDuplicateReplies(t *testing.T) {
	t.Parallel()

	// The peer echoes WILL SGA three times; the server's DO SGA must appear
	// exactly once (from the initial offers), never as a reply.
	var script bytes.Buffer
	script.Write([]byte{IAC, WILL, SGA})
	script.Write([]byte{IAC, WILL, SGA})
	script.Write([]byte{IAC, WILL, SGA})
	script.Write(handshakeScript("xterm", 80))

	conn := newTestConn(script.Bytes())
	if _, err := NewNegotiator(conn).Negotiate(context.Background()); err != nil {
		t.Fatalf("Negotiate() error = %v", err)
	}

	if got := bytes.Count(conn.sent(), []byte{IAC, DO, SGA}); got != 1 {
		t.Errorf("IAC DO SGA sent %d times, want exactly 1", got)
	}
}

func TestNegotiateRefusesUnknownOptions(t *testing.T) {
	t.Parallel()

	const unknown byte = 99

	var script bytes.Buffer
	script.Write([]byte{IAC, WILL, unknown})
	script.Write([]byte{IAC, DO, unknown})
	script.Write(handshakeScript("xterm", 80))

	conn := newTestConn(script.Bytes())
	if _, err := NewNegotiator(conn).Negotiate(context.Background()); err != nil {
		t.Fatalf("Negotiate() error = %v", err)
	}

	sent := conn.sent()
	if !bytes.Contains(sent, []byte{IAC, DONT, unknown}) {
		t.Error("peer WILL for an unknown option was not refused with DONT")
	}
	if !bytes.Contains(sent, []byte{IAC, WONT, unknown}) {
		t.Error("peer DO for an unknown option was not refused with WONT")
	}
}

func TestNegotiateRecordsEchoRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		verb byte
		want bool
	}{
		{name: "DO ECHO requests local echo", verb: DO, want: true},
		{name: "DONT ECHO declines local echo", verb: DONT, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var script bytes.Buffer
			script.Write([]byte{IAC, tt.verb, ECHO})
			script.Write(handshakeScript("xterm", 80))

			conn := newTestConn(script.Bytes())
			snap, err := NewNegotiator(conn).Negotiate(context.Background())
			if err != nil {
				t.Fatalf("Negotiate() error = %v", err)
			}
			if snap.LocalEcho != tt.want {
				t.Errorf("LocalEcho = %v, want %v", snap.LocalEcho, tt.want)
			}
		})
	}
}

func TestNegotiateEchoesNOP(t *testing.T) {
	t.Parallel()

	var script bytes.Buffer
	script.Write([]byte{IAC, NOP})
	script.Write(handshakeScript("xterm", 80))

	conn := newTestConn(script.Bytes())
	if _, err := NewNegotiator(conn).Negotiate(context.Background()); err != nil {
		t.Fatalf("Negotiate() error = %v", err)
	}

	if !bytes.Contains(conn.sent(), []byte{IAC, NOP}) {
		t.Error("NOP was not echoed back to the peer")
	}
}

func TestNegotiateAbortsOnDoubledIAC(t *testing.T) {
	t.Parallel()

	conn := newTestConn([]byte{IAC, IAC})
	_, err := NewNegotiator(conn).Negotiate(context.Background())
	if !errors.Is(err, ErrProtocol) {
		t.Errorf("Negotiate() error = %v, want ErrProtocol", err)
	}
}

func TestNegotiateBoundsSubnegotiation(t *testing.T) {
	t.Parallel()

	// A terminal-type payload far beyond the capture buffer must be
	// truncated silently; the resolved name derives only from the bytes
	// that fit, clamped to the terminal type bound.
	var script bytes.Buffer
	script.Write([]byte{IAC, SB, TTYPE, IS})
	script.Write(bytes.Repeat([]byte{'a'}, 4*subnegCapacity))
	script.Write([]byte{IAC, SE})
	script.Write([]byte{IAC, SB, NAWS, 0, 80, 0, 24, IAC, SE})

	conn := newTestConn(script.Bytes())
	snap, err := NewNegotiator(conn).Negotiate(context.Background())
	if err != nil {
		t.Fatalf("Negotiate() error = %v", err)
	}

	if len(snap.TerminalType) != maxTerminalType {
		t.Errorf("TerminalType length = %d, want %d", len(snap.TerminalType), maxTerminalType)
	}
	if snap.TerminalType != strings.Repeat("a", maxTerminalType) {
		t.Error("TerminalType does not derive from the captured prefix")
	}
}

func TestNegotiateTimesOutOnSilentPeer(t *testing.T) {
	t.Parallel()

	conn := newTestConn(nil)
	n := NewNegotiator(conn, WithHandshakeTimeout(20*time.Millisecond))

	start := time.Now()
	_, err := n.Negotiate(context.Background())
	elapsed := time.Since(start)

	if !errors.Is(err, ErrHandshakeTimeout) {
		t.Fatalf("Negotiate() error = %v, want ErrHandshakeTimeout", err)
	}
	if elapsed > time.Second {
		t.Errorf("timeout took %v, want well under a second", elapsed)
	}
	if !bytes.Contains(conn.sent(), []byte(DefaultRejectBanner)) {
		t.Error("rejection banner was not written to the peer")
	}
}

func TestNegotiateEndsOnStreamClose(t *testing.T) {
	t.Parallel()

	// Peer disconnects after a partial handshake with the deadline already
	// disarmed by the first resolution.
	var script bytes.Buffer
	script.Write([]byte{IAC, SB, TTYPE, IS})
	script.WriteString("xterm")
	script.Write([]byte{IAC, SE})

	conn := newTestConn(script.Bytes())
	_, err := NewNegotiator(conn).Negotiate(context.Background())
	if !errors.Is(err, io.EOF) {
		t.Errorf("Negotiate() error = %v, want io.EOF", err)
	}
}
