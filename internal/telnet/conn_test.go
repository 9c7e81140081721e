package telnet

import (
	"bytes"
	"io"
	"os"
	"time"
)

// testConn is a scripted duplex stream for protocol tests. Reads are
// served from the script; writes accumulate in out. When the script is
// exhausted, Read waits out any armed read deadline and returns
// os.ErrDeadlineExceeded, or returns io.EOF when no deadline is armed.
// This makes both timeout and stream-exhaustion paths deterministic
// without real sockets.
type testConn struct {
	script   *bytes.Reader
	out      bytes.Buffer
	deadline time.Time
}

func newTestConn(script []byte) *testConn {
	return &testConn{script: bytes.NewReader(script)}
}

func (c *testConn) Read(p []byte) (int, error) {
	if c.script.Len() > 0 {
		return c.script.Read(p)
	}
	if c.deadline.IsZero() {
		return 0, io.EOF
	}
	if d := time.Until(c.deadline); d > 0 {
		time.Sleep(d)
	}
	return 0, os.ErrDeadlineExceeded
}

func (c *testConn) Write(p []byte) (int, error) {
	return c.out.Write(p)
}

func (c *testConn) SetReadDeadline(t time.Time) error {
	c.deadline = t
	return nil
}

// sent returns everything the code under test wrote to the peer.
func (c *testConn) sent() []byte {
	return c.out.Bytes()
}
