package telnet

import (
	"errors"
	"fmt"
	"io"
)

// ErrCommandInField is returned when an IAC byte arrives in the middle of
// an input field. Negotiation is over by the time fields are read, so a
// command escape mid-line is surplus protocol traffic and the session
// ends.
var ErrCommandInField = errors.New("telnet: unexpected command byte in input field")

// DefaultFieldCapacity bounds an input field, terminator and NUL filler
// excluded. One byte is reserved so the cursor always satisfies
// 0 <= cursor < capacity-1.
const DefaultFieldCapacity = 1024

// maskChar is echoed in place of every character of a masked field.
const maskChar byte = '*'

// LineEditor reads one input field at a time, byte by byte, from a
// connection whose local echo has been negotiated off. It paints the echo,
// handles backspace and masking, and finalizes on a line terminator.
//
// Masked fields cannot support partial backspace: the true character
// boundaries are hidden from the remote display, so a backspace erases
// the whole masked echo and restarts the field.
type LineEditor struct {
	conn     io.ReadWriter
	capacity int
	one      [1]byte
}

// LineEditorOption configures a LineEditor.
type LineEditorOption func(*LineEditor)

// WithFieldCapacity sets the field buffer capacity. Values below two are
// ignored; a field needs room for at least one character plus the
// reserved byte.
func WithFieldCapacity(n int) LineEditorOption {
	return func(e *LineEditor) {
		if n >= 2 {
			e.capacity = n
		}
	}
}

// NewLineEditor creates a LineEditor for one connection.
func NewLineEditor(conn io.ReadWriter, opts ...LineEditorOption) *LineEditor {
	e := &LineEditor{
		conn:     conn,
		capacity: DefaultFieldCapacity,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ReadField reads one field from the connection until a line terminator.
// With mask set, every stored character is echoed as maskChar instead of
// itself.
//
// The peer's cursor is made visible for the duration of the read and
// hidden again before returning. Any read or write error is fatal to the
// session; there is no recoverable partial-field state.
func (e *LineEditor) ReadField(mask bool) (string, error) {
	if _, err := io.WriteString(e.conn, ShowCursor); err != nil {
		return "", err
	}

	buf := make([]byte, 0, e.capacity)
	for {
		c, err := e.readByte()
		if err != nil {
			return "", err
		}

		// A NUL is the non-printing filler from the CR NUL line convention;
		// discard it and read the byte it displaced.
		if c == 0 {
			if c, err = e.readByte(); err != nil {
				return "", err
			}
		}

		switch {
		case c == '\r' || c == '\n':
			if err := Newline(e.conn, 1); err != nil {
				return "", err
			}
			if _, err := io.WriteString(e.conn, HideCursor); err != nil {
				return "", err
			}
			return string(buf), nil

		case c == '\b' || c == 0x7f:
			if len(buf) == 0 {
				// Cursor is at the field start; the edit is a no-op rather
				// than an underflow.
				continue
			}
			if mask {
				if _, err := fmt.Fprintf(e.conn, eraseFieldFmt, len(buf)); err != nil {
					return "", err
				}
				buf = buf[:0]
				continue
			}
			if _, err := io.WriteString(e.conn, eraseBack); err != nil {
				return "", err
			}
			buf = buf[:len(buf)-1]

		case c == IAC:
			return "", ErrCommandInField

		default:
			if len(buf) >= e.capacity-1 {
				// Full: keep consuming the stream until the terminator but
				// store and echo nothing further.
				continue
			}
			buf = append(buf, c)
			echo := c
			if mask {
				echo = maskChar
			}
			if _, err := e.conn.Write([]byte{echo}); err != nil {
				return "", err
			}
		}
	}
}

// readByte reads exactly one byte from the connection.
func (e *LineEditor) readByte() (byte, error) {
	if _, err := io.ReadFull(e.conn, e.one[:]); err != nil {
		return 0, err
	}
	return e.one[0], nil
}
