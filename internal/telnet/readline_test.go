package telnet

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestReadField(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		mask     bool
		capacity int
		want     string
	}{
		{
			name:  "plain field terminated by carriage return",
			input: "alice\r",
			want:  "alice",
		},
		{
			name:  "plain field terminated by newline",
			input: "alice\n",
			want:  "alice",
		},
		{
			name:  "empty field",
			input: "\r",
			want:  "",
		},
		{
			name:  "backspace erases one character",
			input: "ab\bc\r",
			want:  "ac",
		},
		{
			name:  "delete byte behaves like backspace",
			input: "ab\x7fc\r",
			want:  "ac",
		},
		{
			name:  "backspace at field start is a no-op",
			input: "\b\b\balice\r",
			want:  "alice",
		},
		{
			name:  "masked backspace restarts the field",
			input: "ab\bcd\r",
			mask:  true,
			want:  "cd",
		},
		{
			name:  "NUL filler is discarded transparently",
			input: "al\x00ice\r",
			want:  "alice",
		},
		{
			name:  "NUL before terminator",
			input: "alice\x00\r",
			want:  "alice",
		},
		{
			name:     "bytes past capacity are consumed but not stored",
			input:    "abcdef\r",
			capacity: 4,
			want:     "abc",
		},
		{
			name:     "backspace reopens a full field",
			input:    "abcd\be\r",
			capacity: 4,
			want:     "abe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			conn := newTestConn([]byte(tt.input))
			opts := []LineEditorOption{}
			if tt.capacity > 0 {
				opts = append(opts, WithFieldCapacity(tt.capacity))
			}

			got, err := NewLineEditor(conn, opts...).ReadField(tt.mask)
			if err != nil {
				t.Fatalf("ReadField() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ReadField() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadFieldEcho(t *testing.T) {
	t.Parallel()

	t.Run("unmasked field echoes literal characters", func(t *testing.T) {
		t.Parallel()

		conn := newTestConn([]byte("alice\r"))
		if _, err := NewLineEditor(conn).ReadField(false); err != nil {
			t.Fatalf("ReadField() error = %v", err)
		}
		if !bytes.Contains(conn.sent(), []byte("alice")) {
			t.Error("literal characters were not echoed")
		}
	})

	t.Run("masked field echoes only the mask character", func(t *testing.T) {
		t.Parallel()

		conn := newTestConn([]byte("hunter2\r"))
		if _, err := NewLineEditor(conn).ReadField(true); err != nil {
			t.Fatalf("ReadField() error = %v", err)
		}
		sent := conn.sent()
		if bytes.Contains(sent, []byte("hunter2")) {
			t.Error("secret was echoed in the clear")
		}
		if !bytes.Contains(sent, bytes.Repeat([]byte{maskChar}, 7)) {
			t.Error("mask characters were not echoed")
		}
	})

	t.Run("terminator echoes the telnet newline sequence", func(t *testing.T) {
		t.Parallel()

		conn := newTestConn([]byte("x\r"))
		if _, err := NewLineEditor(conn).ReadField(false); err != nil {
			t.Fatalf("ReadField() error = %v", err)
		}
		if !bytes.Contains(conn.sent(), []byte{'\r', 0, '\n'}) {
			t.Error("telnet newline sequence was not written")
		}
	})

	t.Run("cursor visibility brackets the read", func(t *testing.T) {
		t.Parallel()

		conn := newTestConn([]byte("x\r"))
		if _, err := NewLineEditor(conn).ReadField(false); err != nil {
			t.Fatalf("ReadField() error = %v", err)
		}
		sent := string(conn.sent())
		show := strings.Index(sent, ShowCursor)
		hide := strings.Index(sent, HideCursor)
		if show == -1 || hide == -1 || show > hide {
			t.Errorf("cursor sequences wrong: show at %d, hide at %d", show, hide)
		}
	})

	t.Run("masked backspace erases the whole painted field", func(t *testing.T) {
		t.Parallel()

		conn := newTestConn([]byte("abc\bx\r"))
		if _, err := NewLineEditor(conn).ReadField(true); err != nil {
			t.Fatalf("ReadField() error = %v", err)
		}
		if !bytes.Contains(conn.sent(), []byte("\x1b[3D\x1b[K")) {
			t.Error("erase-to-end sequence for three masked characters not written")
		}
	})

	t.Run("unmasked backspace erases one displayed character", func(t *testing.T) {
		t.Parallel()

		conn := newTestConn([]byte("ab\bc\r"))
		if _, err := NewLineEditor(conn).ReadField(false); err != nil {
			t.Fatalf("ReadField() error = %v", err)
		}
		if !bytes.Contains(conn.sent(), []byte(eraseBack)) {
			t.Error("single-character erase sequence not written")
		}
	})
}

func TestReadFieldFatalConditions(t *testing.T) {
	t.Parallel()

	t.Run("IAC mid-field terminates the session", func(t *testing.T) {
		t.Parallel()

		conn := newTestConn([]byte{'a', 'b', IAC, WILL, ECHO})
		_, err := NewLineEditor(conn).ReadField(false)
		if !errors.Is(err, ErrCommandInField) {
			t.Errorf("ReadField() error = %v, want ErrCommandInField", err)
		}
	})

	t.Run("stream close mid-field terminates the session", func(t *testing.T) {
		t.Parallel()

		conn := newTestConn([]byte("partial"))
		_, err := NewLineEditor(conn).ReadField(false)
		if err == nil {
			t.Error("ReadField() returned no error on stream close")
		}
	})
}

func TestReadFieldCursorInvariant(t *testing.T) {
	t.Parallel()

	// Any mix of characters and backspaces must keep the cursor inside
	// [0, capacity-1]: no underflow on leading backspaces, no growth past
	// the reserved byte.
	const capacity = 8

	var input bytes.Buffer
	input.WriteString("\b\b\b")
	for i := 0; i < 4; i++ {
		// Push against capacity, then past zero.
		input.WriteString("abcdef")
		input.WriteString("\b\b\b\b\b\b\b\b\b")
	}
	input.WriteString("ok\r")

	conn := newTestConn(input.Bytes())
	got, err := NewLineEditor(conn, WithFieldCapacity(capacity)).ReadField(false)
	if err != nil {
		t.Fatalf("ReadField() error = %v", err)
	}
	if got != "ok" {
		t.Errorf("ReadField() = %q, want %q", got, "ok")
	}
}
