package telnet

// ANSI escape sequences used while driving the peer's display. The peer's
// local echo is negotiated off, so every visible effect of typing is
// painted from this side. Exported so the scripted console shares one
// definition of the wire dressing.
const (
	ShowCursor = "\x1b[?25h"
	HideCursor = "\x1b[?25l"

	ClearScreen = "\x1b[H\x1b[2J"

	ANSIReset       = "\x1b[0m"
	ANSIBold        = "\x1b[1m"
	ANSIBrightRed   = "\x1b[1;31m"
	ANSIBrightGreen = "\x1b[1;32m"
	ANSIBrightBlue  = "\x1b[1;34m"
)

const (
	// eraseBack rubs out exactly one displayed character: move left,
	// overwrite with a space, move left again.
	eraseBack = "\b \b"

	// eraseFieldFmt moves the cursor left by the formatted count and clears
	// to end of line, erasing an entire masked field.
	eraseFieldFmt = "\x1b[%dD\x1b[K"
)
