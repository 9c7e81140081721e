package telnet

import "strconv"

// Telnet command codes.
// See https://www.iana.org/assignments/telnet-options/telnet-options.xhtml
const (
	IAC  byte = 255 // "Interpret As Command"
	DONT byte = 254
	DO   byte = 253
	WONT byte = 252
	WILL byte = 251

	SB  byte = 250 // Subnegotiation Begin
	GA  byte = 249 // Go Ahead
	EL  byte = 248 // Erase Line
	EC  byte = 247 // Erase Character
	AYT byte = 246 // Are You There
	AO  byte = 245 // Abort output
	IP  byte = 244 // Interrupt process
	BRK byte = 243 // Break
	DM  byte = 242 // Data Mark
	NOP byte = 241 // No Operation
	SE  byte = 240 // Subnegotiation End
)

// Sub-negotiation data-direction markers.
const (
	IS   byte = 0 // payload carries the peer's answer
	SEND byte = 1 // request that the peer send its answer
)

// Telnet option codes for the fixed set this server negotiates.
const (
	BINARY      byte = 0  // 8-bit data path
	ECHO        byte = 1  // echo
	SGA         byte = 3  // suppress go ahead
	STATUS      byte = 5  // give status
	TM          byte = 6  // timing mark
	TTYPE       byte = 24 // terminal type
	NAWS        byte = 31 // window size
	TSPEED      byte = 32 // terminal speed
	LFLOW       byte = 33 // remote flow control
	LINEMODE    byte = 34 // linemode option
	XDISPLOC    byte = 35 // X display location
	NEW_ENVIRON byte = 39 // environment variables
)

// CodeToASCII maps command and option codes to their protocol names for
// debug logging. Codes outside the negotiated set resolve to the empty
// string; callers should fall back to the numeric value.
var CodeToASCII = map[byte]string{
	IAC:         "IAC",
	DONT:        "DONT",
	DO:          "DO",
	WONT:        "WONT",
	WILL:        "WILL",
	SB:          "SB",
	GA:          "GA",
	EL:          "EL",
	EC:          "EC",
	AYT:         "AYT",
	AO:          "AO",
	IP:          "IP",
	BRK:         "BRK",
	DM:          "DM",
	NOP:         "NOP",
	SE:          "SE",
	BINARY:      "BINARY",
	ECHO:        "ECHO",
	SGA:         "SGA",
	STATUS:      "STATUS",
	TM:          "TM",
	TTYPE:       "TTYPE",
	NAWS:        "NAWS",
	TSPEED:      "TSPEED",
	LFLOW:       "LFLOW",
	LINEMODE:    "LINEMODE",
	XDISPLOC:    "XDISPLOC",
	NEW_ENVIRON: "NEW_ENVIRON",
}

// codeName returns the protocol name for a code, or its decimal value when
// the code has no registered name.
func codeName(code byte) string {
	if name, ok := CodeToASCII[code]; ok {
		return name
	}
	return strconv.Itoa(int(code))
}
