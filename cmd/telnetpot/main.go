// Package main provides the entry point for the telnetpot CLI.
//
// Telnetpot is a telnet honeypot that presents a fake login console and
// records every credential pair peers try against it. No login ever
// succeeds.
//
// Usage:
//
//	telnetpot serve
//	telnetpot report --markdown
//
// See --help for all available options.
package main

// main is the entry point for telnetpot.
func main() {
	Execute()
}
