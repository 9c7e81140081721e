// Package main provides the entry point for the telnetpot CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for telnetpot.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "telnetpot",
		Short: "Telnet honeypot that captures login credentials",
		Long: `Telnetpot listens for telnet connections, presents a fake login console,
and records every credential pair peers try against it. No login ever
succeeds; every attempt ends with an invitation to try again.

Captured credentials are stored in a local SQLite database and can be
summarized with the report command.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewReportCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
