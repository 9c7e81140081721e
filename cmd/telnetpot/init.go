package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// configFileName is the default configuration file name.
const configFileName = ".telnetpot"

// configTemplate is the sample configuration written by the init command.
// Every value shown is the default; the file works with all lines
// commented out.
const configTemplate = `# telnetpot configuration file
#
# All settings are optional. Command-line flags override file values.

# TCP address to listen on. Port 23 requires root; pair it with
# dropPrivileges to shed root after binding.
#listen: ":23"

# Hostname the fake login console presents in its banner and prompts.
#hostname: "kexec.com"

# Maximum time a peer gets to complete telnet option negotiation.
# Peers that stay silent are told to use a real telnet client.
#handshakeTimeout: "1s"

# Pause after a credential submission, imitating backend verification.
#verifyDelay: "1s"

# Pause after the rejection message, before the console redraws.
#rejectDelay: "2s"

# Maximum number of concurrent sessions.
#maxSessions: 512

# Input buffer size for the username and password fields.
#fieldCapacity: 1024

# Append captures to this flat log file as "addr - user:pass" lines.
# Leave unset to disable the flat log.
#captureLog: "/var/log/telnetpot.log"

# Directory for the SQLite capture database.
# Defaults to the XDG data directory (~/.local/share/telnetpot on Linux).
#dbDir: ""

# Chroot into this directory and drop root privileges after binding.
# Linux only; requires starting as root.
#dropPrivileges: false
#chrootDir: "/var/empty"
`

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new telnetpot configuration file",
		Long: `Initialize creates a new .telnetpot configuration file in the current directory.

The generated file includes:
- Default settings for the listener and session timing
- Commented examples for capture storage options
- Documentation for all available options

Examples:
  # Create .telnetpot in current directory
  telnetpot init

  # Create config file at a specific path
  telnetpot init -o myconfig.yaml

  # Force overwrite existing file
  telnetpot init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", configFileName,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	// Check if file already exists
	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	// Create parent directories if needed
	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Write configuration file
	if err := os.WriteFile(outputPath, []byte(configTemplate), 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(cmd.OutOrStdout(), "\nEdit this file to configure settings such as:")
	fmt.Fprintln(cmd.OutOrStdout(), "  - Listen address and session limits")
	fmt.Fprintln(cmd.OutOrStdout(), "  - The hostname the fake console presents")
	fmt.Fprintln(cmd.OutOrStdout(), "  - Capture log and database locations")

	return nil
}
