package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/telnetpot/internal/config"
	"github.com/nao1215/telnetpot/internal/database"
	"github.com/nao1215/telnetpot/internal/log"
	"github.com/nao1215/telnetpot/internal/model"
	"github.com/nao1215/telnetpot/internal/server"
	"github.com/nao1215/telnetpot/internal/session"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the telnet honeypot",
		Long: `Serve listens for telnet connections and presents a fake login console.

Every connection goes through real telnet option negotiation. Peers that
never answer the negotiation (port scanners, raw TCP probes) are told to
use a real telnet client and disconnected. Cooperating peers get a login
prompt that captures and rejects every credential pair.

Captures are stored in a local SQLite database and optionally appended
to a flat log file.

Examples:
  # Listen on the standard telnet port (requires root)
  telnetpot serve

  # Listen on an unprivileged port
  telnetpot serve --listen :2323

  # Chroot and drop root privileges after binding port 23
  telnetpot serve --harden

  # Also append captures to a flat log file
  telnetpot serve --capture-log /var/log/telnetpot.log

  # Use a custom configuration file
  telnetpot serve -c myconfig.yaml`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	// Listener flags
	cmd.Flags().StringP("listen", "l", config.DefaultListenAddress,
		"TCP address to listen on")
	cmd.Flags().IntP("max-sessions", "s", config.DefaultMaxSessions,
		"Maximum number of concurrent sessions")

	// Session behavior flags
	cmd.Flags().StringP("hostname", "H", config.DefaultHostname,
		"Hostname the fake login console presents")
	cmd.Flags().DurationP("handshake-timeout", "t", config.DefaultHandshakeTimeout,
		"Maximum time a peer gets to complete telnet negotiation")

	// Hardening flags
	cmd.Flags().Bool("harden", false,
		"Chroot and drop root privileges after binding (linux only)")
	cmd.Flags().String("chroot", config.DefaultChrootDir,
		"Directory to chroot into when hardening")

	// Storage flags
	cmd.Flags().String("db-dir", "",
		"Directory for the SQLite database (default: XDG data directory)")
	cmd.Flags().String("capture-log", "",
		"Append captures to this flat log file as \"addr - user:pass\" lines")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .telnetpot in current or home directory)")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildServeConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(os.Stderr, getVerboseFlag(cmd))
	slog.SetDefault(logger)

	// SIGINT and SIGTERM cancel the context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runServe(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildServeConfig creates a Config from the config file and cobra flags.
// Flags win over the file, the file wins over defaults.
func buildServeConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently skip when no file is found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cf, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		if err := cf.ApplyTo(cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	// Only apply flags the user actually set, so the config file is not
	// clobbered by flag defaults.
	if cmd.Flags().Changed("listen") {
		if cfg.ListenAddress, err = cmd.Flags().GetString("listen"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("max-sessions") {
		if cfg.MaxSessions, err = cmd.Flags().GetInt("max-sessions"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("hostname") {
		if cfg.Hostname, err = cmd.Flags().GetString("hostname"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("handshake-timeout") {
		if cfg.HandshakeTimeout, err = cmd.Flags().GetDuration("handshake-timeout"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("harden") {
		if cfg.DropPrivileges, err = cmd.Flags().GetBool("harden"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("chroot") {
		if cfg.ChrootDir, err = cmd.Flags().GetString("chroot"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("db-dir") {
		if cfg.DBDir, err = cmd.Flags().GetString("db-dir"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("capture-log") {
		if cfg.CaptureLogFile, err = cmd.Flags().GetString("capture-log"); err != nil {
			return nil, err
		}
	}

	if cfg.DBDir == "" {
		cfg.DBDir = config.XDGDataDir()
	}

	return cfg, nil
}

// runServe opens the capture sinks and runs the server until shutdown.
func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting honeypot",
		"listen", cfg.ListenAddress,
		"hostname", cfg.Hostname,
		"maxSessions", cfg.MaxSessions,
		"harden", cfg.DropPrivileges,
	)

	recorder, cleanup, err := buildRecorder(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithMaxSessions(cfg.MaxSessions),
		server.WithSessionOptions(
			session.WithHostname(cfg.Hostname),
			session.WithHandshakeTimeout(cfg.HandshakeTimeout),
			session.WithDelays(cfg.VerifyDelay, cfg.RejectDelay),
			session.WithFieldCapacity(cfg.FieldCapacity),
		),
	}
	if cfg.DropPrivileges {
		opts = append(opts, server.WithHardening(cfg.ChrootDir))
	}
	srv := server.New(cfg.ListenAddress, recorder, opts...)

	if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// buildRecorder assembles the capture sinks: SQLite always when SaveToDB
// is set, plus the optional flat log. The returned cleanup closes them.
func buildRecorder(cfg *config.Config, logger *slog.Logger) (session.Recorder, func(), error) {
	var recorders []session.Recorder
	var closers []func()

	if cfg.SaveToDB {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		recorders = append(recorders, db)
		closers = append(closers, func() { _ = db.Close() })
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	if cfg.CaptureLogFile != "" {
		fr, err := session.NewFileRecorder(cfg.CaptureLogFile)
		if err != nil {
			for _, c := range closers {
				c()
			}
			return nil, nil, fmt.Errorf("failed to open capture log: %w", err)
		}
		recorders = append(recorders, fr)
		closers = append(closers, func() { _ = fr.Close() })
		logger.Info("capture log opened", "path", cfg.CaptureLogFile)
	}

	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	switch len(recorders) {
	case 0:
		return noopRecorder{}, cleanup, nil
	case 1:
		return recorders[0], cleanup, nil
	default:
		return session.NewMultiRecorder(recorders...), cleanup, nil
	}
}

// noopRecorder discards captures. Used when every sink is disabled,
// which still leaves the structured log lines.
type noopRecorder struct{}

func (noopRecorder) Record(context.Context, model.Credential) error {
	return nil
}
