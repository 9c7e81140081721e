package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/telnetpot/internal/session"
)

// Server accepts telnet connections and runs one session per peer.
// It is safe to call ListenAndServe once; the Server is not reusable
// after it returns.
type Server struct {
	// addr is the TCP address to listen on.
	addr string

	// recorder receives every captured credential.
	recorder session.Recorder

	// logger is used for server-level logging.
	logger *slog.Logger

	// maxSessions caps concurrent peer connections.
	maxSessions int

	// harden enables chroot and privilege dropping after bind.
	harden bool

	// chrootDir is the directory to chroot into when hardening.
	chrootDir string

	// sessionOpts are applied to every session.
	sessionOpts []session.Option

	// mu guards conns and closing. Sessions block in conn.Read without a
	// deadline once the handshake is done, so shutdown must close live
	// connections itself rather than wait for peers to hang up.
	mu      sync.Mutex
	conns   map[net.Conn]struct{}
	closing bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMaxSessions caps the number of concurrent peer connections.
// Non-positive values leave the listener unlimited.
func WithMaxSessions(n int) Option {
	return func(s *Server) {
		s.maxSessions = n
	}
}

// WithHardening enables chroot into dir and privilege dropping after the
// listener is open. Requires running as root and is only supported on Linux.
func WithHardening(dir string) Option {
	return func(s *Server) {
		s.harden = true
		s.chrootDir = dir
	}
}

// WithSessionOptions sets options applied to every session.
func WithSessionOptions(opts ...session.Option) Option {
	return func(s *Server) {
		s.sessionOpts = opts
	}
}

// New creates a Server that listens on addr and records captures
// through recorder.
func New(addr string, recorder session.Recorder, opts ...Option) *Server {
	s := &Server{
		addr:        addr,
		recorder:    recorder,
		logger:      slog.Default(),
		maxSessions: 0,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ListenAndServe opens the listener, optionally hardens the process, and
// serves until the context is canceled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	if s.harden {
		if err := dropPrivileges(s.chrootDir); err != nil {
			_ = ln.Close()
			return err
		}
		s.logger.Info("privileges dropped", slog.String("chroot", s.chrootDir))
	}

	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until the context is canceled.
// It takes ownership of ln and closes it before returning.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.maxSessions > 0 {
		ln = netutil.LimitListener(ln, s.maxSessions)
	}

	// Closing the listener is the only way to unblock Accept, and closing
	// the live connections is the only way to unblock their sessions.
	stop := context.AfterFunc(ctx, func() {
		_ = ln.Close()
		s.closeConns()
	})
	defer stop()
	defer func() { _ = ln.Close() }()

	s.logger.Info("listening", slog.String("addr", ln.Addr().String()))

	g, ctx := errgroup.WithContext(ctx)
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Warn("accept failed", slog.String("error", err.Error()))
			// Transient accept failures (EMFILE and friends) resolve
			// once sessions finish. Back off briefly and retry.
			select {
			case <-time.After(100 * time.Millisecond):
				continue
			case <-ctx.Done():
			}
			break
		}

		g.Go(func() error {
			s.handle(ctx, conn)
			return nil
		})
	}

	err := g.Wait()
	s.logger.Info("server stopped")
	return err
}

// track registers conn for shutdown. It reports false when the server is
// already closing, in which case the caller must close conn itself.
func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	if s.conns == nil {
		s.conns = make(map[net.Conn]struct{})
	}
	s.conns[conn] = struct{}{}
	return true
}

// untrack removes conn from the shutdown set.
func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

// closeConns closes every live connection and refuses new registrations.
func (s *Server) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closing = true
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.conns = nil
}

// handle runs one session over conn and always closes it.
func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer func() { _ = conn.Close() }()

	if !s.track(conn) {
		return
	}
	defer s.untrack(conn)

	peer := peerHost(conn.RemoteAddr())
	logger := s.logger.With(slog.String("peer", peer))
	logger.Debug("connection accepted")

	opts := append([]session.Option{session.WithLogger(logger)}, s.sessionOpts...)
	sess := session.New(conn, peer, s.recorder, opts...)

	if err := sess.Run(ctx); err != nil {
		// Sessions normally end with the peer hanging up or failing
		// the handshake. Neither is worth more than a debug line.
		logger.Debug("session ended", slog.String("reason", err.Error()))
		return
	}
	logger.Debug("session ended")
}

// peerHost extracts the host part of a remote address, falling back to
// the full string when it has no port.
func peerHost(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
