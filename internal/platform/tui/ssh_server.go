package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"

	"github.com/vovakirdan/jewel-duel/internal/core"
	"github.com/vovakirdan/jewel-duel/internal/duel"
	"github.com/vovakirdan/jewel-duel/internal/multiplayer"
	"github.com/vovakirdan/jewel-duel/internal/storage"
)

// shutdownGrace bounds how long open sessions get to drain on shutdown.
const shutdownGrace = 10 * time.Second

// SSHServerConfig configures the duel SSH server.
type SSHServerConfig struct {
	Address string // host:port, ":23234" by default

	// HostKeyPath is created on first start when missing. Empty means
	// ~/.jewelduel/host_key.
	HostKeyPath string

	DBPath      string
	IdleTimeout time.Duration

	Rules       duel.Rules
	Coordinator multiplayer.CoordinatorConfig
	AnimFPS     int
}

// DefaultSSHServerConfig is the configuration behind a bare `serve`.
func DefaultSSHServerConfig() SSHServerConfig {
	return SSHServerConfig{
		Address:     ":23234",
		HostKeyPath: "~/.jewelduel/host_key",
		DBPath:      "~/.jewelduel/matches.db",
		IdleTimeout: 30 * time.Minute,
		Rules:       duel.DefaultRules(),
		Coordinator: multiplayer.DefaultCoordinatorConfig(),
		AnimFPS:     core.DefaultConfig().AnimFPS,
	}
}

// SSHServer runs one Bubble Tea program per SSH connection. Online duels
// between connections share a coordinator and a hub.
type SSHServer struct {
	config      SSHServerConfig
	server      *ssh.Server
	store       *storage.Store
	logger      *log.Logger
	hub         *multiplayer.Hub
	sessions    *multiplayer.SessionRegistry
	coordinator *multiplayer.Coordinator
}

// NewSSHServer validates cfg and prepares the server without listening.
// A match archive that cannot be opened only disables archiving.
func NewSSHServer(cfg SSHServerConfig) (*SSHServer, error) {
	if err := cfg.Rules.Validate(); err != nil {
		return nil, err
	}

	keyPath, err := prepareHostKeyPath(cfg.HostKeyPath)
	if err != nil {
		return nil, err
	}

	s := &SSHServer{
		config: cfg,
		logger: log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "jewelduel-ssh",
		}),
		sessions: multiplayer.NewSessionRegistry(),
	}

	hubOpts := []multiplayer.HubOption{
		multiplayer.WithMode(multiplayer.MatchModeSSH),
		multiplayer.WithLogger(s.logger),
	}
	if store, err := storage.Open(cfg.DBPath); err != nil {
		s.logger.Warn("match archive disabled", "path", cfg.DBPath, "error", err)
	} else {
		s.store = store
		hubOpts = append(hubOpts, multiplayer.WithArchiver(store))
	}
	s.hub = multiplayer.NewHub(cfg.Rules, hubOpts...)
	s.coordinator = multiplayer.NewCoordinator(cfg.Coordinator, s.hub, s.sessions, s.logger)

	s.server, err = wish.NewServer(
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(keyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(s.teaHandler),
			s.loggingMiddleware,
		),
	)
	if err != nil {
		s.closeStore()
		return nil, fmt.Errorf("create ssh server: %w", err)
	}
	return s, nil
}

// prepareHostKeyPath resolves the key location and makes sure its
// directory exists; wish generates the key itself.
func prepareHostKeyPath(path string) (string, error) {
	if path == "" {
		path = "~/.jewelduel/host_key"
	}
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, rest)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("create host key directory: %w", err)
	}
	return path, nil
}

// teaHandler builds the session model for a connection. The session is
// registered with the coordinator for as long as the connection lives.
func (s *SSHServer) teaHandler(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sess.Pty()
	if !ok {
		s.logger.Warn("rejecting session without a pty", "user", sess.User())
		return nil, nil
	}

	channel := multiplayer.NewChannelSession(multiplayer.NewSessionID(), multiplayer.DefaultEventBuffer)
	s.sessions.Register(channel)
	go s.releaseOnClose(sess.Context(), channel)

	runtime := core.RuntimeConfig{
		ScreenW: pty.Window.Width,
		ScreenH: pty.Window.Height,
		AnimFPS: s.config.AnimFPS,
		Seed:    time.Now().UnixNano(),
	}
	model := NewSessionModel(SessionConfig{
		Runtime:  runtime,
		Rules:    s.config.Rules,
		Username: sess.User(),
		Archive:  s.store,
		Sender:   s.coordinator,
		Channel:  channel,
	})
	return model, []tea.ProgramOption{tea.WithAltScreen(), tea.WithMouseCellMotion()}
}

// releaseOnClose reports the disconnect once the connection ends so the
// coordinator can drop the lobby or start the offline clock.
func (s *SSHServer) releaseOnClose(ctx context.Context, channel *multiplayer.ChannelSession) {
	<-ctx.Done()
	s.coordinator.Send(multiplayer.SessionDisconnectedMsg{SessionID: channel.ID()})
	s.sessions.Unregister(channel.ID())
	channel.Close()
}

func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		remote := sess.RemoteAddr().String()
		started := time.Now()
		s.logger.Info("session started", "user", sess.User(), "remote", remote)
		next(sess)
		s.logger.Info("session ended",
			"user", sess.User(),
			"remote", remote,
			"duration", time.Since(started).Round(time.Second),
			"live_matches", s.hub.Count(),
		)
	}
}

// ListenAndServe serves until ctx is cancelled, then shuts down.
func (s *SSHServer) ListenAndServe(ctx context.Context) error {
	s.coordinator.Start()
	s.logger.Info("listening", "address", s.config.Address)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		s.coordinator.Stop()
		s.closeStore()
		if errors.Is(err, ssh.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		return s.Shutdown()
	}
}

// Shutdown closes listeners, waits up to shutdownGrace for sessions and
// stops the coordinator.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	err := s.server.Shutdown(ctx)
	s.coordinator.Stop()
	s.closeStore()
	return err
}

func (s *SSHServer) closeStore() {
	if s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn("closing match archive", "error", err)
	}
}

// Addr is the configured listen address.
func (s *SSHServer) Addr() string { return s.config.Address }
