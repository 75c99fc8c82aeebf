package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/jewel-duel/internal/multiplayer"
	"github.com/vovakirdan/jewel-duel/internal/platform/tui"
)

var (
	flagSSHAddr      string
	flagHostKey      string
	flagIdleTimeout  int
	flagLobbyTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the duel SSH server",
	Long: `Start an SSH server that lets users connect and duel each other.

Each SSH connection gets its own session with a menu. One player hosts a
duel and shares the code; the other joins with it. Finished duels are
archived in the shared database.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.jewelduel/host_key

Examples:
  jewelduel serve                           # Listen on :23234 with auto-generated key
  jewelduel serve --ssh :2222               # Listen on port 2222
  jewelduel serve --host-key ./my_host_key  # Use specific host key
  jewelduel serve --preset blitz            # Blitz rules for every duel

Users can connect with:
  ssh localhost -p 23234`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", ":23234", "SSH server address (host:port)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "Idle timeout in minutes before disconnecting")
	serveCmd.Flags().DurationVar(&flagLobbyTimeout, "lobby-timeout", multiplayer.DefaultCoordinatorConfig().LobbyTimeout, "How long an unjoined lobby stays open")
}

func runServe(_ *cobra.Command, _ []string) {
	cfg := tui.DefaultSSHServerConfig()
	cfg.Address = flagSSHAddr
	if flagHostKey != "" {
		cfg.HostKeyPath = flagHostKey
	}
	cfg.DBPath = flagDBPath
	cfg.IdleTimeout = time.Duration(flagIdleTimeout) * time.Minute
	cfg.Rules = loadRules()
	cfg.Coordinator.LobbyTimeout = flagLobbyTimeout

	server, err := tui.NewSSHServer(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating server: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Jewel duel SSH server on %s (Ctrl+C to stop)\n", cfg.Address)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := server.ListenAndServe(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
