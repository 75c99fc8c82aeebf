package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/jewel-duel/internal/config"
	"github.com/vovakirdan/jewel-duel/internal/multiplayer"
	"github.com/vovakirdan/jewel-duel/internal/platform/web"
	"github.com/vovakirdan/jewel-duel/internal/storage"
)

var flagEnvFile string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the HTTP and WebSocket API",
	Long: `Start an HTTP server exposing duel sessions as JSON resources and
streaming their events over a WebSocket.

Settings come from the environment, optionally loaded from a .env file:
  PORT           - Listen port (default 5175)
  LOG_LEVEL      - debug, info, warn or error (default info)
  CLIENT_ORIGIN  - Allowed browser origin (default http://localhost:5173)
  JEWELDUEL_DB   - Match database path (default: --db)

Examples:
  jewelduel api
  PORT=8080 jewelduel api --preset blitz
  jewelduel api --env-file ./deploy.env`,
	Args: cobra.NoArgs,
	Run:  runAPI,
}

func init() {
	apiCmd.Flags().StringVar(&flagEnvFile, "env-file", "", "Path to a .env file (default: ./.env when present)")
}

func runAPI(_ *cobra.Command, _ []string) {
	var env config.ServerEnv
	if flagEnvFile != "" {
		env = config.LoadServerEnv(flagEnvFile)
	} else {
		env = config.LoadServerEnv()
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "jewelduel-api",
	})
	if level, err := log.ParseLevel(env.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warn("unknown log level, using info", "level", env.LogLevel)
	}

	rules := loadRules()

	dbPath := env.DBPath
	if dbPath == "" {
		dbPath = flagDBPath
	}
	store, err := storage.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	hub := multiplayer.NewHub(rules,
		multiplayer.WithMode(multiplayer.MatchModeHTTP),
		multiplayer.WithLogger(logger),
		multiplayer.WithArchiver(store),
	)
	srv := web.New(hub,
		web.WithLogger(logger),
		web.WithArchive(store),
		web.WithClientOrigin(env.ClientOrigin),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx, ":"+env.Port); err != nil {
		logger.Error("server error", "error", err)
		store.Close()
		os.Exit(1)
	}
}
