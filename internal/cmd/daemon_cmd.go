package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/runger/typeahead/internal/daemon"
	"github.com/runger/typeahead/internal/index"
	"github.com/runger/typeahead/internal/log"
	"github.com/runger/typeahead/internal/transport"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the search daemon",
	Long: `Run the search daemon in the foreground.

The daemon serves queries over a Unix socket so multiple typeahead
instances share one open index. Point clients at it by setting
provider.type to "daemon" in the config.`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := log.New(&log.Config{Level: log.ParseLevel(cfg.Daemon.LogLevel)})

	store, err := index.Open(cfg.Index.DBPath, index.Config{Logger: logger})
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer store.Close()

	socketPath := cfg.Daemon.SocketPath
	if socketPath == "" {
		socketPath = transport.DefaultSocketPath()
	}
	tr := transport.New(socketPath)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := daemon.NewServer(tr, store, logger)
	return server.Serve(ctx)
}
