package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/runger/typeahead/internal/config"
	"github.com/runger/typeahead/internal/index"
	"github.com/runger/typeahead/internal/provider"
	"github.com/runger/typeahead/internal/transport"
)

// buildProvider constructs the search backend selected by the config.
// The returned closer releases backend resources (it may be a no-op) and
// must be closed once the provider is no longer in use.
func buildProvider(cfg *config.Config, logger *slog.Logger) (provider.Provider, io.Closer, error) {
	switch cfg.Provider.Type {
	case config.ProviderIndex:
		store, err := index.Open(cfg.Index.DBPath, index.Config{Logger: logger})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open index: %w", err)
		}
		return provider.NewIndexProvider(store), store, nil

	case config.ProviderDaemon:
		socketPath := cfg.Daemon.SocketPath
		if socketPath == "" {
			socketPath = transport.DefaultSocketPath()
		}
		return provider.NewSocketProvider(socketPath), nopCloser{}, nil

	case config.ProviderExec:
		p, err := provider.NewExecProvider(cfg.Exec.Command)
		if err != nil {
			return nil, nil, err
		}
		return p, nopCloser{}, nil

	default:
		return nil, nil, fmt.Errorf("unknown provider type %q", cfg.Provider.Type)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
