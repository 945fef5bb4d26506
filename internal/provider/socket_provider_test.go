//go:build !windows

package provider

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runger/typeahead/internal/daemon"
	"github.com/runger/typeahead/internal/snapshot"
	"github.com/runger/typeahead/internal/transport"
)

type stubSearcher struct {
	hits []snapshot.Hit
	err  error
}

func (s *stubSearcher) Search(ctx context.Context, query string, limit int) ([]snapshot.Hit, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.hits, nil
}

func startDaemon(t *testing.T, searcher daemon.Searcher) string {
	t.Helper()
	sock := filepath.Join(t.TempDir(), "daemon.sock")
	tr := transport.NewUnixTransport(sock)
	srv := daemon.NewServer(tr, searcher, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = srv.Serve(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	require.Eventually(t, func() bool {
		conn, err := tr.Dial(50 * time.Millisecond)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, 2*time.Second, 10*time.Millisecond)

	return sock
}

func TestSocketProvider_Search(t *testing.T) {
	sock := startDaemon(t, &stubSearcher{hits: []snapshot.Hit{
		{ID: 2, Title: "api reference", Score: -1.5},
	}})
	p := NewSocketProvider(sock)

	resp, err := p.Search(context.Background(), Request{RequestID: 9, Query: "api", Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, uint64(9), resp.RequestID)
	require.Len(t, resp.Hits, 1)
	assert.Equal(t, "api reference", resp.Hits[0].Title)
}

func TestSocketProvider_ServerErrorSurfaced(t *testing.T) {
	sock := startDaemon(t, &stubSearcher{err: errors.New("index locked")})
	p := NewSocketProvider(sock)

	_, err := p.Search(context.Background(), Request{Query: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index locked")
}

func TestSocketProvider_NoDaemon(t *testing.T) {
	p := NewSocketProvider(filepath.Join(t.TempDir(), "nope.sock"))
	_, err := p.Search(context.Background(), Request{Query: "x"})
	assert.Error(t, err)
}

func TestSocketProvider_CancelledContext(t *testing.T) {
	sock := startDaemon(t, &stubSearcher{})
	p := NewSocketProvider(sock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Search(ctx, Request{Query: "x"})
	assert.Error(t, err)
}
