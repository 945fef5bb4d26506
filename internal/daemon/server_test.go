//go:build !windows

package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func startServer(t *testing.T, searcher Searcher) transport.Transport {
	t.Helper()
	sock := filepath.Join(t.TempDir(), "daemon.sock")
	tr := transport.NewUnixTransport(sock)
	srv := NewServer(tr, searcher, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = srv.Serve(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("server did not stop")
		}
	})

	// Wait for the socket to appear.
	require.Eventually(t, func() bool {
		conn, err := tr.Dial(50 * time.Millisecond)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, 2*time.Second, 10*time.Millisecond)

	return tr
}

func roundTrip(t *testing.T, tr transport.Transport, req QueryRequest) QueryResponse {
	t.Helper()
	conn, err := tr.Dial(time.Second)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, json.NewEncoder(conn).Encode(&req))

	var resp QueryResponse
	require.NoError(t, json.NewDecoder(conn).Decode(&resp))
	return resp
}

func TestServe_AnswersQuery(t *testing.T) {
	tr := startServer(t, &stubSearcher{hits: []snapshot.Hit{
		{ID: 1, Title: "deploy notes", Snippet: "how to deploy"},
	}})

	resp := roundTrip(t, tr, QueryRequest{Version: WireVersion, RequestID: 7, Query: "deploy"})

	assert.Equal(t, uint64(7), resp.RequestID)
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Hits, 1)
	assert.Equal(t, "deploy notes", resp.Hits[0].Title)
	assert.Empty(t, resp.Err)
}

func TestServe_EmptyResultIsNotNil(t *testing.T) {
	tr := startServer(t, &stubSearcher{})

	resp := roundTrip(t, tr, QueryRequest{Version: WireVersion, Query: "nothing"})

	assert.Equal(t, 0, resp.Total)
	assert.NotNil(t, resp.Hits)
}

func TestServe_SearchErrorInBody(t *testing.T) {
	tr := startServer(t, &stubSearcher{err: errors.New("index corrupt")})

	resp := roundTrip(t, tr, QueryRequest{Version: WireVersion, Query: "x"})

	assert.Equal(t, "index corrupt", resp.Err)
	assert.Empty(t, resp.Hits)
}

func TestServe_MultipleRequestsPerConnection(t *testing.T) {
	tr := startServer(t, &stubSearcher{hits: []snapshot.Hit{{Title: "a"}}})

	conn, err := tr.Dial(time.Second)
	require.NoError(t, err)
	defer conn.Close()

	enc := json.NewEncoder(conn)
	dec := json.NewDecoder(conn)

	for i := uint64(1); i <= 3; i++ {
		require.NoError(t, enc.Encode(&QueryRequest{Version: WireVersion, RequestID: i, Query: "a"}))
		var resp QueryResponse
		require.NoError(t, dec.Decode(&resp))
		assert.Equal(t, i, resp.RequestID)
	}
}
