// Package daemon implements the typeahead query daemon: a small server that
// answers search requests over a Unix domain socket so interactive clients
// do not each pay the cost of opening the index.
//
// The protocol is NDJSON: one QueryRequest per line in, one QueryResponse
// per line out. A connection may carry any number of requests sequentially.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/runger/typeahead/internal/snapshot"
	"github.com/runger/typeahead/internal/transport"
)

// Searcher answers search queries. *index.Store satisfies this.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]snapshot.Hit, error)
}

// requestTimeout bounds a single search so one hung query cannot wedge a
// connection forever.
const requestTimeout = 5 * time.Second

// Server accepts connections from the configured transport and serves
// queries from the Searcher.
type Server struct {
	transport transport.Transport
	searcher  Searcher
	logger    *slog.Logger

	mu sync.Mutex
	ln net.Listener
	wg sync.WaitGroup
}

// NewServer creates a server over the given transport and searcher.
func NewServer(tr transport.Transport, searcher Searcher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		transport: tr,
		searcher:  searcher,
		logger:    logger,
	}
}

// Serve listens and handles connections until ctx is cancelled. It returns
// nil on graceful shutdown.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := s.transport.Listen()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	s.logger.Info("daemon listening", "socket", s.transport.SocketPath())

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break // shutdown
			}
			if errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Warn("accept failed", "error", err)
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(ctx, conn)
		}()
	}

	s.wg.Wait()
	s.transport.Close()
	s.logger.Info("daemon stopped")
	return nil
}

// handleConn serves one client connection: a sequence of NDJSON requests,
// each answered with one NDJSON response.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	connID := uuid.NewString()
	logger := s.logger.With("conn", connID)
	logger.Debug("client connected")

	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)

	for {
		var req QueryRequest
		if err := dec.Decode(&req); err != nil {
			if err != io.EOF && ctx.Err() == nil && !errors.Is(err, net.ErrClosed) {
				logger.Debug("decode failed", "error", err)
			}
			return
		}

		resp := s.handleQuery(ctx, logger, req)
		if err := enc.Encode(&resp); err != nil {
			logger.Debug("encode failed", "error", err)
			return
		}
	}
}

// handleQuery executes one search and maps the outcome to a response.
// Search errors travel in the response body; the connection stays usable.
func (s *Server) handleQuery(ctx context.Context, logger *slog.Logger, req QueryRequest) QueryResponse {
	qctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	start := time.Now()
	hits, err := s.searcher.Search(qctx, req.Query, req.Limit)
	if err != nil {
		logger.Warn("query failed", "query", req.Query, "error", err)
		return QueryResponse{RequestID: req.RequestID, Err: err.Error()}
	}

	logger.Debug("query served",
		"query", req.Query,
		"hits", len(hits),
		"elapsed_ms", time.Since(start).Milliseconds())

	if hits == nil {
		hits = []snapshot.Hit{}
	}
	return QueryResponse{
		RequestID: req.RequestID,
		Hits:      hits,
		Total:     len(hits),
	}
}
