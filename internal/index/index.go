// Package index provides the local document store and its full-text search,
// backed by SQLite with an FTS5 virtual table. When the SQLite build lacks
// FTS5 the store falls back to LIKE-based substring search.
package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/runger/typeahead/internal/snapshot"
)

// ErrFTS5Unavailable indicates that FTS5 is not available in the SQLite build.
var ErrFTS5Unavailable = errors.New("FTS5 not available; falling back to substring search")

const (
	// DefaultLimit is the default number of search results.
	DefaultLimit = 20

	// MaxLimit is the maximum allowed search results.
	MaxLimit = 100

	createDocuments = `
		CREATE TABLE IF NOT EXISTS document (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			title      TEXT NOT NULL,
			body       TEXT NOT NULL,
			source     TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_document_source ON document(source);
	`

	createFTS5Table = `
		CREATE VIRTUAL TABLE IF NOT EXISTS document_fts
		USING fts5(title, body, content='document', content_rowid='id')
	`
)

// Document is a record to be indexed.
type Document struct {
	ID        int64
	Title     string
	Body      string
	Source    string
	CreatedAt time.Time
}

// Store is the SQLite-backed document index.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	fts5Available bool

	searchStmt   *sql.Stmt
	insertStmt   *sql.Stmt
	fallbackStmt *sql.Stmt
}

// Config configures the store.
type Config struct {
	// Logger for store operations.
	Logger *slog.Logger
}

// DefaultDBPath returns the default database path (~/.typeahead/index.db).
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".typeahead", "index.db"), nil
}

// Open opens (or creates) the index at dbPath. If dbPath is empty the
// default path is used. The database is opened with WAL mode enabled.
func Open(dbPath string, cfg Config) (*Store, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if dbPath == "" {
		var err error
		dbPath, err = DefaultDBPath()
		if err != nil {
			return nil, err
		}
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	// modernc.org/sqlite uses _pragma=name(value) syntax.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}

	// SQLite handles concurrency better with a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to index: %w", err)
	}

	s := &Store{db: db, logger: cfg.Logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema and probes FTS5 availability.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(createDocuments); err != nil {
		return fmt.Errorf("failed to create document table: %w", err)
	}

	if err := s.initFTS5(); err != nil {
		if errors.Is(err, ErrFTS5Unavailable) {
			s.fts5Available = false
			s.logger.Warn("FTS5 not available; using substring fallback")
			return nil
		}
		return err
	}
	s.fts5Available = true
	return nil
}

// initFTS5 checks FTS5 availability and creates the table if supported.
func (s *Store) initFTS5() error {
	_, err := s.db.Exec(`CREATE VIRTUAL TABLE IF NOT EXISTS _fts5_test USING fts5(test)`)
	if err != nil {
		if strings.Contains(err.Error(), "no such module") ||
			strings.Contains(err.Error(), "fts5") {
			return ErrFTS5Unavailable
		}
		return err
	}
	_, _ = s.db.Exec(`DROP TABLE IF EXISTS _fts5_test`)

	_, err = s.db.Exec(createFTS5Table)
	return err
}

// prepareStatements prepares the search and insert statements.
func (s *Store) prepareStatements() error {
	var err error

	if s.fts5Available {
		// BM25 with title weighted over body; snippet from the body column.
		s.searchStmt, err = s.db.Prepare(`
			SELECT d.id, d.title,
			       snippet(document_fts, 1, '', '', '…', 12),
			       d.source,
			       bm25(document_fts, 2.0, 1.0) AS score
			FROM document_fts
			JOIN document d ON document_fts.rowid = d.id
			WHERE document_fts MATCH ?
			ORDER BY score, d.created_at DESC
			LIMIT ?
		`)
		if err != nil {
			return err
		}

		s.insertStmt, err = s.db.Prepare(`
			INSERT INTO document_fts(rowid, title, body)
			SELECT id, title, body FROM document WHERE id = ?
		`)
		if err != nil {
			s.searchStmt.Close()
			return err
		}
	}

	s.fallbackStmt, err = s.db.Prepare(`
		SELECT id, title, substr(body, 1, 120), source, 0.0 AS score
		FROM document
		WHERE title LIKE ? ESCAPE '\' OR body LIKE ? ESCAPE '\'
		ORDER BY created_at DESC
		LIMIT ?
	`)
	if err != nil {
		if s.searchStmt != nil {
			s.searchStmt.Close()
		}
		if s.insertStmt != nil {
			s.insertStmt.Close()
		}
		return err
	}

	return nil
}

// Add inserts a document and indexes it. The assigned id is stored back
// into doc.
func (s *Store) Add(ctx context.Context, doc *Document) error {
	if doc.Title == "" && doc.Body == "" {
		return errors.New("document has no content")
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	// One transaction for the row and its FTS entry: a failed index write
	// must not leave a document visible to Count but invisible to search.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO document (title, body, source, created_at)
		VALUES (?, ?, ?, ?)
	`, doc.Title, doc.Body, doc.Source, doc.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read document id: %w", err)
	}

	if s.fts5Available {
		if _, err := tx.StmtContext(ctx, s.insertStmt).ExecContext(ctx, id); err != nil {
			return fmt.Errorf("failed to index document %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit document: %w", err)
	}
	doc.ID = id
	return nil
}

// Count returns the number of indexed documents.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM document`).Scan(&n)
	return n, err
}

// Search runs a full-text query and returns matching hits, best first.
// An empty query returns no hits.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]snapshot.Hit, error) {
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	if s.fts5Available {
		hits, err := s.searchFTS5(ctx, query, limit)
		if err == nil {
			return hits, nil
		}
		// Malformed MATCH expressions (stray quotes, operators) are user
		// input, not faults; retry as a substring search.
		s.logger.Debug("FTS5 query failed, using fallback", "query", query, "error", err)
	}
	return s.searchFallback(ctx, query, limit)
}

func (s *Store) searchFTS5(ctx context.Context, query string, limit int) ([]snapshot.Hit, error) {
	rows, err := s.searchStmt.QueryContext(ctx, buildMatchQuery(query), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanHits(rows)
}

func (s *Store) searchFallback(ctx context.Context, query string, limit int) ([]snapshot.Hit, error) {
	pattern := "%" + escapeLike(query) + "%"
	rows, err := s.fallbackStmt.QueryContext(ctx, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("fallback search: %w", err)
	}
	defer rows.Close()
	return scanHits(rows)
}

func scanHits(rows *sql.Rows) ([]snapshot.Hit, error) {
	var hits []snapshot.Hit
	for rows.Next() {
		var h snapshot.Hit
		if err := rows.Scan(&h.ID, &h.Title, &h.Snippet, &h.Source, &h.Score); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// buildMatchQuery turns raw user input into a prefix-matching FTS5 MATCH
// expression: each term is quoted (neutralizing FTS5 operators) and given
// a trailing *, so "data pipe" matches "database pipeline".
func buildMatchQuery(query string) string {
	terms := strings.Fields(query)
	quoted := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.ReplaceAll(term, `"`, `""`)
		quoted = append(quoted, `"`+term+`"*`)
	}
	return strings.Join(quoted, " ")
}

// escapeLike escapes LIKE wildcards in user input.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}

// Close releases prepared statements and the database handle.
func (s *Store) Close() error {
	if s.searchStmt != nil {
		s.searchStmt.Close()
	}
	if s.insertStmt != nil {
		s.insertStmt.Close()
	}
	if s.fallbackStmt != nil {
		s.fallbackStmt.Close()
	}
	return s.db.Close()
}
