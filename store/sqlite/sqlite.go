// Package sqlite provides a SQLite-backed document store implementing the
// crud Reader and Writer contracts. Documents are kept as JSON text in a
// single table; pagination follows the insertion sequence.
package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/reoring/skemabridge/crud"
	"github.com/reoring/skemabridge/fnwrap"
	"github.com/reoring/skemabridge/internal/docstore"
	"github.com/reoring/skemabridge/table"
	"github.com/reoring/skemabridge/validator"
)

const createSQL = `CREATE TABLE IF NOT EXISTS documents (
	seq  INTEGER PRIMARY KEY AUTOINCREMENT,
	tbl  TEXT NOT NULL,
	id   TEXT NOT NULL UNIQUE,
	body TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_tbl_seq ON documents (tbl, seq)`

// Store is a SQLite document store.
type Store struct {
	db *sql.DB
	mu sync.RWMutex

	// validators maps table names to their document validators
	validators map[string]*validator.Node

	writes sync.Mutex
	now    func() time.Time
	logger zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

func WithLogger(l zerolog.Logger) Option { return func(s *Store) { s.logger = l } }

func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// Open opens (or creates) the database at path and prepares the schema.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	s, err := FromDB(db, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// FromDB wraps an existing connection and prepares the schema.
func FromDB(db *sql.DB, opts ...Option) (*Store, error) {
	s := &Store{
		db:         db,
		validators: make(map[string]*validator.Node),
		now:        time.Now,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if _, err := db.Exec(createSQL); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Register declares a table and its document validator.
func (s *Store) Register(name string, doc *validator.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.validators[name] = doc
	s.logger.Debug().Str("table", name).Msg("table registered")
}

// RegisterTable registers desc with its Document validator.
func (s *Store) RegisterTable(desc *table.Descriptor) {
	s.Register(desc.Name(), desc.Document())
}

func (s *Store) lookup(tbl string) (*validator.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.validators[tbl]
	if !ok {
		return nil, fmt.Errorf("table %q not registered", tbl)
	}
	return v, nil
}

// Insert stores a new document and returns its id.
func (s *Store) Insert(ctx context.Context, tbl string, doc map[string]any) (string, error) {
	v, err := s.lookup(tbl)
	if err != nil {
		return "", err
	}
	id := docstore.NewID()
	stored := docstore.Stamp(doc, id, s.now())
	if err := docstore.Check(tbl, v, stored); err != nil {
		return "", err
	}
	body, err := json.Marshal(stored)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "INSERT INTO documents (tbl, id, body) VALUES (?, ?, ?)", tbl, id, string(body)); err != nil {
		return "", fmt.Errorf("insert: %w", err)
	}
	s.logger.Debug().Str("table", tbl).Str("id", id).Msg("document inserted")
	return id, nil
}

// Get returns the document, or nil when it does not exist.
func (s *Store) Get(ctx context.Context, tbl, id string) (map[string]any, error) {
	if _, err := s.lookup(tbl); err != nil {
		return nil, err
	}
	var body string
	err := s.db.QueryRowContext(ctx, "SELECT body FROM documents WHERE tbl = ? AND id = ?", tbl, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get: %w", err)
	}
	return decodeBody(body)
}

// Patch shallow-merges patch into the document inside a transaction.
func (s *Store) Patch(ctx context.Context, tbl, id string, patch map[string]any) error {
	v, err := s.lookup(tbl)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var body string
	err = tx.QueryRowContext(ctx, "SELECT body FROM documents WHERE tbl = ? AND id = ?", tbl, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return docstore.NotFound(tbl, id)
	}
	if err != nil {
		return fmt.Errorf("patch: %w", err)
	}
	doc, err := decodeBody(body)
	if err != nil {
		return err
	}
	merged := docstore.Merge(doc, patch)
	if err := docstore.Check(tbl, v, merged); err != nil {
		return err
	}
	raw, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "UPDATE documents SET body = ? WHERE tbl = ? AND id = ?", string(raw), tbl, id); err != nil {
		return fmt.Errorf("patch: %w", err)
	}
	return tx.Commit()
}

// Delete removes the document if present.
func (s *Store) Delete(ctx context.Context, tbl, id string) error {
	if _, err := s.lookup(tbl); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE tbl = ? AND id = ?", tbl, id); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

// Paginate lists documents in insertion order.
func (s *Store) Paginate(ctx context.Context, tbl string, opts crud.PageOptions) (crud.Page, error) {
	if _, err := s.lookup(tbl); err != nil {
		return crud.Page{}, err
	}
	after, err := docstore.DecodeCursor(opts.Cursor)
	if err != nil {
		return crud.Page{}, err
	}
	size := docstore.PageSize(opts.NumItems)

	// one extra row tells whether another page exists
	rows, err := s.db.QueryContext(ctx,
		"SELECT seq, body FROM documents WHERE tbl = ? AND seq > ? ORDER BY seq LIMIT ?",
		tbl, after, size+1)
	if err != nil {
		return crud.Page{}, fmt.Errorf("paginate: %w", err)
	}
	defer rows.Close()

	page := crud.Page{Page: []map[string]any{}, IsDone: true, ContinueCursor: opts.Cursor}
	for rows.Next() {
		var (
			seq  int64
			body string
		)
		if err := rows.Scan(&seq, &body); err != nil {
			return crud.Page{}, fmt.Errorf("paginate: %w", err)
		}
		if len(page.Page) == size {
			page.IsDone = false
			break
		}
		doc, err := decodeBody(body)
		if err != nil {
			return crud.Page{}, err
		}
		page.Page = append(page.Page, doc)
		page.ContinueCursor = docstore.EncodeCursor(seq)
	}
	if err := rows.Err(); err != nil {
		return crud.Page{}, fmt.Errorf("paginate: %w", err)
	}
	return page, nil
}

// decodeBody parses a stored document. Integral numbers come back as int64
// (or *big.Int beyond int64), others as float64.
func decodeBody(body string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	for k, v := range doc {
		doc[k] = numbers(v)
	}
	return doc, nil
}

func numbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if b, ok := new(big.Int).SetString(t.String(), 10); ok {
			return b
		}
		f, _ := t.Float64()
		return f
	case map[string]any:
		for k, val := range t {
			t[k] = numbers(val)
		}
	case []any:
		for i, val := range t {
			t[i] = numbers(val)
		}
	}
	return v
}

// Query is the raw builder for read-only operations.
func Query(s *Store) fnwrap.RawBuilder[crud.QueryCtx] {
	return func(fn fnwrap.RawFunc[crud.QueryCtx]) fnwrap.Operation {
		return func(ctx context.Context, args map[string]any) (any, error) {
			return fn(ctx, crud.QueryCtx{DB: s}, args)
		}
	}
}

// Mutation is the raw builder for mutations; mutations run one at a time.
func Mutation(s *Store) fnwrap.RawBuilder[crud.MutationCtx] {
	return func(fn fnwrap.RawFunc[crud.MutationCtx]) fnwrap.Operation {
		return func(ctx context.Context, args map[string]any) (any, error) {
			s.writes.Lock()
			defer s.writes.Unlock()
			return fn(ctx, crud.MutationCtx{DB: s}, args)
		}
	}
}
