// Package memory provides an in-memory document store implementing the crud
// Reader and Writer contracts, for tests and local tooling.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/reoring/skemabridge/crud"
	"github.com/reoring/skemabridge/fnwrap"
	"github.com/reoring/skemabridge/internal/docstore"
	"github.com/reoring/skemabridge/table"
	"github.com/reoring/skemabridge/validator"
)

// DB is an in-memory document store. Every stored document is validated
// against the validator registered for its table.
type DB struct {
	mu     sync.RWMutex
	tables map[string]*collection
	seq    int64

	// writes serializes mutations run through Mutation.
	writes sync.Mutex

	now    func() time.Time
	logger zerolog.Logger
}

type collection struct {
	validator *validator.Node
	docs      map[string]record
}

type record struct {
	seq int64
	doc map[string]any
}

// Option configures a DB.
type Option func(*DB)

// WithLogger sets the logger used for registration and write events.
func WithLogger(l zerolog.Logger) Option { return func(db *DB) { db.logger = l } }

// WithClock replaces time.Now for _creationTime.
func WithClock(now func() time.Time) Option { return func(db *DB) { db.now = now } }

// New creates an empty store.
func New(opts ...Option) *DB {
	db := &DB{
		tables: make(map[string]*collection),
		now:    time.Now,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Register declares a table and the validator its documents must satisfy.
// Registering again replaces the validator and keeps the documents.
func (db *DB) Register(name string, doc *validator.Node) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if c, ok := db.tables[name]; ok {
		c.validator = doc
	} else {
		db.tables[name] = &collection{validator: doc, docs: make(map[string]record)}
	}
	db.logger.Debug().Str("table", name).Msg("table registered")
}

// RegisterTable registers desc with its Document validator.
func (db *DB) RegisterTable(desc *table.Descriptor) {
	db.Register(desc.Name(), desc.Document())
}

func (db *DB) collection(name string) (*collection, error) {
	c, ok := db.tables[name]
	if !ok {
		return nil, fmt.Errorf("table %q not registered", name)
	}
	return c, nil
}

// Insert stores a new document and returns its id.
func (db *DB) Insert(ctx context.Context, tbl string, doc map[string]any) (string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	c, err := db.collection(tbl)
	if err != nil {
		return "", err
	}
	id := docstore.NewID()
	stored := docstore.Stamp(doc, id, db.now())
	if err := docstore.Check(tbl, c.validator, stored); err != nil {
		return "", err
	}
	db.seq++
	c.docs[id] = record{seq: db.seq, doc: stored}
	db.logger.Debug().Str("table", tbl).Str("id", id).Msg("document inserted")
	return id, nil
}

// Get returns a copy of the document, or nil when it does not exist.
func (db *DB) Get(ctx context.Context, tbl, id string) (map[string]any, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	c, err := db.collection(tbl)
	if err != nil {
		return nil, err
	}
	r, ok := c.docs[id]
	if !ok {
		return nil, nil
	}
	return docstore.Clone(r.doc), nil
}

// Patch shallow-merges patch into the document. The merged document must
// still satisfy the table validator.
func (db *DB) Patch(ctx context.Context, tbl, id string, patch map[string]any) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	c, err := db.collection(tbl)
	if err != nil {
		return err
	}
	r, ok := c.docs[id]
	if !ok {
		return docstore.NotFound(tbl, id)
	}
	merged := docstore.Merge(r.doc, patch)
	if err := docstore.Check(tbl, c.validator, merged); err != nil {
		return err
	}
	c.docs[id] = record{seq: r.seq, doc: merged}
	return nil
}

// Delete removes the document if present.
func (db *DB) Delete(ctx context.Context, tbl, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	c, err := db.collection(tbl)
	if err != nil {
		return err
	}
	delete(c.docs, id)
	return nil
}

// Paginate lists documents in insertion order.
func (db *DB) Paginate(ctx context.Context, tbl string, opts crud.PageOptions) (crud.Page, error) {
	after, err := docstore.DecodeCursor(opts.Cursor)
	if err != nil {
		return crud.Page{}, err
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	c, err := db.collection(tbl)
	if err != nil {
		return crud.Page{}, err
	}
	rs := make([]record, 0, len(c.docs))
	for _, r := range c.docs {
		if r.seq > after {
			rs = append(rs, r)
		}
	}
	sort.Slice(rs, func(i, j int) bool { return rs[i].seq < rs[j].seq })

	size := docstore.PageSize(opts.NumItems)
	page := crud.Page{Page: []map[string]any{}, IsDone: len(rs) <= size, ContinueCursor: opts.Cursor}
	if len(rs) > size {
		rs = rs[:size]
	}
	for _, r := range rs {
		page.Page = append(page.Page, docstore.Clone(r.doc))
	}
	if len(rs) > 0 {
		page.ContinueCursor = docstore.EncodeCursor(rs[len(rs)-1].seq)
	}
	return page, nil
}

// Query is the raw builder for read-only operations.
func Query(db *DB) fnwrap.RawBuilder[crud.QueryCtx] {
	return func(fn fnwrap.RawFunc[crud.QueryCtx]) fnwrap.Operation {
		return func(ctx context.Context, args map[string]any) (any, error) {
			return fn(ctx, crud.QueryCtx{DB: db}, args)
		}
	}
}

// Mutation is the raw builder for mutations. Mutations run one at a time so
// a read-then-write handler observes a consistent document.
func Mutation(db *DB) fnwrap.RawBuilder[crud.MutationCtx] {
	return func(fn fnwrap.RawFunc[crud.MutationCtx]) fnwrap.Operation {
		return func(ctx context.Context, args map[string]any) (any, error) {
			db.writes.Lock()
			defer db.writes.Unlock()
			return fn(ctx, crud.MutationCtx{DB: db}, args)
		}
	}
}
