package yamldb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"

	"github.com/mitsuhiko/yamldb/pkg/adapters/fs"
	"github.com/mitsuhiko/yamldb/pkg/adapters/sqlite"
	"github.com/mitsuhiko/yamldb/pkg/core"
)

// IndexFileName is the name of the shared index database file under the
// database root.
const IndexFileName = ".indexes"

// Database is an embedded document store rooted at a folder. Each declared
// collection owns one subdirectory of document files and one table in the
// shared index database file.
type Database struct {
	root    string
	logger  *slog.Logger
	content *fs.Store
	index   *sqlite.Store

	mu          sync.RWMutex
	collections map[string]*Collection
}

// Open creates a database handle rooted at root. The folder and the index
// file are created lazily on first write.
func Open(root string, opts ...Option) (*Database, error) {
	cfg := newConfig(opts)

	db := &Database{
		root:        root,
		logger:      cfg.logger,
		content:     fs.NewStore(root, cfg.extension, cfg.codec, cfg.logger),
		index:       sqlite.NewStore(filepath.Join(root, cfg.indexFile), cfg.logger),
		collections: make(map[string]*Collection),
	}
	return db, nil
}

// Root returns the database root folder.
func (db *Database) Root() string {
	return db.root
}

// DeclareCollection registers a collection with a fixed set of indexed field
// names ("_id" is always included) and ensures its index table and lookup
// indexes exist. Declaring the same name twice fails with
// core.ErrDuplicateCollection.
func (db *Database) DeclareCollection(ctx context.Context, name string, indexedFields ...string) (*Collection, error) {
	db.mu.RLock()
	_, exists := db.collections[name]
	db.mu.RUnlock()
	if exists {
		return nil, fmt.Errorf("%q: %w", name, core.ErrDuplicateCollection)
	}

	fieldSet := map[string]struct{}{core.IDField: {}}
	for _, field := range indexedFields {
		fieldSet[field] = struct{}{}
	}
	fields := make([]string, 0, len(fieldSet))
	for field := range fieldSet {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	c := &Collection{
		// Non-owning back-reference; the collection never manages the
		// database's lifetime.
		db:     db,
		name:   name,
		fields: fields,
		logger: db.logger.With("collection", name),
	}

	// Schema I/O runs outside the lock so unrelated declarations are not
	// serialized behind it. EnsureSchema is idempotent, so a concurrent
	// declaration of the same name at worst repeats it.
	if err := db.index.EnsureSchema(ctx, name, fields); err != nil {
		return nil, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.collections[name]; ok {
		// Lost the race against a concurrent declaration of the same name.
		return nil, fmt.Errorf("%q: %w", name, core.ErrDuplicateCollection)
	}
	db.collections[name] = c
	db.logger.Debug("declared collection", "name", name, "indexed_fields", fields)
	return c, nil
}

// Collection returns a previously declared collection by name.
func (db *Database) Collection(name string) (*Collection, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	c, ok := db.collections[name]
	return c, ok
}

// Reindex reconciles the index of every declared collection against the
// document files. Each collection commits as its own unit of work, so a
// failure in one collection does not roll back progress in another; the
// per-collection errors are joined.
func (db *Database) Reindex(ctx context.Context) error {
	db.mu.RLock()
	names := make([]string, 0, len(db.collections))
	for name := range db.collections {
		names = append(names, name)
	}
	db.mu.RUnlock()
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		c, _ := db.Collection(name)
		if err := c.Reindex(ctx); err != nil {
			db.logger.Error("reindex failed", "collection", name, "error", err)
			errs = append(errs, fmt.Errorf("collection %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Watch emits an event for every external change to a document file under
// the database root. The pattern is a doublestar glob against
// "collection/file" paths; empty matches everything. The channel closes when
// ctx is cancelled. Watching reports changes only; run Reindex to repair the
// index afterwards.
func (db *Database) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	return db.content.Watch(ctx, pattern)
}
