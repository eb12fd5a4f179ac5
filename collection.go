package yamldb

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mitsuhiko/yamldb/pkg/adapters/sqlite"
	"github.com/mitsuhiko/yamldb/pkg/core"
)

// Collection is a named group of documents sharing an id namespace, one
// storage directory, and one index table. It is obtained from
// Database.DeclareCollection.
type Collection struct {
	db     *Database
	name   string
	fields []string
	logger *slog.Logger
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// IndexedFields returns the indexed field names, sorted; always contains
// "_id".
func (c *Collection) IndexedFields() []string {
	fields := make([]string, len(c.fields))
	copy(fields, c.fields)
	return fields
}

// Save persists a document. A document without an "_id" is assigned a fresh
// random one. Fields are normalized to name order before encoding so that
// identical content always hashes identically. On successful return the
// content file and the index row agree for this id; if the process fails
// between the file write and the index update, the stale row is repaired by
// the next Reindex.
func (c *Collection) Save(ctx context.Context, doc *core.Document) (*core.Document, error) {
	id := doc.ID()
	if id == "" {
		id = uuid.NewString()
		doc.SetID(id)
	}
	doc.Normalize()

	data, err := c.db.content.Codec().Encode(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document %s: %w", id, err)
	}

	hash, err := c.db.content.Write(ctx, c.name, id, data)
	if err != nil {
		return nil, err
	}

	if err := c.db.index.UpsertRow(ctx, c.name, id, c.fields, c.indexValues(doc), hash); err != nil {
		return nil, err
	}

	c.logger.Debug("saved document", "id", id, "hash", hash)
	return doc, nil
}

// Get returns a document by primary key, or (nil, nil) when no file exists
// for the id. A file that exists but cannot be decoded is an error.
func (c *Collection) Get(ctx context.Context, id string) (*core.Document, error) {
	return c.db.content.Read(ctx, c.name, id)
}

// Delete removes a document. When the file does not exist it returns false
// and leaves the index untouched; an orphaned row, if any, is the
// reconciler's concern. Otherwise the file is removed first, then the index
// row, and true is returned.
func (c *Collection) Delete(ctx context.Context, id string) (bool, error) {
	removed, err := c.db.content.Remove(ctx, c.name, id)
	if err != nil {
		return false, err
	}
	if !removed {
		return false, nil
	}
	if err := c.db.index.DeleteRow(ctx, c.name, id); err != nil {
		return true, err
	}
	return true, nil
}

// Query starts a new query against the collection's index.
func (c *Collection) Query() *Query {
	return &Query{coll: c}
}

// Reindex walks the collection's document files and repairs index rows that
// are missing or stale: each file's streaming hash is compared against the
// recorded one, and on mismatch the document is decoded and its row rebuilt.
// Files that fail to decode are logged and skipped. The whole pass commits
// as one transaction.
func (c *Collection) Reindex(ctx context.Context) error {
	ids, err := c.db.content.ListIDs(ctx, c.name)
	if err != nil {
		return err
	}

	var repaired int
	err = c.db.index.Batch(ctx, func(b *sqlite.Batch) error {
		for _, id := range ids {
			hash, err := c.db.content.HashOf(ctx, c.name, id)
			if err != nil {
				return err
			}

			recorded, ok, err := b.LookupHash(c.name, id)
			if err != nil {
				return err
			}
			if ok && recorded == hash {
				continue
			}

			doc, err := c.db.content.Read(ctx, c.name, id)
			if err != nil {
				c.logger.Warn("skipping document during reindex", "id", id, "error", err)
				continue
			}
			if doc == nil {
				continue
			}

			if err := b.UpsertRow(c.name, id, c.fields, c.indexValues(doc), hash); err != nil {
				return err
			}
			repaired++
		}
		return nil
	})
	if err != nil {
		return err
	}

	if repaired > 0 {
		c.logger.Info("reindexed collection", "repaired", repaired, "scanned", len(ids))
	}
	return nil
}

// indexValues projects the document onto the indexed columns in field order,
// stringifying every value. Missing fields index as SQL null.
func (c *Collection) indexValues(doc *core.Document) []any {
	values := make([]any, len(c.fields))
	for i, field := range c.fields {
		v, _ := doc.Get(field)
		values[i] = core.Stringify(v)
	}
	return values
}
