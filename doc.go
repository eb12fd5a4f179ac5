// Package yamldb is an embedded document store with a derived SQLite index.
//
// Each document is an ordered field mapping persisted as one YAML file under
// a per-collection directory; the files are the authoritative state. A
// secondary index — one SQLite table per collection, in a single database
// file shared by all collections — carries stringified copies of the indexed
// fields plus a content hash, so filtered and ordered queries never scan the
// document files themselves.
//
// The index is a cache. Every save refreshes it eagerly, but the file write
// and the index update are not atomic: a crash in between leaves a stale or
// missing row. Reindex walks the files, compares content hashes, and repairs
// such rows; nothing else ever trusts a stale entry into a query result,
// because query hits are always resolved back through the document files.
//
// Usage:
//
//	db, err := yamldb.Open("./data", yamldb.WithLogger(logger))
//	posts, err := db.DeclareCollection(ctx, "posts", "pub_date", "title")
//
//	doc := core.FromMap(map[string]any{
//		"title":    "Hello",
//		"pub_date": time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC),
//	})
//	doc, err = posts.Save(ctx, doc)
//
//	results, err := posts.Query().
//		Filter(query.Field("pub_date").Year().Eq(2011)).
//		OrderBy(query.Field("pub_date").Desc()).
//		Limit(10).
//		All(ctx)
package yamldb
