package yamldb

import (
	"context"
	"strings"

	"github.com/mitsuhiko/yamldb/pkg/core"
	"github.com/mitsuhiko/yamldb/pkg/query"
)

// Query accumulates filters, ordering, limit and offset against a
// collection's index table, then resolves matching ids back into full
// documents through the content store. Builder methods return the receiver
// for chaining.
type Query struct {
	coll *Collection

	whereSQL  []string
	whereArgs []any
	orderSQL  []string
	orderArgs []any

	limit     query.Expr
	hasLimit  bool
	offset    query.Expr
	hasOffset bool
}

// Filter adds a predicate; multiple filters are joined with "and".
func (q *Query) Filter(expr query.Expr) *Query {
	fragment, args := expr.SQL()
	q.whereSQL = append(q.whereSQL, fragment)
	q.whereArgs = append(q.whereArgs, args...)
	return q
}

// OrderBy appends an ordering term. Wrap the expression with Desc for
// descending order. Without any OrderBy, results come back in ascending
// "_id" order.
func (q *Query) OrderBy(expr query.Expr) *Query {
	fragment, args := expr.SQL()
	q.orderSQL = append(q.orderSQL, fragment)
	q.orderArgs = append(q.orderArgs, args...)
	return q
}

// Limit caps the number of rows fetched from the index.
func (q *Query) Limit(n int) *Query {
	q.limit = query.Bind(n)
	q.hasLimit = true
	return q
}

// Offset skips rows before fetching. An offset without a limit is ignored,
// not an error.
func (q *Query) Offset(n int) *Query {
	q.offset = query.Bind(n)
	q.hasOffset = true
	return q
}

// buildSelect composes the full select statement. Parameters follow the
// placeholder order of the statement text: where, order, limit, offset.
func (q *Query) buildSelect(columns []string) (string, []any) {
	var b strings.Builder
	b.WriteString("select ")
	if len(columns) == 0 {
		b.WriteString("*")
	} else {
		quoted := make([]string, len(columns))
		for i, col := range columns {
			quoted[i] = query.QuoteIdent(col)
		}
		b.WriteString(strings.Join(quoted, ", "))
	}
	b.WriteString(" from ")
	b.WriteString(query.QuoteIdent(q.coll.name))

	args := make([]any, 0, len(q.whereArgs)+len(q.orderArgs)+2)
	if len(q.whereSQL) > 0 {
		b.WriteString(" where ")
		b.WriteString(strings.Join(q.whereSQL, " and "))
		args = append(args, q.whereArgs...)
	}

	b.WriteString(" order by ")
	if len(q.orderSQL) > 0 {
		b.WriteString(strings.Join(q.orderSQL, ", "))
	} else {
		b.WriteString(query.QuoteIdent(core.IDField))
	}
	args = append(args, q.orderArgs...)

	if q.hasLimit {
		limitSQL, limitArgs := q.limit.SQL()
		b.WriteString(" limit ")
		b.WriteString(limitSQL)
		args = append(args, limitArgs...)

		if q.hasOffset {
			offsetSQL, offsetArgs := q.offset.SQL()
			b.WriteString(" offset ")
			b.WriteString(offsetSQL)
			args = append(args, offsetArgs...)
		}
	}

	return b.String(), args
}

func (q *Query) selectIDs(ctx context.Context) ([]string, error) {
	stmt, args := q.buildSelect([]string{core.IDField})
	return q.coll.db.index.SelectIDs(ctx, stmt, args)
}

// capped returns a copy of the query limited to a single row, for
// single-document fetches. A caller-set limit is kept; an offset without a
// limit stays ignored rather than suddenly taking effect.
func (q *Query) capped() *Query {
	qq := *q
	if !qq.hasLimit {
		qq.limit = query.Bind(1)
		qq.hasLimit = true
		qq.hasOffset = false
	}
	return &qq
}

// First returns the first matching document, or (nil, nil) when nothing
// matches. At most one row is fetched from the index. An id whose file is
// missing or undecodable counts as a miss: the index was stale for it.
func (q *Query) First(ctx context.Context) (*core.Document, error) {
	ids, err := q.capped().selectIDs(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	doc, err := q.coll.Get(ctx, ids[0])
	if err != nil {
		q.coll.logger.Warn("skipping unresolvable query hit", "id", ids[0], "error", err)
		return nil, nil
	}
	return doc, nil
}

// All returns every matching document in index-query order. Ids that fail to
// resolve against the content store (stale index entries) are skipped.
func (q *Query) All(ctx context.Context) ([]*core.Document, error) {
	ids, err := q.selectIDs(ctx)
	if err != nil {
		return nil, err
	}

	docs := make([]*core.Document, 0, len(ids))
	for _, id := range ids {
		doc, err := q.coll.Get(ctx, id)
		if err != nil {
			q.coll.logger.Warn("skipping unresolvable query hit", "id", id, "error", err)
			continue
		}
		if doc == nil {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
