package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFieldEqStringifiesLiteral(t *testing.T) {
	sql, args := Field("title").Eq("Hello").SQL()
	assert.Equal(t, `("title" = ?)`, sql)
	assert.Equal(t, []any{"Hello"}, args)
}

func TestFieldComparisonStringifiesIntegers(t *testing.T) {
	sql, args := Field("count").Gt(5).SQL()
	assert.Equal(t, `("count" > ?)`, sql)
	assert.Equal(t, []any{"0000000000000005"}, args)
}

func TestFieldComparisonStringifiesTimestamps(t *testing.T) {
	ts := time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC)
	sql, args := Field("pub_date").Ge(ts).SQL()
	assert.Equal(t, `("pub_date" >= ?)`, sql)
	assert.Equal(t, []any{"2011-01-01T00:00:00Z"}, args)
}

func TestNilComparisonBecomesNullTest(t *testing.T) {
	sql, args := Field("author").Eq(nil).SQL()
	assert.Equal(t, `"author" is null`, sql)
	assert.Empty(t, args)

	sql, args = Field("author").Ne(nil).SQL()
	assert.Equal(t, `"author" is not null`, sql)
	assert.Empty(t, args)
}

func TestBooleanCombinators(t *testing.T) {
	expr := Field("a").Eq(1).And(Field("b").Lt(2).Or(Field("c").Ne(3)))
	sql, args := expr.SQL()
	assert.Equal(t, `(("a" = ?) and (("b" < ?) or ("c" <> ?)))`, sql)
	assert.Equal(t, []any{
		"0000000000000001",
		"0000000000000002",
		"0000000000000003",
	}, args)
}

// Parameters must line up with placeholder order, left to right.
func TestParameterOrderMatchesPlaceholders(t *testing.T) {
	expr := Field("x").Gt(1).And(Field("y").Le(2)).Or(Field("z").Eq("s"))
	sql, args := expr.SQL()
	assert.Equal(t, `((("x" > ?) and ("y" <= ?)) or ("z" = ?))`, sql)
	assert.Equal(t, []any{"0000000000000001", "0000000000000002", "s"}, args)
}

func TestDescAppendsModifier(t *testing.T) {
	sql, args := Field("pub_date").Desc().SQL()
	assert.Equal(t, `"pub_date" desc`, sql)
	assert.Empty(t, args)
}

func TestAscIsIdentity(t *testing.T) {
	sql, _ := Field("pub_date").Asc().SQL()
	assert.Equal(t, `"pub_date"`, sql)
}

func TestExtractYear(t *testing.T) {
	sql, args := Field("pub_date").Year().SQL()
	assert.Equal(t, `cast(strftime('%Y', "pub_date") as integer)`, sql)
	assert.Empty(t, args)
}

// An extracted date part compares against plain integers, not against the
// zero-padded index form.
func TestExtractComparesRawIntegers(t *testing.T) {
	sql, args := Field("pub_date").Year().Eq(2011).SQL()
	assert.Equal(t, `(cast(strftime('%Y', "pub_date") as integer) = ?)`, sql)
	assert.Equal(t, []any{2011}, args)
}

func TestExtractVariants(t *testing.T) {
	cases := map[string]struct {
		expr   Expr
		format string
	}{
		"month":  {Field("d").Month(), "%m"},
		"day":    {Field("d").Day(), "%d"},
		"date":   {Field("d").Date(), "%Y-%m-%d"},
		"hour":   {Field("d").Hour(), "%H"},
		"minute": {Field("d").Minute(), "%M"},
		"second": {Field("d").Second(), "%S"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			sql, _ := tc.expr.SQL()
			assert.Equal(t, `cast(strftime('`+tc.format+`', "d") as integer)`, sql)
		})
	}
}

func TestBindSkipsStringification(t *testing.T) {
	sql, args := Bind(10).SQL()
	assert.Equal(t, "?", sql)
	assert.Equal(t, []any{10}, args)
}

func TestLiteralStringifies(t *testing.T) {
	sql, args := Literal(10).SQL()
	assert.Equal(t, "?", sql)
	assert.Equal(t, []any{"0000000000000010"}, args)
}

func TestQuoteIdentEscapesQuotes(t *testing.T) {
	assert.Equal(t, `"a""b"`, QuoteIdent(`a"b`))
}
