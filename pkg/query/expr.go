// Package query builds typed predicate and ordering expressions and compiles
// them to parameterized SQL fragments for the index store.
//
// Expressions form a small variant type: field references, literals, binary
// operators, null tests, descending markers, and date-part extraction. Every
// expression compiles to a fragment plus its bound parameters in left-to-right
// placeholder order.
package query

import (
	"fmt"
	"strings"

	"github.com/mitsuhiko/yamldb/pkg/core"
)

// Expr is a compilable query expression. The zero value is not usable;
// construct expressions with Field, Literal or Bind and combine them with
// the methods below.
type Expr struct {
	node node

	// stringifyLit controls whether comparison literals on this receiver are
	// passed through core.Stringify before binding. Field references enable
	// it so literals match the canonical index text; extracted date parts
	// compare against raw integers and leave it off.
	stringifyLit bool
}

// SQL compiles the expression into a fragment and its ordered parameters.
func (e Expr) SQL() (string, []any) {
	return e.node.sql()
}

// Field returns a reference to a named indexed column.
func Field(name string) Expr {
	return Expr{node: fieldRef{name: name}, stringifyLit: true}
}

// Literal wraps a value as an expression whose bound parameter is passed
// through the canonical stringifier.
func Literal(v any) Expr {
	return Expr{node: literal{value: v, stringify: true}}
}

// Bind wraps a value as an expression bound verbatim, without
// stringification. Limit and offset values bind this way.
func Bind(v any) Expr {
	return Expr{node: literal{value: v}}
}

func (e Expr) operand(v any) node {
	if x, ok := v.(Expr); ok {
		return x.node
	}
	return literal{value: v, stringify: e.stringifyLit}
}

func (e Expr) binary(op string, v any) Expr {
	return Expr{node: binaryOp{left: e.node, right: e.operand(v), op: op}}
}

// Eq compares for equality. A nil right-hand side compiles to "is null"
// instead of "= null".
func (e Expr) Eq(v any) Expr {
	if v == nil {
		return Expr{node: isNull{expr: e.node, isNull: true}}
	}
	return e.binary("=", v)
}

// Ne compares for inequality. A nil right-hand side compiles to "is not null".
func (e Expr) Ne(v any) Expr {
	if v == nil {
		return Expr{node: isNull{expr: e.node}}
	}
	return e.binary("<>", v)
}

// Gt compares with ">".
func (e Expr) Gt(v any) Expr { return e.binary(">", v) }

// Ge compares with ">=".
func (e Expr) Ge(v any) Expr { return e.binary(">=", v) }

// Lt compares with "<".
func (e Expr) Lt(v any) Expr { return e.binary("<", v) }

// Le compares with "<=".
func (e Expr) Le(v any) Expr { return e.binary("<=", v) }

// And conjoins two predicates.
func (e Expr) And(other Expr) Expr { return e.binary("and", other) }

// Or disjoins two predicates.
func (e Expr) Or(other Expr) Expr { return e.binary("or", other) }

// Desc marks the expression for descending order. It only has an effect in
// an ordering position.
func (e Expr) Desc() Expr {
	return Expr{node: neg{expr: e.node}}
}

// Asc is a no-op kept for symmetry with Desc.
func (e Expr) Asc() Expr { return e }

func (e Expr) extract(format string) Expr {
	return Expr{node: extract{expr: e.node, format: format}}
}

// Year extracts the four-digit year of a stored timestamp as an integer.
func (e Expr) Year() Expr { return e.extract("%Y") }

// Month extracts the month (1-12).
func (e Expr) Month() Expr { return e.extract("%m") }

// Day extracts the day of month (1-31).
func (e Expr) Day() Expr { return e.extract("%d") }

// Date extracts the full calendar date.
func (e Expr) Date() Expr { return e.extract("%Y-%m-%d") }

// Hour extracts the hour (0-23).
func (e Expr) Hour() Expr { return e.extract("%H") }

// Minute extracts the minute (0-59).
func (e Expr) Minute() Expr { return e.extract("%M") }

// Second extracts the second (0-59).
func (e Expr) Second() Expr { return e.extract("%S") }

type node interface {
	sql() (string, []any)
}

type fieldRef struct {
	name string
}

func (n fieldRef) sql() (string, []any) {
	return QuoteIdent(n.name), nil
}

type literal struct {
	value     any
	stringify bool
}

func (n literal) sql() (string, []any) {
	v := n.value
	if n.stringify {
		v = core.Stringify(v)
	}
	return "?", []any{v}
}

type binaryOp struct {
	left, right node
	op          string
}

func (n binaryOp) sql() (string, []any) {
	leftSQL, leftVars := n.left.sql()
	rightSQL, rightVars := n.right.sql()
	return fmt.Sprintf("(%s %s %s)", leftSQL, n.op, rightSQL),
		append(leftVars, rightVars...)
}

type isNull struct {
	expr   node
	isNull bool
}

func (n isNull) sql() (string, []any) {
	exprSQL, vars := n.expr.sql()
	if n.isNull {
		return exprSQL + " is null", vars
	}
	return exprSQL + " is not null", vars
}

type neg struct {
	expr node
}

func (n neg) sql() (string, []any) {
	exprSQL, vars := n.expr.sql()
	return exprSQL + " desc", vars
}

type extract struct {
	expr   node
	format string
}

func (n extract) sql() (string, []any) {
	exprSQL, vars := n.expr.sql()
	return fmt.Sprintf("cast(strftime('%s', %s) as integer)", n.format, exprSQL), vars
}

// QuoteIdent quotes a SQL identifier, doubling embedded quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
