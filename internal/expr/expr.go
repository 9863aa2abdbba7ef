// Package expr implements the boolean condition language used in policy
// rules. The grammar is deliberately small: comparisons of dotted signal
// identifiers against literals, combined with && and ||. && binds tighter
// than ||; there is no grouping.
//
//	expr   := term ('||' term)*
//	term   := factor ('&&' factor)*
//	factor := identifier operator literal
package expr

import (
	"fmt"
)

// Resolver supplies typed signal values for identifier paths. Resolve returns
// false for any path outside the signal allowlist; referencing such a path is
// an evaluation failure even when the expression is syntactically valid.
type Resolver interface {
	Resolve(path string) (any, bool)
}

// Evaluate tokenizes and evaluates a condition against the given signals.
// Both operands of every && and || are evaluated so that an unknown
// identifier anywhere in the expression fails loudly.
func Evaluate(expression string, signals Resolver) (bool, error) {
	toks, err := lex(expression)
	if err != nil {
		return false, err
	}
	p := &parser{toks: toks, signals: signals}
	v, err := p.expr()
	if err != nil {
		return false, err
	}
	if t, ok := p.peek(); ok {
		return false, fmt.Errorf("unexpected token %q at position %d", t.text, t.pos)
	}
	return v, nil
}

type parser struct {
	toks    []token
	i       int
	signals Resolver
}

func (p *parser) peek() (token, bool) {
	if p.i >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.i], true
}

func (p *parser) next() (token, bool) {
	t, ok := p.peek()
	if ok {
		p.i++
	}
	return t, ok
}

func (p *parser) expr() (bool, error) {
	v, err := p.term()
	if err != nil {
		return false, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != kindOr {
			return v, nil
		}
		p.i++
		rhs, err := p.term()
		if err != nil {
			return false, err
		}
		v = v || rhs
	}
}

func (p *parser) term() (bool, error) {
	v, err := p.factor()
	if err != nil {
		return false, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != kindAnd {
			return v, nil
		}
		p.i++
		rhs, err := p.factor()
		if err != nil {
			return false, err
		}
		v = v && rhs
	}
}

func (p *parser) factor() (bool, error) {
	ident, ok := p.next()
	if !ok {
		return false, fmt.Errorf("unexpected end of expression: expected identifier")
	}
	if ident.kind != kindIdent {
		return false, fmt.Errorf("expected identifier, got %q at position %d", ident.text, ident.pos)
	}

	op, ok := p.next()
	if !ok {
		return false, fmt.Errorf("unexpected end of expression: expected operator after %q", ident.text)
	}
	if op.kind != kindCmp {
		return false, fmt.Errorf("expected comparison operator, got %q at position %d", op.text, op.pos)
	}

	lit, ok := p.next()
	if !ok {
		return false, fmt.Errorf("unexpected end of expression: expected literal after %q", op.text)
	}
	switch lit.kind {
	case kindString, kindNumber, kindBool:
	case kindIdent:
		return false, fmt.Errorf("bare word %q at position %d: string literals must be double-quoted", lit.text, lit.pos)
	default:
		return false, fmt.Errorf("expected literal, got %q at position %d", lit.text, lit.pos)
	}

	actual, found := p.signals.Resolve(ident.text)
	if !found {
		return false, fmt.Errorf("unknown identifier %q at position %d", ident.text, ident.pos)
	}
	return compare(op.text, actual, lit), nil
}

// compare applies a comparison operator. Equality is typed: values of
// different types are never equal. Relational operators order numbers
// numerically and strings lexicographically; any other pairing is false.
func compare(op string, actual any, lit token) bool {
	switch op {
	case "==":
		return equals(actual, lit)
	case "!=":
		return !equals(actual, lit)
	}
	if a, ok := actual.(float64); ok && lit.kind == kindNumber {
		return relNumber(op, a, lit.num)
	}
	if s, ok := actual.(string); ok && lit.kind == kindString {
		return relString(op, s, lit.str)
	}
	return false
}

func equals(actual any, lit token) bool {
	switch a := actual.(type) {
	case string:
		return lit.kind == kindString && a == lit.str
	case float64:
		return lit.kind == kindNumber && a == lit.num
	case bool:
		return lit.kind == kindBool && a == lit.b
	default:
		return false
	}
}

func relNumber(op string, a, b float64) bool {
	switch op {
	case ">":
		return a > b
	case "<":
		return a < b
	case ">=":
		return a >= b
	case "<=":
		return a <= b
	}
	return false
}

func relString(op string, a, b string) bool {
	switch op {
	case ">":
		return a > b
	case "<":
		return a < b
	case ">=":
		return a >= b
	case "<=":
		return a <= b
	}
	return false
}
