package expr

import (
	"encoding/json"
	"fmt"
	"strconv"
)

type kind int

const (
	kindIdent kind = iota
	kindString
	kindNumber
	kindBool
	kindCmp
	kindAnd
	kindOr
)

type token struct {
	kind kind
	pos  int
	text string
	str  string
	num  float64
	b    bool
}

// lex splits a condition into tokens. Recognition order: whitespace, two-char
// comparison operators, single-char comparison operators, logical operators,
// string literals (JSON escape semantics), boolean and numeric literals,
// dotted identifiers. Anything else fails with its position.
func lex(input string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(input) {
		c := input[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			i++

		case i+1 < len(input) && isTwoCharOp(input[i:i+2]):
			op := input[i : i+2]
			k := kindCmp
			if op == "&&" {
				k = kindAnd
			} else if op == "||" {
				k = kindOr
			}
			toks = append(toks, token{kind: k, pos: i, text: op})
			i += 2

		case c == '>' || c == '<':
			toks = append(toks, token{kind: kindCmp, pos: i, text: string(c)})
			i++

		case c == '"':
			tok, n, err := lexString(input, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
			i += n

		case c == '-' || isDigit(c):
			tok, n, err := lexNumber(input, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
			i += n

		case isIdentStart(c):
			j := i + 1
			for j < len(input) && isIdentPart(input[j]) {
				j++
			}
			text := input[i:j]
			switch text {
			case "true", "false":
				toks = append(toks, token{kind: kindBool, pos: i, text: text, b: text == "true"})
			default:
				toks = append(toks, token{kind: kindIdent, pos: i, text: text})
			}
			i = j

		default:
			return nil, fmt.Errorf("unexpected character %q at position %d", string(c), i)
		}
	}
	return toks, nil
}

func lexString(input string, start int) (token, int, error) {
	j := start + 1
	for j < len(input) {
		switch input[j] {
		case '\\':
			j += 2
		case '"':
			span := input[start : j+1]
			var s string
			if err := json.Unmarshal([]byte(span), &s); err != nil {
				return token{}, 0, fmt.Errorf("invalid string literal at position %d: %v", start, err)
			}
			return token{kind: kindString, pos: start, text: span, str: s}, j + 1 - start, nil
		default:
			j++
		}
	}
	return token{}, 0, fmt.Errorf("unterminated string literal at position %d", start)
}

func lexNumber(input string, start int) (token, int, error) {
	j := start
	if input[j] == '-' {
		j++
	}
	digits := 0
	for j < len(input) && isDigit(input[j]) {
		j++
		digits++
	}
	if j < len(input) && input[j] == '.' {
		j++
		for j < len(input) && isDigit(input[j]) {
			j++
			digits++
		}
	}
	text := input[start:j]
	if digits == 0 {
		return token{}, 0, fmt.Errorf("invalid numeric literal %q at position %d", text, start)
	}
	num, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return token{}, 0, fmt.Errorf("invalid numeric literal %q at position %d", text, start)
	}
	return token{kind: kindNumber, pos: start, text: text, num: num}, j - start, nil
}

func isTwoCharOp(s string) bool {
	switch s {
	case "==", "!=", ">=", "<=", "&&", "||":
		return true
	}
	return false
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == '.'
}
