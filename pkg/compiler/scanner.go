package compiler

import (
	"strings"
)

// TokenType classifies a token of a command line.
type TokenType int

const (
	TokenString TokenType = iota // quoted literal
	TokenBare                    // number, optionally tagged
	TokenEmpty                   // "()" zero-argument marker
)

// Token is one element of a command line.
type Token struct {
	Type    TokenType
	Literal string // source text of the token
	Value   string // unescaped payload for TokenString
	Column  int    // 1-indexed
}

// scanError is a scanner failure at a column of the current line.
type scanError struct {
	msg    string
	column int
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t'
}

// scanLine splits a line into tokens. Scanning stops at a ';' outside a
// string literal.
func scanLine(line string) ([]Token, *scanError) {
	var toks []Token
	i := 0
	for i < len(line) {
		c := line[i]
		switch {
		case isSpace(c):
			i++
		case c == ';':
			return toks, nil
		case c == '"':
			tok, next, err := scanString(line, i)
			if err != nil {
				return nil, err
			}
			if next < len(line) && !isSpace(line[next]) && line[next] != ';' {
				return nil, &scanError{msg: "expected delimiter after string literal", column: next + 1}
			}
			toks = append(toks, tok)
			i = next
		default:
			start := i
			for i < len(line) && !isSpace(line[i]) && line[i] != ';' {
				if line[i] == '"' {
					return nil, &scanError{msg: "unexpected quote inside bare token", column: i + 1}
				}
				i++
			}
			lit := line[start:i]
			typ := TokenBare
			if lit == "()" {
				typ = TokenEmpty
			}
			toks = append(toks, Token{Type: typ, Literal: lit, Column: start + 1})
		}
	}
	return toks, nil
}

// scanString reads a quoted literal starting at line[start] == '"'.
func scanString(line string, start int) (Token, int, *scanError) {
	var b strings.Builder
	i := start + 1
	for i < len(line) {
		c := line[i]
		switch c {
		case '"':
			return Token{
				Type:    TokenString,
				Literal: line[start : i+1],
				Value:   b.String(),
				Column:  start + 1,
			}, i + 1, nil
		case '\\':
			v, n, err := unescape(line, i)
			if err != nil {
				return Token{}, 0, &scanError{msg: err.Error(), column: i + 1}
			}
			b.WriteByte(v)
			i += n
		default:
			b.WriteByte(c)
			i++
		}
	}
	return Token{}, 0, &scanError{msg: "unterminated string literal", column: start + 1}
}

// scanLabel reads a script header "[label]" starting at line[start] == '['.
// Only whitespace or a comment may follow the closing bracket.
func scanLabel(line string, start int) (string, *scanError) {
	var b strings.Builder
	i := start + 1
	for i < len(line) {
		c := line[i]
		switch c {
		case ']':
			rest := strings.TrimLeft(line[i+1:], " \t")
			if rest != "" && rest[0] != ';' {
				return "", &scanError{msg: "unexpected text after script header", column: len(line) - len(rest) + 1}
			}
			return b.String(), nil
		case '\\':
			v, n, err := unescape(line, i)
			if err != nil {
				return "", &scanError{msg: err.Error(), column: i + 1}
			}
			b.WriteByte(v)
			i += n
		default:
			b.WriteByte(c)
			i++
		}
	}
	return "", &scanError{msg: "unterminated script header, missing ']'", column: start + 1}
}

// lineKind is the classification of a source line.
type lineKind int

const (
	lineBlank      lineKind = iota // whitespace only
	lineComment                    // comment only
	lineFileHeader                 // #file ...
	lineDirective                  // any other #...
	lineHeader                     // [label]
	lineCommand
)

func classify(line string) (lineKind, int) {
	i := 0
	for i < len(line) && isSpace(line[i]) {
		i++
	}
	if i == len(line) {
		return lineBlank, i
	}
	switch line[i] {
	case ';':
		return lineComment, i
	case '[':
		return lineHeader, i
	case '#':
		if strings.HasPrefix(line[i:], fileDirective) &&
			(len(line) == i+len(fileDirective) || isSpace(line[i+len(fileDirective)])) {
			return lineFileHeader, i
		}
		return lineDirective, i
	}
	return lineCommand, i
}
