package compiler

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/zurustar/bsscript/pkg/script"
)

// Type tags of numeric tokens. Integer is the default and is written
// without a tag.
var tagTypes = map[string]script.ArgumentType{
	"i": script.Integer,
	"b": script.Boolean,
	"v": script.Variable,
	"f": script.Flag,
	"c": script.Character,
	"e": script.Enum,
}

var typeTags = map[script.ArgumentType]string{
	script.Boolean:   "b",
	script.Variable:  "v",
	script.Flag:      "f",
	script.Character: "c",
	script.Enum:      "e",
}

const hexDigits = "0123456789abcdef"

// quote renders s as a string literal. Control bytes and bytes that are not
// part of valid UTF-8 are written as \xHH, so the literal is always valid
// UTF-8 text and any byte sequence survives a round trip.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	escapeTo(&b, s, '"')
	b.WriteByte('"')
	return b.String()
}

// quoteLabel renders a script header line.
func quoteLabel(label string) string {
	var b strings.Builder
	b.Grow(len(label) + 2)
	b.WriteByte('[')
	escapeTo(&b, label, ']')
	b.WriteByte(']')
	return b.String()
}

func escapeTo(b *strings.Builder, s string, closing byte) {
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			writeHexByte(b, s[i])
			i++
			continue
		}
		if size > 1 {
			b.WriteString(s[i : i+size])
			i += size
			continue
		}

		c := s[i]
		switch {
		case c == '\\':
			b.WriteString(`\\`)
		case c == closing:
			b.WriteByte('\\')
			b.WriteByte(c)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\r':
			b.WriteString(`\r`)
		case c == '\t':
			b.WriteString(`\t`)
		case c < 0x20 || c == 0x7f:
			writeHexByte(b, c)
		default:
			b.WriteByte(c)
		}
		i++
	}
}

func writeHexByte(b *strings.Builder, c byte) {
	b.WriteString(`\x`)
	b.WriteByte(hexDigits[c>>4])
	b.WriteByte(hexDigits[c&0x0f])
}

// unescape reads an escape sequence starting at s[i] == '\\' and returns
// the decoded byte and the number of bytes consumed.
func unescape(s string, i int) (byte, int, error) {
	if i+1 >= len(s) {
		return 0, 0, fmt.Errorf("unterminated escape sequence")
	}
	switch c := s[i+1]; c {
	case '\\', '"', ']':
		return c, 2, nil
	case 'n':
		return '\n', 2, nil
	case 'r':
		return '\r', 2, nil
	case 't':
		return '\t', 2, nil
	case 'x':
		if i+4 > len(s) {
			return 0, 0, fmt.Errorf("incomplete \\x escape")
		}
		v, err := strconv.ParseUint(s[i+2:i+4], 16, 8)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid \\x escape %q", s[i:i+4])
		}
		return byte(v), 4, nil
	default:
		return 0, 0, fmt.Errorf("unknown escape sequence \\%c", c)
	}
}

// formatNumber renders a numeric argument as a token.
func formatNumber(a script.Argument) string {
	n := strconv.FormatInt(int64(a.NumberValue()), 10)
	if tag, ok := typeTags[a.Type()]; ok {
		return tag + ":" + n
	}
	return n
}

// parseNumber parses a bare token into a numeric argument.
func parseNumber(tok string) (script.Argument, error) {
	typ := script.Integer
	body := tok
	if i := strings.IndexByte(tok, ':'); i >= 0 {
		tag := tok[:i]
		t, ok := tagTypes[tag]
		if !ok {
			return script.Argument{}, fmt.Errorf("unknown type tag %q", tag)
		}
		typ = t
		body = tok[i+1:]
	}

	if typ == script.Boolean {
		switch body {
		case "true":
			return script.NewNumber(typ, 1), nil
		case "false":
			return script.NewNumber(typ, 0), nil
		}
	}

	n, err := parseInt32(body)
	if err != nil {
		return script.Argument{}, err
	}
	return script.NewNumber(typ, n), nil
}

func parseInt32(s string) (int32, error) {
	digits, neg := s, false
	if strings.HasPrefix(digits, "-") {
		digits, neg = digits[1:], true
	} else if strings.HasPrefix(digits, "+") {
		digits = digits[1:]
	}

	base := 10
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		digits, base = digits[2:], 16
	}
	if digits == "" || digits[0] == '+' || digits[0] == '-' {
		return 0, fmt.Errorf("invalid number %q", s)
	}

	u, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	v := int64(u)
	if u > 1<<32 {
		return 0, fmt.Errorf("number %q out of range", s)
	}
	if neg {
		v = -v
	}
	if v < -1<<31 || v > 1<<31-1 {
		return 0, fmt.Errorf("number %q out of range", s)
	}
	return int32(v), nil
}
