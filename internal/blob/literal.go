package blob

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// ErrBlobParse matches every *ParseError.
var ErrBlobParse = errors.New("malformed blob")

// maxDepth bounds literal nesting.
const maxDepth = 512

// excerptRadius is how many bytes around a failure ParseError keeps.
const excerptRadius = 40

// keywords maps the accepted bare-word spellings to their decoded values.
var keywords = map[string]any{
	"true":      true,
	"True":      true,
	"false":     false,
	"False":     false,
	"null":      nil,
	"None":      nil,
	"undefined": nil,
}

// ParseError describes a literal that could not be decoded.
type ParseError struct {
	// Offset is the byte offset of the failure in the parsed text.
	Offset int
	// Excerpt is the text surrounding Offset.
	Excerpt string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed blob at offset %d: %v (near %q)", e.Offset, e.Err, e.Excerpt)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is reports whether target is ErrBlobParse.
func (e *ParseError) Is(target error) bool { return target == ErrBlobParse }

// NewParseError builds a ParseError whose excerpt is taken around offset.
func NewParseError(src string, offset int, err error) *ParseError {
	lo := offset - excerptRadius
	if lo < 0 {
		lo = 0
	}
	hi := offset + excerptRadius
	if hi > len(src) {
		hi = len(src)
	}
	if lo > hi {
		lo = hi
	}
	return &ParseError{Offset: offset, Excerpt: src[lo:hi], Err: err}
}

// ParseLiteral decodes a JavaScript-style object/array literal.
//
// Object keys may be quoted strings, bare identifiers or numbers. Strings may
// use single or double quotes. Trailing commas are accepted and array holes
// ("[1,,2]") decode as nil.
func ParseLiteral(src string) (any, error) {
	p := &literalParser{src: src}
	p.skipSpace()
	v, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.fail("unexpected trailing data")
	}
	return v, nil
}

type literalParser struct {
	src   string
	pos   int
	depth int
}

func (p *literalParser) fail(format string, args ...any) error {
	return NewParseError(p.src, p.pos, fmt.Errorf(format, args...))
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			p.pos++
		default:
			return
		}
	}
}

func (p *literalParser) peek() byte {
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *literalParser) value() (any, error) {
	if p.pos >= len(p.src) {
		return nil, p.fail("unexpected end of input")
	}
	switch c := p.peek(); {
	case c == '{':
		return p.object()
	case c == '[':
		return p.array()
	case c == '"' || c == '\'':
		return p.str()
	case c == '-' || c == '+' || c == '.' || isDigit(c):
		return p.number()
	case isIdentStart(c):
		word := p.ident()
		if v, ok := keywords[word]; ok {
			return v, nil
		}
		p.pos -= len(word)
		return nil, p.fail("unexpected identifier %q", word)
	default:
		return nil, p.fail("unexpected character %q", c)
	}
}

func (p *literalParser) enter() error {
	p.depth++
	if p.depth > maxDepth {
		return p.fail("nesting deeper than %d", maxDepth)
	}
	return nil
}

func (p *literalParser) object() (any, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer func() { p.depth-- }()

	p.pos++ // {
	obj := make(map[string]any)
	for {
		p.skipSpace()
		if p.peek() == '}' {
			p.pos++
			return obj, nil
		}

		key, err := p.key()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.peek() != ':' {
			return nil, p.fail("expected ':' after key %q", key)
		}
		p.pos++
		p.skipSpace()

		v, err := p.value()
		if err != nil {
			return nil, err
		}
		obj[key] = v

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return obj, nil
		default:
			return nil, p.fail("expected ',' or '}' in object")
		}
	}
}

func (p *literalParser) key() (string, error) {
	switch c := p.peek(); {
	case c == '"' || c == '\'':
		return p.str()
	case isIdentStart(c):
		return p.ident(), nil
	case isDigit(c):
		start := p.pos
		for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
			p.pos++
		}
		return p.src[start:p.pos], nil
	default:
		return "", p.fail("expected object key")
	}
}

func (p *literalParser) array() (any, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer func() { p.depth-- }()

	p.pos++ // [
	arr := []any{}
	for {
		p.skipSpace()
		switch p.peek() {
		case ']':
			p.pos++
			return arr, nil
		case ',':
			// hole
			p.pos++
			arr = append(arr, nil)
			continue
		}

		v, err := p.value()
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return arr, nil
		default:
			return nil, p.fail("expected ',' or ']' in array")
		}
	}
}

func (p *literalParser) ident() string {
	start := p.pos
	for p.pos < len(p.src) && isIdentPart(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *literalParser) number() (any, error) {
	start := p.pos
	if c := p.peek(); c == '-' || c == '+' {
		p.pos++
	}
	digits := p.digits()
	if p.peek() == '.' {
		p.pos++
		digits += p.digits()
	}
	if digits == 0 {
		return nil, p.fail("malformed number")
	}
	if c := p.peek(); c == 'e' || c == 'E' {
		p.pos++
		if c := p.peek(); c == '-' || c == '+' {
			p.pos++
		}
		if p.digits() == 0 {
			return nil, p.fail("malformed exponent")
		}
	}

	f, err := strconv.ParseFloat(p.src[start:p.pos], 64)
	if err != nil {
		p.pos = start
		return nil, p.fail("malformed number: %v", err)
	}
	return f, nil
}

func (p *literalParser) digits() int {
	n := 0
	for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
		p.pos++
		n++
	}
	return n
}

func (p *literalParser) str() (string, error) {
	quote := p.src[p.pos]
	p.pos++

	var b strings.Builder
	for {
		if p.pos >= len(p.src) {
			return "", p.fail("unterminated string")
		}
		c := p.src[p.pos]
		switch {
		case c == quote:
			p.pos++
			return b.String(), nil
		case c == '\\':
			p.pos++
			if err := p.escape(&b); err != nil {
				return "", err
			}
		default:
			r, size := utf8.DecodeRuneInString(p.src[p.pos:])
			b.WriteRune(r)
			p.pos += size
		}
	}
}

// escape decodes the escape sequence after a backslash into b.
func (p *literalParser) escape(b *strings.Builder) error {
	if p.pos >= len(p.src) {
		return p.fail("unterminated escape")
	}
	c := p.src[p.pos]
	p.pos++
	switch c {
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'n':
		b.WriteByte('\n')
	case 'r':
		b.WriteByte('\r')
	case 't':
		b.WriteByte('\t')
	case 'v':
		b.WriteByte('\v')
	case '0':
		b.WriteByte(0)
	case '\n':
		// line continuation
	case 'x':
		v, err := p.hex(2)
		if err != nil {
			return err
		}
		b.WriteRune(rune(v))
	case 'u':
		v, err := p.hex(4)
		if err != nil {
			return err
		}
		r := rune(v)
		if utf16.IsSurrogate(r) && strings.HasPrefix(p.src[p.pos:], `\u`) {
			save := p.pos
			p.pos += 2
			low, err := p.hex(4)
			if err == nil {
				if pair := utf16.DecodeRune(r, rune(low)); pair != utf8.RuneError {
					b.WriteRune(pair)
					return nil
				}
			}
			p.pos = save
		}
		b.WriteRune(r)
	default:
		r, size := utf8.DecodeRuneInString(p.src[p.pos-1:])
		b.WriteRune(r)
		p.pos += size - 1
	}
	return nil
}

func (p *literalParser) hex(n int) (uint64, error) {
	if p.pos+n > len(p.src) {
		return 0, p.fail("truncated escape")
	}
	v, err := strconv.ParseUint(p.src[p.pos:p.pos+n], 16, 32)
	if err != nil {
		return 0, p.fail("invalid escape %q", p.src[p.pos:p.pos+n])
	}
	p.pos += n
	return v, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }
