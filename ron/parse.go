package ron

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/zclconf/go-cty/cty"
)

// SyntaxError describes a problem in a document.
type SyntaxError struct {
	Pos Pos
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("ron: %s: %s", e.Pos, e.Msg)
}

// Parse parses a complete document. Leading `#![enable(...)]` attributes are
// accepted and ignored.
func Parse(src string) (Value, error) {
	p := parser{src: src, line: 1, col: 1}

	if err := p.skipAttributes(); err != nil {
		return Value{}, err
	}

	value, err := p.parseValue()
	if err != nil {
		return Value{}, err
	}

	if err := p.skipSpace(); err != nil {
		return Value{}, err
	}

	if !p.eof() {
		return Value{}, p.errorf("unexpected %q after value", p.peek())
	}

	return value, nil
}

// MaxDepth is the deepest nesting of compound values a document may contain.
const MaxDepth = 128

type parser struct {
	src   string
	off   int
	line  int
	col   int
	depth int
}

func (p *parser) errorf(format string, args ...any) *SyntaxError {
	return &SyntaxError{Pos: p.pos(), Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) pos() Pos {
	return Pos{Line: p.line, Column: p.col}
}

func (p *parser) eof() bool {
	return p.off >= len(p.src)
}

func (p *parser) peek() rune {
	if p.eof() {
		return 0
	}

	r, _ := utf8.DecodeRuneInString(p.src[p.off:])
	return r
}

func (p *parser) peekAt(n int) byte {
	if p.off+n >= len(p.src) {
		return 0
	}

	return p.src[p.off+n]
}

func (p *parser) next() rune {
	r, size := utf8.DecodeRuneInString(p.src[p.off:])
	p.off += size

	if r == '\n' {
		p.line++
		p.col = 1
	} else {
		p.col++
	}

	return r
}

func (p *parser) skipSpace() error {
	for !p.eof() {
		switch {
		case unicode.IsSpace(p.peek()):
			p.next()

		case strings.HasPrefix(p.src[p.off:], "//"):
			for !p.eof() && p.peek() != '\n' {
				p.next()
			}

		case strings.HasPrefix(p.src[p.off:], "/*"):
			if err := p.skipBlockComment(); err != nil {
				return err
			}

		default:
			return nil
		}
	}

	return nil
}

// block comments may be nested
func (p *parser) skipBlockComment() error {
	start := p.pos()
	depth := 0

	for !p.eof() {
		switch {
		case strings.HasPrefix(p.src[p.off:], "/*"):
			p.next()
			p.next()
			depth++

		case strings.HasPrefix(p.src[p.off:], "*/"):
			p.next()
			p.next()
			depth--

			if depth == 0 {
				return nil
			}

		default:
			p.next()
		}
	}

	return &SyntaxError{Pos: start, Msg: "unterminated block comment"}
}

func (p *parser) skipAttributes() error {
	for {
		if err := p.skipSpace(); err != nil {
			return err
		}

		if !strings.HasPrefix(p.src[p.off:], "#![") {
			return nil
		}

		depth := 0
		for !p.eof() {
			r := p.next()
			if r == '[' {
				depth++
			}

			if r == ']' {
				depth--
				if depth == 0 {
					break
				}
			}
		}

		if depth != 0 {
			return p.errorf("unterminated attribute")
		}
	}
}

func (p *parser) expect(r rune) error {
	if err := p.skipSpace(); err != nil {
		return err
	}

	if p.eof() {
		return p.errorf("expected %q, got end of input", r)
	}

	if p.peek() != r {
		return p.errorf("expected %q, got %q", r, p.peek())
	}

	p.next()
	return nil
}

func (p *parser) parseValue() (Value, error) {
	p.depth++
	defer func() { p.depth-- }()

	if p.depth > MaxDepth {
		return Value{}, p.errorf("value exceeds maximum nesting depth of %d", MaxDepth)
	}

	if err := p.skipSpace(); err != nil {
		return Value{}, err
	}

	if p.eof() {
		return Value{}, p.errorf("unexpected end of input")
	}

	pos := p.pos()
	r := p.peek()

	switch {
	case r == '"':
		text, err := p.parseString()
		return Value{Kind: KindString, Text: text, Pos: pos}, err

	case r == 'r' && (p.peekAt(1) == '"' || p.peekAt(1) == '#'):
		text, err := p.parseRawString()
		return Value{Kind: KindString, Text: text, Pos: pos}, err

	case r == 'b' && p.peekAt(1) == '\'':
		// byte literal
		p.next()
		char, err := p.parseChar()
		if err != nil {
			return Value{}, err
		}

		return Value{Kind: KindNumber, Number: cty.NumberIntVal(int64([]rune(char)[0])), Pos: pos}, nil

	case r == '\'':
		char, err := p.parseChar()
		return Value{Kind: KindChar, Text: char, Pos: pos}, err

	case r == '[':
		elems, err := p.parseSequence('[', ']')
		return Value{Kind: KindList, Elems: elems, Pos: pos}, err

	case r == '{':
		return p.parseMap()

	case r == '(':
		return p.parseParens("", pos)

	case r == '-' || r == '+' || r == '.' || ('0' <= r && r <= '9'):
		return p.parseNumber()

	case isIdentStart(r):
		ident := p.parseIdent()

		switch ident {
		case "true", "false":
			return Value{Kind: KindBool, Bool: ident == "true", Pos: pos}, nil

		case "inf", "NaN":
			return p.parseNamedNumber(ident, pos)
		}

		if err := p.skipSpace(); err != nil {
			return Value{}, err
		}

		if p.peek() == '(' {
			return p.parseParens(ident, pos)
		}

		return Value{Kind: KindUnit, Name: ident, Pos: pos}, nil

	default:
		return Value{}, p.errorf("unexpected %q", r)
	}
}

// parseParens parses the content of a unit, tuple or struct, optionally prefixed
// with a name.
func (p *parser) parseParens(name string, pos Pos) (Value, error) {
	if err := p.expect('('); err != nil {
		return Value{}, err
	}

	if err := p.skipSpace(); err != nil {
		return Value{}, err
	}

	if p.peek() == ')' {
		p.next()

		if name != "" {
			// a named tuple without any values, e.g. `Foo()`
			return Value{Kind: KindTuple, Name: name, Pos: pos}, nil
		}

		return Value{Kind: KindUnit, Pos: pos}, nil
	}

	if p.isFieldStart() {
		fields, err := p.parseFields()
		return Value{Kind: KindStruct, Name: name, Fields: fields, Pos: pos}, err
	}

	elems, err := p.parseElements(')')
	return Value{Kind: KindTuple, Name: name, Elems: elems, Pos: pos}, err
}

// isFieldStart checks if the input continues with `ident :` without consuming it.
func (p *parser) isFieldStart() bool {
	saved := *p
	defer func() { *p = saved }()

	if !isIdentStart(p.peek()) {
		return false
	}

	ident := p.parseIdent()
	if ident == "true" || ident == "false" {
		return false
	}

	if err := p.skipSpace(); err != nil {
		return false
	}

	return p.peek() == ':'
}

func (p *parser) parseFields() ([]Field, error) {
	var fields []Field

	for {
		if err := p.skipSpace(); err != nil {
			return nil, err
		}

		if p.peek() == ')' {
			p.next()
			return fields, nil
		}

		if !isIdentStart(p.peek()) {
			return nil, p.errorf("expected field name, got %q", p.peek())
		}

		name := p.parseIdent()

		if err := p.expect(':'); err != nil {
			return nil, err
		}

		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}

		for _, field := range fields {
			if field.Name == name {
				return nil, &SyntaxError{Pos: value.Pos, Msg: fmt.Sprintf("duplicate field %q", name)}
			}
		}

		fields = append(fields, Field{Name: name, Value: value})

		if done, err := p.listSeparator(')'); done || err != nil {
			return fields, err
		}
	}
}

func (p *parser) parseSequence(open, close rune) ([]Value, error) {
	if err := p.expect(open); err != nil {
		return nil, err
	}

	return p.parseElements(close)
}

func (p *parser) parseElements(close rune) ([]Value, error) {
	var values []Value

	for {
		if err := p.skipSpace(); err != nil {
			return nil, err
		}

		if p.peek() == close {
			p.next()
			return values, nil
		}

		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}

		values = append(values, value)

		if done, err := p.listSeparator(close); done || err != nil {
			return values, err
		}
	}
}

// listSeparator consumes either a comma or the closing delimiter.
// It returns true if the list was closed.
func (p *parser) listSeparator(close rune) (bool, error) {
	if err := p.skipSpace(); err != nil {
		return false, err
	}

	switch p.peek() {
	case ',':
		p.next()
		return false, nil

	case close:
		p.next()
		return true, nil

	default:
		if p.eof() {
			return false, p.errorf("expected ',' or %q, got end of input", close)
		}

		return false, p.errorf("expected ',' or %q, got %q", close, p.peek())
	}
}

func (p *parser) parseMap() (Value, error) {
	pos := p.pos()

	if err := p.expect('{'); err != nil {
		return Value{}, err
	}

	var entries []Entry

	for {
		if err := p.skipSpace(); err != nil {
			return Value{}, err
		}

		if p.peek() == '}' {
			p.next()
			return Value{Kind: KindMap, Entries: entries, Pos: pos}, nil
		}

		key, err := p.parseValue()
		if err != nil {
			return Value{}, err
		}

		if err := p.expect(':'); err != nil {
			return Value{}, err
		}

		value, err := p.parseValue()
		if err != nil {
			return Value{}, err
		}

		entries = append(entries, Entry{Key: key, Value: value})

		done, err := p.listSeparator('}')
		if err != nil {
			return Value{}, err
		}

		if done {
			return Value{Kind: KindMap, Entries: entries, Pos: pos}, nil
		}
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (p *parser) parseIdent() string {
	start := p.off

	for !p.eof() && isIdentPart(p.peek()) {
		p.next()
	}

	return p.src[start:p.off]
}

func (p *parser) parseString() (string, error) {
	start := p.pos()
	p.next()

	var b strings.Builder

	for {
		if p.eof() {
			return "", &SyntaxError{Pos: start, Msg: "unterminated string"}
		}

		r := p.next()
		switch r {
		case '"':
			return b.String(), nil

		case '\\':
			escaped, err := p.parseEscape()
			if err != nil {
				return "", err
			}

			b.WriteRune(escaped)

		default:
			b.WriteRune(r)
		}
	}
}

func (p *parser) parseRawString() (string, error) {
	start := p.pos()

	// skip the leading 'r'
	p.next()

	hashes := 0
	for p.peek() == '#' {
		p.next()
		hashes++
	}

	if p.peek() != '"' {
		return "", p.errorf("expected '\"' in raw string")
	}

	p.next()

	terminator := "\"" + strings.Repeat("#", hashes)

	idx := strings.Index(p.src[p.off:], terminator)
	if idx < 0 {
		return "", &SyntaxError{Pos: start, Msg: "unterminated raw string"}
	}

	text := p.src[p.off : p.off+idx]

	for range utf8.RuneCountInString(text + terminator) {
		p.next()
	}

	return text, nil
}

func (p *parser) parseChar() (string, error) {
	start := p.pos()
	p.next()

	if p.eof() {
		return "", &SyntaxError{Pos: start, Msg: "unterminated char"}
	}

	r := p.next()
	if r == '\\' {
		escaped, err := p.parseEscape()
		if err != nil {
			return "", err
		}

		r = escaped
	}

	if p.eof() || p.peek() != '\'' {
		return "", &SyntaxError{Pos: start, Msg: "char literal must contain exactly one character"}
	}

	p.next()

	return string(r), nil
}

func (p *parser) parseEscape() (rune, error) {
	if p.eof() {
		return 0, p.errorf("unterminated escape sequence")
	}

	switch r := p.next(); r {
	case '"', '\'', '\\', '/':
		return r, nil
	case 'n':
		return '\n', nil
	case 'r':
		return '\r', nil
	case 't':
		return '\t', nil
	case 'b':
		return '\b', nil
	case 'f':
		return '\f', nil
	case '0':
		return 0, nil

	case 'x':
		if p.off+2 > len(p.src) {
			return 0, p.errorf("invalid \\x escape")
		}

		code, err := strconv.ParseUint(p.src[p.off:p.off+2], 16, 8)
		if err != nil {
			return 0, p.errorf("invalid \\x escape")
		}

		p.next()
		p.next()

		return rune(code), nil

	case 'u':
		if p.peek() != '{' {
			return 0, p.errorf("expected '{' in unicode escape")
		}

		end := strings.IndexByte(p.src[p.off:], '}')
		if end < 0 {
			return 0, p.errorf("unterminated unicode escape")
		}

		digits := p.src[p.off+1 : p.off+end]
		code, err := strconv.ParseUint(strings.ReplaceAll(digits, "_", ""), 16, 32)
		if err != nil || !utf8.ValidRune(rune(code)) {
			return 0, p.errorf("invalid unicode escape %q", digits)
		}

		for range end + 1 {
			p.next()
		}

		return rune(code), nil

	default:
		return 0, p.errorf("unknown escape sequence \\%c", r)
	}
}

func (p *parser) parseNumber() (Value, error) {
	pos := p.pos()

	negative := false
	switch p.peek() {
	case '-':
		negative = true
		p.next()
	case '+':
		p.next()
	}

	if isIdentStart(p.peek()) {
		ident := p.parseIdent()
		value, err := p.parseNamedNumber(ident, pos)
		if err == nil && negative {
			value.Number = value.Number.Negate()
		}

		return value, err
	}

	if p.peek() == '0' {
		var base int
		switch p.peekAt(1) {
		case 'x':
			base = 16
		case 'b':
			base = 2
		case 'o':
			base = 8
		}

		if base != 0 {
			p.next()
			p.next()
			return p.parseRadixNumber(base, negative, pos)
		}
	}

	start := p.off
	for !p.eof() {
		r := p.peek()

		exponentSign := (r == '-' || r == '+') && p.off > start &&
			(p.src[p.off-1] == 'e' || p.src[p.off-1] == 'E')

		if ('0' <= r && r <= '9') || r == '_' || r == '.' || r == 'e' || r == 'E' || exponentSign {
			p.next()
			continue
		}

		break
	}

	text := strings.ReplaceAll(p.src[start:p.off], "_", "")
	if text == "" || text == "." {
		return Value{}, &SyntaxError{Pos: pos, Msg: "invalid number"}
	}

	if negative {
		text = "-" + text
	}

	number, err := cty.ParseNumberVal(text)
	if err != nil {
		return Value{}, &SyntaxError{Pos: pos, Msg: fmt.Sprintf("invalid number %q", text)}
	}

	return Value{Kind: KindNumber, Number: number, Pos: pos}, nil
}

func (p *parser) parseRadixNumber(base int, negative bool, pos Pos) (Value, error) {
	start := p.off
	for !p.eof() && (isIdentPart(p.peek())) {
		p.next()
	}

	digits := strings.ReplaceAll(p.src[start:p.off], "_", "")

	var value big.Int
	if _, ok := value.SetString(digits, base); !ok {
		return Value{}, &SyntaxError{Pos: pos, Msg: fmt.Sprintf("invalid base %d number %q", base, digits)}
	}

	if negative {
		value.Neg(&value)
	}

	return Value{Kind: KindNumber, Number: cty.NumberVal(new(big.Float).SetInt(&value)), Pos: pos}, nil
}

func (p *parser) parseNamedNumber(ident string, pos Pos) (Value, error) {
	switch ident {
	case "inf":
		return Value{Kind: KindNumber, Number: cty.PositiveInfinity, Pos: pos}, nil
	default:
		// cty can not represent NaN
		return Value{}, &SyntaxError{Pos: pos, Msg: fmt.Sprintf("unsupported number %q", ident)}
	}
}
