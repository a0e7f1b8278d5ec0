// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type (
	// ronTagged is a named RON value: an enum variant such as Clone(repository: "...")
	// or a named struct such as Package(name: "x"). Value is nil for unit variants.
	ronTagged struct {
		Name  string
		Value any
	}

	// RONSyntaxError reports a RON decoding failure with its 1-based position.
	RONSyntaxError struct {
		Line   int
		Column int
		Msg    string
	}

	ronParser struct {
		src   []byte
		pos   int
		line  int
		col   int
		depth int
	}
)

// maxRONDepth bounds the nesting of lists, maps, tuples and named values.
const maxRONDepth = 512

// Error implements the error interface.
func (e *RONSyntaxError) Error() string {
	return fmt.Sprintf("ron: line %d, column %d: %s", e.Line, e.Column, e.Msg)
}

// parseRON decodes a single RON value. Structs and maps become
// map[string]any, lists and tuples become []any, Some(x) becomes x and None
// becomes nil. Other named values become ronTagged.
func parseRON(data []byte) (any, error) {
	p := &ronParser{src: data, line: 1, col: 1}
	if err := p.skipSpace(); err != nil {
		return nil, err
	}
	if err := p.skipAttributes(); err != nil {
		return nil, err
	}
	v, err := p.value()
	if err != nil {
		return nil, err
	}
	if err := p.skipSpace(); err != nil {
		return nil, err
	}
	if !p.eof() {
		return nil, p.errorf("unexpected %q after top-level value", p.peek())
	}
	return v, nil
}

func (p *ronParser) errorf(format string, args ...any) error {
	return &RONSyntaxError{Line: p.line, Column: p.col, Msg: fmt.Sprintf(format, args...)}
}

func (p *ronParser) eof() bool { return p.pos >= len(p.src) }

func (p *ronParser) peek() rune {
	if p.eof() {
		return 0
	}
	r, _ := utf8.DecodeRune(p.src[p.pos:])
	return r
}

func (p *ronParser) peekAt(off int) byte {
	if p.pos+off >= len(p.src) {
		return 0
	}
	return p.src[p.pos+off]
}

func (p *ronParser) next() rune {
	r, size := utf8.DecodeRune(p.src[p.pos:])
	p.pos += size
	if r == '\n' {
		p.line++
		p.col = 1
	} else {
		p.col++
	}
	return r
}

func (p *ronParser) expect(r rune) error {
	if err := p.skipSpace(); err != nil {
		return err
	}
	if p.eof() {
		return p.errorf("expected %q, got end of input", r)
	}
	if got := p.peek(); got != r {
		return p.errorf("expected %q, got %q", r, got)
	}
	p.next()
	return nil
}

// skipSpace skips whitespace, line comments and nested block comments.
func (p *ronParser) skipSpace() error {
	for !p.eof() {
		c := p.peek()
		switch {
		case unicode.IsSpace(c):
			p.next()
		case c == '/' && p.peekAt(1) == '/':
			for !p.eof() && p.peek() != '\n' {
				p.next()
			}
		case c == '/' && p.peekAt(1) == '*':
			p.next()
			p.next()
			depth := 1
			for depth > 0 {
				if p.eof() {
					return p.errorf("unterminated block comment")
				}
				switch {
				case p.peek() == '/' && p.peekAt(1) == '*':
					p.next()
					p.next()
					depth++
				case p.peek() == '*' && p.peekAt(1) == '/':
					p.next()
					p.next()
					depth--
				default:
					p.next()
				}
			}
		default:
			return nil
		}
	}
	return nil
}

// skipAttributes skips inner attributes such as #![enable(implicit_some)].
func (p *ronParser) skipAttributes() error {
	for p.peek() == '#' && p.peekAt(1) == '!' {
		p.next()
		p.next()
		if err := p.expect('['); err != nil {
			return err
		}
		depth := 1
		for depth > 0 {
			if p.eof() {
				return p.errorf("unterminated attribute")
			}
			switch p.next() {
			case '[':
				depth++
			case ']':
				depth--
			}
		}
		if err := p.skipSpace(); err != nil {
			return err
		}
	}
	return nil
}

func (p *ronParser) value() (any, error) {
	if p.depth >= maxRONDepth {
		return nil, p.errorf("nesting exceeds %d levels", maxRONDepth)
	}
	p.depth++
	defer func() { p.depth-- }()

	if err := p.skipSpace(); err != nil {
		return nil, err
	}
	if p.eof() {
		return nil, p.errorf("unexpected end of input")
	}
	c := p.peek()
	switch {
	case c == '"':
		return p.quotedString()
	case c == 'r' && (p.peekAt(1) == '"' || p.peekAt(1) == '#'):
		return p.rawString()
	case c == '\'':
		return p.char()
	case c == '[':
		return p.list()
	case c == '{':
		return p.mapValue()
	case c == '(':
		return p.parenthesized()
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return p.number()
	case c == '_' || unicode.IsLetter(c):
		return p.named()
	default:
		return nil, p.errorf("unexpected %q", c)
	}
}

func (p *ronParser) ident() string {
	start := p.pos
	for !p.eof() {
		c := p.peek()
		if c != '_' && !unicode.IsLetter(c) && !unicode.IsDigit(c) {
			break
		}
		p.next()
	}
	return string(p.src[start:p.pos])
}

func (p *ronParser) named() (any, error) {
	name := p.ident()
	switch name {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "None":
		return nil, nil
	case "inf":
		return math.Inf(1), nil
	case "NaN":
		return math.NaN(), nil
	}
	if err := p.skipSpace(); err != nil {
		return nil, err
	}
	if p.peek() != '(' {
		return ronTagged{Name: name}, nil
	}
	inner, err := p.parenthesized()
	if err != nil {
		return nil, err
	}
	if tuple, ok := inner.([]any); ok && len(tuple) == 1 {
		inner = tuple[0]
	}
	if name == "Some" {
		return inner, nil
	}
	return ronTagged{Name: name, Value: inner}, nil
}

// parenthesized parses a struct body "(a: 1, b: 2)", a tuple "(1, 2)" or the
// unit value "()".
func (p *ronParser) parenthesized() (any, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	if err := p.skipSpace(); err != nil {
		return nil, err
	}
	if p.peek() == ')' {
		p.next()
		return nil, nil
	}
	if p.isFieldStart() {
		return p.structFields()
	}
	var items []any
	for {
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
		more, err := p.separator(')')
		if err != nil {
			return nil, err
		}
		if !more {
			return items, nil
		}
	}
}

// isFieldStart reports whether the input continues with "ident :".
func (p *ronParser) isFieldStart() bool {
	save := *p
	defer func() { *p = save }()
	c := p.peek()
	if c != '_' && !unicode.IsLetter(c) {
		return false
	}
	p.ident()
	if err := p.skipSpace(); err != nil {
		return false
	}
	return p.peek() == ':'
}

func (p *ronParser) structFields() (map[string]any, error) {
	out := make(map[string]any)
	for {
		if err := p.skipSpace(); err != nil {
			return nil, err
		}
		if !p.isFieldStart() {
			return nil, p.errorf("expected field name")
		}
		key := p.ident()
		if _, dup := out[key]; dup {
			return nil, p.errorf("duplicate field %q", key)
		}
		if err := p.expect(':'); err != nil {
			return nil, err
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		out[key] = v
		more, err := p.separator(')')
		if err != nil {
			return nil, err
		}
		if !more {
			return out, nil
		}
	}
}

// separator consumes "," or the closing delimiter. It reports whether another
// element follows; a trailing comma before the delimiter is accepted.
func (p *ronParser) separator(closing rune) (bool, error) {
	if err := p.skipSpace(); err != nil {
		return false, err
	}
	switch p.peek() {
	case ',':
		p.next()
		if err := p.skipSpace(); err != nil {
			return false, err
		}
		if p.peek() == closing {
			p.next()
			return false, nil
		}
		return true, nil
	case closing:
		p.next()
		return false, nil
	default:
		if p.eof() {
			return false, p.errorf("expected ',' or %q, got end of input", closing)
		}
		return false, p.errorf("expected ',' or %q, got %q", closing, p.peek())
	}
}

func (p *ronParser) list() ([]any, error) {
	if err := p.expect('['); err != nil {
		return nil, err
	}
	items := []any{}
	if err := p.skipSpace(); err != nil {
		return nil, err
	}
	if p.peek() == ']' {
		p.next()
		return items, nil
	}
	for {
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
		more, err := p.separator(']')
		if err != nil {
			return nil, err
		}
		if !more {
			return items, nil
		}
	}
}

func (p *ronParser) mapValue() (map[string]any, error) {
	if err := p.expect('{'); err != nil {
		return nil, err
	}
	out := make(map[string]any)
	if err := p.skipSpace(); err != nil {
		return nil, err
	}
	if p.peek() == '}' {
		p.next()
		return out, nil
	}
	for {
		k, err := p.value()
		if err != nil {
			return nil, err
		}
		key := fmt.Sprint(k)
		if _, dup := out[key]; dup {
			return nil, p.errorf("duplicate map key %q", key)
		}
		if err := p.expect(':'); err != nil {
			return nil, err
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		out[key] = v
		more, err := p.separator('}')
		if err != nil {
			return nil, err
		}
		if !more {
			return out, nil
		}
	}
}

func (p *ronParser) quotedString() (string, error) {
	p.next()
	var sb strings.Builder
	for {
		if p.eof() {
			return "", p.errorf("unterminated string")
		}
		c := p.next()
		switch c {
		case '"':
			return sb.String(), nil
		case '\\':
			r, err := p.escape()
			if err != nil {
				return "", err
			}
			sb.WriteRune(r)
		default:
			sb.WriteRune(c)
		}
	}
}

func (p *ronParser) escape() (rune, error) {
	if p.eof() {
		return 0, p.errorf("unterminated escape")
	}
	switch c := p.next(); c {
	case '"', '\\', '\'', '/':
		return c, nil
	case 'n':
		return '\n', nil
	case 'r':
		return '\r', nil
	case 't':
		return '\t', nil
	case '0':
		return 0, nil
	case 'b':
		return '\b', nil
	case 'f':
		return '\f', nil
	case 'x':
		return p.hexDigits(2)
	case 'u':
		if p.peek() != '{' {
			return p.hexDigits(4)
		}
		p.next()
		start := p.pos
		for !p.eof() && p.peek() != '}' {
			p.next()
		}
		if p.eof() {
			return 0, p.errorf("unterminated unicode escape")
		}
		digits := string(p.src[start:p.pos])
		p.next()
		n, err := strconv.ParseUint(digits, 16, 32)
		if err != nil || !utf8.ValidRune(rune(n)) {
			return 0, p.errorf("invalid unicode escape %q", digits)
		}
		return rune(n), nil
	default:
		return 0, p.errorf("unknown escape \\%c", c)
	}
}

func (p *ronParser) hexDigits(n int) (rune, error) {
	if p.pos+n > len(p.src) {
		return 0, p.errorf("truncated escape")
	}
	digits := string(p.src[p.pos : p.pos+n])
	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return 0, p.errorf("invalid escape digits %q", digits)
	}
	for range n {
		p.next()
	}
	return rune(v), nil
}

// rawString parses r"..." and r#"..."# forms.
func (p *ronParser) rawString() (string, error) {
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
	closing := "\"" + strings.Repeat("#", hashes)
	start := p.pos
	for {
		if p.eof() {
			return "", p.errorf("unterminated raw string")
		}
		if strings.HasPrefix(string(p.src[p.pos:]), closing) {
			s := string(p.src[start:p.pos])
			for range len(closing) {
				p.next()
			}
			return s, nil
		}
		p.next()
	}
}

func (p *ronParser) char() (string, error) {
	p.next()
	if p.eof() {
		return "", p.errorf("unterminated char")
	}
	c := p.next()
	if c == '\\' {
		r, err := p.escape()
		if err != nil {
			return "", err
		}
		c = r
	}
	if p.eof() || p.peek() != '\'' {
		return "", p.errorf("unterminated char")
	}
	p.next()
	return string(c), nil
}

func (p *ronParser) number() (any, error) {
	start := p.pos
	if c := p.peek(); c == '-' || c == '+' {
		p.next()
	}
	if p.peek() == 'i' {
		if name := p.ident(); name == "inf" {
			if p.src[start] == '-' {
				return math.Inf(-1), nil
			}
			return math.Inf(1), nil
		}
		return nil, p.errorf("invalid number")
	}
	for !p.eof() {
		c := p.peek()
		isExpSign := (c == '-' || c == '+') && p.pos > start && (p.src[p.pos-1] == 'e' || p.src[p.pos-1] == 'E') && !isPrefixedInt(p.src[start:p.pos])
		if !isExpSign && c != '_' && c != '.' && !unicode.IsDigit(c) && !unicode.IsLetter(c) {
			break
		}
		p.next()
	}
	lit := strings.ReplaceAll(string(p.src[start:p.pos]), "_", "")
	if isPrefixedInt([]byte(lit)) || !strings.ContainsAny(lit, ".eE") {
		n, err := strconv.ParseInt(lit, 0, 64)
		if err != nil {
			return nil, p.errorf("invalid integer %q", lit)
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return nil, p.errorf("invalid float %q", lit)
	}
	return f, nil
}

func isPrefixedInt(lit []byte) bool {
	s := strings.TrimLeft(string(lit), "+-")
	return len(s) > 1 && s[0] == '0' && strings.ContainsRune("xXoObB", rune(s[1]))
}
