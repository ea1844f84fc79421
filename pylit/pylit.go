// Package pylit parses Python literals, as they appear in CSV files written
// by pandas for columns holding dicts or lists, e.g. "{2013: 5, 2014: 2}".
//
// Supported are dicts, sets, lists, tuples, strings (single or double quoted),
// ints, floats, None, True and False. Numpy scalar reprs like np.int64(5)
// are unwrapped to their argument.
//
// Values map to Go as follows: dict -> map[string]any (keys rendered as
// strings), set, list and tuple -> []any, int -> int64, float -> float64,
// str -> string, None -> nil, bool -> bool.
package pylit

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrSyntax = errors.New("syntax error")

// Parse parses a single literal.
func Parse(s string) (any, error) {
	p := &parser{s: s}
	p.skipSpace()
	v, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.i != len(p.s) {
		return nil, p.errorf("trailing data")
	}
	return v, nil
}

// ParseDict parses a literal, that must be a dict. The empty string is
// treated as an empty dict.
func ParseDict(s string) (map[string]any, error) {
	if strings.TrimSpace(s) == "" {
		return map[string]any{}, nil
	}
	v, err := Parse(s)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: want dict, got %T", ErrSyntax, v)
	}
	return m, nil
}

// ParseList parses a literal, that must be a list, tuple or set. The empty string
// is treated as an empty list.
func ParseList(s string) ([]any, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	v, err := Parse(s)
	if err != nil {
		return nil, err
	}
	l, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: want list, got %T", ErrSyntax, v)
	}
	return l, nil
}

type parser struct {
	s string
	i int
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w at offset %d: %s", ErrSyntax, p.i, fmt.Sprintf(format, args...))
}

func (p *parser) skipSpace() {
	for p.i < len(p.s) {
		switch p.s[p.i] {
		case ' ', '\t', '\n', '\r':
			p.i++
		default:
			return
		}
	}
}

func (p *parser) peek() byte {
	if p.i < len(p.s) {
		return p.s[p.i]
	}
	return 0
}

func (p *parser) value() (any, error) {
	switch c := p.peek(); {
	case c == 0:
		return nil, p.errorf("unexpected end of input")
	case c == '{':
		return p.dict()
	case c == '[':
		return p.sequence('[', ']')
	case c == '(':
		return p.sequence('(', ')')
	case c == '\'' || c == '"':
		return p.str()
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return p.number()
	case isIdentStart(c):
		return p.ident()
	default:
		return nil, p.errorf("unexpected character %q", c)
	}
}

func (p *parser) dict() (any, error) {
	p.i++ // {
	p.skipSpace()
	if p.peek() == '}' {
		p.i++
		return make(map[string]any), nil
	}
	k, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.peek() != ':' {
		return p.set(k)
	}
	result := make(map[string]any)
	for {
		key, err := p.key(k)
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.peek() != ':' {
			return nil, p.errorf("expected ':'")
		}
		p.i++
		p.skipSpace()
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		result[key] = v
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.i++
		case '}':
			p.i++
			return result, nil
		default:
			return nil, p.errorf("expected ',' or '}'")
		}
		p.skipSpace()
		if p.peek() == '}' {
			p.i++
			return result, nil
		}
		if k, err = p.value(); err != nil {
			return nil, err
		}
	}
}

// set parses the rest of a set literal, after its first element. Scalar
// duplicates are dropped, the first occurrence keeps its position.
func (p *parser) set(first any) (any, error) {
	var (
		result []any
		seen   = make(map[any]bool)
	)
	add := func(v any) {
		switch v.(type) {
		case string, int64, float64, bool, nil:
			if seen[v] {
				return
			}
			seen[v] = true
		}
		result = append(result, v)
	}
	add(first)
	for {
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.i++
		case '}':
			p.i++
			return result, nil
		default:
			return nil, p.errorf("expected ',' or '}'")
		}
		p.skipSpace()
		if p.peek() == '}' {
			p.i++
			return result, nil
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		add(v)
	}
}

func (p *parser) key(k any) (string, error) {
	switch t := k.(type) {
	case string:
		return t, nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		if t {
			return "True", nil
		}
		return "False", nil
	case nil:
		return "None", nil
	default:
		return "", p.errorf("unhashable dict key of type %T", k)
	}
}

func (p *parser) sequence(open, close byte) (any, error) {
	p.i++ // open
	result := []any{}
	for {
		p.skipSpace()
		if p.peek() == close {
			p.i++
			return result, nil
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		result = append(result, v)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.i++
		case close:
			p.i++
			return result, nil
		default:
			return nil, p.errorf("expected ',' or %q", close)
		}
	}
}

func (p *parser) str() (any, error) {
	quote := p.s[p.i]
	p.i++
	var sb strings.Builder
	for p.i < len(p.s) {
		c := p.s[p.i]
		switch {
		case c == quote:
			p.i++
			return sb.String(), nil
		case c == '\\':
			if p.i+1 >= len(p.s) {
				return nil, p.errorf("unterminated escape")
			}
			p.i++
			switch e := p.s[p.i]; e {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\', '\'', '"':
				sb.WriteByte(e)
			case 'x':
				if p.i+2 >= len(p.s) {
					return nil, p.errorf("short \\x escape")
				}
				n, err := strconv.ParseUint(p.s[p.i+1:p.i+3], 16, 8)
				if err != nil {
					return nil, p.errorf("invalid \\x escape")
				}
				sb.WriteRune(rune(n))
				p.i += 2
			case 'u':
				if p.i+4 >= len(p.s) {
					return nil, p.errorf("short \\u escape")
				}
				n, err := strconv.ParseUint(p.s[p.i+1:p.i+5], 16, 16)
				if err != nil {
					return nil, p.errorf("invalid \\u escape")
				}
				sb.WriteRune(rune(n))
				p.i += 4
			default:
				sb.WriteByte('\\')
				sb.WriteByte(e)
			}
			p.i++
		default:
			sb.WriteByte(c)
			p.i++
		}
	}
	return nil, p.errorf("unterminated string")
}

func (p *parser) number() (any, error) {
	start := p.i
	isFloat := false
	if c := p.peek(); c == '-' || c == '+' {
		p.i++
	}
loop:
	for p.i < len(p.s) {
		c := p.s[p.i]
		switch {
		case c >= '0' && c <= '9', c == '_':
		case c == '.', c == 'e', c == 'E':
			isFloat = true
		case (c == '-' || c == '+') && (p.s[p.i-1] == 'e' || p.s[p.i-1] == 'E'):
		default:
			break loop
		}
		p.i++
	}
	lit := strings.ReplaceAll(p.s[start:p.i], "_", "")
	if isFloat {
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return nil, p.errorf("invalid float %q", lit)
		}
		return f, nil
	}
	n, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		return nil, p.errorf("invalid int %q", lit)
	}
	return n, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdent(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9') || c == '.'
}

func (p *parser) ident() (any, error) {
	start := p.i
	for p.i < len(p.s) && isIdent(p.s[p.i]) {
		p.i++
	}
	name := p.s[start:p.i]
	switch name {
	case "None":
		return nil, nil
	case "True":
		return true, nil
	case "False":
		return false, nil
	case "nan":
		return nil, p.errorf("nan is not supported")
	}
	// np.int64(5), np.float64(0.5)
	if p.peek() != '(' {
		return nil, p.errorf("unknown name %q", name)
	}
	p.i++
	p.skipSpace()
	v, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.peek() != ')' {
		return nil, p.errorf("expected ')' after argument of %s", name)
	}
	p.i++
	return v, nil
}
