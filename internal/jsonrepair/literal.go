package jsonrepair

import (
	"fmt"
	"strconv"
	"strings"
)

// parseLiteral is the permissive middle rung of the ladder: a literal
// expression parser that accepts JSON plus the near-JSON dialects models
// produce, in particular single-quoted strings, unquoted identifier keys and
// values, and Python's True/False/None. It rejects trailing commas and
// anything it cannot account for; the caller falls through to the next rung.
func parseLiteral(s string) (any, error) {
	p := &literalParser{input: s}
	p.skipSpace()
	val, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return nil, fmt.Errorf("trailing content at offset %d", p.pos)
	}
	return val, nil
}

type literalParser struct {
	input string
	pos   int
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t' || p.input[p.pos] == '\n') {
		p.pos++
	}
}

func (p *literalParser) peek() (byte, bool) {
	if p.pos >= len(p.input) {
		return 0, false
	}
	return p.input[p.pos], true
}

func (p *literalParser) parseValue() (any, error) {
	c, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("unexpected end of input")
	}

	switch {
	case c == '{':
		return p.parseObject()
	case c == '[':
		return p.parseArray()
	case c == '\'' || c == '"':
		return p.parseString(c)
	default:
		return p.parseBare()
	}
}

func (p *literalParser) parseObject() (map[string]any, error) {
	p.pos++ // consume '{'
	obj := make(map[string]any)

	p.skipSpace()
	if c, ok := p.peek(); ok && c == '}' {
		p.pos++
		return obj, nil
	}

	for {
		p.skipSpace()
		key, err := p.parseKey()
		if err != nil {
			return nil, err
		}

		p.skipSpace()
		if c, ok := p.peek(); !ok || c != ':' {
			return nil, fmt.Errorf("expected ':' after key %q at offset %d", key, p.pos)
		}
		p.pos++

		p.skipSpace()
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		obj[key] = val

		p.skipSpace()
		c, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("unterminated object")
		}
		switch c {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return obj, nil
		default:
			return nil, fmt.Errorf("unexpected %q in object at offset %d", c, p.pos)
		}
	}
}

func (p *literalParser) parseKey() (string, error) {
	c, ok := p.peek()
	if !ok {
		return "", fmt.Errorf("unexpected end of input in object key")
	}
	if c == '\'' || c == '"' {
		return p.parseString(c)
	}

	start := p.pos
	for p.pos < len(p.input) && isBareKeyByte(p.input[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return "", fmt.Errorf("empty object key at offset %d", p.pos)
	}
	return p.input[start:p.pos], nil
}

func (p *literalParser) parseArray() ([]any, error) {
	p.pos++ // consume '['
	arr := make([]any, 0)

	p.skipSpace()
	if c, ok := p.peek(); ok && c == ']' {
		p.pos++
		return arr, nil
	}

	for {
		p.skipSpace()
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		arr = append(arr, val)

		p.skipSpace()
		c, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("unterminated array")
		}
		switch c {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return arr, nil
		default:
			return nil, fmt.Errorf("unexpected %q in array at offset %d", c, p.pos)
		}
	}
}

func (p *literalParser) parseString(quote byte) (string, error) {
	p.pos++ // consume opening quote
	var b strings.Builder
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		switch c {
		case '\\':
			if p.pos+1 >= len(p.input) {
				return "", fmt.Errorf("dangling escape at offset %d", p.pos)
			}
			p.pos++
			switch esc := p.input[p.pos]; esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(esc)
			}
			p.pos++
		case quote:
			p.pos++
			return b.String(), nil
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", fmt.Errorf("unterminated string")
}

// parseBare reads an unquoted token and interprets it as a boolean, null,
// number, or plain string.
func (p *literalParser) parseBare() (any, error) {
	start := p.pos
	for p.pos < len(p.input) && !isDelimiterByte(p.input[p.pos]) {
		p.pos++
	}
	token := strings.TrimSpace(p.input[start:p.pos])
	if token == "" {
		return nil, fmt.Errorf("unexpected %q at offset %d", p.input[start], start)
	}

	switch token {
	case "true", "True":
		return true, nil
	case "false", "False":
		return false, nil
	case "null", "None", "nil":
		return nil, nil
	}

	if n, err := strconv.ParseFloat(token, 64); err == nil {
		return n, nil
	}
	return token, nil
}

func isBareKeyByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
		c == '_' || c == '-' || c == '$' || c == '.'
}

func isDelimiterByte(c byte) bool {
	switch c {
	case ',', ':', '{', '}', '[', ']', ' ', '\t', '\n', '\'', '"':
		return true
	}
	return false
}
