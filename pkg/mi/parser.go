package mi

import "strings"

// GDB/MI output grammar (info gdb 'GDB/MI Output Syntax'):
//
//	result-record  → [token] "^" result-class ("," result)*
//	async-record   → [token] ("*"|"="|"+") async-class ("," result)*
//	stream-record  → ("~"|"@"|"&") c-string
//	result         → variable "=" value
//	value          → c-string | tuple | list
//	tuple          → "{}" | "{" result ("," result)* "}"
//	list           → "[]" | "[" (value|result) ("," (value|result))* "]"
//
// Results inside a list keep their key, wrapped in a single-entry map, the
// way consumers of the repeated frame=/bkpt= forms expect.

// parseLine parses one line of MI output into a Record. The second return
// is false for blank or unrecognizable lines.
func parseLine(line string) (Record, bool) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return Record{}, false
	}
	if line == "(gdb)" || line == "(gdb) " {
		return Record{Type: RecordPrompt}, true
	}

	// Optional numeric token prefix; we never send tokens, but be lenient.
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == len(line) {
		return Record{}, false
	}
	rest := line[i:]

	switch rest[0] {
	case '^':
		msg, payload := parseClassRecord(rest[1:])
		return Record{Type: RecordResult, Message: msg, Payload: payload}, true
	case '*', '=', '+':
		msg, payload := parseClassRecord(rest[1:])
		return Record{Type: RecordNotify, Message: msg, Payload: payload}, true
	case '~':
		return Record{Type: RecordConsole, Payload: parseStreamText(rest[1:])}, true
	case '&':
		return Record{Type: RecordLog, Payload: parseStreamText(rest[1:])}, true
	case '@':
		return Record{Type: RecordTarget, Payload: parseStreamText(rest[1:])}, true
	default:
		// Unframed target output sometimes leaks onto the MI channel.
		return Record{Type: RecordTarget, Payload: rest}, true
	}
}

// parseClassRecord parses `class("," result)*`.
func parseClassRecord(s string) (string, interface{}) {
	comma := strings.IndexByte(s, ',')
	if comma < 0 {
		return s, nil
	}
	p := &parser{s: s[comma+1:]}
	return s[:comma], p.parseResults(0)
}

func parseStreamText(s string) string {
	p := &parser{s: s}
	if p.peek() != '"' {
		return s
	}
	return p.parseCString()
}

type parser struct {
	s   string
	pos int
}

func (p *parser) peek() byte {
	if p.pos >= len(p.s) {
		return 0
	}
	return p.s[p.pos]
}

func (p *parser) consume(c byte) bool {
	if p.peek() == c {
		p.pos++
		return true
	}
	return false
}

// parseResults parses `result ("," result)*` until end of input or the
// given closing delimiter.
func (p *parser) parseResults(close byte) map[string]interface{} {
	results := make(map[string]interface{})
	for p.pos < len(p.s) && p.peek() != close {
		key := p.parseKey()
		value := p.parseValue()
		if key != "" {
			results[key] = value
		}
		if !p.consume(',') {
			break
		}
	}
	return results
}

func (p *parser) parseKey() string {
	start := p.pos
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if c == '=' {
			key := p.s[start:p.pos]
			p.pos++
			return key
		}
		if c == ',' || c == '{' || c == '[' || c == '"' {
			break
		}
		p.pos++
	}
	p.pos = start
	return ""
}

func (p *parser) parseValue() interface{} {
	switch p.peek() {
	case '"':
		return p.parseCString()
	case '{':
		return p.parseTuple()
	case '[':
		return p.parseList()
	default:
		return p.parseBare()
	}
}

func (p *parser) parseCString() string {
	p.consume('"')
	var sb strings.Builder
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		p.pos++
		if c == '"' {
			break
		}
		if c != '\\' || p.pos >= len(p.s) {
			sb.WriteByte(c)
			continue
		}
		e := p.s[p.pos]
		p.pos++
		switch e {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '0':
			sb.WriteByte(0)
		default:
			// covers \" and \\ and anything GDB escapes literally
			sb.WriteByte(e)
		}
	}
	return sb.String()
}

func (p *parser) parseTuple() map[string]interface{} {
	p.consume('{')
	results := p.parseResults('}')
	p.consume('}')
	return results
}

func (p *parser) parseList() []interface{} {
	p.consume('[')
	list := []interface{}{}
	for p.pos < len(p.s) && p.peek() != ']' {
		if key := p.parseKey(); key != "" {
			list = append(list, map[string]interface{}{key: p.parseValue()})
		} else {
			list = append(list, p.parseValue())
		}
		if !p.consume(',') {
			break
		}
	}
	p.consume(']')
	return list
}

// parseBare reads an unquoted token, which MI only produces for a few
// legacy fields.
func (p *parser) parseBare() string {
	start := p.pos
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if c == ',' || c == '}' || c == ']' {
			break
		}
		p.pos++
	}
	return p.s[start:p.pos]
}
