package macro

import (
	"github.com/raymyers/ralph-sqf/pkg/diag"
)

// Issue is a problem found while parsing a body or an argument. Offset is
// relative to the start of the parsed text.
type Issue struct {
	Kind    diag.Kind
	Message string
	Offset  int
}

// Parse builds the segment tree of a macro body. Words equal to one of
// params become Argument placeholders. Parsing never fails; malformed input
// is kept as literal text and described by the returned issues.
func Parse(body string, params []string) (Segment, []Issue) {
	p := &bodyParser{src: body, params: make(map[string]int, len(params))}
	for i, name := range params {
		if _, dup := p.params[name]; !dup {
			p.params[name] = i
		}
	}
	segs := p.parseSequence(0)
	return collapse(segs), p.issues
}

type bodyParser struct {
	src    string
	pos    int
	params map[string]int
	issues []Issue
}

func (p *bodyParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *bodyParser) peekAt(offset int) byte {
	if p.pos+offset >= len(p.src) {
		return 0
	}
	return p.src[p.pos+offset]
}

// parseSequence parses segments until the end of input or, inside a
// parenthesized group (depth > 0), until an unconsumed ',' or ')'.
func (p *bodyParser) parseSequence(depth int) []Segment {
	var segs []Segment
	for p.pos < len(p.src) {
		c := p.peek()
		switch {
		case c == ',' || c == ')':
			if depth > 0 {
				return segs
			}
			segs = append(segs, Text(p.src[p.pos:p.pos+1]))
			p.pos++
		case c == '#' && p.peekAt(1) == '#':
			segs = p.parseGlue(segs)
		case c == '#':
			segs = append(segs, p.parseStringify())
		case c == '(':
			segs = append(segs, p.parseParens(depth))
		default:
			seg := p.parseStandard()
			if seg == nil {
				return segs
			}
			if w, ok := seg.(Word); ok && p.peek() == '(' {
				seg = p.parseInvocation(string(w), depth)
			}
			segs = append(segs, seg)
		}
	}
	return segs
}

// parseStandard parses one word, blank run, string literal, number or
// punctuation run. It returns nil at end of input or at a structural byte.
func (p *bodyParser) parseStandard() Segment {
	start := p.pos
	c := p.peek()
	switch {
	case c == 0 && p.pos >= len(p.src):
		return nil
	case isIdentStart(c):
		for p.pos < len(p.src) && isIdentContinue(p.peek()) {
			p.pos++
		}
		name := p.src[start:p.pos]
		if idx, ok := p.params[name]; ok {
			return Argument{Index: idx, Name: name}
		}
		return Word(name)
	case isDigit(c):
		for p.pos < len(p.src) && (isIdentContinue(p.peek()) || p.peek() == '.') {
			p.pos++
		}
		return Text(p.src[start:p.pos])
	case isBlank(c):
		for p.pos < len(p.src) && isBlank(p.peek()) {
			p.pos++
		}
		return Text(p.src[start:p.pos])
	case c == '"' || c == '\'':
		return p.parseString(c)
	case isStructural(c):
		return nil
	default:
		for p.pos < len(p.src) && isPunct(p.peek()) {
			p.pos++
		}
		return Text(p.src[start:p.pos])
	}
}

// parseString copies a string literal opened by quote verbatim. Doubled
// quotes stay inside.
func (p *bodyParser) parseString(quote byte) Segment {
	start := p.pos
	p.pos++ // opening quote
	for p.pos < len(p.src) {
		if p.peek() == quote {
			if p.peekAt(1) == quote {
				p.pos += 2
				continue
			}
			p.pos++
			return Text(p.src[start:p.pos])
		}
		p.pos++
	}
	p.issues = append(p.issues, Issue{Kind: diag.UnclosedString, Message: "unclosed string", Offset: start})
	return Text(p.src[start:p.pos])
}

// parseGlue pops the preceding segment (and the blanks before ##) as the
// left operand and parses the next standard segment as the right operand.
func (p *bodyParser) parseGlue(segs []Segment) []Segment {
	p.pos += 2
	g := Glue{}
	if n := len(segs); n > 0 {
		if t, ok := segs[n-1].(Text); ok && isAllBlank(string(t)) {
			g.LeftPad = string(t)
			segs = segs[:n-1]
		}
	}
	if n := len(segs); n > 0 {
		g.Left = segs[n-1]
		segs = segs[:n-1]
	}
	g.RightPad = p.skipBlanks()
	g.Right = p.parseOperand()
	return append(segs, g)
}

func (p *bodyParser) parseStringify() Segment {
	p.pos++
	s := Stringify{}
	s.Pad = p.skipBlanks()
	s.Operand = p.parseOperand()
	return s
}

// parseOperand parses the operand of # or ##: a standard segment, or
// nothing when a structural byte or another operator follows.
func (p *bodyParser) parseOperand() Segment {
	if p.peek() == '#' {
		return nil
	}
	return p.parseStandard()
}

func (p *bodyParser) skipBlanks() string {
	start := p.pos
	for p.pos < len(p.src) && isBlank(p.peek()) {
		p.pos++
	}
	return p.src[start:p.pos]
}

// parseGroups parses "(g1,g2,...)" starting at '('. The bool result is
// false if the closing parenthesis is missing.
func (p *bodyParser) parseGroups(depth int) ([]Segment, bool) {
	open := p.pos
	p.pos++ // '('
	var groups []Segment
	for {
		groups = append(groups, collapse(p.parseSequence(depth+1)))
		switch p.peek() {
		case ',':
			p.pos++
			continue
		case ')':
			p.pos++
			return groups, true
		}
		if p.pos >= len(p.src) {
			p.issues = append(p.issues, Issue{Kind: diag.UnclosedParenthesis, Message: "unclosed parenthesis", Offset: open})
			return groups, false
		}
	}
}

func (p *bodyParser) parseInvocation(name string, depth int) Segment {
	groups, closed := p.parseGroups(depth)
	if len(groups) == 1 && groups[0].Unexpanded() == "" {
		groups = nil
	}
	return Invocation{Name: name, Groups: groups, Open: !closed}
}

// parseParens keeps a parenthesized group that does not follow a word as
// literal parentheses around its (still parsed) contents.
func (p *bodyParser) parseParens(depth int) Segment {
	groups, closed := p.parseGroups(depth)
	seq := Sequence{Text("(")}
	for i, g := range groups {
		if i > 0 {
			seq = append(seq, Text(","))
		}
		seq = append(seq, g)
	}
	if closed {
		seq = append(seq, Text(")"))
	}
	return seq
}

func collapse(segs []Segment) Segment {
	switch len(segs) {
	case 0:
		return Text("")
	case 1:
		return segs[0]
	default:
		return Sequence(segs)
	}
}

func isIdentStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isIdentContinue(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func isAllBlank(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isBlank(s[i]) {
			return false
		}
	}
	return s != ""
}

// isStructural reports bytes the parser handles outside parseStandard.
func isStructural(c byte) bool {
	return c == '#' || c == '(' || c == ')' || c == ','
}

func isPunct(c byte) bool {
	return !isIdentContinue(c) && !isBlank(c) && !isStructural(c) && c != '"' && c != '\''
}

// IsIdentifier reports whether s is a bare identifier.
func IsIdentifier(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentContinue(s[i]) {
			return false
		}
	}
	return true
}
