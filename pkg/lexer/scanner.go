package lexer

import "unicode/utf8"

// Scan returns the longest lexeme at the start of buf. An empty buf yields
// CatEOF. Bytes that start no lexeme come back as a CatBad lexeme covering
// one UTF-8 sequence.
func Scan(buf []byte, start StartState) Lexeme {
	if len(buf) == 0 {
		return Lexeme{Category: CatEOF}
	}
	s := sCode
	if start == StartLine {
		s = sLine
	}
	var last Lexeme
	for i := 0; i < len(buf); i++ {
		s = transitions[s][classOf[buf[i]]]
		if s == sDead {
			break
		}
		if cat := accepting[s]; cat != CatNone {
			last = Lexeme{Category: cat, Length: i + 1, Unclosed: unclosed[s]}
		}
	}
	if last.Category == CatNone {
		_, n := utf8.DecodeRune(buf)
		return Lexeme{Category: CatBad, Length: n}
	}
	if last.Category == CatWord {
		rest := buf[last.Length:]
		last.Call = len(rest) > 0 && rest[0] == '('
		last.Glued = len(rest) > 1 && rest[0] == '#' && rest[1] == '#'
	}
	return last
}

// ScanCall measures the argument list at the start of buf, which must begin
// with '('. Parentheses nest; string literals and comments are skipped. It
// returns the length including the closing parenthesis and false if the
// list is never closed.
func ScanCall(buf []byte) (int, bool) {
	if len(buf) == 0 || buf[0] != '(' {
		return 0, false
	}
	depth := 0
	for i := 0; i < len(buf); {
		switch buf[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		case '"', '\'', '/':
			lx := Scan(buf[i:], StartCode)
			if lx.Category == CatString || lx.Category == CatComment {
				i += lx.Length
				continue
			}
		}
		i++
	}
	return len(buf), false
}
