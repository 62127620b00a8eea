package lexer

import "fmt"

// Category classifies a raw lexeme.
type Category int

const (
	CatNone Category = iota // not an accepting state
	CatEOF
	CatWhitespace
	CatNewline
	CatComment
	CatNumber
	CatString
	CatWord
	CatOperator
	CatDirective // '#' at the start of a line up to the end of the line
	CatBad       // a byte no lexeme starts with
)

var categoryNames = [...]string{
	CatNone:       "None",
	CatEOF:        "EOF",
	CatWhitespace: "Whitespace",
	CatNewline:    "Newline",
	CatComment:    "Comment",
	CatNumber:     "Number",
	CatString:     "String",
	CatWord:       "Word",
	CatOperator:   "Operator",
	CatDirective:  "Directive",
	CatBad:        "Bad",
}

func (c Category) String() string {
	if c >= 0 && int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// Lexeme is one scanned unit. Its text is the first Length bytes of the
// scanned buffer.
type Lexeme struct {
	Category Category
	Length   int
	Call     bool // word directly followed by '('
	Glued    bool // word directly followed by "##"
	Unclosed bool // string or block comment running to the end of input
}

// StartState selects the DFA entry point.
type StartState int

const (
	StartCode StartState = iota
	StartLine            // only blanks since the last newline; '#' opens a directive
)

// DecodeString strips the quotes of a string literal and collapses doubled
// quotes. Unclosed literals lose only their opening quote.
func DecodeString(text string) string {
	if text == "" {
		return ""
	}
	q := text[0]
	body := text[1:]
	if len(body) > 0 && body[len(body)-1] == q && closedString(text) {
		body = body[:len(body)-1]
	}
	out := make([]byte, 0, len(body))
	for i := 0; i < len(body); i++ {
		out = append(out, body[i])
		if body[i] == q && i+1 < len(body) && body[i+1] == q {
			i++
		}
	}
	return string(out)
}

// closedString reports whether the final quote of text closes the literal
// rather than being the first half of a doubled quote.
func closedString(text string) bool {
	q := text[0]
	n := 0
	for i := len(text) - 1; i > 0 && text[i] == q; i-- {
		n++
	}
	return n%2 == 1
}
