package sink

import (
	"fmt"
	"io"
	"strings"

	"github.com/raymyers/ralph-sqf/pkg/source"
)

// Token is a delivered token kept by a Recorder.
type Token struct {
	Kind     Kind            `yaml:"kind"`
	ID       int             `yaml:"id"`
	Text     string          `yaml:"text,omitempty"`
	Newlines int             `yaml:"newlines,omitempty"`
	Pos      source.Position `yaml:",inline"`
}

func (t Token) String() string {
	if t.Kind.IDBased() {
		return fmt.Sprintf("%s(%d) %s", t.Kind, t.ID, t.Pos)
	}
	if t.Text != "" {
		return fmt.Sprintf("%s(%q) %s", t.Kind, t.Text, t.Pos)
	}
	return fmt.Sprintf("%s %s", t.Kind, t.Pos)
}

// Skip is a skipped token or directive.
type Skip struct {
	Directive bool `yaml:"directive,omitempty"`
	Offset    int  `yaml:"offset"`
	Length    int  `yaml:"length"`
}

// Recorder keeps everything it receives.
type Recorder struct {
	Tokens  []Token
	Skipped []Skip
	Begins  int
	Ends    int
}

func (r *Recorder) Begin() { r.Begins++ }
func (r *Recorder) End()   { r.Ends++ }

func (r *Recorder) AcceptCommand(id int, pos source.Position) {
	r.Tokens = append(r.Tokens, Token{Kind: Command, ID: id, Pos: pos})
}

func (r *Recorder) AcceptLocalVariable(id int, pos source.Position) {
	r.Tokens = append(r.Tokens, Token{Kind: LocalVariable, ID: id, Pos: pos})
}

func (r *Recorder) AcceptGlobalVariable(id int, pos source.Position) {
	r.Tokens = append(r.Tokens, Token{Kind: GlobalVariable, ID: id, Pos: pos})
}

func (r *Recorder) AcceptLiteral(kind Kind, text string, pos source.Position) {
	r.Tokens = append(r.Tokens, Token{Kind: kind, Text: text, Pos: pos})
}

func (r *Recorder) AcceptWhitespace(pos source.Position) {
	r.Tokens = append(r.Tokens, Token{Kind: Whitespace, Pos: pos})
}

func (r *Recorder) AcceptComment(pos source.Position, newlines int) {
	r.Tokens = append(r.Tokens, Token{Kind: Comment, Newlines: newlines, Pos: pos})
}

func (r *Recorder) PreprocessorTokenSkipped(origOffset, origLength int) {
	r.Skipped = append(r.Skipped, Skip{Offset: origOffset, Length: origLength})
}

func (r *Recorder) PreprocessorDirectiveSkipped(origOffset, origLength int) {
	r.Skipped = append(r.Skipped, Skip{Directive: true, Offset: origOffset, Length: origLength})
}

// Significant returns the tokens that are neither whitespace nor comments.
func (r *Recorder) Significant() []Token {
	var out []Token
	for _, t := range r.Tokens {
		if t.Kind != Whitespace && t.Kind != Comment {
			out = append(out, t)
		}
	}
	return out
}

// Reset drops everything recorded.
func (r *Recorder) Reset() { *r = Recorder{} }

// Printer writes the preprocessed text. Comments are replaced by the
// newlines they contain unless KeepComments is set.
type Printer struct {
	Nop
	KeepComments bool

	w   io.Writer
	n   int64
	err error
}

// NewPrinter creates a printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) ForwardedText(kind Kind, text string, _ source.Position) {
	if p.err != nil {
		return
	}
	if kind == Comment && !p.KeepComments {
		text = strings.Repeat("\n", strings.Count(text, "\n"))
	}
	n, err := io.WriteString(p.w, text)
	p.n += int64(n)
	p.err = err
}

// Written returns the number of bytes written.
func (p *Printer) Written() int64 { return p.n }

// Err returns the first write error.
func (p *Printer) Err() error { return p.err }

// Tee forwards every call to each of its sinks in order. Text is forwarded
// to the sinks that observe it.
type Tee []Sink

func (t Tee) Begin() {
	for _, s := range t {
		s.Begin()
	}
}

func (t Tee) AcceptCommand(id int, pos source.Position) {
	for _, s := range t {
		s.AcceptCommand(id, pos)
	}
}

func (t Tee) AcceptLocalVariable(id int, pos source.Position) {
	for _, s := range t {
		s.AcceptLocalVariable(id, pos)
	}
}

func (t Tee) AcceptGlobalVariable(id int, pos source.Position) {
	for _, s := range t {
		s.AcceptGlobalVariable(id, pos)
	}
}

func (t Tee) AcceptLiteral(kind Kind, text string, pos source.Position) {
	for _, s := range t {
		s.AcceptLiteral(kind, text, pos)
	}
}

func (t Tee) AcceptWhitespace(pos source.Position) {
	for _, s := range t {
		s.AcceptWhitespace(pos)
	}
}

func (t Tee) AcceptComment(pos source.Position, newlines int) {
	for _, s := range t {
		s.AcceptComment(pos, newlines)
	}
}

func (t Tee) PreprocessorTokenSkipped(origOffset, origLength int) {
	for _, s := range t {
		s.PreprocessorTokenSkipped(origOffset, origLength)
	}
}

func (t Tee) PreprocessorDirectiveSkipped(origOffset, origLength int) {
	for _, s := range t {
		s.PreprocessorDirectiveSkipped(origOffset, origLength)
	}
}

func (t Tee) End() {
	for _, s := range t {
		s.End()
	}
}

func (t Tee) ForwardedText(kind Kind, text string, pos source.Position) {
	for _, s := range t {
		if o, ok := s.(TextObserver); ok {
			o.ForwardedText(kind, text, pos)
		}
	}
}
