// Package lexer scans SQF source into interned tokens. With preprocessing
// enabled it routes directives and macro uses to the directive handler and
// rescans whatever the handler pushes on the stream stack, so included files
// and macro expansions are tokenized exactly like the file itself.
package lexer

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/raymyers/ralph-sqf/pkg/diag"
	"github.com/raymyers/ralph-sqf/pkg/include"
	"github.com/raymyers/ralph-sqf/pkg/intern"
	"github.com/raymyers/ralph-sqf/pkg/macro"
	"github.com/raymyers/ralph-sqf/pkg/preproc"
	"github.com/raymyers/ralph-sqf/pkg/sink"
	"github.com/raymyers/ralph-sqf/pkg/source"
)

var (
	// ErrNotStarted is returned by Advance and Run before Start.
	ErrNotStarted = errors.New("lexer not started")
	// ErrRunning is returned by Start while a run is in progress.
	ErrRunning = errors.New("lexer already running")
)

// Options configures a Lexer.
type Options struct {
	Preprocess       bool // execute directives and expand macros
	PreserveNewlines bool // re-emit newlines that preprocessing removes
	Resolver         include.Resolver
	Diagnostics      diag.Listener
	Logger           *zap.Logger
	MaxDepth         int      // stream stack limit
	Defines          []string // NAME or NAME=VALUE, installed on every reset
	Undefines        []string // removed after the defines on every reset
}

// Preprocessor is what the lexer needs from the directive handler.
type Preprocessor interface {
	Active() bool
	Directive(text string, site macro.Site)
	Lookup(name string) *macro.Macro
	Expand(name string, args []string, site macro.Site) bool
	Paste(left, right string, site macro.Site) bool
	Finish(site macro.Site)
	SetFileName(name string)
	Macros() *macro.Table
	Reset()
}

var _ Preprocessor = (*preproc.Preprocessor)(nil)

// Lexer is one scanning pipeline. It is not safe for concurrent use; give
// each goroutine its own Lexer and share an intern.Global between them.
type Lexer struct {
	opts  Options
	in    *intern.Interner
	stack *source.Stack
	pp    Preprocessor
	track source.Tracker
	diag  diag.Listener
	log   *zap.Logger

	sink sink.Sink
	text sink.TextObserver
	name string
	done bool
	err  error
}

// New creates a lexer. A nil interner gets a private one.
func New(in *intern.Interner, opts Options) *Lexer {
	if in == nil {
		in = intern.New(nil, nil)
	}
	l := &Lexer{
		opts:  opts,
		in:    in,
		stack: source.NewStack(opts.MaxDepth),
		diag:  opts.Diagnostics,
		log:   opts.Logger,
	}
	if l.diag == nil {
		l.diag = diag.Discard
	}
	if l.log == nil {
		l.log = zap.NewNop()
	}
	l.pp = preproc.New(l.stack, preproc.Options{
		Resolver:    opts.Resolver,
		Diagnostics: l.diag,
		Logger:      l.log,
		Defines:     opts.Defines,
		Undefines:   opts.Undefines,
		MaxDepth:    opts.MaxDepth,
	})
	return l
}

// Interner returns the lexer's interner.
func (l *Lexer) Interner() *intern.Interner { return l.in }

// Macros returns the current macro table.
func (l *Lexer) Macros() *macro.Table { return l.pp.Macros() }

// Reset prepares the lexer for a new file: local names, open conditionals,
// nested streams and macros are dropped. Global names are kept.
func (l *Lexer) Reset() {
	l.in.Reset()
	l.stack.Reset()
	l.pp.Reset()
	l.track.Reset()
	l.sink = nil
	l.text = nil
	l.name = ""
	l.done = false
	l.err = nil
}

// Start begins scanning the content of r, delivering tokens to s. The whole
// of r is read up front.
func (l *Lexer) Start(name string, r io.Reader, s sink.Sink) error {
	if !l.stack.Empty() {
		return ErrRunning
	}
	if err := l.stack.PushReader(name, r); err != nil {
		return err
	}
	l.name = name
	l.sink = s
	l.text, _ = s.(sink.TextObserver)
	l.done = false
	l.err = nil
	l.pp.SetFileName(name)
	l.log.Debug("lexing started", zap.String("file", name), zap.Bool("preprocess", l.opts.Preprocess))
	s.Begin()
	return nil
}

// Run advances until the input is exhausted.
func (l *Lexer) Run() error {
	for {
		more, err := l.Advance()
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

// Lex resets the lexer and scans r completely.
func (l *Lexer) Lex(name string, r io.Reader, s sink.Sink) error {
	l.Reset()
	if err := l.Start(name, r, s); err != nil {
		return err
	}
	return l.Run()
}

// Advance processes one lexeme, or one exhausted stream, and reports
// whether there is more to do. The sink's End is called exactly once, when
// Advance first returns false.
func (l *Lexer) Advance() (bool, error) {
	if l.sink == nil {
		return false, ErrNotStarted
	}
	if l.done {
		return false, l.err
	}
	top := l.stack.Top()
	if top == nil {
		return false, l.fail(fmt.Errorf("stream stack empty while running: %w", source.ErrInternal))
	}
	start := StartCode
	if top.AtLineStart() {
		start = StartLine
	}
	lx := Scan(top.Rest(), start)
	if lx.Category == CatEOF {
		return l.pop()
	}
	offset, line := top.Offset(), top.Line()
	text := top.Text(lx.Length)
	switch lx.Category {
	case CatDirective:
		top.Advance(lx.Length)
		l.directive(text, offset, line)
	case CatWord:
		l.word(lx, text, offset, line)
	default:
		top.Advance(lx.Length)
		l.token(lx, text, offset, line)
	}
	return true, nil
}

// pop finishes the top stream. Exhausting the root ends the run.
func (l *Lexer) pop() (bool, error) {
	top := l.stack.Top()
	name := top.Name
	if l.stack.Depth() == 1 {
		site := l.site(top.Offset(), 0, top.Line())
		if l.opts.Preprocess {
			l.pp.Finish(site)
		}
		if err := l.stack.Pop(); err != nil {
			l.report(diag.PreprocessorError, err.Error(), site)
		}
		l.finish()
		l.log.Debug("lexing finished", zap.String("file", name), zap.Int("preprocessed", l.track.Preprocessed()))
		return false, nil
	}
	if err := l.stack.Pop(); err != nil {
		if errors.Is(err, source.ErrInternal) {
			return false, l.fail(err)
		}
		l.report(diag.PreprocessorError, err.Error(), l.site(0, 0, diag.UnknownLine))
	}
	l.log.Debug("stream popped", zap.String("name", name), zap.Int("depth", l.stack.Depth()))
	if l.stack.Depth() == 1 {
		l.track.Release()
	}
	return true, nil
}

func (l *Lexer) finish() {
	l.done = true
	l.sink.End()
}

// fail stops the run on corrupt internal state.
func (l *Lexer) fail(err error) error {
	l.report(diag.InternalError, err.Error(), macro.Site{Line: diag.UnknownLine})
	l.stack.Reset()
	l.track.Release()
	l.err = err
	if !l.done {
		l.finish()
	}
	return err
}

func (l *Lexer) active() bool {
	return !l.opts.Preprocess || l.pp.Active()
}

// site maps a lexeme of the top stream to original coordinates.
func (l *Lexer) site(offset, length, line int) macro.Site {
	sp := l.track.Site(offset, length)
	return macro.Site{File: l.name, Line: l.track.Line(line), Offset: sp.Offset, Length: sp.Length}
}

// anchor pins original coordinates to site once a nested stream is live.
func (l *Lexer) anchor(site macro.Site) {
	if l.stack.Depth() > 1 {
		l.track.Anchor(source.Span{Offset: site.Offset, Length: site.Length}, site.Line)
	}
}

func (l *Lexer) report(kind diag.Kind, msg string, site macro.Site) {
	l.diag.ProblemEncountered(kind, msg, site.Offset, site.Length, site.Line)
}

func (l *Lexer) directive(text string, offset, line int) {
	site := l.site(offset, len(text), line)
	l.sink.PreprocessorDirectiveSkipped(site.Offset, site.Length)
	if l.opts.PreserveNewlines {
		l.synthetic(strings.Count(text, "\n"), offset)
	}
	if !l.opts.Preprocess {
		return
	}
	l.pp.Directive(text, site)
	l.anchor(site)
}

// word handles an identifier: a paste, a macro use or a plain name.
func (l *Lexer) word(lx Lexeme, name string, offset, line int) {
	top := l.stack.Top()
	if l.opts.Preprocess && l.pp.Active() {
		if lx.Glued {
			l.paste(lx, name, offset, line)
			return
		}
		if m := l.pp.Lookup(name); m != nil && !top.Hidden(name) {
			if l.expand(m, lx, name, offset, line) {
				return
			}
		}
	}
	top.Advance(lx.Length)
	if !l.active() {
		l.skip(offset, lx.Length, line)
		return
	}
	l.identifier(name, offset)
}

// expand replaces a macro use by its expansion. It returns false if name
// is to be treated as a plain identifier.
func (l *Lexer) expand(m *macro.Macro, lx Lexeme, name string, offset, line int) bool {
	top := l.stack.Top()
	length := lx.Length
	var args []string
	if m.Parameterized() {
		if !lx.Call {
			return false
		}
		n, ok := ScanCall(top.Rest()[lx.Length:])
		if !ok {
			site := l.site(offset, lx.Length+n, line)
			l.report(diag.UnclosedParenthesis, fmt.Sprintf("arguments of macro %s are not closed", name), site)
			top.Advance(lx.Length)
			l.literal(sink.UnexpandedMacroReference, name, name, offset)
			return true
		}
		call := top.Text(lx.Length + n)
		args = macro.SplitArguments(call[lx.Length+1 : len(call)-1])
		length += n
	}
	span := top.Text(length)
	site := l.site(offset, length, line)
	top.Advance(length)
	if l.opts.PreserveNewlines {
		l.synthetic(strings.Count(span, "\n"), offset)
	}
	if l.pp.Expand(name, args, site) {
		l.anchor(site)
		return true
	}
	l.literal(sink.UnexpandedMacroReference, span, span, offset)
	return true
}

// paste handles name##right outside a macro body.
func (l *Lexer) paste(lx Lexeme, name string, offset, line int) {
	top := l.stack.Top()
	rest := top.Rest()[lx.Length+2:]
	right := ""
	if r := Scan(rest, StartCode); r.Category == CatWord || r.Category == CatNumber {
		right = string(rest[:r.Length])
	}
	length := lx.Length + 2 + len(right)
	site := l.site(offset, length, line)
	top.Advance(length)
	if l.pp.Paste(name, right, site) {
		l.anchor(site)
	}
}

func (l *Lexer) identifier(name string, offset int) {
	if id, ok := l.in.Command(name); ok {
		l.sink.AcceptCommand(id, l.forward(sink.Command, name, offset))
		return
	}
	id := l.in.ToID(name)
	if intern.IsLocal(name) {
		l.sink.AcceptLocalVariable(id, l.forward(sink.LocalVariable, name, offset))
		return
	}
	l.sink.AcceptGlobalVariable(id, l.forward(sink.GlobalVariable, name, offset))
}

func (l *Lexer) token(lx Lexeme, text string, offset, line int) {
	if !l.active() {
		l.skip(offset, lx.Length, line)
		if l.opts.PreserveNewlines {
			l.synthetic(strings.Count(text, "\n"), offset)
		}
		return
	}
	switch lx.Category {
	case CatWhitespace, CatNewline:
		l.sink.AcceptWhitespace(l.forward(sink.Whitespace, text, offset))
	case CatComment:
		l.sink.AcceptComment(l.forward(sink.Comment, text, offset), strings.Count(text, "\n"))
	case CatNumber:
		l.literal(sink.NumberLiteral, text, text, offset)
	case CatString:
		if lx.Unclosed {
			l.report(diag.UnclosedString, "string literal is not closed", l.site(offset, lx.Length, line))
		}
		l.literal(sink.StringLiteral, DecodeString(text), text, offset)
	case CatOperator:
		id, ok := l.in.Command(text)
		if !ok {
			l.report(diag.InvalidCharacter, fmt.Sprintf("operator %q is not a known command", text), l.site(offset, lx.Length, line))
			return
		}
		l.sink.AcceptCommand(id, l.forward(sink.Command, text, offset))
	case CatBad:
		l.report(diag.InvalidCharacter, fmt.Sprintf("invalid character %q", text), l.site(offset, lx.Length, line))
	}
}

// literal delivers a text token; raw is the text it was scanned from.
func (l *Lexer) literal(kind sink.Kind, value, raw string, offset int) {
	l.sink.AcceptLiteral(kind, value, l.forward(kind, raw, offset))
}

// forward returns the position of a delivered token and passes its text to
// a text observer.
func (l *Lexer) forward(kind sink.Kind, text string, offset int) source.Position {
	pos := l.track.Next(offset, len(text))
	if l.text != nil {
		l.text.ForwardedText(kind, text, pos)
	}
	return pos
}

func (l *Lexer) skip(offset, length, line int) {
	site := l.site(offset, length, line)
	l.sink.PreprocessorTokenSkipped(site.Offset, site.Length)
}

// synthetic emits n newlines that exist only in the preprocessed text.
func (l *Lexer) synthetic(n, offset int) {
	if n == 0 {
		return
	}
	text := strings.Repeat("\n", n)
	pos := l.track.Synthetic(offset, len(text))
	if l.text != nil {
		l.text.ForwardedText(sink.Whitespace, text, pos)
	}
	l.sink.AcceptWhitespace(pos)
}
