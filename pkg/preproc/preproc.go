// Package preproc is the SQF directive handler. It owns the macro table and
// the conditional-compilation stack, executes directives the scanner hands
// it, and pushes macro expansions and included files onto the stream stack
// so the scanner rescans them.
package preproc

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/raymyers/ralph-sqf/pkg/diag"
	"github.com/raymyers/ralph-sqf/pkg/include"
	"github.com/raymyers/ralph-sqf/pkg/macro"
	"github.com/raymyers/ralph-sqf/pkg/source"
)

// Options configures a Preprocessor.
type Options struct {
	Resolver    include.Resolver // nil disables #include
	Diagnostics diag.Listener
	Logger      *zap.Logger
	FileName    string   // root file name, used by __FILE__ and cycle checks
	Defines     []string // predefined macros, NAME or NAME=VALUE or NAME(P)=VALUE
	Undefines   []string // macro names removed after Defines, builtins included
	MaxDepth    int      // expansion nesting limit
}

// Preprocessor executes directives and expands macros for one pipeline. It
// is not safe for concurrent use.
type Preprocessor struct {
	opts     Options
	stack    *source.Stack
	diag     diag.Listener
	log      *zap.Logger
	table    *macro.Table
	expander *macro.Expander
	conds    conditions
}

// New creates a preprocessor pushing onto stack.
func New(stack *source.Stack, opts Options) *Preprocessor {
	p := &Preprocessor{
		opts:  opts,
		stack: stack,
		diag:  opts.Diagnostics,
		log:   opts.Logger,
	}
	if p.diag == nil {
		p.diag = diag.Discard
	}
	if p.log == nil {
		p.log = zap.NewNop()
	}
	p.Reset()
	return p
}

// Reset drops every macro and open conditional, reinstalls the builtins
// and configured defines, then applies the configured undefines.
func (p *Preprocessor) Reset() {
	p.table = macro.NewTable()
	p.expander = macro.NewExpander(p.table, p.diag, p.opts.MaxDepth)
	p.conds.reset()
	for _, def := range p.opts.Defines {
		name, value, _ := strings.Cut(def, "=")
		p.define(name+" "+value, macro.Site{File: p.opts.FileName, Line: diag.UnknownLine})
	}
	for _, name := range p.opts.Undefines {
		p.table.Undefine(strings.TrimSpace(name))
	}
}

// SetFileName changes the root file name reported by __FILE__.
func (p *Preprocessor) SetFileName(name string) { p.opts.FileName = name }

// Macros returns the macro table.
func (p *Preprocessor) Macros() *macro.Table { return p.table }

// Lookup returns the macro named name, or nil.
func (p *Preprocessor) Lookup(name string) *macro.Macro { return p.table.Lookup(name) }

// Active reports whether tokens are currently forwarded, that is whether no
// open conditional is skipping.
func (p *Preprocessor) Active() bool { return p.conds.active() }

// Depth returns the number of open conditionals.
func (p *Preprocessor) Depth() int { return p.conds.depth() }

// Expand expands the macro name used at site and pushes the result for
// rescanning. args is nil for a use without parentheses. It reports whether
// anything was pushed; when it was not, the caller treats name as plain
// text.
func (p *Preprocessor) Expand(name string, args []string, site macro.Site) bool {
	site.File = p.opts.FileName
	var hidden func(string) bool
	if top := p.stack.Top(); top != nil {
		hidden = top.Hidden
	}
	text, ok := p.expander.Call(name, args, site, hidden)
	if !ok {
		return false
	}
	if err := p.stack.PushExpansion(name, text); err != nil {
		p.report(diag.PreprocessorError, err.Error(), site)
		return false
	}
	p.log.Debug("macro expanded",
		zap.String("macro", name),
		zap.Int("args", len(args)),
		zap.Int("depth", p.stack.Depth()),
		zap.String("text", text))
	return true
}

// Paste joins the two operands of a ## outside any macro body and pushes
// the result for rescanning.
func (p *Preprocessor) Paste(left, right string, site macro.Site) bool {
	if err := p.stack.PushExpansion("##", left+right); err != nil {
		p.report(diag.PreprocessorError, err.Error(), site)
		return false
	}
	return true
}

// Finish reports conditionals still open at the end of the input.
func (p *Preprocessor) Finish(site macro.Site) {
	if n := p.conds.depth(); n > 0 {
		p.report(diag.PreprocessorError, fmt.Sprintf("%d unterminated #ifdef/#ifndef at end of input", n), site)
	}
}

func (p *Preprocessor) report(kind diag.Kind, msg string, site macro.Site) {
	p.diag.ProblemEncountered(kind, msg, site.Offset, site.Length, site.Line)
}
