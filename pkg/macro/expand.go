package macro

import (
	"fmt"
	"strings"

	"github.com/raymyers/ralph-sqf/pkg/diag"
)

// DefaultMaxDepth bounds how many macros may be expanding inside each other.
const DefaultMaxDepth = 200

// Expander expands macros from a table. Problems are reported at the
// expansion site.
type Expander struct {
	table    *Table
	listener diag.Listener
	maxDepth int
}

// NewExpander creates an expander over t. A nil listener discards problems.
func NewExpander(t *Table, listener diag.Listener, maxDepth int) *Expander {
	if listener == nil {
		listener = diag.Discard
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Expander{table: t, listener: listener, maxDepth: maxDepth}
}

// Call expands the macro name at site. args holds the raw text of each
// call-site argument and is nil for a use without parentheses; it is
// ignored for object-like macros. Names for which hidden returns true are
// left alone. The bool result is false when name is not an expandable macro
// or the arguments do not fit; in the latter case a problem has been
// reported.
func (e *Expander) Call(name string, args []string, site Site, hidden func(string) bool) (string, bool) {
	x := &expansion{
		table:    e.table,
		listener: e.listener,
		site:     site,
		hidden:   hidden,
		hide:     make(map[string]bool),
		maxDepth: e.maxDepth,
	}
	m := x.lookup(name)
	if m == nil {
		return "", false
	}
	switch {
	case len(m.Params) == 0:
		return x.expandMacro(m, nil, name), true
	case args == nil:
		// A parameterized macro named without parentheses is not a call.
		return "", false
	case len(args) == 0:
		x.noArguments(m)
		return "", false
	case len(args) != len(m.Params):
		x.wrongCount(m, len(args))
		return "", false
	}
	segs := make([]Segment, len(args))
	for i, arg := range args {
		var issues []Issue
		segs[i], issues = Parse(arg, nil)
		for _, issue := range issues {
			x.report(issue.Kind, fmt.Sprintf("%s in argument %d of %s", issue.Message, i+1, name))
		}
	}
	return x.expandMacro(m, segs, name), true
}

// expansion is the state of one top-level expansion.
type expansion struct {
	table    *Table
	listener diag.Listener
	site     Site
	hidden   func(string) bool
	hide     map[string]bool // macros currently being expanded
	depth    int
	maxDepth int
}

// lookup returns the macro name refers to, or nil if it is undefined or
// must not be expanded here.
func (x *expansion) lookup(name string) *Macro {
	if x.hide[name] || (x.hidden != nil && x.hidden(name)) {
		return nil
	}
	return x.table.Lookup(name)
}

func (x *expansion) expandMacro(m *Macro, args []Segment, name string) string {
	if m.Builtin != nil {
		return m.Builtin(x.site)
	}
	if x.depth >= x.maxDepth {
		x.report(diag.PreprocessorError, fmt.Sprintf("macro %s nested too deeply", name))
		return name
	}
	bound := make([]Segment, len(args))
	for i, a := range args {
		bound[i] = closure{seg: a, hide: x.snapshot()}
	}
	x.hide[name] = true
	x.depth++
	out := Bind(m.Body, bound).expand(x)
	x.depth--
	delete(x.hide, name)
	return out
}

func (x *expansion) snapshot() map[string]bool {
	hide := make(map[string]bool, len(x.hide))
	for name := range x.hide {
		hide[name] = true
	}
	return hide
}

func (x *expansion) noArguments(m *Macro) {
	x.report(diag.NoArgumentsProvided,
		fmt.Sprintf("macro %s requires %d arguments, none given", m.Name, len(m.Params)))
}

func (x *expansion) wrongCount(m *Macro, got int) {
	x.report(diag.WrongArgumentCount,
		fmt.Sprintf("macro %s requires %d arguments, got %d", m.Name, len(m.Params), got))
}

func (x *expansion) report(kind diag.Kind, msg string) {
	x.listener.ProblemEncountered(kind, msg, x.site.Offset, x.site.Length, x.site.Line)
}

// closure is an argument bound at a call site. It expands with the hide set
// of the call site, not of the macro body it was substituted into.
type closure struct {
	seg  Segment
	hide map[string]bool
}

func (c closure) Unexpanded() string     { return c.seg.Unexpanded() }
func (c closure) bind([]Segment) Segment { return c }

func (c closure) expand(x *expansion) string {
	saved := x.hide
	x.hide = c.hide
	out := c.seg.expand(x)
	x.hide = saved
	return out
}

// SplitArguments splits the text between the parentheses of a macro call
// into its arguments. Commas nested in parentheses or inside string
// literals do not split. Blank text yields no arguments.
func SplitArguments(text string) []string {
	if strings.TrimSpace(text) == "" {
		return []string{}
	}
	var (
		args  []string
		depth int
		quote byte
		start int
	)
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case c == ',' && depth == 0:
			args = append(args, text[start:i])
			start = i + 1
		}
	}
	return append(args, text[start:])
}
