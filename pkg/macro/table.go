// Package macro implements SQF preprocessor macros: the body segment tree,
// the case-sensitive macro table and expansion with argument binding,
// glue (##) and stringify (#).
package macro

import (
	"sort"
	"strconv"
	"strings"
)

// Macro is one definition.
type Macro struct {
	Name   string
	Params []string
	Body   Segment

	// Builtin, when set, computes the expansion from the expansion site.
	Builtin func(site Site) string
}

// Parameterized reports whether the macro takes arguments.
func (m *Macro) Parameterized() bool { return len(m.Params) > 0 }

// Definition renders the macro as a #define line.
func (m *Macro) Definition() string {
	var sb strings.Builder
	sb.WriteString("#define ")
	sb.WriteString(m.Name)
	if len(m.Params) > 0 {
		sb.WriteByte('(')
		sb.WriteString(strings.Join(m.Params, ","))
		sb.WriteByte(')')
	}
	if m.Builtin != nil {
		sb.WriteString(" <builtin>")
		return sb.String()
	}
	if body := unexpanded(m.Body); body != "" {
		sb.WriteByte(' ')
		sb.WriteString(body)
	}
	return sb.String()
}

// Site describes where an expansion happens, for builtins and diagnostics.
type Site struct {
	File   string
	Line   int
	Offset int
	Length int
}

// Table maps macro names to definitions. Names are case-sensitive, unlike
// every other SQF identifier.
type Table struct {
	macros map[string]*Macro
}

// NewTable returns a table holding only the builtin macros.
func NewTable() *Table {
	t := &Table{macros: make(map[string]*Macro)}
	for _, m := range builtins() {
		t.macros[m.Name] = m
	}
	return t
}

// Define installs m and reports whether it replaced an existing macro.
func (t *Table) Define(m *Macro) bool {
	_, exists := t.macros[m.Name]
	t.macros[m.Name] = m
	return exists
}

// DefineSimple parses body as an object-like macro and installs it.
func (t *Table) DefineSimple(name, body string) []Issue {
	seg, issues := Parse(body, nil)
	t.Define(&Macro{Name: name, Body: seg})
	return issues
}

// DefineFunction parses body with params and installs it.
func (t *Table) DefineFunction(name string, params []string, body string) []Issue {
	seg, issues := Parse(body, params)
	t.Define(&Macro{Name: name, Params: params, Body: seg})
	return issues
}

// Undefine removes name and reports whether it was defined.
func (t *Table) Undefine(name string) bool {
	_, exists := t.macros[name]
	delete(t.macros, name)
	return exists
}

// Lookup returns the macro named name, or nil.
func (t *Table) Lookup(name string) *Macro {
	return t.macros[name]
}

// IsDefined reports whether name is defined.
func (t *Table) IsDefined(name string) bool {
	_, ok := t.macros[name]
	return ok
}

// Len returns the number of macros, builtins included.
func (t *Table) Len() int { return len(t.macros) }

// Names returns the sorted macro names.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.macros))
	for name := range t.macros {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func builtins() []*Macro {
	return []*Macro{
		{
			Name: "__LINE__",
			Builtin: func(site Site) string {
				return strconv.Itoa(site.Line)
			},
		},
		{
			Name: "__FILE__",
			Builtin: func(site Site) string {
				return `"` + site.File + `"`
			},
		},
	}
}
